// Package baselib is the built-in core-tier behavior module: the innermost
// handler on every standard verb's delegation chain. Game and library
// modules at lower tier numbers override, augment, or delegate back to
// these implementations; baselib itself never delegates further.
package baselib

import (
	"github.com/nathoo/fabula/engine/module"
	"github.com/nathoo/fabula/types"
)

// Name is the module name entities use to reference baselib behaviors.
const Name = "baselib"

// New builds the core module. The capability maps are fixed here, at
// construction, so dispatch never inspects anything at runtime.
func New() *module.Module {
	return &module.Module{
		Name: Name,
		Vocab: &types.Vocabulary{
			Verbs: []types.VerbDef{
				{Word: "take", Synonyms: []string{"get", "grab", "carry"}, Event: "take", Object: types.ObjectRequired},
				{Word: "drop", Synonyms: []string{"discard"}, Event: "drop", Object: types.ObjectRequired},
				{Word: "go", Synonyms: []string{"walk", "run", "head"}, Event: "go", Object: types.ObjectRequired},
				{Word: "look", Synonyms: []string{"l"}, Event: "look", Object: types.ObjectOptional},
				{Word: "examine", Synonyms: []string{"x", "inspect", "study"}, Event: "examine", Object: types.ObjectRequired},
				{Word: "inventory", Synonyms: []string{"i", "inv"}, Event: "inventory", Object: types.ObjectForbidden},
				{Word: "open", Event: "open", Object: types.ObjectRequired},
				{Word: "close", Synonyms: []string{"shut"}, Event: "close", Object: types.ObjectRequired},
				{Word: "wait", Synonyms: []string{"z"}, Event: "wait", Object: types.ObjectForbidden},
			},
		},
		Handlers: map[string]module.Handler{
			"take":      handleTake,
			"drop":      handleDrop,
			"go":        handleGo,
			"look":      handleLook,
			"examine":   handleExamine,
			"inventory": handleInventory,
			"open":      handleOpen,
			"close":     handleClose,
			"wait":      handleWait,
		},
	}
}
