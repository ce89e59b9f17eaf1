package world

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/nathoo/fabula/types"
)

// Reasons an individual change can fail.
var (
	ErrNotAList       = errors.New("operation on non-list")
	ErrValueNotInList = errors.New("value not in list")
	ErrNotABag        = errors.New("path segment is not a bag")
	ErrBadPath        = errors.New("malformed path")
)

// UpdateError is the structured failure for one change within an Update
// call. Changes before Index were applied and remain applied.
type UpdateError struct {
	Path   string
	Index  int // position of the failing change
	Reason error
}

func (e *UpdateError) Error() string {
	return fmt.Sprintf("update %q (change %d): %v", e.Path, e.Index, e.Reason)
}

func (e *UpdateError) Unwrap() error {
	return e.Reason
}

// Update applies ordered path-addressed changes to an entity. Plain paths
// navigate dot-separated keys into the property bag, creating intermediate
// bags as needed, and set the leaf. A '+' prefix appends to the list at the
// path (creating one if absent); a '-' prefix removes the first matching
// value (an error if the value is absent). The reserved roots "name" and
// "behaviors" address the entity's Name and Behaviors list.
//
// Update stops at the first failing change. There is no rollback: callers
// needing atomicity across several fields must pre-validate, or accept
// partial application and report it upward.
func Update(e *types.Entity, changes []types.Change) error {
	for i, ch := range changes {
		if err := applyChange(e, ch); err != nil {
			return &UpdateError{Path: ch.Path, Index: i, Reason: err}
		}
	}
	return nil
}

func applyChange(e *types.Entity, ch types.Change) error {
	path := ch.Path
	op := byte(0)
	if len(path) > 0 && (path[0] == '+' || path[0] == '-') {
		op = path[0]
		path = path[1:]
	}
	if path == "" {
		return ErrBadPath
	}

	keys := strings.Split(path, ".")
	for _, k := range keys {
		if k == "" {
			return ErrBadPath
		}
	}

	// Reserved roots address the entity record itself.
	if len(keys) == 1 {
		switch keys[0] {
		case "name":
			if op != 0 {
				return ErrNotAList
			}
			s, ok := ch.Value.(string)
			if !ok {
				return fmt.Errorf("name must be a string, got %T", ch.Value)
			}
			e.Name = s
			return nil
		case "behaviors":
			return applyBehaviors(e, op, ch.Value)
		}
	}

	if e.Props == nil {
		e.Props = map[string]any{}
	}
	bag := e.Props
	for _, k := range keys[:len(keys)-1] {
		next, ok := bag[k]
		if !ok {
			child := map[string]any{}
			bag[k] = child
			bag = child
			continue
		}
		child, ok := next.(map[string]any)
		if !ok {
			return fmt.Errorf("%w: %q", ErrNotABag, k)
		}
		bag = child
	}
	leaf := keys[len(keys)-1]

	switch op {
	case 0:
		bag[leaf] = ch.Value
		return nil
	case '+':
		return appendToList(bag, leaf, ch.Value)
	case '-':
		return removeFromList(bag, leaf, ch.Value)
	}
	return ErrBadPath
}

func appendToList(bag map[string]any, key string, value any) error {
	existing, ok := bag[key]
	if !ok {
		bag[key] = []any{value}
		return nil
	}
	list, ok := existing.([]any)
	if !ok {
		return ErrNotAList
	}
	bag[key] = append(list, value)
	return nil
}

func removeFromList(bag map[string]any, key string, value any) error {
	existing, ok := bag[key]
	if !ok {
		return ErrNotAList
	}
	list, ok := existing.([]any)
	if !ok {
		return ErrNotAList
	}
	for i, item := range list {
		if reflect.DeepEqual(item, value) {
			bag[key] = append(list[:i:i], list[i+1:]...)
			return nil
		}
	}
	return ErrValueNotInList
}

// applyBehaviors handles the reserved "behaviors" root. Plain assignment
// replaces the whole list; list ops append or remove one module name.
func applyBehaviors(e *types.Entity, op byte, value any) error {
	switch op {
	case 0:
		names, err := toStringList(value)
		if err != nil {
			return err
		}
		e.Behaviors = names
		return nil
	case '+':
		name, ok := value.(string)
		if !ok {
			return fmt.Errorf("behavior name must be a string, got %T", value)
		}
		e.Behaviors = append(e.Behaviors, name)
		return nil
	case '-':
		name, ok := value.(string)
		if !ok {
			return fmt.Errorf("behavior name must be a string, got %T", value)
		}
		for i, b := range e.Behaviors {
			if b == name {
				e.Behaviors = append(e.Behaviors[:i:i], e.Behaviors[i+1:]...)
				return nil
			}
		}
		return ErrValueNotInList
	}
	return ErrBadPath
}

func toStringList(value any) ([]string, error) {
	switch v := value.(type) {
	case []string:
		return v, nil
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("behavior name must be a string, got %T", item)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("behaviors must be a list, got %T", value)
	}
}
