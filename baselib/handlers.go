package baselib

import (
	"fmt"
	"sort"
	"strings"

	"github.com/nathoo/fabula/engine/module"
	"github.com/nathoo/fabula/types"
)

// Conventional property keys the core handlers read. Content modules are
// free to layer more on top.
const (
	propLocation    = "location"
	propDescription = "description"
	propPortable    = "portable"
	propExits       = "exits"
	propOpen        = "open"
	propOpenable    = "openable"
)

func actorLocation(sa module.StateAccessor, actorID string) string {
	actor, ok := sa.Get(actorID)
	if !ok {
		return ""
	}
	loc, _ := actor.Props[propLocation].(string)
	return loc
}

// resolveObject finds the command's object among entities at the actor's
// location, then in the actor's own possession.
func resolveObject(sa module.StateAccessor, cmd types.Command) (string, string) {
	loc := actorLocation(sa, cmd.Actor)
	if id := sa.FindAt(loc, cmd.Object, cmd.Adjectives); id != "" {
		return id, loc
	}
	if id := sa.FindAt(cmd.Actor, cmd.Object, cmd.Adjectives); id != "" {
		return id, loc
	}
	return "", loc
}

func entityName(sa module.StateAccessor, id string) string {
	if e, ok := sa.Get(id); ok && e.Name != "" {
		return e.Name
	}
	return id
}

// deny converts a behavior denial into the player-facing result: the
// command was handled, just disallowed, so it still succeeds at the
// protocol level and the turn phases run.
func deny(out types.Outcome, fallback string) types.Result {
	msg := out.Message
	if msg == "" {
		msg = fallback
	}
	return types.Result{Success: true, Message: msg}
}

func handleTake(sa module.StateAccessor, cmd types.Command) (types.Result, error) {
	id, loc := resolveObject(sa, cmd)
	if id == "" {
		return types.Result{Success: false, Message: fmt.Sprintf("You don't see any %s here.", cmd.Object)}, nil
	}
	e, _ := sa.Get(id)
	if e.Props[propLocation] == cmd.Actor {
		return types.Result{Success: false, Message: "You already have that."}, nil
	}
	if e.Props[propPortable] != true {
		return types.Result{Success: false, Message: fmt.Sprintf("You can't take the %s.", e.Name)}, nil
	}

	out, err := sa.InvokeEvent(id, "take", map[string]any{"actor": cmd.Actor, "from": loc})
	if err != nil {
		return types.Result{}, err
	}
	if !out.Allow {
		return deny(out, fmt.Sprintf("The %s won't budge.", e.Name)), nil
	}

	if err := sa.Update(id, []types.Change{{Path: propLocation, Value: cmd.Actor}}); err != nil {
		return types.Result{}, err
	}
	msg := fmt.Sprintf("You take the %s.", e.Name)
	if out.Message != "" {
		msg = msg + "\n" + out.Message
	}
	return types.Result{Success: true, Message: msg}, nil
}

func handleDrop(sa module.StateAccessor, cmd types.Command) (types.Result, error) {
	id := sa.FindAt(cmd.Actor, cmd.Object, cmd.Adjectives)
	if id == "" {
		return types.Result{Success: false, Message: "You don't have that."}, nil
	}
	e, _ := sa.Get(id)

	out, err := sa.InvokeEvent(id, "drop", map[string]any{"actor": cmd.Actor})
	if err != nil {
		return types.Result{}, err
	}
	if !out.Allow {
		return deny(out, fmt.Sprintf("You can't let go of the %s.", e.Name)), nil
	}

	loc := actorLocation(sa, cmd.Actor)
	if err := sa.Update(id, []types.Change{{Path: propLocation, Value: loc}}); err != nil {
		return types.Result{}, err
	}
	msg := fmt.Sprintf("You drop the %s.", e.Name)
	if out.Message != "" {
		msg = msg + "\n" + out.Message
	}
	return types.Result{Success: true, Message: msg}, nil
}

func handleGo(sa module.StateAccessor, cmd types.Command) (types.Result, error) {
	loc := actorLocation(sa, cmd.Actor)
	room, ok := sa.Get(loc)
	if !ok {
		return types.Result{Success: false, Message: "You are nowhere."}, nil
	}
	exits, _ := room.Props[propExits].(map[string]any)
	target, _ := exits[cmd.Object].(string)
	if target == "" {
		return types.Result{Success: false, Message: "You can't go that way."}, nil
	}

	out, err := sa.InvokeEvent(loc, "go", map[string]any{"actor": cmd.Actor, "direction": cmd.Object, "to": target})
	if err != nil {
		return types.Result{}, err
	}
	if !out.Allow {
		return deny(out, "Something bars the way."), nil
	}

	if err := sa.Update(cmd.Actor, []types.Change{{Path: propLocation, Value: target}}); err != nil {
		return types.Result{}, err
	}
	desc := describeLocation(sa, cmd.Actor, target)
	if out.Message != "" {
		desc = out.Message + "\n" + desc
	}
	return types.Result{Success: true, Message: desc}, nil
}

func handleLook(sa module.StateAccessor, cmd types.Command) (types.Result, error) {
	if cmd.Object != "" {
		return handleExamine(sa, cmd)
	}
	loc := actorLocation(sa, cmd.Actor)
	return types.Result{Success: true, Message: describeLocation(sa, cmd.Actor, loc)}, nil
}

func handleExamine(sa module.StateAccessor, cmd types.Command) (types.Result, error) {
	id, _ := resolveObject(sa, cmd)
	if id == "" {
		return types.Result{Success: false, Message: fmt.Sprintf("You don't see any %s here.", cmd.Object)}, nil
	}
	e, _ := sa.Get(id)
	desc, _ := e.Props[propDescription].(string)
	if desc == "" {
		desc = "You see nothing special about it."
	}

	out, err := sa.InvokeEvent(id, "examine", map[string]any{"actor": cmd.Actor})
	if err != nil {
		return types.Result{}, err
	}
	if out.Message != "" {
		desc = desc + "\n" + out.Message
	}
	return types.Result{Success: true, Message: desc}, nil
}

func handleInventory(sa module.StateAccessor, cmd types.Command) (types.Result, error) {
	carried := sa.EntitiesAt(cmd.Actor)
	if len(carried) == 0 {
		return types.Result{Success: true, Message: "You are carrying nothing."}, nil
	}
	var names []string
	for _, id := range carried {
		names = append(names, entityName(sa, id))
	}
	return types.Result{Success: true, Message: "You are carrying: " + strings.Join(names, ", ") + "."}, nil
}

func handleOpen(sa module.StateAccessor, cmd types.Command) (types.Result, error) {
	return handleOpenClose(sa, cmd, "open", true)
}

func handleClose(sa module.StateAccessor, cmd types.Command) (types.Result, error) {
	return handleOpenClose(sa, cmd, "close", false)
}

func handleOpenClose(sa module.StateAccessor, cmd types.Command, event string, open bool) (types.Result, error) {
	id, _ := resolveObject(sa, cmd)
	if id == "" {
		return types.Result{Success: false, Message: fmt.Sprintf("You don't see any %s here.", cmd.Object)}, nil
	}
	e, _ := sa.Get(id)
	if e.Props[propOpenable] != true {
		return types.Result{Success: false, Message: fmt.Sprintf("The %s doesn't %s.", e.Name, event)}, nil
	}
	if already, _ := e.Props[propOpen].(bool); already == open {
		return types.Result{Success: false, Message: fmt.Sprintf("It's already %s.", pastTense(event))}, nil
	}

	out, err := sa.InvokeEvent(id, event, map[string]any{"actor": cmd.Actor})
	if err != nil {
		return types.Result{}, err
	}
	if !out.Allow {
		return deny(out, fmt.Sprintf("The %s won't %s.", e.Name, event)), nil
	}

	if err := sa.Update(id, []types.Change{{Path: propOpen, Value: open}}); err != nil {
		return types.Result{}, err
	}
	msg := fmt.Sprintf("You %s the %s.", event, e.Name)
	if out.Message != "" {
		msg = msg + "\n" + out.Message
	}
	return types.Result{Success: true, Message: msg}, nil
}

func pastTense(event string) string {
	if event == "open" {
		return "open"
	}
	return "closed"
}

func handleWait(sa module.StateAccessor, cmd types.Command) (types.Result, error) {
	return types.Result{Success: true, Message: "Time passes."}, nil
}

// describeLocation produces the standard room description: description,
// visible entities, exits.
func describeLocation(sa module.StateAccessor, actorID, locationID string) string {
	room, ok := sa.Get(locationID)
	if !ok {
		return "You are somewhere unknown."
	}

	var lines []string
	if room.Name != "" {
		lines = append(lines, room.Name)
	}
	if desc, _ := room.Props[propDescription].(string); desc != "" {
		lines = append(lines, desc)
	}

	var names []string
	for _, id := range sa.EntitiesAt(locationID) {
		if id == actorID {
			continue
		}
		names = append(names, entityName(sa, id))
	}
	if len(names) > 0 {
		lines = append(lines, "You see: "+strings.Join(names, ", ")+".")
	}

	if exits, ok := room.Props[propExits].(map[string]any); ok && len(exits) > 0 {
		dirs := make([]string, 0, len(exits))
		for dir := range exits {
			dirs = append(dirs, dir)
		}
		sort.Strings(dirs) // deterministic order
		lines = append(lines, "Exits: "+strings.Join(dirs, ", ")+".")
	}

	return strings.Join(lines, "\n")
}
