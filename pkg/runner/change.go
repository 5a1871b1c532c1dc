package runner

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Action is what a scheduled change does.
type Action string

const (
	// ActionSet updates one setting.
	ActionSet Action = "set"
	// ActionSuspend takes one level of the manager lock.
	ActionSuspend Action = "suspend"
	// ActionResume releases one level of the manager lock.
	ActionResume Action = "resume"
	// ActionInvalidate forces the session to be rebuilt.
	ActionInvalidate Action = "invalidate"
)

// Change is applied right before frame Frame is submitted.
type Change struct {
	Frame  int
	Action Action
	Name   string
	Value  string
}

func (c Change) String() string {
	if c.Action == ActionSet {
		return fmt.Sprintf("%d:%s=%s", c.Frame, c.Name, c.Value)
	}
	return fmt.Sprintf("%d:%s", c.Frame, c.Action)
}

// ParseChange parses "frame:name=value", "frame:suspend", "frame:resume"
// or "frame:invalidate".
func ParseChange(s string) (Change, error) {
	frameStr, rest, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return Change{}, fmt.Errorf("%w: %q: expected frame:action", ErrInvalidChange, s)
	}
	frame, err := strconv.Atoi(strings.TrimSpace(frameStr))
	if err != nil || frame < 0 {
		return Change{}, fmt.Errorf("%w: %q: bad frame number", ErrInvalidChange, s)
	}
	rest = strings.TrimSpace(rest)

	if name, value, ok := strings.Cut(rest, "="); ok {
		name = strings.TrimSpace(name)
		if name == "" {
			return Change{}, fmt.Errorf("%w: %q: empty setting name", ErrInvalidChange, s)
		}
		return Change{Frame: frame, Action: ActionSet, Name: name, Value: strings.TrimSpace(value)}, nil
	}

	switch a := Action(strings.ToLower(rest)); a {
	case ActionSuspend, ActionResume, ActionInvalidate:
		return Change{Frame: frame, Action: a}, nil
	default:
		return Change{}, fmt.Errorf("%w: %q: unknown action %q", ErrInvalidChange, s, rest)
	}
}

// ParseChanges parses every entry and orders them by frame, keeping the
// given order within a frame.
func ParseChanges(specs []string) ([]Change, error) {
	changes := make([]Change, 0, len(specs))
	for _, s := range specs {
		c, err := ParseChange(s)
		if err != nil {
			return nil, err
		}
		changes = append(changes, c)
	}
	sort.SliceStable(changes, func(i, j int) bool {
		return changes[i].Frame < changes[j].Frame
	})
	return changes, nil
}
