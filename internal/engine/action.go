package engine

import "strings"

// ActionKind is the reward-system action that triggered an exploit check.
type ActionKind int

const (
	// ActionUnsupported is any action the patch does not judge.
	ActionUnsupported ActionKind = iota
	ActionBreak
	ActionTNTBreak
	ActionPlace
)

var actionNames = map[ActionKind]string{
	ActionUnsupported: "UNSUPPORTED",
	ActionBreak:       "BREAK",
	ActionTNTBreak:    "TNTBREAK",
	ActionPlace:       "PLACE",
}

// ParseActionKind maps a reward-system action name to an ActionKind.
// Names are matched case-insensitively; unknown names such as KILL or FISH
// map to ActionUnsupported.
func ParseActionKind(name string) ActionKind {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "BREAK":
		return ActionBreak
	case "TNTBREAK":
		return ActionTNTBreak
	case "PLACE":
		return ActionPlace
	default:
		return ActionUnsupported
	}
}

// Supported reports whether exploit checks apply to the action.
func (a ActionKind) Supported() bool {
	return a == ActionBreak || a == ActionTNTBreak || a == ActionPlace
}

func (a ActionKind) String() string {
	if name, ok := actionNames[a]; ok {
		return name
	}
	return actionNames[ActionUnsupported]
}
