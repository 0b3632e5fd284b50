package components

// Action is one of the four unit moves an organism can choose.
// The order matches the brain's output indices.
type Action uint8

const (
	ActionUp Action = iota
	ActionDown
	ActionLeft
	ActionRight
)

// NumActions is the size of the brain's output layer.
const NumActions = 4

var actionDeltas = [NumActions][2]int{
	ActionUp:    {0, -1},
	ActionDown:  {0, 1},
	ActionLeft:  {-1, 0},
	ActionRight: {1, 0},
}

// Delta returns the unit displacement of the action.
func (a Action) Delta() (dx, dy int) {
	d := actionDeltas[a]
	return d[0], d[1]
}

// String returns the display name for an Action.
func (a Action) String() string {
	names := ActionNames()
	if int(a) < len(names) {
		return names[a]
	}
	return "unknown"
}

// ActionNames returns the display names for all actions.
// The order matches the Action constants.
func ActionNames() []string {
	return []string{"up", "down", "left", "right"}
}
