package systems

import (
	"gonum.org/v1/gonum/floats"

	"github.com/pthm-cable/evogrid/components"
)

// DecideAction runs the organism's brain on the sensed inputs and returns
// the action with the highest score. Ties go to the lowest action index.
func DecideAction(org *components.Organism, inputs SensorInputs) components.Action {
	outputs := org.Brain.Forward(inputs.AsSlice())
	return components.Action(floats.MaxIdx(outputs))
}
