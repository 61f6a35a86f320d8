package tilekit

import "fmt"

// CommandKind identifies the variant carried by a CameraCommand.
type CommandKind uint8

const (
	CommandTap       CommandKind = iota // single tap at (X, Y)
	CommandDoubleTap                    // double tap at (X, Y)
	CommandPan                          // drag from (StartX, StartY) to (EndX, EndY)
	CommandPinch                        // zoom by Scale about focal (X, Y)
	CommandRotate                       // rotate by Radians (counter-clockwise) about focal (X, Y)
	CommandShove                        // tilt by Delta (fraction of viewport height)
)

func (k CommandKind) String() string {
	switch k {
	case CommandTap:
		return "tap"
	case CommandDoubleTap:
		return "doubletap"
	case CommandPan:
		return "pan"
	case CommandPinch:
		return "pinch"
	case CommandRotate:
		return "rotate"
	case CommandShove:
		return "shove"
	default:
		return fmt.Sprintf("CommandKind(%d)", uint8(k))
	}
}

// CameraCommand is one recognized camera manipulation. Only the fields
// relevant to Kind are set; commands are values and are never mutated after
// emission.
type CameraCommand struct {
	Kind CommandKind

	// X and Y are the tap position or the focal point for pinch and rotate.
	X, Y float64

	// Pan fields.
	StartX, StartY float64
	EndX, EndY     float64

	// Scale is the incremental pinch factor (1 = unchanged).
	Scale float64
	// Radians is the incremental rotation, counter-clockwise positive.
	Radians float64
	// Delta is the shove distance normalized by viewport height.
	Delta float64
}

// TapCommand returns a CommandTap at (x, y).
func TapCommand(x, y float64) CameraCommand {
	return CameraCommand{Kind: CommandTap, X: x, Y: y}
}

// DoubleTapCommand returns a CommandDoubleTap at (x, y).
func DoubleTapCommand(x, y float64) CameraCommand {
	return CameraCommand{Kind: CommandDoubleTap, X: x, Y: y}
}

// PanCommand returns a CommandPan moving the content from start to end.
func PanCommand(startX, startY, endX, endY float64) CameraCommand {
	return CameraCommand{Kind: CommandPan, StartX: startX, StartY: startY, EndX: endX, EndY: endY}
}

// PinchCommand returns a CommandPinch about (focalX, focalY).
func PinchCommand(focalX, focalY, scale float64) CameraCommand {
	return CameraCommand{Kind: CommandPinch, X: focalX, Y: focalY, Scale: scale}
}

// RotateCommand returns a CommandRotate about (focalX, focalY).
func RotateCommand(focalX, focalY, radians float64) CameraCommand {
	return CameraCommand{Kind: CommandRotate, X: focalX, Y: focalY, Radians: radians}
}

// ShoveCommand returns a CommandShove with a normalized delta.
func ShoveCommand(delta float64) CameraCommand {
	return CameraCommand{Kind: CommandShove, Delta: delta}
}

func (c CameraCommand) String() string {
	switch c.Kind {
	case CommandTap, CommandDoubleTap:
		return fmt.Sprintf("%s(%g,%g)", c.Kind, c.X, c.Y)
	case CommandPan:
		return fmt.Sprintf("pan(%g,%g -> %g,%g)", c.StartX, c.StartY, c.EndX, c.EndY)
	case CommandPinch:
		return fmt.Sprintf("pinch(%g,%g x%g)", c.X, c.Y, c.Scale)
	case CommandRotate:
		return fmt.Sprintf("rotate(%g,%g %grad)", c.X, c.Y, c.Radians)
	case CommandShove:
		return fmt.Sprintf("shove(%g)", c.Delta)
	default:
		return c.Kind.String()
	}
}

// CommandSink receives camera commands in recognition order.
// Implementations are called on the input thread.
type CommandSink interface {
	ApplyCommand(cmd CameraCommand)
}

// CommandSinkFunc adapts a plain function to CommandSink.
type CommandSinkFunc func(CameraCommand)

// ApplyCommand calls f(cmd).
func (f CommandSinkFunc) ApplyCommand(cmd CameraCommand) { f(cmd) }
