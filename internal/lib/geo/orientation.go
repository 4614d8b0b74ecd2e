package geo

// Orientation is the sign of the 2-D cross product of two vectors sharing an origin
type Orientation int

const (
	AntiClockwise Orientation = -1
	Collinear     Orientation = 0
	Clockwise     Orientation = 1
)

// OrientationOf maps a cross product value to its orientation
func OrientationOf(v float64) Orientation {
	switch {
	case v > 0:
		return Clockwise
	case v < 0:
		return AntiClockwise
	default:
		return Collinear
	}
}

func (o Orientation) IsClockwise() bool     { return o == Clockwise }
func (o Orientation) IsAntiClockwise() bool { return o == AntiClockwise }
func (o Orientation) IsCollinear() bool     { return o == Collinear }

func (o Orientation) String() string {
	switch o {
	case Clockwise:
		return "clockwise"
	case AntiClockwise:
		return "anticlockwise"
	default:
		return "collinear"
	}
}
