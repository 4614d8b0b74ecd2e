package geo

// Circle is a center and a radius in meters
type Circle struct {
	Center Location `json:"center"`
	Radius float64  `json:"radius"`
}

// CircleOf returns the circle around the center of the shape's bounds that
// reaches the north-west corner of those bounds.
func CircleOf(s Shape, m Measurer) (Circle, error) {
	b := s.Bounds()
	center := b.Center()
	radius, err := m.Distance(center, b.NorthWest())
	if err != nil {
		return Circle{}, err
	}
	return Circle{Center: center, Radius: radius}, nil
}

// Contains reports whether loc lies within the circle
func (c Circle) Contains(loc Location, m Measurer) (bool, error) {
	d, err := m.Distance(c.Center, loc)
	if err != nil {
		return false, err
	}
	return d <= c.Radius, nil
}
