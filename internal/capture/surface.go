package capture

// surface owns the frame buffer a Source captures into. acquire hands back
// the existing buffer whenever the requested size is unchanged; only a size
// change triggers a fresh allocation.
type surface struct {
	frame  Frame
	allocs int
}

func (s *surface) acquire(width, height int) *Frame {
	if s.frame.Pixels != nil && s.frame.Width == width && s.frame.Height == height {
		return &s.frame
	}
	s.frame = Frame{
		Width:  width,
		Height: height,
		Pixels: make([]byte, width*height*4),
	}
	s.allocs++
	return &s.frame
}

func (s *surface) allocations() int {
	return s.allocs
}
