package capture

import "testing"

func TestSurfaceReusesSameSize(t *testing.T) {
	var s surface

	first := s.acquire(800, 600)
	for i := 0; i < 10; i++ {
		f := s.acquire(800, 600)
		if &f.Pixels[0] != &first.Pixels[0] {
			t.Fatal("same-size acquire should return the same buffer")
		}
	}

	if got := s.allocations(); got != 1 {
		t.Errorf("allocations = %d, want 1", got)
	}
}

func TestSurfaceReallocatesOnResize(t *testing.T) {
	var s surface

	s.acquire(800, 600)
	f := s.acquire(640, 480)

	if len(f.Pixels) != 640*480*4 {
		t.Errorf("buffer size = %d, want %d", len(f.Pixels), 640*480*4)
	}
	if got := s.allocations(); got != 2 {
		t.Errorf("allocations = %d, want 2", got)
	}

	// Returning to a previous size is still a fresh allocation.
	s.acquire(800, 600)
	if got := s.allocations(); got != 3 {
		t.Errorf("allocations = %d, want 3", got)
	}
}

func TestSurfaceFrameDimensions(t *testing.T) {
	var s surface

	f := s.acquire(320, 200)
	if f.Width != 320 || f.Height != 200 {
		t.Errorf("frame = %dx%d, want 320x200", f.Width, f.Height)
	}
	if len(f.Pixels) != 320*200*4 {
		t.Errorf("pixels = %d bytes, want %d", len(f.Pixels), 320*200*4)
	}
}
