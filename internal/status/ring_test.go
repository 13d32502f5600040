package status

import "testing"

func TestRingTrimsOldest(t *testing.T) {
	r := newRing(3)
	for i := 0; i < 5; i++ {
		r.add(Snapshot{Type: "state", Regions: i})
	}

	got := r.recent()
	if len(got) != 3 {
		t.Fatalf("len(recent) = %d, want 3", len(got))
	}
	if got[0].Regions != 2 {
		t.Errorf("oldest kept = %d, want 2", got[0].Regions)
	}
	if got[2].Regions != 4 {
		t.Errorf("newest kept = %d, want 4", got[2].Regions)
	}
}

func TestRingRecentReturnsCopy(t *testing.T) {
	r := newRing(3)
	r.add(Snapshot{Regions: 1})

	got := r.recent()
	got[0].Regions = 99

	if again := r.recent(); again[0].Regions != 1 {
		t.Errorf("ring entry = %d after mutating copy, want 1", again[0].Regions)
	}
}

func TestRingLast(t *testing.T) {
	r := newRing(3)
	if _, ok := r.last(); ok {
		t.Error("last() on empty ring reported ok")
	}

	r.add(Snapshot{Regions: 1})
	r.add(Snapshot{Regions: 2})

	snap, ok := r.last()
	if !ok {
		t.Fatal("last() reported empty after adds")
	}
	if snap.Regions != 2 {
		t.Errorf("last().Regions = %d, want 2", snap.Regions)
	}
}
