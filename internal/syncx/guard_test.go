package syncx

import (
	"sync"
	"testing"
)

func TestGuardGetSet(t *testing.T) {
	g := NewGuard("initial")

	if got := g.Get(); got != "initial" {
		t.Errorf("Get() = %q, want %q", got, "initial")
	}

	g.Set("replaced")
	if got := g.Get(); got != "replaced" {
		t.Errorf("Get() = %q, want %q", got, "replaced")
	}
}

func TestGuardWriteMutatesInPlace(t *testing.T) {
	g := NewGuard([3]string{"a", "", ""})

	g.Write(func(titles *[3]string) {
		titles[1] = "b"
		titles[2] = "c"
	})

	if got := g.Get(); got != [3]string{"a", "b", "c"} {
		t.Errorf("Get() = %v", got)
	}
}

func TestGuardGetReturnsCopy(t *testing.T) {
	g := NewGuard([2]int{1, 2})

	snapshot := g.Get()
	snapshot[0] = 99

	if got := g.Get(); got[0] != 1 {
		t.Errorf("guarded value changed through a copy: %v", got)
	}
}

func TestGuardConcurrentAccess(t *testing.T) {
	g := NewGuard(0)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			g.Write(func(n *int) { *n++ })
		}()
		go func() {
			defer wg.Done()
			_ = g.Get()
		}()
	}
	wg.Wait()

	if got := g.Get(); got != 50 {
		t.Errorf("value = %d after 50 increments, want 50", got)
	}
}
