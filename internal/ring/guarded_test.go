package ring

import (
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestGuarded_ConcurrentPush(t *testing.T) {
	g := NewGuarded(mustNew(t, 64))

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			g.Push(meas(uint64(i), i))
		}(i)
	}
	wg.Wait()

	if g.Len() != 64 {
		t.Errorf("Len() = %d, want 64", g.Len())
	}
}

func TestGuarded_Stats(t *testing.T) {
	g := NewGuarded(mustNew(t, 4, WithOrderPolicy(RejectOutOfOrder)))
	g.Push(meas(10, 1))
	g.Push(meas(20, 2))

	s := g.Stats()
	if s.Len != 2 || s.Cap != 4 || s.Cursor != 2 {
		t.Errorf("Stats() = %+v, want len=2 cap=4 cursor=2", s)
	}
	if s.OldestMS != 10 || s.NewestMS != 20 {
		t.Errorf("Stats() window = [%d, %d], want [10, 20]", s.OldestMS, s.NewestMS)
	}
	if s.Order != "reject" {
		t.Errorf("Stats().Order = %q, want %q", s.Order, "reject")
	}
}

func TestGuarded_Close(t *testing.T) {
	g := NewGuarded(mustNew(t, 4))
	g.Push(meas(1, 1))
	g.Close()
	g.Close()

	if _, _, err := g.Push(meas(2, 2)); err != ErrClosed {
		t.Errorf("Push after Close error = %v, want ErrClosed", err)
	}
	if s := g.Stats(); s.Len != 0 || s.Cap != 0 {
		t.Errorf("Stats() after Close = %+v", s)
	}
}

func TestGuarded_SnapshotAndDrain(t *testing.T) {
	g := NewGuarded(mustNew(t, 4))
	for _, ts := range []uint64{30, 10, 20} {
		g.Push(meas(ts, 1))
	}

	if diff := cmp.Diff([]uint64{30, 10, 20}, timestamps(g.Snapshot())); diff != "" {
		t.Fatalf("Snapshot() mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]uint64{30, 10}, timestamps(g.Drain(2))); diff != "" {
		t.Errorf("Drain(2) mismatch (-want +got):\n%s", diff)
	}
	if g.Len() != 1 {
		t.Errorf("Len() = %d, want 1", g.Len())
	}
}
