package statemachine

import "testing"

type counter struct {
	ticks int
}

// countUp advances until the third tick, then terminates.
func countUp(c *counter) StateFn[counter] {
	c.ticks++
	if c.ticks >= 3 {
		return nil
	}
	return countUp
}

func TestStepTransitions(t *testing.T) {
	c := &counter{}
	m := New(c, countUp)
	if m.Current() == nil {
		t.Fatal("fresh machine has no state")
	}

	m.Step()
	if c.ticks != 1 {
		t.Fatalf("ticks = %d after one step, want 1", c.ticks)
	}

	m.Step()
	m.Step()
	if c.ticks != 3 {
		t.Fatalf("ticks = %d after three steps, want 3", c.ticks)
	}
	if m.Current() != nil {
		t.Error("machine still has a state after terminating")
	}

	// Stepping a terminated machine changes nothing.
	m.Step()
	if c.ticks != 3 {
		t.Errorf("terminated machine stepped to %d ticks", c.ticks)
	}
}

func TestRunToTermination(t *testing.T) {
	c := &counter{}
	m := New(c, countUp)

	m.Run()
	if c.ticks != 3 {
		t.Fatalf("ticks = %d after Run, want 3", c.ticks)
	}
	if m.Current() != nil {
		t.Error("Run left a live state")
	}
}

func TestSetForcesState(t *testing.T) {
	c := &counter{}
	m := New(c, countUp)

	m.Set(nil)
	m.Step()
	if c.ticks != 0 {
		t.Errorf("cleared machine still ran a state, ticks = %d", c.ticks)
	}

	m.Set(countUp)
	m.Step()
	if c.ticks != 1 {
		t.Errorf("ticks = %d after reviving, want 1", c.ticks)
	}
}
