package harness

import "testing"

func TestGroupIDStaysInFirstGroupWithoutStonewall(t *testing.T) {
	c := New(nil, nil)
	if g := c.GroupID(false); g != 0 {
		t.Errorf("GroupID(false) = %d, want 0", g)
	}
	if g := c.GroupID(false); g != 0 {
		t.Errorf("second GroupID(false) = %d, want 0", g)
	}
}

func TestGroupIDAdvancesOnStonewallAfterFirstWorker(t *testing.T) {
	c := New(nil, nil)
	if g := c.GroupID(true); g != 0 {
		t.Errorf("first worker's GroupID(true) = %d, want 0 (stonewall has no effect on the very first worker)", g)
	}
	if g := c.GroupID(true); g != 1 {
		t.Errorf("second worker's GroupID(true) = %d, want 1", g)
	}
	if g := c.GroupID(false); g != 1 {
		t.Errorf("third worker's GroupID(false) = %d, want 1 (stays in the current group)", g)
	}
}

func TestWorkerCount(t *testing.T) {
	c := New(nil, nil)
	c.GroupID(false)
	c.GroupID(false)
	if n := c.WorkerCount(); n != 2 {
		t.Errorf("WorkerCount() = %d, want 2", n)
	}
}
