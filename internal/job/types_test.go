package job

import "testing"

func TestNewDefaultsLiteralValues(t *testing.T) {
	w := NewDefaults()
	if w.Ddir != DirRead || !w.Sequential {
		t.Errorf("defaults should be a sequential read job")
	}
	if w.BS[DirRead] != 4096 || w.BS[DirWrite] != 4096 {
		t.Errorf("default block size = %+v, want 4096/4096", w.BS)
	}
	if w.RWMixRead != 0 || w.RWMixWrite != 0 {
		t.Errorf("default rwmix = %d/%d, want 0/0 (unset; fixupOptions backfills 50/50)", w.RWMixRead, w.RWMixWrite)
	}
	if w.IOEngine == nil || w.IOEngine.Name() != "sync" {
		t.Errorf("default ioengine should resolve to \"sync\"")
	}
}

func TestStatFloorSeedsAtMax(t *testing.T) {
	f := NewStatFloor()
	f.Observe(42)
	if f.Min != 42 {
		t.Errorf("first observation should become the minimum, got %d", f.Min)
	}
	if f.Max != 42 {
		t.Errorf("first observation should become the maximum, got %d", f.Max)
	}
	f.Observe(10)
	f.Observe(100)
	if f.Min != 10 || f.Max != 100 {
		t.Errorf("floor = %+v, want min=10 max=100", f)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	w := NewDefaults()
	w.Files = append(w.Files, &FileRecord{Path: "parent-only"})

	c := w.Clone()
	if len(c.Files) != 0 {
		t.Errorf("Clone should not carry over the parent's file list")
	}

	c.BS[DirRead] = 65536
	if w.BS[DirRead] == 65536 {
		t.Errorf("mutating a clone's block size should not affect the parent")
	}
}
