package memory

import (
	"testing"

	"github.com/ferdnyc/fio/internal/job"
)

func TestAcquireMallocBuffer(t *testing.T) {
	w := job.NewDefaults()
	w.MemType = job.MemMalloc

	buf, err := Acquire(w, 4096)
	if err != nil {
		t.Fatalf("Acquire returned error: %v", err)
	}
	if len(buf.Data) != 4096 {
		t.Errorf("len(buf.Data) = %d, want 4096", len(buf.Data))
	}
	if err := buf.Release(); err != nil {
		t.Errorf("Release returned error: %v", err)
	}
}

func TestAcquireUnknownMemType(t *testing.T) {
	w := job.NewDefaults()
	w.MemType = job.MemType(99)

	if _, err := Acquire(w, 4096); err == nil {
		t.Errorf("Acquire should have rejected an unrecognized mem type")
	}
}

func TestAcquireAnonymousMmapBuffer(t *testing.T) {
	w := job.NewDefaults()
	w.MemType = job.MemMmap
	w.MmapFile = ""

	buf, err := Acquire(w, 4096)
	if err != nil {
		t.Fatalf("Acquire returned error: %v", err)
	}
	if len(buf.Data) != 4096 {
		t.Errorf("len(buf.Data) = %d, want 4096", len(buf.Data))
	}
	if err := buf.Release(); err != nil {
		t.Errorf("Release returned error: %v", err)
	}
}
