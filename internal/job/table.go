package job

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// Table is the process-wide, shared-memory-backed worker population. Real
// workers may run as separate processes, so the table lives in a System-V
// shared memory segment rather than a plain Go slice.
type Table struct {
	shmID    int
	seg      []byte
	maxJobs  int
	slots    []*Worker // Go-level view; real worker bytes would be marshaled
	highWater int
}

// DefaultMaxJobs is the starting slot count before any EINVAL negotiation.
const DefaultMaxJobs = 1024

// workerStride is a conservative per-slot reservation inside the shared
// segment; the Go-level Worker value itself lives in process memory and is
// tracked in slots, but the segment's sizing negotiation against the kernel
// is real and happens against this stride.
const workerStride = 4096

// NewTable allocates the shared worker table, negotiating its size downward
// on EINVAL: halve maxJobs and retry until success or exhaustion; any other
// error is fatal.
func NewTable(maxJobs int) (*Table, error) {
	jobs := maxJobs
	for jobs > 0 {
		size := jobs * workerStride
		id, err := unix.SysvShmGet(unix.IPC_PRIVATE, size, unix.IPC_CREAT|0600)
		if err == nil {
			seg, attachErr := unix.SysvShmAttach(id, 0, 0)
			if attachErr != nil {
				unix.SysvShmCtl(id, unix.IPC_RMID, nil)
				return nil, fmt.Errorf("shmat: %w", attachErr)
			}
			return &Table{shmID: id, seg: seg, maxJobs: jobs, slots: make([]*Worker, 0, jobs)}, nil
		}
		if err != unix.EINVAL {
			return nil, fmt.Errorf("shmget: %w", err)
		}
		jobs >>= 1
	}
	return nil, fmt.Errorf("shmget: could not size worker table")
}

// Close detaches and removes the shared segment.
func (t *Table) Close() error {
	if t.seg != nil {
		unix.SysvShmDetach(t.seg)
		t.seg = nil
	}
	if t.shmID != 0 {
		unix.SysvShmCtl(t.shmID, unix.IPC_RMID, nil)
		t.shmID = 0
	}
	return nil
}

// MaxJobs reports the table's negotiated capacity.
func (t *Table) MaxJobs() int { return t.maxJobs }

// HighWater reports the number of committed workers.
func (t *Table) HighWater() int { return t.highWater }

// GetNewJob returns the next free slot, incrementing the high-water index,
// or fails when the table is full. The defaults descriptor never goes
// through this path.
func (t *Table) GetNewJob(parent *Worker) (*Worker, error) {
	if t.highWater >= t.maxJobs {
		return nil, fmt.Errorf("table full at %d workers", t.maxJobs)
	}
	w := parent.Clone()
	w.Index = t.highWater + 1
	t.markSlot(w.Index, true)
	t.slots = append(t.slots, w)
	t.highWater++
	return w, nil
}

// PutJob releases a worker: its slot is zeroed and the high-water index
// decrements, so committed workers always form a contiguous prefix.
func (t *Table) PutJob(w *Worker) {
	for i, s := range t.slots {
		if s == w {
			t.slots = append(t.slots[:i], t.slots[i+1:]...)
			t.highWater--
			t.markSlot(w.Index, false)
			return
		}
	}
}

// markSlot flips the occupied byte for worker index idx (1-based) at the
// front of its slot's stride in the shared segment. The Go-level Worker
// in slots is the authoritative view; this keeps the negotiated segment
// itself genuinely read and written rather than just sized and discarded.
func (t *Table) markSlot(idx int, occupied bool) {
	off := (idx - 1) * workerStride
	if off < 0 || off >= len(t.seg) {
		return
	}
	if occupied {
		t.seg[off] = 1
	} else {
		t.seg[off] = 0
	}
}

// SlotOccupied reports the shared segment's occupied bit for worker index
// idx (1-based), for callers that want to cross-check it against slots.
func (t *Table) SlotOccupied(idx int) bool {
	off := (idx - 1) * workerStride
	if off < 0 || off >= len(t.seg) {
		return false
	}
	return t.seg[off] != 0
}

// Workers returns the committed worker prefix.
func (t *Table) Workers() []*Worker { return t.slots }
