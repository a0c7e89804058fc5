package memory

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// reservedMemory is held back from the pinned region so the rest of the
// process, and the kernel itself, still has room to operate.
const reservedMemory = 128 * 1024 * 1024

// PhysicalMemory returns the system's total physical RAM in bytes, or 0 if
// it could not be determined.
func PhysicalMemory() uint64 {
	var info unix.Sysinfo_t
	if err := unix.Sysinfo(&info); err != nil {
		return 0
	}
	return uint64(info.Totalram) * uint64(info.Unit)
}

// PinnedRegion is the process-wide locked-memory area requested via
// lockmem=. It is acquired once by cmd/fiod and released at shutdown.
type PinnedRegion struct {
	data []byte
}

// Pin locks requested bytes into RAM, capping the request at physical
// memory minus reservedMemory.
func Pin(requested uint64) (*PinnedRegion, error) {
	if requested == 0 {
		return &PinnedRegion{}, nil
	}

	limit := PhysicalMemory()
	if limit > reservedMemory {
		limit -= reservedMemory
	} else {
		limit = 0
	}
	size := requested
	if limit != 0 && size > limit {
		size = limit
	}
	if size == 0 {
		return nil, fmt.Errorf("not enough physical memory to pin %d bytes", requested)
	}

	data, err := unix.Mmap(-1, 0, int(size), unix.PROT_READ|unix.PROT_WRITE,
		unix.MAP_PRIVATE|unix.MAP_ANONYMOUS)
	if err != nil {
		return nil, fmt.Errorf("mmap pinned region: %w", err)
	}
	if err := unix.Mlock(data); err != nil {
		unix.Munmap(data)
		return nil, fmt.Errorf("mlock pinned region: %w", err)
	}
	return &PinnedRegion{data: data}, nil
}

// Unpin releases the locked region. Safe to call on a zero-size region.
func (p *PinnedRegion) Unpin() error {
	if len(p.data) == 0 {
		return nil
	}
	if err := unix.Munlock(p.data); err != nil {
		return err
	}
	return unix.Munmap(p.data)
}

// Size reports the actual number of bytes locked, which may be less than
// what was requested if physical memory was the limiting factor.
func (p *PinnedRegion) Size() int { return len(p.data) }
