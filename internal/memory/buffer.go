// Package memory provisions the I/O buffers a worker reads into and writes
// from, and the optional process-wide pinned region shared across workers.
package memory

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"github.com/ferdnyc/fio/internal/job"
)

// Buffer is an acquired I/O buffer, regardless of which regime produced it.
// Release must be called exactly once to return the underlying resource.
type Buffer struct {
	Data    []byte
	regime  job.MemType
	shmID   int
	fd      int
	closeFD bool
}

// Acquire provisions a buffer of size bytes for w according to w.MemType.
func Acquire(w *job.Worker, size uint64) (*Buffer, error) {
	switch w.MemType {
	case job.MemMalloc:
		return &Buffer{Data: make([]byte, size), regime: job.MemMalloc, fd: -1}, nil
	case job.MemSHM, job.MemSHMHuge:
		return acquireSHM(size, w.MemType == job.MemSHMHuge)
	case job.MemMmap, job.MemMmapHuge:
		return acquireMmap(w.MmapFile, size, w.MemType == job.MemMmapHuge)
	default:
		return nil, fmt.Errorf("unknown mem type %v", w.MemType)
	}
}

func acquireSHM(size uint64, huge bool) (*Buffer, error) {
	flags := unix.IPC_CREAT | 0600
	if huge {
		flags |= shmHuge
	}
	id, err := unix.SysvShmGet(unix.IPC_PRIVATE, int(size), flags)
	if err != nil {
		return nil, fmt.Errorf("shmget: %w", err)
	}
	seg, err := unix.SysvShmAttach(id, 0, 0)
	if err != nil {
		unix.SysvShmCtl(id, unix.IPC_RMID, nil)
		return nil, fmt.Errorf("shmat: %w", err)
	}
	return &Buffer{Data: seg, regime: job.MemSHM, shmID: id, fd: -1}, nil
}

// shmHuge requests huge pages from shmget; on Linux this is SHM_HUGETLB.
const shmHuge = 0x800

func acquireMmap(path string, size uint64, huge bool) (*Buffer, error) {
	prot := unix.PROT_READ | unix.PROT_WRITE
	mapFlags := unix.MAP_PRIVATE
	if huge {
		mapFlags |= unix.MAP_HUGETLB
	}

	if path == "" {
		mapFlags |= unix.MAP_ANONYMOUS
		data, err := unix.Mmap(-1, 0, int(size), prot, mapFlags)
		if err != nil {
			return nil, fmt.Errorf("mmap: %w", err)
		}
		return &Buffer{Data: data, regime: job.MemMmap, fd: -1}, nil
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, fmt.Errorf("open mmap file: %w", err)
	}
	if err := f.Truncate(int64(size)); err != nil {
		f.Close()
		return nil, fmt.Errorf("truncate mmap file: %w", err)
	}
	data, err := unix.Mmap(int(f.Fd()), 0, int(size), prot, mapFlags)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("mmap: %w", err)
	}
	return &Buffer{Data: data, regime: job.MemMmap, fd: int(f.Fd()), closeFD: true}, nil
}

// Release returns the buffer's backing resource to the kernel.
func (b *Buffer) Release() error {
	switch b.regime {
	case job.MemMalloc:
		b.Data = nil
		return nil
	case job.MemSHM, job.MemSHMHuge:
		if err := unix.SysvShmDetach(b.Data); err != nil {
			return err
		}
		_, err := unix.SysvShmCtl(b.shmID, unix.IPC_RMID, nil)
		return err
	case job.MemMmap, job.MemMmapHuge:
		err := unix.Munmap(b.Data)
		if b.closeFD {
			unix.Close(b.fd)
		}
		return err
	default:
		return nil
	}
}
