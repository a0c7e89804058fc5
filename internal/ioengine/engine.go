// Package ioengine implements the backend plug contract: a name, a
// feature-flag bitfield, and the operation hooks a worker issues I/O
// through. Only the simplest backends are implemented here — libaio,
// splice, sg, mmap-file, and dynamically loaded engines are out of scope.
package ioengine

import (
	"fmt"
	"os"
	"time"
)

// Flag is a bit in an Engine's feature bitfield.
type Flag uint32

const (
	// SyncOnly marks an engine whose I/O calls block the caller; the job
	// builder forces iodepth=1 for these.
	SyncOnly Flag = 1 << iota
	// RawIO marks an engine that should be told to use raw/direct I/O.
	RawIO
	// CPUIO marks the CPU-burn engine, which performs no I/O at all and is
	// skipped by the random-state seeder and the disk-utilization sampler.
	CPUIO
)

// Engine is the handle a worker obtains by resolving an ioengine= name.
type Engine interface {
	Name() string
	Flags() Flag
	Open(path string, create bool) (Handle, error)
}

// Handle is an open target a worker reads from or writes to.
type Handle interface {
	ReadAt(p []byte, off int64) (int, error)
	WriteAt(p []byte, off int64) (int, error)
	Sync() error
	Close() error
}

var registry = map[string]func() Engine{
	"sync": func() Engine { return &syncEngine{} },
	"null": func() Engine { return &nullEngine{} },
	"cpu":  func() Engine { return &cpuEngine{} },
}

// Resolve looks up an engine by name, the Go equivalent of str_ioengine_cb.
func Resolve(name string) (Engine, error) {
	ctor, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("ioengine= sync, null, cpu (got %q)", name)
	}
	return ctor(), nil
}

// syncEngine issues blocking ReadAt/WriteAt against an *os.File.
type syncEngine struct{}

func (e *syncEngine) Name() string  { return "sync" }
func (e *syncEngine) Flags() Flag   { return SyncOnly }

func (e *syncEngine) Open(path string, create bool) (Handle, error) {
	flags := os.O_RDWR
	if create {
		flags |= os.O_CREATE
	}
	f, err := os.OpenFile(path, flags, 0644)
	if err != nil {
		return nil, err
	}
	return &fileHandle{f: f}, nil
}

type fileHandle struct{ f *os.File }

func (h *fileHandle) ReadAt(p []byte, off int64) (int, error)  { return h.f.ReadAt(p, off) }
func (h *fileHandle) WriteAt(p []byte, off int64) (int, error) { return h.f.WriteAt(p, off) }
func (h *fileHandle) Sync() error                              { return h.f.Sync() }
func (h *fileHandle) Close() error                              { return h.f.Close() }

// nullEngine discards all I/O; useful for measuring harness overhead with
// the target removed from the loop entirely.
type nullEngine struct{}

func (e *nullEngine) Name() string { return "null" }
func (e *nullEngine) Flags() Flag  { return 0 }

func (e *nullEngine) Open(path string, create bool) (Handle, error) {
	return &nullHandle{}, nil
}

type nullHandle struct{}

func (h *nullHandle) ReadAt(p []byte, off int64) (int, error)  { return len(p), nil }
func (h *nullHandle) WriteAt(p []byte, off int64) (int, error) { return len(p), nil }
func (h *nullHandle) Sync() error                              { return nil }
func (h *nullHandle) Close() error                              { return nil }

// cpuEngine performs no I/O; each ReadAt/WriteAt busy-loops for about a
// microsecond to simulate CPU load instead. Neither this engine nor the run
// loop in cmd/fiod reads a worker's cpuload/cpuchunks settings.
type cpuEngine struct{}

func (e *cpuEngine) Name() string { return "cpu" }
func (e *cpuEngine) Flags() Flag  { return CPUIO }

func (e *cpuEngine) Open(path string, create bool) (Handle, error) {
	return &cpuHandle{}, nil
}

type cpuHandle struct{}

func (h *cpuHandle) ReadAt(p []byte, off int64) (int, error) {
	start := time.Now()
	for time.Since(start) < time.Microsecond {
	}
	return len(p), nil
}
func (h *cpuHandle) WriteAt(p []byte, off int64) (int, error) { return h.ReadAt(p, off) }
func (h *cpuHandle) Sync() error                               { return nil }
func (h *cpuHandle) Close() error                              { return nil }
