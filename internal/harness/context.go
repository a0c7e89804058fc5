package harness

import "sync"

// Context bundles all of the process-wide mutable state a run needs:
// the output/error streams, the group-identifier counter, the terse-output
// and exitall flags, and the requested pinned-memory size. It is created
// once by cmd/fiod and threaded through the INI reader, the CLI reader and
// the job builder explicitly, so none of that state lives in package-level
// variables.
type Context struct {
	Out *Printer
	Err *ErrPrinter

	mu                 sync.Mutex
	groupID            int
	workerCount        int
	Terse              bool
	ExitAllOnTerminate bool
	LockMemSize        uint64
}

// New creates a Context writing to the given printers.
func New(out *Printer, err *ErrPrinter) *Context {
	return &Context{Out: out, Err: err}
}

// GroupID returns the group identifier that should be assigned to the next
// committed worker, advancing it first when stonewall demands a new barrier.
// workerCount is the 1-based ordinal of the worker about to be committed,
// counting across the whole run (not just the current section) — stonewall
// never opens a new group for the very first worker, only for later ones.
func (c *Context) GroupID(stonewall bool) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.workerCount++
	if stonewall && c.workerCount > 1 {
		c.groupID++
	}
	return c.groupID
}

// WorkerCount reports how many workers have had a group identifier assigned
// so far.
func (c *Context) WorkerCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.workerCount
}
