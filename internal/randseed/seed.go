// Package randseed seeds a worker's random-number streams and builds its
// block-coverage bitmaps.
package randseed

import (
	"crypto/rand"
	mrand "math/rand"
	"os"

	"github.com/ferdnyc/fio/internal/job"
)

// streamCount is the number of independent random streams a worker keeps:
// one each for block-size selection, offset selection within a file, and
// think-time jitter, plus a fourth for the actual I/O access pattern.
const streamCount = 4

// Streams holds the per-worker random-number generators.
type Streams struct {
	BS        *mrand.Rand
	Offset    *mrand.Rand
	Think     *mrand.Rand
	Access    *mrand.Rand
}

// Seed reads streamCount seed words from /dev/urandom (falling back to
// crypto/rand when the device can't be opened, e.g. inside a sandbox) and
// seeds all three positional streams unconditionally. For a non-sequential
// worker, the fourth (access-pattern) stream is also seeded — overridden
// with the fixed job.FIORandSeed constant when the worker asked for a
// repeatable sequence. A pure CPU-burn worker does no I/O at all and is
// skipped entirely by the caller.
func Seed(w *job.Worker) (*Streams, error) {
	seeds, err := readSeeds(streamCount)
	if err != nil {
		return nil, err
	}

	s := &Streams{
		BS:     mrand.New(mrand.NewSource(int64(seeds[0]))),
		Offset: mrand.New(mrand.NewSource(int64(seeds[1]))),
		Think:  mrand.New(mrand.NewSource(int64(seeds[2]))),
	}

	if !w.Sequential {
		accessSeed := seeds[3]
		if w.RandRepeatable {
			accessSeed = job.FIORandSeed
		}
		s.Access = mrand.New(mrand.NewSource(int64(accessSeed)))
	}

	return s, nil
}

func readSeeds(n int) ([]uint32, error) {
	buf := make([]byte, 4*n)

	f, err := os.Open("/dev/urandom")
	if err == nil {
		defer f.Close()
		if _, err := f.Read(buf); err == nil {
			return decodeSeeds(buf), nil
		}
	}

	if _, err := rand.Read(buf); err != nil {
		return nil, err
	}
	return decodeSeeds(buf), nil
}

func decodeSeeds(buf []byte) []uint32 {
	seeds := make([]uint32, len(buf)/4)
	for i := range seeds {
		seeds[i] = uint32(buf[i*4]) | uint32(buf[i*4+1])<<8 | uint32(buf[i*4+2])<<16 | uint32(buf[i*4+3])<<24
	}
	return seeds
}

// RandomOffset picks a block-aligned offset within f using the worker's
// access-pattern stream. Callers only use this for a non-sequential
// worker, where Seed guarantees r is non-nil.
func RandomOffset(r *mrand.Rand, f *job.FileRecord, bs uint64) int64 {
	if bs == 0 || f.Size < bs {
		return int64(f.Offset)
	}
	blocks := f.Size / bs
	return int64(f.Offset) + r.Int63n(int64(blocks))*int64(bs)
}

// BuildBlockMaps allocates a per-file block-coverage bitmap sized to the
// file's length divided by the worker's minimum block size, rounded up to
// a whole number of job.BlocksPerMap-sized words. Skipped when the worker
// set norandommap.
func BuildBlockMaps(w *job.Worker) {
	if w.NoRandomMap {
		return
	}
	minBS := w.MinBS[w.Ddir]
	if minBS == 0 {
		minBS = 1
	}
	for _, f := range w.Files {
		blocks := (f.Size + minBS - 1) / minBS
		words := (blocks + job.BlocksPerMap - 1) / job.BlocksPerMap
		f.NumMaps = int(words)
		f.FileMap = make([]uint32, words)
	}
}
