package job

import (
	"fmt"
	"os"
	"strconv"

	"github.com/ferdnyc/fio/internal/harness"
	"github.com/ferdnyc/fio/internal/ioengine"
)

// Build validates and cross-fixes a populated worker descriptor, materializes
// its file list, assigns its group identifier, and — on success — commits it
// (and any numjobs replicas) into table. jobAddNum is 0 for the first call on
// a section and is used only to decide what the per-worker summary line
// looks like: 0 prints full detail, 1 prints "...", anything higher prints
// nothing. Replica i (1-based) of numjobs uses numjobs-i-1, so the last
// replica prints full detail and the one before it prints "...".
func Build(env *harness.Context, w *Worker, sectionName string, table *Table, jobAddNum int) ([]*Worker, error) {
	if w.IOEngine == nil {
		return nil, newErr(KindSemantic, "ioengine", "ioengine must be resolved before add_job")
	}

	w.EngineFlags = w.IOEngine.Flags()
	if w.ODirect {
		w.EngineFlags |= ioengine.RawIO
	}

	w.FileType = classifyTarget(sectionName)

	fixupOptions(env, w)

	if w.Filename != "" {
		w.NrUniqFiles = 1
	} else {
		w.NrUniqFiles = w.NrFiles
	}

	// Reserve the slot (and its 1-based Index) before the file set is
	// named, since the regular-file naming convention is keyed on it.
	committed, err := table.GetNewJob(w)
	if err != nil {
		return nil, newErr(KindResource, "", "%w", err)
	}
	w.Index = committed.Index

	if err := buildFileSet(w, sectionName); err != nil {
		table.PutJob(committed)
		return nil, newErr(KindEnvironmental, "", "%w", err)
	}

	w.GroupID = env.GroupID(w.Stonewall)

	if err := setupRate(w); err != nil {
		table.PutJob(committed)
		return nil, newErr(KindResource, "", "%w", err)
	}

	if w.Name == "" {
		w.Name = sectionName
	}

	if !env.Terse {
		printSummary(env, w, jobAddNum)
	}

	*committed = *w

	results := []*Worker{committed}

	// Materialize numjobs replicas iteratively (not recursively, per the
	// re-architecture note): each shares the group identifier established
	// above and has its own numjobs reset to 1 and stonewall cleared, since
	// barriers apply to the group as a whole, not to individual replicas.
	numJobs := w.numJobs
	for i := 1; i < numJobs; i++ {
		replica, err := table.GetNewJob(w)
		if err != nil {
			for _, c := range results {
				table.PutJob(c)
			}
			return nil, newErr(KindResource, "", "%w", err)
		}
		replica.numJobs = 1
		replica.Stonewall = false
		replica.GroupID = w.GroupID
		if err := buildFileSet(replica, sectionName); err != nil {
			for _, c := range append(results, replica) {
				table.PutJob(c)
			}
			return nil, newErr(KindEnvironmental, "", "%w", err)
		}
		// job_add_num for replica i (1-based) is numJobs-i-1: the last
		// replica always prints full detail, the one before it prints
		// "...", and any earlier than that print nothing. See DESIGN.md.
		replicaAddNum := numJobs - i - 1
		if !env.Terse {
			printSummary(env, replica, replicaAddNum)
		}
		results = append(results, replica)
	}

	return results, nil
}

func classifyTarget(sectionName string) FileType {
	fi, err := os.Stat(sectionName)
	if err != nil {
		return FileTypeRegular
	}
	mode := fi.Mode()
	switch {
	case mode&os.ModeDevice != 0 && mode&os.ModeCharDevice == 0:
		return FileTypeBlock
	case mode&os.ModeCharDevice != 0:
		return FileTypeChar
	default:
		return FileTypeRegular
	}
}

// fixupOptions applies the cross-field corrections in invariants 3-10.
func fixupOptions(env *harness.Context, w *Worker) {
	// invariant 4: rwmixread + rwmixwrite == 100. Neither given backfills
	// both to the 50/50 default; only one given complements the other from
	// it. Two given values are left as they are.
	if w.RWMixRead == 0 && w.RWMixWrite == 0 {
		w.RWMixRead, w.RWMixWrite = 50, 50
	} else if w.RWMixRead == 0 && w.RWMixWrite != 0 {
		w.RWMixRead = 100 - w.RWMixWrite
	} else if w.RWMixWrite == 0 && w.RWMixRead != 0 {
		w.RWMixWrite = 100 - w.RWMixRead
	}

	// invariant 5: read_iolog wins over write_iolog
	if w.WriteIOLog != "" && w.ReadIOLog != "" {
		w.WriteIOLog = ""
	}

	// invariant 6: sync-only backend forces iodepth=1; otherwise default to
	// the file count when unset
	if w.EngineFlags&ioengine.SyncOnly != 0 {
		w.IODepth = 1
	} else if w.IODepth == 0 {
		w.IODepth = w.NrFiles
	}

	if w.BSUnaligned && w.EngineFlags&ioengine.RawIO != 0 {
		env.Err.Send("bs_unaligned may not work with raw io\n")
	}

	// invariant 10: zone stepping only for single-file sequential workloads
	if w.ZoneSize != 0 && !(w.Sequential && w.NrFiles == 1) {
		w.ZoneSize = 0
	}

	// invariant 8: reads (pure or mixed) always pre-create their files
	if w.Ddir == DirRead || w.IOMix {
		w.Overwrite = true
	}

	// invariant 3: min/max collapse to bs when unset
	if w.MinBS[DirRead] == 0 {
		w.MinBS[DirRead] = w.BS[DirRead]
	}
	if w.MaxBS[DirRead] == 0 {
		w.MaxBS[DirRead] = w.BS[DirRead]
	}
	if w.MinBS[DirWrite] == 0 {
		w.MinBS[DirWrite] = w.BS[DirWrite]
	}
	if w.MaxBS[DirWrite] == 0 {
		w.MaxBS[DirWrite] = w.BS[DirWrite]
	}

	// invariant 9: no-random-map plus any verify kind disables verify
	if w.NoRandomMap && w.Verify != VerifyNone {
		w.Verify = VerifyNone
	}

	// O_DIRECT and character devices don't mix (invariant 7)
	if w.FileType == FileTypeChar && w.ODirect {
		w.ODirect = false
	}
}

// buildFileSet decides the file list and divides size equally among files.
func buildFileSet(w *Worker, sectionName string) error {
	w.Files = nil

	if w.FileType == FileTypeRegular || w.Filename != "" {
		for i := 0; i < w.NrFiles; i++ {
			var path string
			if w.Filename != "" {
				path = joinPath(w.Directory, w.Filename)
			} else {
				path = joinPath(w.Directory, fmt.Sprintf("%s.%d.%d", sectionName, w.Index, i))
			}
			w.Files = append(w.Files, &FileRecord{FD: -1, Path: path})
		}
	} else {
		w.Files = append(w.Files, &FileRecord{FD: -1, Path: sectionName})
		w.NrFiles = 1
	}

	for _, f := range w.Files {
		f.Size = w.TotalSize / uint64(len(w.Files))
		f.Offset = w.StartOffset
	}
	return nil
}

func joinPath(dir, name string) string {
	if dir == "" {
		return name
	}
	return dir + "/" + name
}

// setupRate resolves rate-limit helpers. Nothing to allocate beyond
// validating the configured values; bucket accounting lives in the run
// loop, a peer subsystem.
func setupRate(w *Worker) error {
	if w.RateMin > w.Rate && w.Rate != 0 {
		return fmt.Errorf("ratemin (%d) exceeds rate (%d)", w.RateMin, w.Rate)
	}
	return nil
}

func printSummary(env *harness.Context, w *Worker, jobAddNum int) {
	if jobAddNum != 0 {
		if jobAddNum == 1 {
			env.Out.Send("...\n")
		}
		return
	}
	if w.EngineFlags&ioengine.CPUIO != 0 {
		env.Out.Send("%s: ioengine=cpu, cpuload=%d, cpucycle=%d\n", w.Name, w.CPULoad, w.CPUCycle)
		return
	}
	env.Out.Send("%s: (g=%d): rw=%s, odir=%s, bs=%s-%s/%s-%s, rate=%d, ioengine=%s, iodepth=%d\n",
		w.Name, w.GroupID, rwString(w), strconv.FormatBool(w.ODirect),
		toKMG(w.MinBS[DirRead]), toKMG(w.MaxBS[DirRead]),
		toKMG(w.MinBS[DirWrite]), toKMG(w.MaxBS[DirWrite]),
		w.Rate, w.IOEngineName, w.IODepth)
}

func rwString(w *Worker) string {
	switch {
	case w.IOMix && !w.Sequential:
		return "randrw"
	case w.IOMix:
		return "rw"
	case w.Ddir == DirRead && w.Sequential:
		return "read"
	case w.Ddir == DirRead:
		return "randread"
	case w.Sequential:
		return "write"
	default:
		return "randwrite"
	}
}

// toKMG formats a byte count using the largest k/m/g/p suffix that divides
// it evenly, falling back to a plain decimal count otherwise.
func toKMG(val uint64) string {
	suffixes := []byte{0, 'K', 'M', 'G', 'P'}
	idx := 0
	for val != 0 && val&1023 == 0 && idx < len(suffixes)-1 {
		val >>= 10
		idx++
	}
	if suffixes[idx] == 0 {
		return fmt.Sprintf("%d", val)
	}
	return fmt.Sprintf("%d%c", val, suffixes[idx])
}
