package job

import (
	"fmt"
	"strings"
	"time"

	"github.com/ferdnyc/fio/internal/harness"
	"github.com/ferdnyc/fio/internal/ioengine"
)

// OptKind classifies what shape of token an option's setter expects. It is
// descriptive only: neither CmdHelpText nor CLIReader.Parse consults it, and
// the actual conversion lives in each OptionSpec's Set closure.
type OptKind int

const (
	KindStrStore OptKind = iota // free string
	KindInt                     // bounded integer
	KindSizeVal                 // size-with-suffix integer
	KindTimeVal                 // time-with-suffix integer
	KindEnumStr                 // enumerated string
	KindRange                   // lo:hi[,lo:hi]
	KindStrSet                  // presence-only flag
)

// OptionSpec is one entry in the option schema registry: the single source
// of truth the INI reader and the CLI reader both dispatch through. Adding
// an option is exactly one entry in the Schema slice below.
type OptionSpec struct {
	Name string
	Kind OptKind
	Help string
	Def  string
	// Set performs the write-through dispatch: parse tok and assign it into
	// w (and, for a handful of options with harness-wide effects, into
	// env). Built once at package init as a closure over the field it
	// targets.
	Set func(env *harness.Context, w *Worker, tok string) error
}

// Schema is the full option table. Order is insignificant; Name is the key
// both readers look entries up by.
var Schema = buildSchema()

func buildSchema() []OptionSpec {
	return []OptionSpec{
		{Name: "name", Kind: KindStrStore, Help: "Name of this job", Set: func(env *harness.Context, w *Worker, tok string) error {
			w.Name = tok
			return nil
		}},
		{Name: "directory", Kind: KindStrStore, Help: "Directory to store files in", Set: func(env *harness.Context, w *Worker, tok string) error {
			w.Directory = tok
			return nil
		}},
		{Name: "filename", Kind: KindStrStore, Help: "Force the use of a specific file", Set: func(env *harness.Context, w *Worker, tok string) error {
			w.Filename = tok
			return nil
		}},
		{Name: "rw", Kind: KindEnumStr, Def: "read", Help: "IO direction",
			Set: func(env *harness.Context, w *Worker, tok string) error { return setRW(w, tok) }},
		{Name: "ioengine", Kind: KindEnumStr, Def: "sync", Help: "IO engine to use",
			Set: func(env *harness.Context, w *Worker, tok string) error { return setIOEngine(w, tok) }},
		{Name: "mem", Kind: KindEnumStr, Def: "malloc", Help: "Backing type for IO buffers",
			Set: func(env *harness.Context, w *Worker, tok string) error { return setMem(w, tok) }},
		{Name: "verify", Kind: KindEnumStr, Def: "0", Help: "Verify sum function",
			Set: func(env *harness.Context, w *Worker, tok string) error { return setVerify(w, tok) }},
		{Name: "write_iolog", Kind: KindStrStore, Help: "Store IO pattern to file", Set: func(env *harness.Context, w *Worker, tok string) error {
			w.WriteIOLog = tok
			return nil
		}},
		{Name: "read_iolog", Kind: KindStrStore, Help: "Playback IO pattern from file", Set: func(env *harness.Context, w *Worker, tok string) error {
			w.ReadIOLog = tok
			return nil
		}},
		{Name: "exec_prerun", Kind: KindStrStore, Help: "Execute this file prior to running job", Set: func(env *harness.Context, w *Worker, tok string) error {
			w.ExecPrerun = tok
			return nil
		}},
		{Name: "exec_postrun", Kind: KindStrStore, Help: "Execute this file after running job", Set: func(env *harness.Context, w *Worker, tok string) error {
			w.ExecPostrun = tok
			return nil
		}},
		{Name: "size", Kind: KindSizeVal, Help: "Size of device or file", Set: func(env *harness.Context, w *Worker, tok string) error {
			v, err := parseSize(tok)
			if err != nil {
				return err
			}
			w.TotalSize = v
			return nil
		}},
		{Name: "bs", Kind: KindSizeVal, Def: "4k", Help: "Block size unit", Set: func(env *harness.Context, w *Worker, tok string) error {
			v, err := parseSize(tok)
			if err != nil {
				return err
			}
			w.BS = ByDir[uint64]{v, v}
			return nil
		}},
		{Name: "offset", Kind: KindSizeVal, Def: "0", Help: "Start IO from this offset", Set: func(env *harness.Context, w *Worker, tok string) error {
			v, err := parseSize(tok)
			if err != nil {
				return err
			}
			w.StartOffset = v
			return nil
		}},
		{Name: "zonesize", Kind: KindSizeVal, Def: "0", Help: "Give size of an IO zone", Set: func(env *harness.Context, w *Worker, tok string) error {
			v, err := parseSize(tok)
			if err != nil {
				return err
			}
			w.ZoneSize = v
			return nil
		}},
		{Name: "zoneskip", Kind: KindSizeVal, Def: "0", Help: "Space between IO zones", Set: func(env *harness.Context, w *Worker, tok string) error {
			v, err := parseSize(tok)
			if err != nil {
				return err
			}
			w.ZoneSkip = v
			return nil
		}},
		{Name: "lockmem", Kind: KindSizeVal, Def: "0", Help: "Lock down this amount of memory", Set: func(env *harness.Context, w *Worker, tok string) error {
			v, err := parseSize(tok)
			if err != nil {
				return err
			}
			if env != nil {
				env.LockMemSize = v
			}
			return nil
		}},
		{Name: "bsrange", Kind: KindRange, Help: "Set block size range", Set: func(env *harness.Context, w *Worker, tok string) error {
			rr, rw, err := parseRange(tok)
			if err != nil {
				return err
			}
			w.MinBS[DirRead], w.MaxBS[DirRead] = rr.Lo, rr.Hi
			w.MinBS[DirWrite], w.MaxBS[DirWrite] = rw.Lo, rw.Hi
			return nil
		}},
		{Name: "randrepeat", Kind: KindInt, Def: "1", Help: "Use repeatable random IO pattern", Set: func(env *harness.Context, w *Worker, tok string) error {
			v, err := parseBool(tok)
			if err != nil {
				return err
			}
			w.RandRepeatable = v
			return nil
		}},
		{Name: "nrfiles", Kind: KindInt, Def: "1", Help: "Split job workload between this number of files", Set: func(env *harness.Context, w *Worker, tok string) error {
			v, err := parseInt(tok, 1, 0, true, false)
			if err != nil {
				return err
			}
			w.NrFiles = int(v)
			return nil
		}},
		{Name: "iodepth", Kind: KindInt, Def: "1", Help: "Amount of IO buffers to keep in flight", Set: func(env *harness.Context, w *Worker, tok string) error {
			v, err := parseInt(tok, 1, 0, true, false)
			if err != nil {
				return err
			}
			w.IODepth = int(v)
			return nil
		}},
		{Name: "fsync", Kind: KindInt, Def: "0", Help: "Issue fsync for writes every given number of blocks", Set: func(env *harness.Context, w *Worker, tok string) error {
			v, err := parseInt(tok, 0, 0, true, false)
			if err != nil {
				return err
			}
			w.FsyncBlocks = int(v)
			return nil
		}},
		{Name: "rwmixcycle", Kind: KindInt, Def: "500", Help: "Cycle period for mixed read/write workloads (msec)", Set: func(env *harness.Context, w *Worker, tok string) error {
			v, err := parseInt(tok, 0, 0, false, false)
			if err != nil {
				return err
			}
			w.RWMixCycle = msDuration(v)
			return nil
		}},
		{Name: "rwmixread", Kind: KindInt, Def: "50", Help: "Percentage of mixed workload that is reads", Set: func(env *harness.Context, w *Worker, tok string) error {
			v, err := parseInt(tok, 0, 100, true, true)
			if err != nil {
				return err
			}
			w.RWMixRead = int(v)
			return nil
		}},
		{Name: "rwmixwrite", Kind: KindInt, Def: "50", Help: "Percentage of mixed workload that is writes", Set: func(env *harness.Context, w *Worker, tok string) error {
			v, err := parseInt(tok, 0, 100, true, true)
			if err != nil {
				return err
			}
			w.RWMixWrite = int(v)
			return nil
		}},
		{Name: "nice", Kind: KindInt, Def: "0", Help: "Set job CPU nice value", Set: func(env *harness.Context, w *Worker, tok string) error {
			v, err := parseInt(tok, -19, 20, true, true)
			if err != nil {
				return err
			}
			w.Nice = int(v)
			return nil
		}},
		{Name: "prio", Kind: KindInt, Help: "Set job IO priority value", Set: func(env *harness.Context, w *Worker, tok string) error {
			v, err := parseInt(tok, 0, 7, true, true)
			if err != nil {
				return err
			}
			w.IOPrio = int(v)
			return nil
		}},
		{Name: "prioclass", Kind: KindInt, Help: "Set job IO priority class", Set: func(env *harness.Context, w *Worker, tok string) error {
			v, err := parseInt(tok, 0, 3, true, true)
			if err != nil {
				return err
			}
			w.IOPrioCls = int(v)
			return nil
		}},
		{Name: "thinktime", Kind: KindInt, Def: "0", Help: "Idle time between IO buffers", Set: func(env *harness.Context, w *Worker, tok string) error {
			v, err := parseInt(tok, 0, 0, false, false)
			if err != nil {
				return err
			}
			w.ThinkTime = msDuration(v)
			return nil
		}},
		{Name: "thinktime_blocks", Kind: KindInt, Def: "1", Help: "IO buffer period between 'thinktime'", Set: func(env *harness.Context, w *Worker, tok string) error {
			v, err := parseInt(tok, 0, 0, false, false)
			if err != nil {
				return err
			}
			w.ThinkTimeBlk = int(v)
			return nil
		}},
		{Name: "rate", Kind: KindInt, Help: "Set bandwidth rate", Set: func(env *harness.Context, w *Worker, tok string) error {
			v, err := parseInt(tok, 0, 0, false, false)
			if err != nil {
				return err
			}
			w.Rate = uint64(v)
			return nil
		}},
		{Name: "ratemin", Kind: KindInt, Help: "The bottom limit accepted", Set: func(env *harness.Context, w *Worker, tok string) error {
			v, err := parseInt(tok, 0, 0, false, false)
			if err != nil {
				return err
			}
			w.RateMin = uint64(v)
			return nil
		}},
		{Name: "ratecycle", Kind: KindInt, Def: "1000", Help: "Window average for rate limits (msec)", Set: func(env *harness.Context, w *Worker, tok string) error {
			v, err := parseInt(tok, 0, 0, false, false)
			if err != nil {
				return err
			}
			w.RateCycle = msDuration(v)
			return nil
		}},
		{Name: "startdelay", Kind: KindInt, Def: "0", Help: "Only start job when this period has passed", Set: func(env *harness.Context, w *Worker, tok string) error {
			v, err := parseInt(tok, 0, 0, false, false)
			if err != nil {
				return err
			}
			w.StartDelay = msDuration(v * 1000)
			return nil
		}},
		{Name: "timeout", Kind: KindTimeVal, Def: "0", Help: "Stop workload when this amount of time has passed", Set: func(env *harness.Context, w *Worker, tok string) error {
			d, err := parseTime(tok)
			if err != nil {
				return err
			}
			w.Timeout = d
			return nil
		}},
		{Name: "invalidate", Kind: KindInt, Def: "1", Help: "Invalidate buffer/page cache prior to running job", Set: func(env *harness.Context, w *Worker, tok string) error {
			v, err := parseBool(tok)
			if err != nil {
				return err
			}
			w.InvalidateCache = v
			return nil
		}},
		{Name: "sync", Kind: KindInt, Def: "0", Help: "Use O_SYNC for buffered writes", Set: func(env *harness.Context, w *Worker, tok string) error {
			v, err := parseBool(tok)
			if err != nil {
				return err
			}
			w.SyncIO = v
			return nil
		}},
		{Name: "bwavgtime", Kind: KindInt, Def: "500", Help: "Time window over which to calculate bandwidth (msec)", Set: func(env *harness.Context, w *Worker, tok string) error {
			v, err := parseInt(tok, 0, 0, false, false)
			if err != nil {
				return err
			}
			w.BWAvgTime = msDuration(v)
			return nil
		}},
		{Name: "create_serialize", Kind: KindInt, Def: "1", Help: "Serialize creating of job files", Set: func(env *harness.Context, w *Worker, tok string) error {
			v, err := parseBool(tok)
			if err != nil {
				return err
			}
			w.CreateSerialize = v
			return nil
		}},
		{Name: "create_fsync", Kind: KindInt, Def: "1", Help: "Fsync file after creation", Set: func(env *harness.Context, w *Worker, tok string) error {
			v, err := parseBool(tok)
			if err != nil {
				return err
			}
			w.CreateFsync = v
			return nil
		}},
		{Name: "loops", Kind: KindInt, Def: "1", Help: "Number of times to run the job", Set: func(env *harness.Context, w *Worker, tok string) error {
			v, err := parseInt(tok, 1, 0, true, false)
			if err != nil {
				return err
			}
			w.Loops = int(v)
			return nil
		}},
		{Name: "numjobs", Kind: KindInt, Def: "1", Help: "Duplicate this job this many times", Set: func(env *harness.Context, w *Worker, tok string) error {
			v, err := parseInt(tok, 1, 0, true, false)
			if err != nil {
				return err
			}
			w.numJobs = int(v)
			return nil
		}},
		{Name: "cpuload", Kind: KindInt, Help: "Use this percentage of CPU", Set: func(env *harness.Context, w *Worker, tok string) error {
			v, err := parseInt(tok, 0, 100, true, true)
			if err != nil {
				return err
			}
			w.CPULoad = int(v)
			return nil
		}},
		{Name: "cpuchunks", Kind: KindInt, Help: "Length of the CPU burn cycles", Set: func(env *harness.Context, w *Worker, tok string) error {
			v, err := parseInt(tok, 0, 0, false, false)
			if err != nil {
				return err
			}
			w.CPUCycle = int(v)
			return nil
		}},
		{Name: "direct", Kind: KindInt, Def: "1", Help: "Use O_DIRECT IO", Set: func(env *harness.Context, w *Worker, tok string) error {
			v, err := parseBool(tok)
			if err != nil {
				return err
			}
			w.ODirect = v
			return nil
		}},
		{Name: "overwrite", Kind: KindInt, Def: "0", Help: "When writing, set whether to overwrite current data", Set: func(env *harness.Context, w *Worker, tok string) error {
			v, err := parseBool(tok)
			if err != nil {
				return err
			}
			w.Overwrite = v
			return nil
		}},
		{Name: "cpumask", Kind: KindInt, Help: "CPU affinity mask", Set: func(env *harness.Context, w *Worker, tok string) error {
			v, err := parseInt(tok, 0, 0, false, false)
			if err != nil {
				return err
			}
			w.CPUMask = uint64(v)
			return nil
		}},
		{Name: "end_fsync", Kind: KindInt, Def: "0", Help: "Include fsync at the end of job", Set: func(env *harness.Context, w *Worker, tok string) error {
			v, err := parseBool(tok)
			if err != nil {
				return err
			}
			w.EndFsync = v
			return nil
		}},
		{Name: "unlink", Kind: KindInt, Def: "1", Help: "Unlink created files after job has completed", Set: func(env *harness.Context, w *Worker, tok string) error {
			v, err := parseBool(tok)
			if err != nil {
				return err
			}
			w.Unlink = v
			return nil
		}},
		{Name: "exitall", Kind: KindStrSet, Help: "Terminate all jobs when one exits", Set: func(env *harness.Context, w *Worker, tok string) error {
			if env != nil {
				env.ExitAllOnTerminate = true
			}
			return nil
		}},
		{Name: "stonewall", Kind: KindStrSet, Help: "Insert a hard barrier between this job and previous", Set: func(env *harness.Context, w *Worker, tok string) error {
			w.Stonewall = true
			return nil
		}},
		{Name: "write_bw_log", Kind: KindStrSet, Help: "Write log of bandwidth during run", Set: func(env *harness.Context, w *Worker, tok string) error {
			w.WriteBWLog = true
			return nil
		}},
		{Name: "write_lat_log", Kind: KindStrSet, Help: "Write log of latency during run", Set: func(env *harness.Context, w *Worker, tok string) error {
			w.WriteLatLog = true
			return nil
		}},
		{Name: "norandommap", Kind: KindStrSet, Help: "Accept potential duplicate random blocks", Set: func(env *harness.Context, w *Worker, tok string) error {
			w.NoRandomMap = true
			return nil
		}},
		{Name: "bs_unaligned", Kind: KindStrSet, Help: "Don't sector align IO buffer sizes", Set: func(env *harness.Context, w *Worker, tok string) error {
			w.BSUnaligned = true
			return nil
		}},
		{Name: "hugepage-size", Kind: KindSizeVal, Def: "4194304", Help: "When using hugepages, specify size of each page", Set: func(env *harness.Context, w *Worker, tok string) error {
			v, err := parseSize(tok)
			if err != nil {
				return err
			}
			w.HugepageSize = v
			return nil
		}},
	}
}

func msDuration(ms int64) time.Duration {
	return time.Duration(ms) * time.Millisecond
}

// Lookup finds an option by name, or reports ok=false.
func Lookup(name string) (OptionSpec, bool) {
	for _, o := range Schema {
		if o.Name == name {
			return o, true
		}
	}
	return OptionSpec{}, false
}

func setRW(w *Worker, tok string) error {
	matched, err := parseEnum(tok, []string{"read", "write", "randwrite", "randread", "rw", "randrw"})
	if err != nil {
		return fmt.Errorf("data direction: read, write, randread, randwrite, rw, randrw")
	}
	switch matched {
	case "read":
		w.Ddir, w.Sequential, w.IOMix = DirRead, true, false
	case "randread":
		w.Ddir, w.Sequential, w.IOMix = DirRead, false, false
	case "write":
		w.Ddir, w.Sequential, w.IOMix = DirWrite, true, false
	case "randwrite":
		w.Ddir, w.Sequential, w.IOMix = DirWrite, false, false
	case "rw":
		w.Ddir, w.Sequential, w.IOMix = DirRead, true, true
	case "randrw":
		w.Ddir, w.Sequential, w.IOMix = DirRead, false, true
	}
	return nil
}

func setIOEngine(w *Worker, tok string) error {
	eng, err := ioengine.Resolve(tok)
	if err != nil {
		return err
	}
	w.IOEngineName = tok
	w.IOEngine = eng
	return nil
}

func setMem(w *Worker, tok string) error {
	switch {
	case strings.HasPrefix(tok, "malloc"):
		w.MemType = MemMalloc
	case strings.HasPrefix(tok, "mmaphuge"):
		w.MmapFile = mmapFileArg(tok)
		w.MemType = MemMmapHuge
	case strings.HasPrefix(tok, "mmap"):
		w.MmapFile = mmapFileArg(tok)
		w.MemType = MemMmap
	case strings.HasPrefix(tok, "shmhuge"):
		w.MemType = MemSHMHuge
	case strings.HasPrefix(tok, "shm"):
		w.MemType = MemSHM
	default:
		return fmt.Errorf("mem type: malloc, shm, shmhuge, mmap, mmaphuge")
	}
	return nil
}

// mmapFileArg extracts the optional ":/path/to/file" suffix from an
// mmap/mmaphuge token.
func mmapFileArg(tok string) string {
	idx := strings.Index(tok, ":")
	if idx < 0 {
		return ""
	}
	return strings.TrimSpace(tok[idx+1:])
}

func setVerify(w *Worker, tok string) error {
	switch {
	case tok == "0":
		w.Verify = VerifyNone
	case tok == "1" || strings.HasPrefix(tok, "md5"):
		w.Verify = VerifyMD5
	case strings.HasPrefix(tok, "crc32"):
		w.Verify = VerifyCRC32
	default:
		return fmt.Errorf("verify types: md5, crc32")
	}
	return nil
}

