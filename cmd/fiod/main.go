// Command fiod is the job-configuration and provisioning front end: it
// reads job descriptions from INI files and/or long-flag command-line
// tokens, builds and commits workers, then runs their stonewall groups in
// order against whatever backend each worker resolved.
package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/ferdnyc/fio/internal/harness"
	"github.com/ferdnyc/fio/internal/ioengine"
	"github.com/ferdnyc/fio/internal/job"
	"github.com/ferdnyc/fio/internal/memory"
	"github.com/ferdnyc/fio/internal/randseed"
)

const (
	exitOK   = 0
	exitFail = 1
)

const version = "0.1.0"

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	errOut := harness.NewErrPrinter(os.Stderr)
	defer errOut.Exit()

	hf := &job.HarnessFlags{}
	fs := job.BuildFlagSet(hf)

	root := &cobra.Command{
		Use:           "fiod",
		Short:         "storage I/O workload generator",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	runCmd := &cobra.Command{
		Use:                "run [job.ini ...]",
		Short:              "run the jobs described by the given INI files and/or --option tokens",
		DisableFlagParsing: true,
		RunE: func(cmd *cobra.Command, rawArgs []string) error {
			return runJobs(errOut, hf, fs, rawArgs)
		},
	}
	root.AddCommand(runCmd)

	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		errOut.Send("%v\n", err)
		return exitFail
	}
	return exitOK
}

func runJobs(errOut *harness.ErrPrinter, hf *job.HarnessFlags, fs *pflag.FlagSet, rawArgs []string) error {
	fileArgs, optionArgs, err := splitArgs(fs, rawArgs)
	if err != nil {
		return err
	}

	outWriter := io.Writer(os.Stdout)
	if hf.Output != "" {
		f, err := os.Create(hf.Output)
		if err != nil {
			return fmt.Errorf("open %s: %w", hf.Output, err)
		}
		defer f.Close()
		outWriter = f
	}
	out := harness.NewPrinter(outWriter)
	defer out.Exit()
	env := harness.New(out, errOut)
	if hf.Minimal {
		env.Terse = true
	}

	if hf.Version {
		env.Out.Send("fiod %s\n", version)
		return nil
	}

	if hf.CmdHelp != "" {
		env.Out.Send("%s", job.CmdHelpText(hf.CmdHelp))
		return nil
	}

	defaults := job.NewDefaults()
	if hf.Timeout != "" {
		if err := job.ApplyLine(env, defaults, "timeout="+hf.Timeout); err != nil {
			return fmt.Errorf("--timeout: %w", err)
		}
	}
	if hf.BandwidthLog {
		if err := job.ApplyLine(env, defaults, "write_bw_log"); err != nil {
			return fmt.Errorf("--bandwidth-log: %w", err)
		}
	}
	if hf.LatencyLog {
		if err := job.ApplyLine(env, defaults, "write_lat_log"); err != nil {
			return fmt.Errorf("--latency-log: %w", err)
		}
	}

	table, err := job.NewTable(job.DefaultMaxJobs)
	if err != nil {
		return fmt.Errorf("allocate worker table: %w", err)
	}
	defer table.Close()

	var pinned *memory.PinnedRegion
	if env.LockMemSize > 0 {
		pinned, err = memory.Pin(env.LockMemSize)
		if err != nil {
			return fmt.Errorf("pin memory: %w", err)
		}
		defer pinned.Unpin()
	}

	var built []*job.Worker

	for _, path := range fileArgs {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("open %s: %w", path, err)
		}
		results, err := job.ParseINI(env, f, defaults, table, func(format string, a ...interface{}) {
			env.Err.Send(format, a...)
		})
		f.Close()
		if err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
		built = append(built, results...)
	}

	if len(optionArgs) > 0 {
		reader := job.NewCLIReader(env, defaults, table)
		results, err := reader.Parse(optionArgs)
		if err != nil {
			return err
		}
		built = append(built, results...)
	}

	if len(built) == 0 {
		return fmt.Errorf("no jobs defined")
	}

	if hf.DumpWorker {
		for _, w := range built {
			env.Out.Send("%s\n", spew.Sdump(w))
		}
	}

	runGroups(env, built)
	return nil
}

// splitArgs partitions rawArgs into three buckets: harness-flag tokens
// (parsed immediately through fs so hf gets populated), job-option tokens,
// and trailing bare INI file paths. The job-bearing subcommand disables
// cobra/pflag's own parsing, so this loop does the recognize-one-token-at-
// a-time work pflag would otherwise do for us, exactly because a job option
// boundary depends on occurrence order in a way pflag's parse-once model
// can't express.
func splitArgs(fs *pflag.FlagSet, rawArgs []string) (files, options []string, err error) {
	var harnessToks []string

	for i := 0; i < len(rawArgs); i++ {
		tok := rawArgs[i]
		if len(tok) >= 2 && tok[:2] == "--" {
			name := tok[2:]
			if eq := indexByte(name, '='); eq >= 0 {
				name = name[:eq]
			}
			if isHarnessFlag(name) {
				harnessToks = append(harnessToks, tok)
				if fl := fs.Lookup(name); fl != nil && indexByte(tok, '=') < 0 &&
					fl.Value.Type() != "bool" && i+1 < len(rawArgs) {
					harnessToks = append(harnessToks, rawArgs[i+1])
					i++
				}
				continue
			}
			options = append(options, tok)
			continue
		}
		if len(options) > 0 {
			// a bare value following an option token belongs to it, not to
			// the file list; the CLI reader pairs it with that option.
			options = append(options, tok)
			continue
		}
		files = append(files, tok)
	}

	if len(harnessToks) > 0 {
		if err := fs.Parse(harnessToks); err != nil {
			return nil, nil, err
		}
	}
	return files, options, nil
}

func isHarnessFlag(name string) bool {
	switch name {
	case "output", "timeout", "latency-log", "bandwidth-log", "minimal", "version", "cmdhelp", "dump-worker":
		return true
	default:
		return false
	}
}

func indexByte(s string, b byte) int {
	for i := 0; i < len(s); i++ {
		if s[i] == b {
			return i
		}
	}
	return -1
}

// runGroups executes committed workers one stonewall group at a time, in
// ascending group order, so a later group never starts before every worker
// in an earlier group has finished.
func runGroups(env *harness.Context, workers []*job.Worker) {
	groups := map[int][]*job.Worker{}
	for _, w := range workers {
		groups[w.GroupID] = append(groups[w.GroupID], w)
	}
	var ids []int
	for id := range groups {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	for _, id := range ids {
		for _, w := range groups[id] {
			runWorker(env, w)
		}
	}
}

func runWorker(env *harness.Context, w *job.Worker) {
	randseed.BuildBlockMaps(w)

	// A CPU-burn worker does no I/O, so it gets no random streams.
	var streams *randseed.Streams
	if w.EngineFlags&ioengine.CPUIO == 0 {
		var err error
		streams, err = randseed.Seed(w)
		if err != nil {
			env.Err.Send("%s: seed random streams: %v\n", w.Name, err)
			return
		}
	}

	buf, err := memory.Acquire(w, w.BS[w.Ddir])
	if err != nil {
		env.Err.Send("%s: acquire buffer: %v\n", w.Name, err)
		return
	}
	defer buf.Release()

	start := time.Now()
	for _, f := range w.Files {
		if w.Timeout > 0 && time.Since(start) >= w.Timeout {
			env.Out.Send("%s: timeout reached, stopping\n", w.Name)
			break
		}
		handle, err := w.IOEngine.Open(f.Path, w.Overwrite)
		if err != nil {
			env.Err.Send("%s: %s: %v\n", w.Name, f.Path, err)
			continue
		}
		offset := int64(f.Offset)
		if !w.Sequential && streams != nil && streams.Access != nil {
			offset = randseed.RandomOffset(streams.Access, f, w.BS[w.Ddir])
		}
		if w.Ddir == job.DirWrite || w.IOMix {
			handle.WriteAt(buf.Data, offset)
		}
		if w.Ddir == job.DirRead || w.IOMix {
			handle.ReadAt(buf.Data, offset)
		}
		handle.Sync()
		handle.Close()
	}
}
