package job

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"

	"github.com/ferdnyc/fio/internal/harness"
)

// HarnessFlags holds the top-level run options that are not part of any
// job's option schema.
type HarnessFlags struct {
	Output       string
	Timeout      string
	LatencyLog   bool
	BandwidthLog bool
	Minimal      bool
	Version      bool
	CmdHelp      string
	DumpWorker   bool
}

// BuildFlagSet merges the harness flags with the entries of the option
// schema into one pflag.FlagSet, the Go equivalent of dupe_job_options:
// harness flags plus one string flag per schema option. A schema option
// whose name is already a harness flag (timeout) keeps the harness
// definition. cmd/fiod parses harness-flag tokens through this set and asks
// it whether a harness flag takes a value; --cmdhelp text comes from
// CmdHelpText, and job-option tokens are scanned by CLIReader.Parse.
func BuildFlagSet(hf *HarnessFlags) *pflag.FlagSet {
	fs := pflag.NewFlagSet("fiod", pflag.ContinueOnError)

	fs.StringVar(&hf.Output, "output", "", "write output to file instead of stdout")
	fs.StringVar(&hf.Timeout, "timeout", "", "runtime in seconds")
	fs.BoolVar(&hf.LatencyLog, "latency-log", false, "write per-job latency log files")
	fs.BoolVar(&hf.BandwidthLog, "bandwidth-log", false, "write per-job bandwidth log files")
	fs.BoolVar(&hf.Minimal, "minimal", false, "minimal (terse) output")
	fs.BoolVar(&hf.Version, "version", false, "print version and exit")
	fs.StringVar(&hf.CmdHelp, "cmdhelp", "", "print option help (or \"all\") and exit")
	fs.BoolVar(&hf.DumpWorker, "dump-worker", false, "dump each built worker descriptor before running")
	fs.MarkHidden("dump-worker")

	for _, spec := range Schema {
		if fs.Lookup(spec.Name) != nil {
			continue
		}
		fs.String(spec.Name, spec.Def, spec.Help)
	}

	return fs
}

// CmdHelpText renders --cmdhelp output: a one-line summary for every
// schema entry, or, for a single name, that entry's help and default.
func CmdHelpText(which string) string {
	var b strings.Builder
	for _, spec := range Schema {
		if which != "all" && which != "" && which != spec.Name {
			continue
		}
		fmt.Fprintf(&b, "%-20s %s", spec.Name, spec.Help)
		if spec.Def != "" {
			fmt.Fprintf(&b, " (default: %s)", spec.Def)
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// CLIReader owns the stateful argv scan: unlike pflag's parse-once model, a
// job option boundary is decided by occurrence order (seeing "name=" starts
// a new job), not by flag position, so the option schema (Lookup) is
// consulted only to recognize a token, never to drive the loop itself.
type CLIReader struct {
	env      *harness.Context
	defaults *Worker
	table    *Table
}

// NewCLIReader builds a reader that commits jobs straight into table as
// they're recognized, exactly as ParseINI does for file-backed jobs.
func NewCLIReader(env *harness.Context, defaults *Worker, table *Table) *CLIReader {
	return &CLIReader{env: env, defaults: defaults, table: table}
}

// Parse scans args (already stripped of harness flags by the caller's
// pflag pass) for job option tokens of the form "--name=value" or
// "--name value", starting a new job every time it sees a "name=" token
// (the job-boundary rule) and committing the job in progress whenever a new
// boundary, or the end of args, is reached.
func (r *CLIReader) Parse(args []string) ([]*Worker, error) {
	var built []*Worker
	var cur *Worker
	var sectionName string

	commit := func() error {
		if cur == nil {
			return nil
		}
		results, err := Build(r.env, cur, sectionName, r.table, 0)
		if err != nil {
			return err
		}
		built = append(built, results...)
		cur = nil
		return nil
	}

	i := 0
	for i < len(args) {
		tok := args[i]
		i++

		name, val, hasVal := cutOption(tok)
		if name == "" {
			continue
		}

		if name == "name" {
			if err := commit(); err != nil {
				return built, err
			}
			if !hasVal && i < len(args) {
				val = args[i]
				i++
			}
			cur = r.defaults.Clone()
			sectionName = val
			continue
		}

		if cur == nil {
			cur = r.defaults.Clone()
			sectionName = name
		}

		spec, ok := Lookup(name)
		if !ok {
			return built, newErr(KindSyntax, name, "unknown option %q", name)
		}
		if !hasVal && i < len(args) && !looksLikeOption(args[i]) {
			val = args[i]
			i++
		}
		if err := spec.Set(r.env, cur, val); err != nil {
			return built, newErr(KindSemantic, name, "%w", err)
		}
	}

	if err := commit(); err != nil {
		return built, err
	}
	return built, nil
}

// cutOption splits a "--name" or "--name=value" token into its bare name
// and value. name is "" for anything not shaped like a long option.
func cutOption(tok string) (name, val string, hasVal bool) {
	if !strings.HasPrefix(tok, "--") {
		return "", "", false
	}
	body := tok[2:]
	if eq := strings.IndexByte(body, '='); eq >= 0 {
		return body[:eq], body[eq+1:], true
	}
	return body, "", false
}

func looksLikeOption(tok string) bool {
	return strings.HasPrefix(tok, "--")
}
