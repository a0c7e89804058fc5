package job

import (
	"bufio"
	"io"
	"strings"

	"github.com/ferdnyc/fio/internal/harness"
)

// iniSection is one parsed [name] block: the section name and its ordered
// key=value (or bare key) lines, before any option dispatch happens.
type iniSection struct {
	Name  string
	Lines []string
}

// iniScanner streams r line by line for parseSections. Per Design
// Note "Mixed INI parsing", this keeps one line of pushback instead of
// seeking the file position back and forth: when a "[" line is seen while
// collecting a section's body, it is held for the next call to next rather
// than being re-read from the stream.
type iniScanner struct {
	sc      *bufio.Scanner
	pending string
	hasPend bool
}

func newINIScanner(r io.Reader) *iniScanner {
	return &iniScanner{sc: bufio.NewScanner(r)}
}

func (s *iniScanner) next() (string, bool) {
	if s.hasPend {
		s.hasPend = false
		return s.pending, true
	}
	if !s.sc.Scan() {
		return "", false
	}
	return s.sc.Text(), true
}

func (s *iniScanner) pushback(line string) {
	s.pending = line
	s.hasPend = true
}

func isEmptyOrComment(line string) bool {
	trimmed := strings.TrimLeft(line, " \t\r\n")
	if trimmed == "" {
		return true
	}
	return trimmed[0] == ';'
}

// parseSections splits r into an ordered list of sections.
func parseSections(r io.Reader) ([]iniSection, error) {
	sc := newINIScanner(r)
	var sections []iniSection

	for {
		line, ok := sc.next()
		if !ok {
			break
		}
		if isEmptyOrComment(line) {
			continue
		}
		name, ok := sectionHeader(line)
		if !ok {
			continue // stray option line before any section; ignore
		}

		sec := iniSection{Name: name}
		for {
			body, ok := sc.next()
			if !ok {
				break
			}
			if isEmptyOrComment(body) {
				continue
			}
			trimmed := strings.TrimSpace(body)
			if strings.HasPrefix(trimmed, "[") {
				sc.pushback(body)
				break
			}
			sec.Lines = append(sec.Lines, trimmed)
		}
		sections = append(sections, sec)
	}
	return sections, nil
}

// sectionHeader matches "[name]" (name excludes "]") and returns name.
func sectionHeader(line string) (string, bool) {
	trimmed := strings.TrimSpace(line)
	if len(trimmed) < 2 || trimmed[0] != '[' {
		return "", false
	}
	end := strings.Index(trimmed, "]")
	if end < 1 {
		return "", false
	}
	return trimmed[1:end], true
}

// ApplyLine dispatches one trimmed "key=value" or bare "key" line against
// the schema.
func ApplyLine(env *harness.Context, w *Worker, line string) error {
	key, val, _ := strings.Cut(line, "=")
	key = strings.TrimSpace(key)
	val = strings.TrimSpace(val)

	spec, ok := Lookup(key)
	if !ok {
		return newErr(KindSemantic, key, "unknown option %q", key)
	}
	if err := spec.Set(env, w, val); err != nil {
		return newErr(KindSemantic, key, "%w", err)
	}
	return nil
}

// ParseINI reads an INI-format job file and returns the built workers.
// Option parse errors within a section are collected (not aborted): every
// remaining option in the section is still attempted so the user sees all
// mistakes at once, and the worker is discarded if any error occurred.
// The literal section name "global" re-seeds the defaults descriptor rather
// than allocating a new worker.
func ParseINI(env *harness.Context, r io.Reader, defaults *Worker, table *Table, errOut func(format string, a ...interface{})) ([]*Worker, error) {
	sections, err := parseSections(r)
	if err != nil {
		return nil, err
	}

	var built []*Worker
	for _, sec := range sections {
		if strings.EqualFold(sec.Name, "global") {
			*defaults = *applyToNewGlobal(defaults, env, sec.Lines, errOut)
			continue
		}

		w := defaults.Clone()
		var errs []error
		for _, line := range sec.Lines {
			if err := ApplyLine(env, w, line); err != nil {
				errs = append(errs, err)
			}
		}
		if len(errs) > 0 {
			for _, e := range errs {
				errOut("%v", e)
			}
			errOut("job %s dropped", sec.Name)
			continue
		}

		results, err := Build(env, w, sec.Name, table, 0)
		if err != nil {
			errOut("%v", err)
			continue
		}
		built = append(built, results...)
	}
	return built, nil
}

func applyToNewGlobal(defaults *Worker, env *harness.Context, lines []string, errOut func(format string, a ...interface{})) *Worker {
	w := defaults.Clone()
	for _, line := range lines {
		if err := ApplyLine(env, w, line); err != nil {
			errOut("%v", err)
		}
	}
	return w
}
