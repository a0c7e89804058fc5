package job

import (
	"strings"
	"testing"

	"github.com/ferdnyc/fio/internal/harness"
)

func newTestEnv() *harness.Context {
	return harness.New(harness.NewPrinter(discard{}), harness.NewErrPrinter(discard{}))
}

func TestParseSectionsSplitsOnHeaders(t *testing.T) {
	input := `[global]
rw=read
bs=4k

[job1]
size=1m
`
	sections, err := parseSections(strings.NewReader(input))
	if err != nil {
		t.Fatalf("parseSections returned error: %v", err)
	}
	if len(sections) != 2 {
		t.Fatalf("got %d sections, want 2", len(sections))
	}
	if sections[0].Name != "global" || len(sections[0].Lines) != 2 {
		t.Errorf("global section = %+v", sections[0])
	}
	if sections[1].Name != "job1" || len(sections[1].Lines) != 1 {
		t.Errorf("job1 section = %+v", sections[1])
	}
}

func TestParseSectionsIgnoresComments(t *testing.T) {
	input := `[job1]
; a comment
size=1m
`
	sections, err := parseSections(strings.NewReader(input))
	if err != nil {
		t.Fatalf("parseSections returned error: %v", err)
	}
	if len(sections[0].Lines) != 1 {
		t.Errorf("expected the comment line to be dropped, got %+v", sections[0].Lines)
	}
}

func TestGlobalSectionReseedsDefaults(t *testing.T) {
	env := newTestEnv()
	defaults := NewDefaults()
	input := `[global]
bs=8k

[job1]
size=1m
`
	var errs []string
	_, err := ParseINI(env, strings.NewReader(input), defaults, mustTable(t), func(format string, a ...interface{}) {
		errs = append(errs, format)
	})
	if err != nil {
		t.Fatalf("ParseINI returned error: %v", err)
	}
	if defaults.BS[DirRead] != 8192 {
		t.Errorf("global bs=8k should have updated the defaults descriptor, got %d", defaults.BS[DirRead])
	}
	if len(errs) != 0 {
		t.Errorf("unexpected errors: %v", errs)
	}
}

func TestSectionWithErrorIsDropped(t *testing.T) {
	env := newTestEnv()
	defaults := NewDefaults()
	input := `[badjob]
rw=not-a-real-direction
bs=4k
`
	var errs []string
	built, err := ParseINI(env, strings.NewReader(input), defaults, mustTable(t), func(format string, a ...interface{}) {
		errs = append(errs, format)
	})
	if err != nil {
		t.Fatalf("ParseINI returned error: %v", err)
	}
	if len(built) != 0 {
		t.Errorf("a section with a parse error should not have been built, got %d workers", len(built))
	}
	if len(errs) == 0 {
		t.Errorf("expected at least one collected error")
	}
}

func mustTable(t *testing.T) *Table {
	t.Helper()
	table, err := NewTable(16)
	if err != nil {
		t.Fatalf("NewTable failed: %v", err)
	}
	t.Cleanup(func() { table.Close() })
	return table
}
