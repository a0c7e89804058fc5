package job

import "testing"

func TestCLIReaderSingleJob(t *testing.T) {
	env := newTestEnv()
	table := mustTable(t)
	defaults := NewDefaults()
	reader := NewCLIReader(env, defaults, table)

	built, err := reader.Parse([]string{"--name=job1", "--rw=write", "--bs=8k", "--size=1m"})
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if len(built) != 1 {
		t.Fatalf("got %d workers, want 1", len(built))
	}
	if built[0].Name != "job1" {
		t.Errorf("Name = %q, want %q", built[0].Name, "job1")
	}
	if built[0].Ddir != DirWrite {
		t.Errorf("Ddir = %v, want DirWrite", built[0].Ddir)
	}
}

func TestCLIReaderJobBoundaryOnName(t *testing.T) {
	env := newTestEnv()
	table := mustTable(t)
	defaults := NewDefaults()
	reader := NewCLIReader(env, defaults, table)

	built, err := reader.Parse([]string{
		"--name=job1", "--size=1m",
		"--name=job2", "--size=2m",
	})
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if len(built) != 2 {
		t.Fatalf("got %d workers, want 2", len(built))
	}
	if built[0].Name != "job1" || built[1].Name != "job2" {
		t.Errorf("job names = %q, %q", built[0].Name, built[1].Name)
	}
	if built[0].TotalSize != 1024*1024 || built[1].TotalSize != 2*1024*1024 {
		t.Errorf("job sizes = %d, %d", built[0].TotalSize, built[1].TotalSize)
	}
}

func TestCLIReaderUnknownOption(t *testing.T) {
	env := newTestEnv()
	table := mustTable(t)
	defaults := NewDefaults()
	reader := NewCLIReader(env, defaults, table)

	if _, err := reader.Parse([]string{"--name=job1", "--not-a-real-option=1"}); err == nil {
		t.Errorf("Parse should have rejected an unknown option")
	}
}

func TestCmdHelpTextAll(t *testing.T) {
	text := CmdHelpText("all")
	if text == "" {
		t.Errorf("CmdHelpText(\"all\") should not be empty")
	}
}

func TestCmdHelpTextSingleOption(t *testing.T) {
	text := CmdHelpText("bs")
	if text == "" {
		t.Errorf("CmdHelpText(\"bs\") should not be empty")
	}
}
