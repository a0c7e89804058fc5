package randseed

import (
	"testing"

	"github.com/ferdnyc/fio/internal/job"
)

func TestSeedSequentialWorkerSkipsAccessStream(t *testing.T) {
	w := job.NewDefaults()
	w.Sequential = true

	streams, err := Seed(w)
	if err != nil {
		t.Fatalf("Seed returned error: %v", err)
	}
	if streams.BS == nil || streams.Offset == nil || streams.Think == nil {
		t.Errorf("sequential worker should still get the three positional streams")
	}
	if streams.Access != nil {
		t.Errorf("sequential worker should not get an access-pattern stream")
	}
}

func TestSeedRandomWorkerGetsAccessStream(t *testing.T) {
	w := job.NewDefaults()
	w.Sequential = false

	streams, err := Seed(w)
	if err != nil {
		t.Fatalf("Seed returned error: %v", err)
	}
	if streams.Access == nil {
		t.Errorf("a non-sequential worker should get an access-pattern stream")
	}
}

func TestSeedRepeatableUsesFixedSeed(t *testing.T) {
	w := job.NewDefaults()
	w.Sequential = false
	w.RandRepeatable = true

	s1, err := Seed(w)
	if err != nil {
		t.Fatalf("Seed returned error: %v", err)
	}
	s2, err := Seed(w)
	if err != nil {
		t.Fatalf("Seed returned error: %v", err)
	}
	if s1.Access.Int63() != s2.Access.Int63() {
		t.Errorf("rand_repeatable=1 should produce the same access-stream sequence across seedings")
	}
}

func TestBuildBlockMapsSkippedWhenNoRandomMap(t *testing.T) {
	w := job.NewDefaults()
	w.NoRandomMap = true
	w.Files = []*job.FileRecord{{Size: 1 << 20}}

	BuildBlockMaps(w)

	if w.Files[0].FileMap != nil {
		t.Errorf("norandommap should skip building a block-coverage bitmap")
	}
}

func TestBuildBlockMapsSizesWords(t *testing.T) {
	w := job.NewDefaults()
	w.MinBS[job.DirRead] = 4096
	w.Files = []*job.FileRecord{{Size: job.BlocksPerMap * 4096 * 3}}

	BuildBlockMaps(w)

	if w.Files[0].NumMaps != 3 {
		t.Errorf("NumMaps = %d, want 3", w.Files[0].NumMaps)
	}
	if len(w.Files[0].FileMap) != 3 {
		t.Errorf("len(FileMap) = %d, want 3", len(w.Files[0].FileMap))
	}
}
