package job

import (
	"testing"
	"time"
)

func TestParseSize(t *testing.T) {
	cases := []struct {
		tok  string
		want uint64
	}{
		{"1024", 1024},
		{"4k", 4 * 1024},
		{"1m", 1024 * 1024},
		{"2g", 2 * 1024 * 1024 * 1024},
		{"1p", 1024 * 1024 * 1024 * 1024 * 1024},
	}
	for _, c := range cases {
		got, err := parseSize(c.tok)
		if err != nil {
			t.Errorf("parseSize(%q) returned error: %v", c.tok, err)
			continue
		}
		if got != c.want {
			t.Errorf("parseSize(%q) = %d, want %d", c.tok, got, c.want)
		}
	}
}

func TestParseSizeInvalid(t *testing.T) {
	if _, err := parseSize(""); err == nil {
		t.Errorf("parseSize(\"\") should have failed")
	}
	if _, err := parseSize("abc"); err == nil {
		t.Errorf("parseSize(\"abc\") should have failed")
	}
}

func TestParseTime(t *testing.T) {
	cases := []struct {
		tok  string
		want time.Duration
	}{
		{"30", 30 * time.Second},
		{"5s", 5 * time.Second},
		{"2m", 2 * time.Minute},
		{"1h", time.Hour},
		{"1d", 24 * time.Hour},
	}
	for _, c := range cases {
		got, err := parseTime(c.tok)
		if err != nil {
			t.Errorf("parseTime(%q) returned error: %v", c.tok, err)
			continue
		}
		if got != c.want {
			t.Errorf("parseTime(%q) = %v, want %v", c.tok, got, c.want)
		}
	}
}

func TestParseRangeSingle(t *testing.T) {
	r, w, err := parseRange("4k:64k")
	if err != nil {
		t.Fatalf("parseRange returned error: %v", err)
	}
	if r.Lo != 4096 || r.Hi != 65536 {
		t.Errorf("read range = %+v, want lo=4096 hi=65536", r)
	}
	if w != r {
		t.Errorf("write range = %+v, want it to replicate the read range %+v", w, r)
	}
}

func TestParseRangeBothDirs(t *testing.T) {
	r, w, err := parseRange("4k:64k,8k:128k")
	if err != nil {
		t.Fatalf("parseRange returned error: %v", err)
	}
	if r.Lo != 4096 || r.Hi != 65536 {
		t.Errorf("read range = %+v", r)
	}
	if w.Lo != 8192 || w.Hi != 131072 {
		t.Errorf("write range = %+v", w)
	}
}

func TestParseEnumLongestPrefix(t *testing.T) {
	whitelist := []string{"read", "write", "randwrite", "randread", "rw", "randrw"}
	got, err := parseEnum("randread", whitelist)
	if err != nil {
		t.Fatalf("parseEnum returned error: %v", err)
	}
	if got != "randread" {
		t.Errorf("parseEnum(%q) = %q, want %q", "randread", got, "randread")
	}
}

func TestParseEnumNoMatch(t *testing.T) {
	if _, err := parseEnum("bogus", []string{"read", "write"}); err == nil {
		t.Errorf("parseEnum(%q) should have failed", "bogus")
	}
}

func TestParseIntBounds(t *testing.T) {
	if _, err := parseInt("150", 0, 100, true, true); err == nil {
		t.Errorf("parseInt(150) with maxval=100 should have failed")
	}
	if _, err := parseInt("-5", 0, 100, true, true); err == nil {
		t.Errorf("parseInt(-5) with minval=0 should have failed")
	}
	v, err := parseInt("50", 0, 100, true, true)
	if err != nil || v != 50 {
		t.Errorf("parseInt(50) = %d, %v; want 50, nil", v, err)
	}
}

func TestParseBoolBareFlag(t *testing.T) {
	v, err := parseBool("")
	if err != nil || !v {
		t.Errorf("parseBool(\"\") = %v, %v; want true, nil", v, err)
	}
}
