package pathutil

import "testing"

func TestIsSafeAcceptsRelativePaths(t *testing.T) {
	for _, p := range []string{
		"a.txt",
		"out_text/out.txt",
		"a/./b",
		"a/b/../c",
		"data/../data",
		".",
	} {
		if !IsSafe(p) {
			t.Fatalf("expected %q to be safe", p)
		}
	}
}

func TestIsSafeRejectsEscapes(t *testing.T) {
	for _, p := range []string{
		"..",
		"../x",
		"../../evil",
		"x/../..",
		"x/../../y",
		"a/b/../../../c",
	} {
		if IsSafe(p) {
			t.Fatalf("expected %q to be rejected", p)
		}
	}
}

func TestIsSafeRejectsRooted(t *testing.T) {
	if IsSafe("/etc/passwd") {
		t.Fatalf("expected rooted path to be rejected")
	}
}

func TestNormalize(t *testing.T) {
	cases := map[string]string{
		"a/./b":   "a/b",
		"a/b/../c": "a/c",
		"x/../..": "..",
		".":       ".",
	}
	for in, want := range cases {
		if got := Normalize(in); got != want {
			t.Fatalf("Normalize(%q) = %q, want %q", in, got, want)
		}
	}
}
