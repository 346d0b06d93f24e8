package version

import (
	"strings"
	"testing"
)

func TestBannerPlain(t *testing.T) {
	origVersion, origCommit, origDate := Version, GitCommit, BuildDate
	defer func() { Version, GitCommit, BuildDate = origVersion, origCommit, origDate }()

	Version, GitCommit, BuildDate = "1.2.3-rc.1", "abc123", "2024-01-15"
	if got := Banner(false); got != "injekt 1.2.3-rc.1 (abc123) built 2024-01-15" {
		t.Fatalf("banner = %q", got)
	}
	GitCommit, BuildDate = "", ""
	if got := Banner(false); got != "injekt 1.2.3-rc.1" {
		t.Fatalf("banner = %q", got)
	}
}

func TestBannerColorKeepsText(t *testing.T) {
	orig := Version
	defer func() { Version = orig }()

	Version = "2.0.1-dev"
	colored := Banner(true)
	if colored == Banner(false) || !strings.Contains(colored, "\x1b[") || !strings.HasSuffix(colored, "-dev") {
		t.Fatalf("colored banner = %q", colored)
	}
	Version = "nightly"
	if Banner(true) != "injekt nightly" {
		t.Fatalf("non-semver versions are not colored")
	}
}

func TestCurrent(t *testing.T) {
	info := Current()
	if info.Version != Version || info.GoVersion == "" {
		t.Fatalf("info = %+v", info)
	}
}
