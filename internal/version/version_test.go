package version

import (
	"strings"
	"testing"
)

func TestVersionDefault(t *testing.T) {
	if Version == "" {
		t.Fatal("Version must have a default")
	}
	if !strings.Contains(Version, ".") {
		t.Errorf("Version %q does not look like a semantic version", Version)
	}
}

func TestBuildMetadataOverridable(t *testing.T) {
	origCommit, origDate := GitCommit, BuildDate
	defer func() {
		GitCommit, BuildDate = origCommit, origDate
	}()

	GitCommit = "abc123def456"
	BuildDate = "2026-08-26T10:30:00Z"
	if GitCommit != "abc123def456" || BuildDate != "2026-08-26T10:30:00Z" {
		t.Errorf("ldflags overrides not honored: %q %q", GitCommit, BuildDate)
	}
}
