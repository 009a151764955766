package version

import (
	"testing"

	"github.com/fatih/color"
)

func withVersion(t *testing.T, v, commit, date string) {
	t.Helper()
	origVersion, origCommit, origDate, origNoColor := Version, GitCommit, BuildDate, color.NoColor
	Version, GitCommit, BuildDate = v, commit, date
	color.NoColor = true
	t.Cleanup(func() {
		Version, GitCommit, BuildDate, color.NoColor = origVersion, origCommit, origDate, origNoColor
	})
}

func TestVersion_DefaultValues(t *testing.T) {
	if Version == "" {
		t.Error("Version should have a default value")
	}
}

func TestColored(t *testing.T) {
	tests := []struct {
		version string
		want    string
	}{
		{"0.1.0-dev", "0.1.0-dev"},
		{"1.2.3", "1.2.3"},
		{"1.0.0-beta.1", "1.0.0-beta.1"},
		{"nightly", "nightly"},
	}
	for _, tt := range tests {
		withVersion(t, tt.version, "", "")
		if got := Colored(); got != tt.want {
			t.Errorf("Colored(%q) = %q, want %q", tt.version, got, tt.want)
		}
	}
}

func TestInfo(t *testing.T) {
	tests := []struct {
		commit, date string
		want         string
	}{
		{"", "", "strbuf 1.2.3"},
		{"abc123", "", "strbuf 1.2.3 (abc123)"},
		{"abc123", "2024-01-15T10:30:00Z", "strbuf 1.2.3 (abc123) built 2024-01-15T10:30:00Z"},
	}
	for _, tt := range tests {
		withVersion(t, "1.2.3", tt.commit, tt.date)
		if got := Info(); got != tt.want {
			t.Errorf("Info() = %q, want %q", got, tt.want)
		}
	}
}
