package version

import (
	"runtime/debug"
	"strings"
	"testing"
	"time"
)

func saveAndRestore() func() {
	origName, origVersion, origCommit, origBranch, origBuildTime :=
		Name, Version, GitCommit, GitBranch, BuildTime
	return func() {
		Name = origName
		Version = origVersion
		GitCommit = origCommit
		GitBranch = origBranch
		BuildTime = origBuildTime
	}
}

func TestGetDefaults(t *testing.T) {
	defer saveAndRestore()()
	Version = "dev"
	BuildTime = ""

	info := Get()
	if info.Name != "streamkit" {
		t.Errorf("Name = %q", info.Name)
	}
	if info.Version != "dev" {
		t.Errorf("expected version 'dev', got %q", info.Version)
	}
	if info.IsRelease {
		t.Error("dev should not be a release")
	}
	if info.GoVersion == "" || !strings.Contains(info.Platform, "/") {
		t.Errorf("runtime fields not set: %+v", info)
	}
}

func TestGetWithBuildTime(t *testing.T) {
	defer saveAndRestore()()
	Version = "1.0.0"
	BuildTime = "2024-01-15T10:30:00Z"
	GitCommit = "abc1234"

	info := Get()
	if info.GitCommit != "abc1234" {
		t.Errorf("expected 'abc1234', got %q", info.GitCommit)
	}
	if info.BuildDate.Year() != 2024 {
		t.Errorf("expected build year 2024, got %d", info.BuildDate.Year())
	}
}

func TestGetDirtyVersion(t *testing.T) {
	defer saveAndRestore()()
	Version = "1.0.0-dirty"

	if Get().IsRelease {
		t.Error("dirty version should not be a release")
	}
}

func TestFromBuildInfo(t *testing.T) {
	tests := []struct {
		name       string
		info       Info
		settings   []debug.BuildSetting
		wantCommit string
		wantTime   string
		wantDirty  bool
	}{
		{
			name:       "fills commit and time",
			info:       Info{IsRelease: true},
			settings:   []debug.BuildSetting{{Key: "vcs.revision", Value: "0123456789abcdef"}, {Key: "vcs.time", Value: "2025-03-01T08:00:00Z"}},
			wantCommit: "0123456",
			wantTime:   "2025-03-01T08:00:00Z",
		},
		{
			name:       "ldflags win",
			info:       Info{GitCommit: "feedbee", BuildTime: "2024-01-01T00:00:00Z"},
			settings:   []debug.BuildSetting{{Key: "vcs.revision", Value: "0123456789abcdef"}, {Key: "vcs.time", Value: "2025-03-01T08:00:00Z"}},
			wantCommit: "feedbee",
			wantTime:   "2024-01-01T00:00:00Z",
		},
		{
			name:      "modified tree",
			info:      Info{IsRelease: true},
			settings:  []debug.BuildSetting{{Key: "vcs.modified", Value: "true"}},
			wantDirty: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := tt.info
			info.fromBuildInfo(&debug.BuildInfo{Settings: tt.settings})
			if info.GitCommit != tt.wantCommit {
				t.Errorf("GitCommit = %q, want %q", info.GitCommit, tt.wantCommit)
			}
			if info.BuildTime != tt.wantTime {
				t.Errorf("BuildTime = %q, want %q", info.BuildTime, tt.wantTime)
			}
			if info.IsDirty != tt.wantDirty {
				t.Errorf("IsDirty = %v, want %v", info.IsDirty, tt.wantDirty)
			}
			if tt.wantDirty && info.IsRelease {
				t.Error("a dirty build is not a release")
			}
		})
	}
}

func TestShort(t *testing.T) {
	tests := []struct {
		info Info
		want string
	}{
		{Info{Version: "dev"}, "dev"},
		{Info{Version: "1.0.0", GitCommit: "abc1234"}, "1.0.0-abc1234"},
		{Info{Version: "1.0.0", GitCommit: "abc1234", IsDirty: true}, "1.0.0-abc1234-dirty"},
	}
	for _, tt := range tests {
		if got := tt.info.Short(); got != tt.want {
			t.Errorf("Short() = %q, want %q", got, tt.want)
		}
	}
}

func TestString(t *testing.T) {
	info := Info{
		Name:      "streamkit",
		Version:   "1.0.0",
		GitCommit: "abc1234",
		GitBranch: "main",
		GoVersion: "go1.26.0",
		Platform:  "linux/amd64",
		BuildDate: time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC),
	}
	want := "streamkit 1.0.0-abc1234 (built 2024-01-15T10:30:00Z, go1.26.0 linux/amd64)"
	if got := info.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}

	info.GitBranch = "feature/new-thing"
	if got := info.String(); !strings.Contains(got, "(feature/new-thing, built") {
		t.Errorf("feature branch missing from %q", got)
	}
}

func TestFields(t *testing.T) {
	f := (&Info{Version: "1.0.0", GoVersion: "go1.26.0", Platform: "linux/amd64"}).Fields()
	if f["version"] != "1.0.0" || f["platform"] != "linux/amd64" {
		t.Errorf("Fields() = %v", f)
	}
}
