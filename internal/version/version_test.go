package version

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/fatih/color"
)

func TestCollectDefaults(t *testing.T) {
	info := Collect()
	if info.Tool != "rgr" {
		t.Errorf("Tool = %q", info.Tool)
	}
	if info.Version == "" {
		t.Error("Version should have a default value")
	}
}

func TestCollectHonoursOverrides(t *testing.T) {
	origVersion, origCommit, origDate := Version, GitCommit, BuildDate
	t.Cleanup(func() { Version, GitCommit, BuildDate = origVersion, origCommit, origDate })

	Version = " 1.2.3 "
	GitCommit = "abc123def456"
	BuildDate = "2024-01-15T10:30:00Z"

	info := Collect()
	if info.Version != "1.2.3" || info.GitCommit != "abc123def456" || info.BuildDate != "2024-01-15T10:30:00Z" {
		t.Fatalf("unexpected info: %+v", info)
	}

	Version = ""
	if got := Collect().Version; got != "dev" {
		t.Fatalf("empty version resolved to %q", got)
	}
}

func TestColoredKeepsText(t *testing.T) {
	prev := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = prev })

	for _, v := range []string{"0.1.0-dev", "1.2.3-rc.1+build.123", "1.2.3", "weird"} {
		if got := Colored(v); got != v {
			t.Errorf("Colored(%q) = %q", v, got)
		}
	}
}

func TestWriters(t *testing.T) {
	prev := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = prev })

	info := Info{Tool: "rgr", Version: "1.0.0", GitCommit: "abc"}
	var pretty bytes.Buffer
	if err := WritePretty(&pretty, info); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(pretty.String(), "rgr 1.0.0\ncommit: abc\n") {
		t.Fatalf("pretty = %q", pretty.String())
	}
	if strings.Contains(pretty.String(), "built:") {
		t.Fatalf("empty build date printed: %q", pretty.String())
	}

	var js bytes.Buffer
	if err := WriteJSON(&js, info); err != nil {
		t.Fatal(err)
	}
	var decoded map[string]string
	if err := json.Unmarshal(js.Bytes(), &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded["version"] != "1.0.0" || decoded["git_commit"] != "abc" {
		t.Fatalf("json = %v", decoded)
	}
	if _, ok := decoded["build_date"]; ok {
		t.Fatalf("empty build_date not omitted: %v", decoded)
	}
}
