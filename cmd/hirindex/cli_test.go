package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"hirindex/internal/driver"
	"hirindex/internal/fingerprint"
)

func TestReadUIMode(t *testing.T) {
	cases := []struct {
		input string
		want  uiMode
		bad   bool
	}{
		{"", uiModeAuto, false},
		{"AUTO", uiModeAuto, false},
		{" on ", uiModeOn, false},
		{"off", uiModeOff, false},
		{"sometimes", "", true},
	}
	for _, tc := range cases {
		got, err := readUIMode(tc.input)
		if tc.bad {
			if err == nil {
				t.Fatalf("readUIMode(%q) succeeded, want error", tc.input)
			}
			continue
		}
		if err != nil {
			t.Fatalf("readUIMode(%q) error: %v", tc.input, err)
		}
		if got != tc.want {
			t.Fatalf("readUIMode(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestTableAlignsColumns(t *testing.T) {
	useColor = false
	tb := newTable("PATH", "KIND")
	tb.add("crate::dist", "fn")
	tb.add("crate::точка", "struct")

	var buf bytes.Buffer
	if err := tb.write(&buf); err != nil {
		t.Fatal(err)
	}
	want := "PATH          KIND\n" +
		"crate::dist   fn\n" +
		"crate::точка  struct\n"
	if buf.String() != want {
		t.Fatalf("table output:\n%s\nwant:\n%s", buf.String(), want)
	}
}

func TestVersionJSON(t *testing.T) {
	info := collectVersionInfo()
	info.Version, info.GitCommit = "1.2.3", ""
	var buf bytes.Buffer
	if err := renderVersionJSON(&buf, info, versionOptions{json: true, build: true}); err != nil {
		t.Fatal(err)
	}
	var payload versionPayload
	if err := json.Unmarshal(buf.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.Tool != "hirindex" || payload.Version != "1.2.3" {
		t.Fatalf("unexpected payload %+v", payload)
	}
	if payload.HashAlgorithm != "sha256" || payload.HashVersion != fingerprint.HashVersion {
		t.Fatalf("fingerprint format = %s v%d", payload.HashAlgorithm, payload.HashVersion)
	}
	if payload.SnapshotSchema != driver.SnapshotSchemaVersion {
		t.Fatalf("snapshot schema = %d", payload.SnapshotSchema)
	}
	if payload.GitCommit != "unknown" {
		t.Fatalf("git commit = %q, want unknown", payload.GitCommit)
	}
}

func TestVersionPrettyHidesBuildByDefault(t *testing.T) {
	var buf bytes.Buffer
	renderVersionPretty(&buf, versionInfo{Version: "9.9.9", HashVersion: 3, SnapshotSchema: 2}, versionOptions{})
	out := buf.String()
	if !strings.HasPrefix(out, "hirindex 9.9.9\n") {
		t.Fatalf("unexpected header %q", out)
	}
	if !strings.Contains(out, "fingerprints: sha256 v3\n") || !strings.Contains(out, "schema 2\n") {
		t.Fatalf("formats missing: %q", out)
	}
	if strings.Contains(out, "commit:") || strings.Contains(out, "built:") {
		t.Fatalf("build metadata printed without --build: %q", out)
	}
}
