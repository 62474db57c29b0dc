package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strings"
	"testing"

	"posebvh/internal/bvh"
	"posebvh/internal/config"
	"posebvh/internal/export"
	"posebvh/internal/parser"
)

type mockStore struct {
	hashes      map[string]string
	hashesErr   error
	removeCalls [][]string
	removed     int64
}

func (m *mockStore) GetSourceHashes(ctx context.Context) (map[string]string, error) {
	if m.hashesErr != nil {
		return nil, m.hashesErr
	}
	if m.hashes == nil {
		return map[string]string{}, nil
	}
	return m.hashes, nil
}

func (m *mockStore) RemoveStaleExports(ctx context.Context, currentSourceFiles []string) (int64, error) {
	files := append([]string{}, currentSourceFiles...)
	sort.Strings(files)
	m.removeCalls = append(m.removeCalls, files)
	return m.removed, nil
}

type conversion struct {
	dest       string
	sourceFile string
	sourceHash string
	frames     int
}

type mockConverter struct {
	conversions []conversion
	failFor     string
}

func (m *mockConverter) Convert(ctx context.Context, frames []bvh.Frame, dest, sourceFile, sourceHash string) (*export.Result, error) {
	if m.failFor != "" && strings.HasSuffix(sourceFile, m.failFor) {
		return nil, export.ErrWriteFailure
	}
	m.conversions = append(m.conversions, conversion{dest: dest, sourceFile: sourceFile, sourceHash: sourceHash, frames: len(frames)})
	return &export.Result{Path: dest, Frames: len(frames)}, nil
}

func writeCapture(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func testConfig(t *testing.T) (*config.Config, string) {
	t.Helper()
	root := t.TempDir()
	writeCapture(t, filepath.Join(root, "wave.json"), `{"frames":[{"Hips":{"x":0.5,"y":0.5,"z":0}},{"Hips":{"x":0.6,"y":0.5,"z":0}}]}`)
	writeCapture(t, filepath.Join(root, "session", "jump.json"), `[{"Head":{"x":0.5,"y":0.1,"z":0}}]`)
	writeCapture(t, filepath.Join(root, "notes.txt"), `not a capture`)
	writeCapture(t, filepath.Join(root, "raw", "ignored.json"), `[{}]`)

	cfg := config.Default()
	cfg.Capture.Paths = []string{root}
	cfg.Capture.Exclude = []string{filepath.Join(root, "raw")}
	return cfg, root
}

func TestRun_Basic(t *testing.T) {
	cfg, root := testConfig(t)
	db := &mockStore{removed: 2}
	conv := &mockConverter{}

	result, err := Run(context.Background(), cfg, conv, db, Options{})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.Converted != 2 || result.Skipped != 0 || len(result.Errors) != 0 {
		t.Fatalf("unexpected result %+v", result)
	}
	if result.Removed != 2 {
		t.Fatalf("expected removed count from store, got %d", result.Removed)
	}

	dests := map[string]bool{}
	for _, c := range conv.conversions {
		dests[c.dest] = true
		if c.sourceHash == "" {
			t.Fatalf("expected source hash for %s", c.sourceFile)
		}
	}
	for _, want := range []string{
		filepath.Join(root, "wave.bvh"),
		filepath.Join(root, "session", "jump.bvh"),
	} {
		if !dests[want] {
			t.Fatalf("expected conversion to %s, got %+v", want, conv.conversions)
		}
	}

	wantCurrent := []string{filepath.Join(root, "session", "jump.json"), filepath.Join(root, "wave.json")}
	if len(db.removeCalls) != 1 || !reflect.DeepEqual(db.removeCalls[0], wantCurrent) {
		t.Fatalf("unexpected stale removal calls %+v", db.removeCalls)
	}
}

func TestRun_Incremental(t *testing.T) {
	cfg, root := testConfig(t)
	wave := filepath.Join(root, "wave.json")
	hash, err := computeHash(wave)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	db := &mockStore{hashes: map[string]string{wave: hash}}

	t.Run("unchanged files are skipped", func(t *testing.T) {
		conv := &mockConverter{}
		result, err := Run(context.Background(), cfg, conv, db, Options{})
		if err != nil {
			t.Fatalf("run: %v", err)
		}
		if result.Converted != 1 || result.Skipped != 1 {
			t.Fatalf("unexpected result %+v", result)
		}
		if conv.conversions[0].sourceFile == wave {
			t.Fatalf("unchanged file must not be converted")
		}
	})

	t.Run("full ignores hashes", func(t *testing.T) {
		conv := &mockConverter{}
		result, err := Run(context.Background(), cfg, conv, db, Options{Full: true})
		if err != nil {
			t.Fatalf("run: %v", err)
		}
		if result.Converted != 2 || result.Skipped != 0 {
			t.Fatalf("unexpected result %+v", result)
		}
	})

	t.Run("changed file is converted again", func(t *testing.T) {
		writeCapture(t, wave, `[{"Hips":{"x":0.1,"y":0.5,"z":0}}]`)
		conv := &mockConverter{}
		result, err := Run(context.Background(), cfg, conv, db, Options{})
		if err != nil {
			t.Fatalf("run: %v", err)
		}
		if result.Converted != 2 {
			t.Fatalf("unexpected result %+v", result)
		}
	})
}

func TestRun_OutputDir(t *testing.T) {
	cfg, root := testConfig(t)
	out := t.TempDir()
	cfg.Capture.OutputDir = out
	conv := &mockConverter{}

	if _, err := Run(context.Background(), cfg, conv, nil, Options{}); err != nil {
		t.Fatalf("run: %v", err)
	}

	got := make([]string, 0, len(conv.conversions))
	for _, c := range conv.conversions {
		got = append(got, c.dest)
	}
	sort.Strings(got)
	want := []string{filepath.Join(out, "session", "jump.bvh"), filepath.Join(out, "wave.bvh")}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v (root %s)", want, got, root)
	}
}

func TestRun_Errors(t *testing.T) {
	cfg, root := testConfig(t)
	writeCapture(t, filepath.Join(root, "broken.json"), `{"frames":`)
	writeCapture(t, filepath.Join(root, "empty.json"), `{"frames":[]}`)
	conv := &mockConverter{failFor: "jump.json"}

	result, err := Run(context.Background(), cfg, conv, nil, Options{})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.Converted != 1 {
		t.Fatalf("expected 1 conversion, got %+v", result)
	}
	if result.Skipped != 1 {
		t.Fatalf("expected empty capture skipped, got %+v", result)
	}
	if len(result.Errors) != 2 {
		t.Fatalf("expected 2 errors, got %v", result.Errors)
	}

	var sawParse, sawWrite bool
	for _, err := range result.Errors {
		if errors.Is(err, parser.ErrInvalidJSON) {
			sawParse = true
		}
		if errors.Is(err, export.ErrWriteFailure) {
			sawWrite = true
		}
	}
	if !sawParse || !sawWrite {
		t.Fatalf("expected parse and write errors, got %v", result.Errors)
	}
}

func TestRun_HashLookupFailure(t *testing.T) {
	cfg, _ := testConfig(t)
	db := &mockStore{hashesErr: errors.New("db down")}

	if _, err := Run(context.Background(), cfg, &mockConverter{}, db, Options{}); err == nil {
		t.Fatalf("expected error")
	}
	if _, err := Run(context.Background(), cfg, &mockConverter{}, db, Options{Full: true}); err != nil {
		t.Fatalf("full run must not read hashes: %v", err)
	}
}

func TestIsExcluded(t *testing.T) {
	excludes := []string{filepath.Clean("captures/raw")}
	tests := []struct {
		path string
		want bool
	}{
		{path: "captures/raw", want: true},
		{path: "captures/raw/a.json", want: true},
		{path: "captures/rawer/a.json", want: false},
		{path: "captures/a.json", want: false},
	}
	for _, tt := range tests {
		if got := isExcluded(filepath.FromSlash(tt.path), excludes); got != tt.want {
			t.Fatalf("isExcluded(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}
