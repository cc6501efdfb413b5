package main

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"
)

const shortDoc = `name: short
playback: {fps: 50, factor: 1, mode: normal}
markers: [0, 0.2]
tracks:
  - name: box.opacity
    kind: double
    keys:
      - {marker: 0, value: 0}
      - {marker: 1, value: 1}
`

func writeFile(t *testing.T, path, data string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestPlayWatchExitsWhenFinished(t *testing.T) {
	path := filepath.Join(t.TempDir(), "short.yaml")
	writeFile(t, path, shortDoc)

	errc := make(chan error, 1)
	go func() { errc <- runPlay([]string{"-doc", path, "-watch"}) }()
	select {
	case err := <-errc:
		if err != nil {
			t.Fatalf("runPlay: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("expected play -watch to exit after a normal-mode run")
	}
}

func TestWatchFilesFollowReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "short.yaml")
	writeFile(t, path, shortDoc)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	p := &player{path: path, mode: "cycle"}
	defer p.stop()
	if err := p.load(ctx); err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := p.watchFiles(); !slices.Equal(got, []string{path}) {
		t.Fatalf("expected only the document watched, got %v", got)
	}

	writeFile(t, filepath.Join(dir, "hook.tengo"), "handle := func(engine, ev) {}\n")
	writeFile(t, path, "scripts: [hook.tengo]\n"+shortDoc)
	if err := p.load(ctx); err != nil {
		t.Fatalf("reload: %v", err)
	}
	script, _ := filepath.Abs(filepath.Join(dir, "hook.tengo"))
	if got := p.watchFiles(); !slices.Equal(got, []string{path, script}) {
		t.Fatalf("expected the new script watched, got %v", got)
	}
}
