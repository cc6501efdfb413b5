package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"slices"
	"sync"
	"time"

	"github.com/milk9111/keyanim/document"
	"github.com/milk9111/keyanim/playback"
	"github.com/milk9111/keyanim/scene"
	"github.com/milk9111/keyanim/script"
	"golang.org/x/sync/errgroup"
)

func runPlay(args []string) error {
	fs := flag.NewFlagSet("play", flag.ExitOnError)
	docPath := fs.String("doc", "", "animation document (.yaml)")
	duration := fs.Duration("duration", 0, "stop after this long (0 runs until done or interrupted)")
	mode := fs.String("mode", "", "override the document's playback mode")
	fps := fs.Float64("fps", 0, "override the document's frame rate")
	watch := fs.Bool("watch", false, "reload the document and its scripts when they change")
	verbose := fs.Bool("v", false, "log every frame, not only keyframe and playback events")
	fs.Parse(args)
	if *docPath == "" {
		return errors.New("animctl: -doc is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if *duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, *duration)
		defer cancel()
	}

	// A finished Normal-mode run ends the watcher too.
	ctx, finish := context.WithCancel(ctx)
	defer finish()

	p := &player{path: *docPath, mode: *mode, fps: *fps, verbose: *verbose}
	eg, ctx := errgroup.WithContext(ctx)
	if err := p.load(ctx); err != nil {
		return err
	}
	eg.Go(func() error {
		select {
		case <-ctx.Done():
		case <-p.finished:
		}
		p.stop()
		finish()
		return nil
	})
	if *watch {
		eg.Go(func() error { return p.watch(ctx) })
	}
	return eg.Wait()
}

// player owns the rig being played and swaps it on reload.
type player struct {
	path    string
	mode    string
	fps     float64
	verbose bool

	mu       sync.Mutex
	rig      *document.Rig
	scripts  map[string]*script.Listener
	finished chan struct{}
	once     sync.Once
}

func (p *player) load(ctx context.Context) error {
	doc, err := document.Load(p.path)
	if err != nil {
		return err
	}
	if p.mode != "" {
		doc.Playback.Mode = p.mode
	}
	if p.fps > 0 {
		doc.Playback.FPS = p.fps
	}

	g := scene.NewGraph()
	rig, err := document.Build(doc, g, document.WithScheduler(playback.NewTickerScheduler(ctx)))
	if err != nil {
		return err
	}
	scripts := make(map[string]*script.Listener)
	for _, path := range rig.Scripts {
		l, err := script.Load(path, g)
		if err != nil {
			return err
		}
		rig.Controller.AddListener(l)
		scripts[l.Path()] = l
	}

	p.mu.Lock()
	old := p.rig
	p.rig = rig
	p.scripts = scripts
	if p.finished == nil {
		p.finished = make(chan struct{})
	}
	p.mu.Unlock()

	if old != nil {
		old.Controller.Reset()
	}
	rig.Controller.AddListener(playback.ListenerFunc(p.logEvent))
	log.Printf("animctl: playing %s (%d markers, %d tracks, mode %v)",
		p.path, rig.Controller.MarkerCount(), len(rig.TrackNames()), rig.Controller.Mode())
	rig.Controller.SetPaused(false)
	return nil
}

func (p *player) logEvent(ev playback.Event) error {
	if ev.Type == playback.EventSetValueAtTime && !p.verbose {
		return nil
	}
	frame := 0
	if ev.Source != nil {
		frame = ev.Source.CurrentFrame()
	}
	log.Printf("animctl: %v t=%.3f frame=%d", ev.Type, ev.Time, frame)
	if ev.Type == playback.EventPlaybackCompleted && ev.Source != nil && ev.Source.Mode() == playback.Normal {
		p.once.Do(func() { close(p.finished) })
	}
	return nil
}

func (p *player) stop() {
	p.mu.Lock()
	rig := p.rig
	p.mu.Unlock()
	if rig != nil {
		rig.Controller.SetPaused(true)
	}
}

// watchFiles lists the document and the scripts of the current rig.
func (p *player) watchFiles() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	files := []string{p.path}
	for path := range p.scripts {
		files = append(files, path)
	}
	slices.Sort(files[1:])
	return files
}

// watch reloads scripts in place and rebuilds the rig when the
// document changes. The watcher is recreated when a reload changes
// the set of scripts.
func (p *player) watch(ctx context.Context) error {
	for {
		files := p.watchFiles()
		w, err := document.NewWatcher(files...)
		if err != nil {
			return fmt.Errorf("animctl: watch: %w", err)
		}
		done, err := p.watchLoop(ctx, w, files)
		w.Close()
		if done || err != nil {
			return err
		}
		log.Printf("animctl: watching %d files", len(p.watchFiles()))
	}
}

// watchLoop handles changes until ctx ends (done) or the watched
// file set goes stale.
func (p *player) watchLoop(ctx context.Context, w *document.Watcher, files []string) (done bool, err error) {
	for {
		select {
		case <-ctx.Done():
			return true, nil
		case err, ok := <-w.Errors:
			if !ok {
				return true, nil
			}
			log.Printf("animctl: watch error: %v", err)
		case ch, ok := <-w.Changes:
			if !ok {
				return true, nil
			}
			p.reload(ctx, ch)
			if ch.Kind == document.DocumentChanged && !slices.Equal(files, p.watchFiles()) {
				return false, nil
			}
		}
	}
}

func (p *player) reload(ctx context.Context, ch document.Change) {
	if ch.Kind == document.DocumentChanged {
		// Give editors a moment to finish writing.
		time.Sleep(50 * time.Millisecond)
		if err := p.load(ctx); err != nil {
			log.Printf("animctl: reload %s: %v", ch.Path, err)
		}
		return
	}

	p.mu.Lock()
	l, ok := p.scripts[ch.Path]
	p.mu.Unlock()
	if !ok {
		return
	}
	if err := l.Reload(); err != nil {
		log.Printf("animctl: %v", err)
		return
	}
	log.Printf("animctl: reloaded script %s", ch.Path)
}
