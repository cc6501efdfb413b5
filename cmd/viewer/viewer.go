package main

import (
	"fmt"
	"image/color"
	"log"
	"math"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/jakecoffman/cp"
	"github.com/milk9111/keyanim/document"
	"github.com/milk9111/keyanim/linear"
	"github.com/milk9111/keyanim/playback"
	"github.com/milk9111/keyanim/scene"
	"github.com/milk9111/keyanim/script"
	"golang.design/x/clipboard"
	"golang.org/x/image/colornames"
	"gopkg.in/yaml.v3"
)

const (
	baseWidth  = 1280
	baseHeight = 720

	timelineY      = baseHeight - 40
	timelineMargin = 40
	nodeHalfSize   = 20
	swatchSize     = 24
)

type Viewer struct {
	path     string
	sched    *playback.PolledScheduler
	rig      *document.Rig
	scripts  map[string]*script.Listener
	watcher  *document.Watcher
	clipOK   bool
	status   string
	statusAt time.Time
}

func NewViewer(path string, watch bool) (*Viewer, error) {
	v := &Viewer{path: path}
	if err := v.load(); err != nil {
		return nil, err
	}
	if watch {
		files := []string{path}
		for p := range v.scripts {
			files = append(files, p)
		}
		w, err := document.NewWatcher(files...)
		if err != nil {
			return nil, fmt.Errorf("viewer: watch: %w", err)
		}
		v.watcher = w
	}
	if err := clipboard.Init(); err != nil {
		log.Printf("viewer: clipboard unavailable: %v", err)
	} else {
		v.clipOK = true
	}
	return v, nil
}

// load (re)builds the rig from the document. Ticks are driven from
// Update through a polled scheduler.
func (v *Viewer) load() error {
	doc, err := document.Load(v.path)
	if err != nil {
		return err
	}
	sched := playback.NewPolledScheduler()
	g := scene.NewGraph()
	rig, err := document.Build(doc, g, document.WithScheduler(sched))
	if err != nil {
		return err
	}
	scripts := make(map[string]*script.Listener)
	for _, p := range rig.Scripts {
		l, err := script.Load(p, g)
		if err != nil {
			return err
		}
		rig.Controller.AddListener(l)
		scripts[l.Path()] = l
	}
	if v.rig != nil {
		v.rig.Controller.Reset()
	}
	v.sched = sched
	v.rig = rig
	v.scripts = scripts
	return nil
}

func (v *Viewer) Close() {
	if v.watcher != nil {
		v.watcher.Close()
	}
}

func (v *Viewer) setStatus(format string, args ...any) {
	v.status = fmt.Sprintf(format, args...)
	v.statusAt = time.Now()
	log.Printf("viewer: %s", v.status)
}

func (v *Viewer) Update() error {
	v.pollWatcher()
	v.handleInput()
	v.sched.Poll(time.Now())
	return nil
}

func (v *Viewer) pollWatcher() {
	if v.watcher == nil {
		return
	}
	for {
		select {
		case ch, ok := <-v.watcher.Changes:
			if !ok {
				v.watcher = nil
				return
			}
			if ch.Kind == document.DocumentChanged {
				if err := v.load(); err != nil {
					v.setStatus("reload failed: %v", err)
				} else {
					v.setStatus("reloaded %s", ch.Path)
				}
				continue
			}
			if l, ok := v.scripts[ch.Path]; ok {
				if err := l.Reload(); err != nil {
					v.setStatus("%v", err)
				} else {
					v.setStatus("reloaded %s", ch.Path)
				}
			}
		case err, ok := <-v.watcher.Errors:
			if ok {
				v.setStatus("watch error: %v", err)
			}
		default:
			return
		}
	}
}

func (v *Viewer) handleInput() {
	c := v.rig.Controller
	step := 1 / c.FPS()

	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeySpace):
		c.TogglePlay()
	case inpututil.IsKeyJustPressed(ebiten.KeyR):
		c.Reset()
	case inpututil.IsKeyJustPressed(ebiten.KeyM):
		c.SetMode((c.Mode() + 1) % 3)
		v.setStatus("mode %v", c.Mode())
	case inpututil.IsKeyJustPressed(ebiten.KeyEqual):
		c.SetFactor(c.Factor() * 2)
	case inpututil.IsKeyJustPressed(ebiten.KeyMinus):
		c.SetFactor(c.Factor() / 2)
	case inpututil.IsKeyJustPressed(ebiten.KeyBackspace):
		c.SetFactor(-c.Factor())
	case inpututil.IsKeyJustPressed(ebiten.KeyUp):
		c.SelectKeyFrame(c.Current() + 1)
	case inpututil.IsKeyJustPressed(ebiten.KeyDown):
		c.SelectKeyFrame(c.Current() - 1)
	case inpututil.IsKeyJustPressed(ebiten.KeyK):
		if _, err := c.InsertKeyFrame(); err != nil {
			v.setStatus("%v", err)
		}
	case inpututil.IsKeyJustPressed(ebiten.KeyS):
		v.rig.Gather()
		if err := c.SaveKeyFrame(); err != nil {
			v.setStatus("%v", err)
		}
	case inpututil.IsKeyJustPressed(ebiten.KeyDelete):
		if _, err := c.DeleteKeyFrame(); err != nil {
			v.setStatus("%v", err)
		}
	case inpututil.IsKeyJustPressed(ebiten.KeyW):
		if err := document.Save(v.path, document.Capture(v.rig)); err != nil {
			v.setStatus("%v", err)
		} else {
			v.setStatus("saved %s", v.path)
		}
	case inpututil.IsKeyJustPressed(ebiten.KeyC):
		v.copySnapshot()
	}

	// Arrow keys repeat while held.
	if d := inpututil.KeyPressDuration(ebiten.KeyRight); d == 1 || d > 15 {
		c.ScrubTime(c.CurrentTime() + step)
	}
	if d := inpututil.KeyPressDuration(ebiten.KeyLeft); d == 1 || d > 15 {
		c.ScrubTime(c.CurrentTime() - step)
	}
}

// copySnapshot puts the values at the current time on the clipboard
// as YAML.
func (v *Viewer) copySnapshot() {
	if !v.clipOK {
		v.setStatus("clipboard unavailable")
		return
	}
	t := v.rig.Controller.CurrentTime()
	data, err := yaml.Marshal(map[string]any{
		"time":   t,
		"values": document.Sample(v.rig, t),
	})
	if err != nil {
		v.setStatus("%v", err)
		return
	}
	clipboard.Write(clipboard.FmtText, data)
	v.setStatus("copied values at t=%.3f", t)
}

func (v *Viewer) Draw(screen *ebiten.Image) {
	screen.Fill(colornames.Black)
	ox, oy := float64(baseWidth)/2, float64(baseHeight)/2-40

	g := v.rig.Graph
	cp.DrawSpace(g.Space(), &spaceDrawer{screen: screen, originX: ox, originY: oy})
	for _, n := range g.Nodes() {
		drawNode(screen, n, ox, oy)
	}
	v.drawProperties(screen)
	v.drawTimeline(screen)

	c := v.rig.Controller
	state := "paused"
	if !c.Paused() {
		state = "playing"
	}
	info := fmt.Sprintf("%s  %s  t=%.3f  frame=%d  mode=%v  x%.2g  FPS: %.1f\n"+
		"space play  arrows scrub/select  K insert  S save  Del delete  M mode  +/- speed  W write  C copy",
		v.rig.Name, state, c.CurrentTime(), c.CurrentFrame(), c.Mode(), c.Factor(), ebiten.ActualFPS())
	ebitenutil.DebugPrintAt(screen, info, 10, 10)
	if v.status != "" && time.Since(v.statusAt) < 4*time.Second {
		ebitenutil.DebugPrintAt(screen, v.status, 10, 44)
	}
}

// drawNode outlines a unit square transformed by the node matrix.
func drawNode(screen *ebiten.Image, n *scene.Node, ox, oy float64) {
	m := n.Matrix()
	corners := [4]linear.V3{{-1, -1, 0}, {1, -1, 0}, {1, 1, 0}, {-1, 1, 0}}
	var pts [4][2]float32
	for i, p := range corners {
		q := linear.MulPoint(m, linear.ScaleV3(nodeHalfSize, p))
		pts[i] = [2]float32{float32(ox + q[0]), float32(oy + q[1])}
	}
	for i := range pts {
		a, b := pts[i], pts[(i+1)%len(pts)]
		vector.StrokeLine(screen, a[0], a[1], b[0], b[1], 2, colornames.Lightskyblue, true)
	}
	ebitenutil.DebugPrintAt(screen, n.Name(), int(pts[0][0]), int(pts[0][1])-16)
}

// drawProperties shows colors as swatches and numbers as bars down
// the right edge.
func (v *Viewer) drawProperties(screen *ebiten.Image) {
	g := v.rig.Graph
	x, y := float32(baseWidth-260), float32(70)
	for _, name := range g.Names() {
		t, _ := g.Target(name)
		switch p := t.(type) {
		case *scene.Property[color.NRGBA]:
			vector.DrawFilledRect(screen, x, y, swatchSize, swatchSize, p.Get(), false)
		case *scene.Property[float64]:
			w := float32(math.Max(p.Get(), 0)) * 100
			vector.DrawFilledRect(screen, x, y+8, w, 8, colornames.Orange, false)
		case *scene.Property[int]:
			ebitenutil.DebugPrintAt(screen, fmt.Sprint(p.Get()), int(x), int(y)+4)
		case *scene.Property[bool]:
			clr := colornames.Dimgray
			if p.Get() {
				clr = colornames.Limegreen
			}
			vector.DrawFilledRect(screen, x, y+4, 16, 16, clr, false)
		case *scene.Property[[]float64]:
			for i, f := range p.Get() {
				h := float32(math.Max(f, 0)) * 2
				vector.DrawFilledRect(screen, x+float32(i)*10, y+swatchSize-h, 8, h, colornames.Orange, false)
			}
		default:
			continue
		}
		ebitenutil.DebugPrintAt(screen, name, int(x)+130, int(y)+4)
		y += swatchSize + 8
	}
}

func (v *Viewer) drawTimeline(screen *ebiten.Image) {
	c := v.rig.Controller
	tmin, tmax := c.Range()
	if tmax == tmin {
		tmax = tmin + 1
	}
	x0, x1 := float32(timelineMargin), float32(baseWidth-timelineMargin)
	toX := func(t float64) float32 {
		return x0 + float32((t-tmin)/(tmax-tmin))*(x1-x0)
	}

	vector.StrokeLine(screen, x0, timelineY, x1, timelineY, 2, colornames.Gray, false)
	for i, m := range c.Markers() {
		x := toX(v.rig.Times.Time(m.Time))
		clr := colornames.Lightgray
		if i == c.Current() {
			clr = colornames.Gold
		}
		vector.StrokeLine(screen, x, timelineY-10, x, timelineY+10, 2, clr, false)
		if m.Value.Label != "" {
			ebitenutil.DebugPrintAt(screen, m.Value.Label, int(x)-8, timelineY+12)
		}
	}
	cx := toX(c.CurrentTime())
	vector.StrokeLine(screen, cx, timelineY-16, cx, timelineY+16, 2, colornames.Crimson, false)
}

func (v *Viewer) Layout(outsideWidth, outsideHeight int) (int, int) {
	return baseWidth, baseHeight
}
