// Package script runs tengo scripts as playback listeners.
//
// A script defines
//
//	handle := func(engine, ev) { ... }
//
// and is called once per controller event. ev carries type, time,
// frame, keyframe and recording. engine exposes set(name, value),
// get(name) and log(args...) against a scene graph. A map named
// __state survives between calls.
package script

import (
	"fmt"
	"log"
	"os"
	"strings"
	"sync"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"
	"github.com/milk9111/keyanim/playback"
	"github.com/milk9111/keyanim/scene"
)

const dispatchScript = `
if __type != "" {
	handle(__engine, __event)
}
`

// Listener is a playback.Listener backed by a compiled script.
type Listener struct {
	mu       sync.Mutex
	path     string
	compiled *tengo.Compiled
	state    *tengo.Map
	graph    *scene.Graph
	engine   *tengo.ImmutableMap
}

// Load compiles the script at path.
func Load(path string, g *scene.Graph) (*Listener, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("script: load %s: %w", path, err)
	}
	return New(path, src, g)
}

// New compiles src. name is used in errors and logs.
func New(name string, src []byte, g *scene.Graph) (*Listener, error) {
	compiled, err := compile(src)
	if err != nil {
		return nil, fmt.Errorf("script: compile %s: %w", name, err)
	}
	l := &Listener{
		path:     name,
		compiled: compiled,
		state:    &tengo.Map{Value: map[string]tengo.Object{}},
		graph:    g,
	}
	l.engine = l.buildEngine()
	return l, nil
}

func compile(src []byte) (*tengo.Compiled, error) {
	full := string(src) + "\n" + dispatchScript
	s := tengo.NewScript([]byte(full))
	_ = s.Add("__type", "")
	_ = s.Add("__event", map[string]any{})
	_ = s.Add("__engine", map[string]any{})
	_ = s.Add("__state", map[string]any{})
	s.SetImports(stdlib.GetModuleMap(stdlib.AllModuleNames()...))
	return s.Compile()
}

func (l *Listener) Path() string { return l.path }

// Reload recompiles the script from its path. On failure the
// previous version stays active. State is kept.
func (l *Listener) Reload() error {
	src, err := os.ReadFile(l.path)
	if err != nil {
		return fmt.Errorf("script: reload %s: %w", l.path, err)
	}
	compiled, err := compile(src)
	if err != nil {
		return fmt.Errorf("script: reload %s: %w", l.path, err)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.compiled = compiled
	return nil
}

// HandleEvent runs the script's handle function for ev.
func (l *Listener) HandleEvent(ev playback.Event) error {
	event := map[string]tengo.Object{
		"type":     &tengo.String{Value: ev.Type.String()},
		"time":     &tengo.Float{Value: ev.Time},
		"keyframe": &tengo.Int{Value: int64(ev.KeyFrame)},
	}
	if c := ev.Source; c != nil {
		event["frame"] = &tengo.Int{Value: int64(c.CurrentFrame())}
		event["recording"] = boolObject(c.Recording())
		event["controller"] = &tengo.String{Value: c.ID().String()}
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.compiled.Set("__type", ev.Type.String()); err != nil {
		return err
	}
	if err := l.compiled.Set("__event", &tengo.ImmutableMap{Value: event}); err != nil {
		return err
	}
	if err := l.compiled.Set("__engine", l.engine); err != nil {
		return err
	}
	if err := l.compiled.Set("__state", l.state); err != nil {
		return err
	}
	if err := l.compiled.Run(); err != nil {
		return fmt.Errorf("script: %s on %v: %w", l.path, ev.Type, err)
	}
	return nil
}

// State returns a copy of the script's persistent state.
func (l *Listener) State() map[string]any {
	l.mu.Lock()
	defer l.mu.Unlock()
	out, _ := objectToAny(l.state).(map[string]any)
	return out
}

func (l *Listener) buildEngine() *tengo.ImmutableMap {
	values := map[string]tengo.Object{}

	values["set"] = &tengo.UserFunction{Name: "set", Value: func(args ...tengo.Object) (tengo.Object, error) {
		if l.graph == nil || len(args) < 2 {
			return tengo.FalseValue, nil
		}
		name := strings.TrimSpace(objectAsString(args[0]))
		if name == "" {
			return tengo.FalseValue, nil
		}
		switch v := args[1].(type) {
		case *tengo.Float:
			return l.setProperty(name, v.Value)
		case *tengo.Int:
			if p, ok := l.graph.Target(name); ok {
				if ip, ok := p.(*scene.Property[int]); ok {
					ip.Propagate(int(v.Value))
					return tengo.TrueValue, nil
				}
			}
			return l.setProperty(name, float64(v.Value))
		case *tengo.Bool:
			p, err := scene.Lookup(l.graph, name, false)
			if err != nil {
				return tengo.FalseValue, nil
			}
			p.Propagate(!v.IsFalsy())
			return tengo.TrueValue, nil
		}
		return tengo.FalseValue, nil
	}}

	values["get"] = &tengo.UserFunction{Name: "get", Value: func(args ...tengo.Object) (tengo.Object, error) {
		if l.graph == nil || len(args) < 1 {
			return tengo.UndefinedValue, nil
		}
		t, ok := l.graph.Target(strings.TrimSpace(objectAsString(args[0])))
		if !ok {
			return tengo.UndefinedValue, nil
		}
		switch p := t.(type) {
		case *scene.Property[float64]:
			return &tengo.Float{Value: p.Get()}, nil
		case *scene.Property[int]:
			return &tengo.Int{Value: int64(p.Get())}, nil
		case *scene.Property[bool]:
			return boolObject(p.Get()), nil
		}
		return tengo.UndefinedValue, nil
	}}

	values["log"] = &tengo.UserFunction{Name: "log", Value: func(args ...tengo.Object) (tengo.Object, error) {
		parts := make([]string, 0, len(args))
		for _, a := range args {
			parts = append(parts, objectAsString(a))
		}
		log.Printf("script: %s: %s", l.path, strings.Join(parts, " "))
		return tengo.UndefinedValue, nil
	}}

	return &tengo.ImmutableMap{Value: values}
}

func (l *Listener) setProperty(name string, v float64) (tengo.Object, error) {
	p, err := l.graph.Double(name)
	if err != nil {
		return tengo.FalseValue, nil
	}
	p.Propagate(v)
	return tengo.TrueValue, nil
}

func boolObject(b bool) tengo.Object {
	if b {
		return tengo.TrueValue
	}
	return tengo.FalseValue
}

func objectAsString(obj tengo.Object) string {
	if obj == nil {
		return ""
	}
	switch v := obj.(type) {
	case *tengo.String:
		return v.Value
	default:
		return strings.Trim(v.String(), "\"")
	}
}

func objectToAny(obj tengo.Object) any {
	if obj == nil {
		return nil
	}

	switch v := obj.(type) {
	case *tengo.String:
		return v.Value
	case *tengo.Int:
		return int(v.Value)
	case *tengo.Float:
		return v.Value
	case *tengo.Bool:
		return !v.IsFalsy()
	case *tengo.Array:
		out := make([]any, 0, len(v.Value))
		for _, item := range v.Value {
			out = append(out, objectToAny(item))
		}
		return out
	case *tengo.Map:
		out := make(map[string]any, len(v.Value))
		for k, item := range v.Value {
			out[k] = objectToAny(item)
		}
		return out
	case *tengo.ImmutableMap:
		out := make(map[string]any, len(v.Value))
		for k, item := range v.Value {
			out[k] = objectToAny(item)
		}
		return out
	case *tengo.Undefined:
		return nil
	default:
		return v.String()
	}
}
