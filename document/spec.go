// Package document loads and saves animations as YAML and builds
// them into playable rigs.
package document

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/milk9111/keyanim/common"
	"github.com/milk9111/keyanim/linear"
	"golang.org/x/image/colornames"
	"gopkg.in/yaml.v3"
)

type Document struct {
	Name     string       `yaml:"name"`
	Playback PlaybackSpec `yaml:"playback"`
	Markers  []float64    `yaml:"markers"`
	Labels   []string     `yaml:"labels,omitempty"`
	Scripts  []string     `yaml:"scripts,omitempty"`
	Tracks   []TrackSpec  `yaml:"tracks"`

	dir string
}

type PlaybackSpec struct {
	FPS    float64 `yaml:"fps,omitempty"`
	Factor float64 `yaml:"factor,omitempty"`
	Mode   string  `yaml:"mode,omitempty"`
}

// TrackSpec describes one animated value. Keys refer to markers by
// index into Document.Markers.
type TrackSpec struct {
	Name          string    `yaml:"name"`
	Kind          Kind      `yaml:"kind"`
	Interpolation string    `yaml:"interpolation,omitempty"`
	Boundary      string    `yaml:"boundary,omitempty"`
	Target        string    `yaml:"target,omitempty"`
	Size          int       `yaml:"size,omitempty"`
	ReadOnly      bool      `yaml:"read_only,omitempty"`
	GivesWay      bool      `yaml:"gives_way,omitempty"`
	Keys          []KeySpec `yaml:"keys"`
}

// KeySpec is one keyframe. Single-valued tracks use Value; set
// tracks use Values with one entry per slot, where null leaves the
// slot without a keyframe at that marker.
type KeySpec struct {
	Marker int   `yaml:"marker"`
	Value  any   `yaml:"value,omitempty"`
	Values []any `yaml:"values,omitempty"`
}

// TransformSpec is a transform in factored form. The rotation is
// Angle radians about Axis.
type TransformSpec struct {
	Translation []float64 `yaml:"translation,omitempty"`
	Axis        []float64 `yaml:"axis,omitempty"`
	Angle       float64   `yaml:"angle,omitempty"`
	Scale       []float64 `yaml:"scale,omitempty"`
}

// Transform converts s. A missing axis rotates about Z and a missing
// scale is 1.
func (s TransformSpec) Transform() (linear.Transform, error) {
	x := linear.Ident()
	var err error
	if x.T, err = vec3(s.Translation, linear.V3{}); err != nil {
		return x, fmt.Errorf("translation: %w", err)
	}
	if x.S, err = vec3(s.Scale, linear.V3{1, 1, 1}); err != nil {
		return x, fmt.Errorf("scale: %w", err)
	}
	axis, err := vec3(s.Axis, linear.V3{0, 0, 1})
	if err != nil {
		return x, fmt.Errorf("axis: %w", err)
	}
	if linear.LenV3(axis) == 0 {
		axis = linear.V3{0, 0, 1}
	}
	x.R = linear.RotateQ(s.Angle, axis)
	return x, nil
}

func specOf(x linear.Transform) TransformSpec {
	axis, angle := linear.AxisAngle(x.R)
	return TransformSpec{
		Translation: x.T[:],
		Axis:        axis[:],
		Angle:       angle,
		Scale:       x.S[:],
	}
}

func vec3(v []float64, def linear.V3) (linear.V3, error) {
	switch len(v) {
	case 0:
		return def, nil
	case 3:
		return linear.V3{v[0], v[1], v[2]}, nil
	}
	return def, fmt.Errorf("expected 3 components, got %d", len(v))
}

// YAMLColor reads a color as a name ("crimson"), a hex string
// ("#rrggbb" or "#rrggbbaa") or a list of 3 or 4 channels in 0-255.
// It always writes hex.
type YAMLColor struct {
	color.NRGBA
}

func (c *YAMLColor) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		nrgba, err := parseColor(value.Value)
		if err != nil {
			return err
		}
		c.NRGBA = nrgba
		return nil
	case yaml.SequenceNode:
		var ch []float64
		if err := value.Decode(&ch); err != nil {
			return err
		}
		if len(ch) != 3 && len(ch) != 4 {
			return fmt.Errorf("color list needs 3 or 4 channels, got %d", len(ch))
		}
		c.NRGBA = color.NRGBA{R: common.RoundByte(ch[0]), G: common.RoundByte(ch[1]), B: common.RoundByte(ch[2]), A: 255}
		if len(ch) == 4 {
			c.A = common.RoundByte(ch[3])
		}
		return nil
	}
	return fmt.Errorf("color must be a string or a list")
}

func (c YAMLColor) MarshalYAML() (any, error) {
	return hexColor(c.NRGBA), nil
}

func parseColor(s string) (color.NRGBA, error) {
	if named, ok := colornames.Map[strings.ToLower(strings.TrimSpace(s))]; ok {
		return color.NRGBA{R: named.R, G: named.G, B: named.B, A: named.A}, nil
	}

	hex := strings.TrimPrefix(s, "#")
	if len(hex) != 6 && len(hex) != 8 {
		return color.NRGBA{}, fmt.Errorf("invalid color format: %s", s)
	}
	parse := func(start int) (uint8, error) {
		v, err := strconv.ParseUint(hex[start:start+2], 16, 8)
		return uint8(v), err
	}
	var ch [4]uint8
	ch[3] = 255
	for i := 0; i < len(hex)/2; i++ {
		v, err := parse(i * 2)
		if err != nil {
			return color.NRGBA{}, fmt.Errorf("invalid color format: %s", s)
		}
		ch[i] = v
	}
	return color.NRGBA{R: ch[0], G: ch[1], B: ch[2], A: ch[3]}, nil
}

func hexColor(c color.NRGBA) string {
	if c.A == 255 {
		return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
	}
	return fmt.Sprintf("#%02x%02x%02x%02x", c.R, c.G, c.B, c.A)
}

// Parse decodes a document. Script paths stay as written.
func Parse(data []byte) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("document: unmarshal: %w", err)
	}
	return &doc, nil
}

// Load reads and decodes the document at path. Script paths are
// resolved against the document's directory.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("document: load %s: %w", path, err)
	}
	doc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("document: load %s: %w", path, err)
	}
	doc.dir = filepath.Dir(path)
	return doc, nil
}

// Save writes doc to path as YAML.
func Save(path string, doc *Document) error {
	data, err := Marshal(doc)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("document: save %s: %w", path, err)
	}
	return nil
}

func Marshal(doc *Document) ([]byte, error) {
	data, err := yaml.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("document: marshal: %w", err)
	}
	return data, nil
}

// ScriptPaths returns the document's scripts. Relative paths are
// joined to the directory the document was loaded from and made
// absolute.
func (d *Document) ScriptPaths() []string {
	out := make([]string, 0, len(d.Scripts))
	for _, s := range d.Scripts {
		if d.dir != "" && !filepath.IsAbs(s) {
			s = filepath.Join(d.dir, s)
		}
		if abs, err := filepath.Abs(s); err == nil {
			s = abs
		}
		out = append(out, s)
	}
	return out
}

// decodeAs converts a raw YAML value into T by re-encoding it.
func decodeAs[T any](raw any) (T, error) {
	var zero T
	if raw == nil {
		return zero, ErrMissingValue
	}
	b, err := yaml.Marshal(raw)
	if err != nil {
		return zero, err
	}
	var out T
	if err := yaml.Unmarshal(b, &out); err != nil {
		return zero, err
	}
	return out, nil
}
