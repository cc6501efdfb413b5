package main

import (
	"bytes"
	"math"
	"path/filepath"
	"testing"

	"gopkg.in/yaml.v3"
)

var demoPath = filepath.Join("..", "..", "document", "testdata", "demo.yaml")

func TestSampleDefaultsToMarkerRange(t *testing.T) {
	var buf bytes.Buffer
	if err := runSample([]string{"-doc", demoPath, "-step", "0.5"}, &buf); err != nil {
		t.Fatalf("runSample: %v", err)
	}

	var got []struct {
		Time   float64        `yaml:"time"`
		Values map[string]any `yaml:"values"`
	}
	if err := yaml.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal output: %v\n%s", err, buf.String())
	}
	if len(got) != 5 || got[0].Time != 0 || got[4].Time != 2 {
		t.Fatalf("expected 5 samples over [0, 2], got %d", len(got))
	}
	if v, ok := got[2].Values["box.opacity"].(float64); !ok || v != 0.5 {
		t.Fatalf("expected opacity 0.5 at t=1, got %v", got[2].Values["box.opacity"])
	}
	if got[4].Values["box.color"] != "#00ff0080" {
		t.Fatalf("expected hex color at the end, got %v", got[4].Values["box.color"])
	}
}

func TestSampleRejectsBadRanges(t *testing.T) {
	cases := []struct {
		name string
		args []string
	}{
		{"reversed", []string{"-doc", demoPath, "-from", "2", "-to", "1"}},
		{"too_many", []string{"-doc", demoPath, "-step", "0.000001"}},
		{"no_doc", nil},
		{"missing_file", []string{"-doc", "nope.yaml"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := runSample(tc.args, &buf); err == nil {
				t.Fatalf("expected an error")
			}
		})
	}
}

func TestSampleSingleTime(t *testing.T) {
	var buf bytes.Buffer
	if err := runSample([]string{"-doc", demoPath, "-from", "1.5", "-to", "1.5"}, &buf); err != nil {
		t.Fatalf("runSample: %v", err)
	}
	var got []struct {
		Time   float64        `yaml:"time"`
		Values map[string]any `yaml:"values"`
	}
	if err := yaml.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal output: %v", err)
	}
	if len(got) != 1 || got[0].Time != 1.5 {
		t.Fatalf("expected one sample at 1.5, got %v", got)
	}
	// smoothstep from 0 to 1 at u = 0.75
	want := 0.75 * 0.75 * (3 - 2*0.75)
	if v, _ := got[0].Values["box.opacity"].(float64); math.Abs(v-want) > 1e-9 {
		t.Fatalf("expected opacity %v, got %v", want, v)
	}
}
