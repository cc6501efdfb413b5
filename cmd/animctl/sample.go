package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"math"

	"github.com/milk9111/keyanim/document"
	"github.com/milk9111/keyanim/playback"
	"github.com/milk9111/keyanim/scene"
	"gopkg.in/yaml.v3"
)

func runValidate(args []string) error {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	docPath := fs.String("doc", "", "animation document (.yaml)")
	fs.Parse(args)
	if *docPath == "" {
		return errors.New("animctl: -doc is required")
	}

	doc, err := document.Load(*docPath)
	if err != nil {
		return err
	}
	if err := document.Validate(doc); err != nil {
		return err
	}
	fmt.Printf("%s: ok (%d markers, %d tracks)\n", *docPath, len(doc.Markers), len(doc.Tracks))
	return nil
}

type frameSample struct {
	Time   float64        `yaml:"time"`
	Values map[string]any `yaml:"values"`
}

// maxSamples bounds the output of a single sample run.
const maxSamples = 100000

func runSample(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("sample", flag.ExitOnError)
	docPath := fs.String("doc", "", "animation document (.yaml)")
	from := fs.Float64("from", math.NaN(), "first sample time (default: first marker)")
	to := fs.Float64("to", math.NaN(), "last sample time (default: last marker)")
	step := fs.Float64("step", 0, "time between samples (default: one frame)")
	fs.Parse(args)
	if *docPath == "" {
		return errors.New("animctl: -doc is required")
	}

	doc, err := document.Load(*docPath)
	if err != nil {
		return err
	}
	rig, err := document.Build(doc, scene.NewGraph(), document.WithScheduler(playback.NewPolledScheduler()))
	if err != nil {
		return err
	}
	samples, err := sampleRig(rig, *from, *to, *step)
	if err != nil {
		return err
	}

	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(samples); err != nil {
		return fmt.Errorf("animctl: encode samples: %w", err)
	}
	return enc.Close()
}

// sampleRig evaluates rig from from to to inclusive. NaN bounds
// default to the marker range and a zero step to one frame.
func sampleRig(rig *document.Rig, from, to, step float64) ([]frameSample, error) {
	tmin, tmax := rig.Controller.Range()
	if math.IsNaN(from) {
		from = tmin
	}
	if math.IsNaN(to) {
		to = tmax
	}
	if step <= 0 {
		step = 1 / rig.Controller.FPS()
	}
	if to < from {
		return nil, fmt.Errorf("animctl: empty range [%v, %v]", from, to)
	}
	n := int(math.Floor((to-from)/step+1e-9)) + 1
	if n > maxSamples {
		return nil, fmt.Errorf("animctl: %d samples requested, limit is %d", n, maxSamples)
	}

	samples := make([]frameSample, 0, n)
	for i := 0; i < n; i++ {
		t := from + float64(i)*step
		samples = append(samples, frameSample{Time: t, Values: document.Sample(rig, t)})
	}
	return samples, nil
}
