// Command viewer plays an animation document in a window and lets
// you edit its keyframes.
package main

import (
	"flag"
	"log"

	"github.com/hajimehoshi/ebiten/v2"
)

func main() {
	docPath := flag.String("doc", "", "animation document (.yaml)")
	baseMonitor := flag.Bool("m", false, "use base monitor instead of primary (for multi-monitor setups)")
	watch := flag.Bool("watch", false, "reload the document and its scripts when they change")
	flag.Parse()
	if *docPath == "" {
		log.Fatal("viewer: -doc is required")
	}

	if *baseMonitor {
		ebiten.SetMonitor(ebiten.AppendMonitors(nil)[0])
	}

	v, err := NewViewer(*docPath, *watch)
	if err != nil {
		log.Fatal(err)
	}
	defer v.Close()

	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowSize(baseWidth, baseHeight)
	ebiten.SetWindowTitle("keyanim - " + *docPath)

	if err := ebiten.RunGame(v); err != nil {
		log.Fatal(err)
	}
}
