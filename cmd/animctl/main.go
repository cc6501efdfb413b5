// Command animctl inspects and plays animation documents without a
// window.
package main

import (
	"fmt"
	"log"
	"os"
)

const usage = `usage: animctl <command> [flags]

commands:
  validate  check a document and report every problem
  sample    print track values over a time range as YAML
  play      play a document headless, logging controller events

run "animctl <command> -h" for command flags`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "validate":
		err = runValidate(os.Args[2:])
	case "sample":
		err = runSample(os.Args[2:], os.Stdout)
	case "play":
		err = runPlay(os.Args[2:])
	case "-h", "-help", "--help", "help":
		fmt.Println(usage)
		return
	default:
		fmt.Fprintf(os.Stderr, "animctl: unknown command %q\n\n%s\n", os.Args[1], usage)
		os.Exit(2)
	}
	if err != nil {
		log.Fatal(err)
	}
}
