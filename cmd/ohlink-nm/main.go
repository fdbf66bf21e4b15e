// Command ohlink-nm lists symbols from an Ohlink object or an Ohlib
// archive.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/appsworld/ohlink/dump"
	"github.com/appsworld/ohlink/ohlib"
	"github.com/appsworld/ohlink/ohlink"
)

var stderr = log.New(os.Stderr, "ohlink-nm: ", 0)

func main() {
	flag.Parse()
	args := flag.Args()
	if len(args) != 1 {
		stderr.Fatalf("usage: ohlink-nm <file>")
	}
	path := args[0]

	data, err := os.ReadFile(path)
	if err != nil {
		stderr.Fatalf("reading %s: %v", path, err)
	}

	if f, ferr := ohlink.NewFile(data); ferr == nil {
		for _, line := range dump.Symbols(f) {
			fmt.Println(line)
		}
		return
	}

	a, err := ohlib.Parse(data)
	if err != nil {
		stderr.Fatalf("%s: not a recognized Ohlink object or Ohlib archive", path)
	}
	lines, err := dump.ArchiveSymbols(a)
	if err != nil {
		stderr.Fatal(err)
	}
	for _, line := range lines {
		fmt.Println(line)
	}
}
