// Command ohlink-objdump prints the structural layout of an Ohlink
// object and, with -d, disassembles its executable sections.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/appsworld/ohlink/dump"
	"github.com/appsworld/ohlink/ohlink"
)

var stderr = log.New(os.Stderr, "ohlink-objdump: ", 0)

func main() {
	var disassemble, disassembleLong bool
	flag.BoolVar(&disassemble, "d", false, "disassemble executable sections")
	flag.BoolVar(&disassembleLong, "disassemble", false, "disassemble executable sections")
	flag.Parse()
	disassemble = disassemble || disassembleLong

	args := flag.Args()
	if len(args) != 1 {
		stderr.Fatalf("usage: ohlink-objdump [-d] <file>")
	}
	path := args[0]

	data, err := os.ReadFile(path)
	if err != nil {
		stderr.Fatalf("reading %s: %v", path, err)
	}
	f, err := ohlink.NewFile(data)
	if err != nil {
		stderr.Fatalf("parsing %s: %v", path, err)
	}

	fmt.Println(dump.Structure(f, data))

	if disassemble {
		for _, sec := range f.FlatSections() {
			if sec.Name() != "__text" {
				continue
			}
			fmt.Printf("\nDisassembly of section %s,%s:\n", sec.SegName(), sec.Name())
			for _, line := range dump.Disassemble(sec.Data, sec.Addr) {
				fmt.Println(line)
			}
		}
	}
}
