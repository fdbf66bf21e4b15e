// Command elf2ohlink converts an AArch64 ELF relocatable object into an
// Ohlink object, executable, or dylib file.
package main

import (
	"bytes"
	"debug/elf"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/appsworld/ohlink/elfconv"
	"github.com/appsworld/ohlink/types"
)

var stderr = log.New(os.Stderr, "elf2ohlink: ", 0)

func main() {
	var output, outputLong string
	var fileType string
	var verbose, verboseLong bool

	flag.StringVar(&output, "o", "", "output path (default: input with .ohlink extension)")
	flag.StringVar(&outputLong, "output", "", "output path (default: input with .ohlink extension)")
	flag.StringVar(&fileType, "file-type", "object", "object|execute|dylib")
	flag.BoolVar(&verbose, "v", false, "verbose diagnostics")
	flag.BoolVar(&verboseLong, "verbose", false, "verbose diagnostics")
	flag.Parse()

	if outputLong != "" {
		output = outputLong
	}
	verbose = verbose || verboseLong

	args := flag.Args()
	if len(args) != 1 {
		stderr.Fatalf("usage: elf2ohlink [-o output] [--file-type object|execute|dylib] <input.elf>")
	}
	input := args[0]

	if output == "" {
		output = strings.TrimSuffix(input, filepath.Ext(input)) + ".ohlink"
	}

	ft, err := parseFileType(fileType)
	if err != nil {
		stderr.Fatal(err)
	}

	raw, err := os.ReadFile(input)
	if err != nil {
		stderr.Fatalf("reading %s: %v", input, err)
	}
	ef, err := elf.NewFile(bytes.NewReader(raw))
	if err != nil {
		stderr.Fatalf("parsing ELF %s: %v", input, err)
	}
	if verbose {
		stderr.Printf("converting %s (%d sections) -> %s", input, len(ef.Sections), output)
	}

	out, err := elfconv.Convert(ef, elfconv.Options{FileType: ft})
	if err != nil {
		stderr.Fatalf("converting %s: %v", input, err)
	}

	if err := os.WriteFile(output, out, 0644); err != nil {
		stderr.Fatalf("writing %s: %v", output, err)
	}
	fmt.Println(output)
}

func parseFileType(s string) (types.HeaderFileType, error) {
	switch s {
	case "object":
		return types.MH_OBJECT, nil
	case "execute":
		return types.MH_EXECUTE, nil
	case "dylib":
		return types.MH_DYLIB, nil
	default:
		return 0, fmt.Errorf("unknown --file-type %q", s)
	}
}
