// Command ohlink-ld links Ohlink objects, Ohlib archives, and foreign
// ELF relocatable objects into a single Ohlink executable or archive.
package main

import (
	"flag"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/appsworld/ohlink/linker"
)

var stderr = log.New(os.Stderr, "ohlink-ld: ", 0)

func main() {
	var output, outputLong string
	var textBase, dataBase string
	var entry, entryLong string
	var library, libraryLong bool
	var wholeArchive bool
	var noPageZero bool

	flag.StringVar(&output, "o", "", "output path")
	flag.StringVar(&outputLong, "output", "", "output path")
	flag.StringVar(&textBase, "text-base", "", "__TEXT segment base address (default 0x40000000)")
	flag.StringVar(&dataBase, "data-base", "", "__DATA segment base address (default 0x40008000)")
	flag.StringVar(&entry, "e", "", "entry symbol name (default _start)")
	flag.StringVar(&entryLong, "entry", "", "entry symbol name (default _start)")
	flag.BoolVar(&library, "l", false, "archive mode: bundle inputs into an .ohlib instead of linking")
	flag.BoolVar(&libraryLong, "library", false, "archive mode: bundle inputs into an .ohlib instead of linking")
	flag.BoolVar(&wholeArchive, "whole-archive", false, "include every archive member, not just those resolving an undefined symbol")
	flag.BoolVar(&noPageZero, "no-pagezero", false, "omit the unmapped __PAGEZERO guard segment from executable output")

	// ld-compatibility: linker invocations often put "-o path" after the
	// inputs, where flag.Parse (which stops at the first positional
	// argument) would not see it; pre-scan os.Args so "-o" with a following
	// non-flag argument is accepted anywhere.
	rawArgs := prescanOutput(os.Args[1:])
	flag.CommandLine.Parse(rawArgs.rest)

	if outputLong != "" {
		output = outputLong
	}
	if rawArgs.output != "" {
		output = rawArgs.output
	}
	if entryLong != "" {
		entry = entryLong
	}
	library = library || libraryLong

	args := flag.Args()
	if len(args) == 0 {
		stderr.Fatalf("usage: ohlink-ld [-o output] [--text-base addr] [--data-base addr] [--entry sym] [--library] <inputs...>")
	}
	if output == "" {
		stderr.Fatalf("missing required -o/--output")
	}

	opts := linker.Options{
		Entry:        entry,
		Library:      library,
		WholeArchive: wholeArchive,
		NoPageZero:   noPageZero,
	}
	if textBase != "" {
		v, err := parseU64(textBase)
		if err != nil {
			stderr.Fatalf("--text-base: %v", err)
		}
		opts.TextBase = v
	}
	if dataBase != "" {
		v, err := parseU64(dataBase)
		if err != nil {
			stderr.Fatalf("--data-base: %v", err)
		}
		opts.DataBase = v
	}

	var inputs []linker.RawInput
	for _, path := range args {
		data, err := os.ReadFile(path)
		if err != nil {
			stderr.Fatalf("reading %s: %v", path, err)
		}
		inputs = append(inputs, linker.RawInput{Path: path, Data: data})
	}

	res, err := linker.Link(inputs, opts)
	if err != nil {
		stderr.Fatal(err)
	}
	for _, w := range res.Warnings {
		stderr.Print(w)
	}

	if err := os.WriteFile(output, res.Output, 0644); err != nil {
		stderr.Fatalf("writing %s: %v", output, err)
	}
}

func parseU64(s string) (uint64, error) {
	return strconv.ParseUint(strings.TrimPrefix(s, "0x"), 16, 64)
}

type prescanResult struct {
	output string
	rest   []string
}

// prescanOutput pulls a "-o value" pair out of args wherever it appears,
// before flag.Parse sees them, matching conventional linker-driver
// argument handling. The last such pair wins.
func prescanOutput(args []string) prescanResult {
	var rest []string
	var output string
	for i := 0; i < len(args); i++ {
		if args[i] == "-o" && i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
			output = args[i+1]
			i++
			continue
		}
		rest = append(rest, args[i])
	}
	return prescanResult{output: output, rest: rest}
}
