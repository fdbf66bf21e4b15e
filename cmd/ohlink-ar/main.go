// Command ohlink-ar bundles Ohlink object files into an Ohlib archive.
package main

import (
	"flag"
	"log"
	"os"
	"path/filepath"

	"github.com/appsworld/ohlink/ohlib"
)

var stderr = log.New(os.Stderr, "ohlink-ar: ", 0)

func main() {
	var output, outputLong string
	flag.StringVar(&output, "o", "", "output archive path (required)")
	flag.StringVar(&outputLong, "output", "", "output archive path (required)")
	flag.Parse()

	if outputLong != "" {
		output = outputLong
	}
	args := flag.Args()
	if output == "" || len(args) == 0 {
		stderr.Fatalf("usage: ohlink-ar -o <out.ohlib> <inputs...>")
	}

	b := ohlib.NewBuilder()
	for _, path := range args {
		data, err := os.ReadFile(path)
		if err != nil {
			stderr.Fatalf("reading %s: %v", path, err)
		}
		b.AddMember(filepath.Base(path), data)
	}

	if err := os.WriteFile(output, b.Build(), 0644); err != nil {
		stderr.Fatalf("writing %s: %v", output, err)
	}
}
