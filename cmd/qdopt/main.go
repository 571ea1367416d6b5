//
// main.go
//
// Copyright (c) 2025-2026 Tero Kallio
//
// All rights reserved.
//

// Command qdopt reads OpenQASM circuits, optionally optimizes them,
// and reports or writes the result.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/go-logr/logr"
	"github.com/go-logr/logr/funcr"

	"github.com/teroka/qdag/passes"
	"github.com/teroka/qdag/qasm"
)

var (
	optimize = flag.Bool("O", false, "remove redundant gates")
	stats    = flag.Bool("stats", false, "print gate statistics")
	dump     = flag.Bool("dump", false, "print a circuit dump")
	dotOut   = flag.String("dot", "", "write Graphviz output to `file`")
	output   = flag.String("o", "", "write OpenQASM output to `file`")
	verbose  = flag.Bool("v", false, "verbose output")

	logger = logr.Discard()
)

func main() {
	flag.Parse()

	if *verbose {
		logger = funcr.New(func(prefix, args string) {
			fmt.Fprintln(os.Stderr, prefix, args)
		}, funcr.Options{
			Verbosity: 1,
		})
	}

	if len(flag.Args()) == 0 {
		fmt.Printf("no input files\n")
		os.Exit(1)
	}
	for _, arg := range flag.Args() {
		if err := process(arg); err != nil {
			log.Fatalf("%s: %s", arg, err)
		}
	}
}

func process(file string) error {
	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer f.Close()

	c, err := qasm.Parse(f)
	if err != nil {
		return err
	}
	logger.Info("parsed", "file", file, "gates", c.NumGates())

	before := c.Stats()
	if *optimize {
		removed, err := passes.RemoveRedundancies(c,
			passes.WithLogger(logger))
		if err != nil {
			return err
		}
		logger.Info("optimized", "removed", removed,
			"gates", c.NumGates())
	}

	if *stats {
		if !*optimize {
			before = nil
		}
		c.Stats().Tabulate(before).Print(os.Stdout)
	}
	if *dump {
		c.Dump(os.Stdout)
	}
	if len(*dotOut) > 0 {
		out, err := os.Create(*dotOut)
		if err != nil {
			return err
		}
		c.Dot(out)
		if err := out.Close(); err != nil {
			return err
		}
	}
	if len(*output) > 0 {
		if *output == "-" {
			return qasm.Marshal(os.Stdout, c)
		}
		out, err := os.Create(*output)
		if err != nil {
			return err
		}
		if err := qasm.Marshal(out, c); err != nil {
			out.Close()
			return err
		}
		return out.Close()
	}
	return nil
}
