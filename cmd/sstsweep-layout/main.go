// Package main implements the sstsweep-layout binary: it renders the
// per-shard sstable run layout of one table directory.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/sstsweep/sstsweep/internal/layout"
)

func main() {
	var (
		tableDir string
		shards   int64
	)

	flag.StringVar(&tableDir, "table", "", "Path to the table directory holding the sstables")
	flag.Int64Var(&shards, "shards", 1, "Number of shards the node runs with")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "sstsweep-layout - per-shard sstable run layout\n\n")
		fmt.Fprintf(os.Stderr, "Usage: sstsweep-layout --table <dir> --shards <n>\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExample:\n")
		fmt.Fprintf(os.Stderr, "  sstsweep-layout --table /var/lib/scylla/data/ks/tbl --shards 8\n")
	}

	flag.Parse()

	if tableDir == "" {
		flag.Usage()
		os.Exit(2)
	}
	if shards < 1 {
		log.Fatalf("Invalid shard count: %d", shards)
	}

	report, err := layout.Build(tableDir, shards)
	if err != nil {
		log.Fatalf("Failed to build layout: %v", err)
	}
	report.Print(os.Stdout)
}
