// Package main implements the sstsweep binary: it inspects the sstable
// file groups of one table directory, reports which ones are fully
// expired and safe to remove, and optionally quarantines them.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/sstsweep/sstsweep/internal/config"
	"github.com/sstsweep/sstsweep/internal/space"
	"github.com/sstsweep/sstsweep/internal/sweep"
)

var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	var (
		configFile            string
		tableDir              string
		gcGraceSeconds        int64
		defaultTTL            int64
		ignoreMaxDeletionTime bool
		quarantineDir         string
		auditDB               string
		archiveBucket         string
		archivePrefix         string
		archiveRegion         string
		archiveEndpoint       string
		archiveCompress       bool
		showVersion           bool
	)

	flag.StringVar(&configFile, "config", "", "Path to configuration file (YAML or JSON)")
	flag.StringVar(&tableDir, "table", "", "Path to the table directory holding the sstables")
	flag.Int64Var(&gcGraceSeconds, "gc-grace-seconds", 0, "Tombstone GC grace period of the table, in seconds")
	flag.Int64Var(&defaultTTL, "default-ttl", 0, "Default TTL of the table, in seconds")
	flag.BoolVar(&ignoreMaxDeletionTime, "ignore-max-deletion-time", false,
		"Substitute max timestamp plus the default TTL for never-expiring deletion times")
	flag.StringVar(&quarantineDir, "safely-move-expired-sstables-to", "",
		"Move non-blocked expired sstables to this directory (requires a stopped storage engine)")
	flag.StringVar(&auditDB, "audit-db", "", "Path to the sqlite audit journal")
	flag.StringVar(&archiveBucket, "archive-bucket", "", "S3 bucket to archive quarantined sstables to")
	flag.StringVar(&archivePrefix, "archive-prefix", "", "Key prefix for archived objects")
	flag.StringVar(&archiveRegion, "archive-region", "", "AWS region of the archive bucket")
	flag.StringVar(&archiveEndpoint, "archive-endpoint", "", "Custom S3 endpoint (MinIO, LocalStack)")
	flag.BoolVar(&archiveCompress, "archive-compress", false, "Snappy-compress archived objects")
	flag.BoolVar(&showVersion, "version", false, "Show version information")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "sstsweep - expired sstable inspection and safe reclamation\n\n")
		fmt.Fprintf(os.Stderr, "Usage: sstsweep [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  sstsweep --table /var/lib/scylla/data/ks/tbl --gc-grace-seconds 864000\n")
		fmt.Fprintf(os.Stderr, "  sstsweep --table /var/lib/scylla/data/ks/tbl --gc-grace-seconds 864000 \\\n")
		fmt.Fprintf(os.Stderr, "      --safely-move-expired-sstables-to /var/lib/scylla/quarantine\n")
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		fmt.Fprintf(os.Stderr, "  SSTSWEEP_TABLE_DIR            Table directory\n")
		fmt.Fprintf(os.Stderr, "  SSTSWEEP_GC_GRACE_SECONDS     GC grace period\n")
		fmt.Fprintf(os.Stderr, "  SSTSWEEP_DEFAULT_TTL_SECONDS  Default TTL\n")
		fmt.Fprintf(os.Stderr, "  SSTSWEEP_QUARANTINE_DIR       Quarantine directory\n")
		fmt.Fprintf(os.Stderr, "  SSTSWEEP_AUDIT_DB             Audit journal path\n")
		fmt.Fprintf(os.Stderr, "  SSTSWEEP_ARCHIVE_BUCKET       Archive bucket\n")
		fmt.Fprintf(os.Stderr, "  SSTSWEEP_ARCHIVE_REGION       Archive region\n")
	}

	flag.Parse()

	if showVersion {
		fmt.Printf("sstsweep version %s (commit: %s)\n", version, commit)
		os.Exit(0)
	}

	cfg, err := loadConfig(configFile)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Command line flags take the highest priority.
	if tableDir != "" {
		cfg.TableDir = tableDir
	}
	if gcGraceSeconds != 0 {
		cfg.GCGraceSeconds = gcGraceSeconds
	}
	if defaultTTL != 0 {
		cfg.DefaultTTLSeconds = defaultTTL
	}
	if ignoreMaxDeletionTime {
		cfg.IgnoreMaxDeletionTime = true
	}
	if quarantineDir != "" {
		cfg.QuarantineDir = quarantineDir
	}
	if auditDB != "" {
		cfg.AuditDB = auditDB
	}
	if archiveBucket != "" {
		cfg.Archive.Bucket = archiveBucket
	}
	if archivePrefix != "" {
		cfg.Archive.Prefix = archivePrefix
	}
	if archiveRegion != "" {
		cfg.Archive.Region = archiveRegion
	}
	if archiveEndpoint != "" {
		cfg.Archive.Endpoint = archiveEndpoint
	}
	if archiveCompress {
		cfg.Archive.Compress = true
	}

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	report, err := sweep.New(cfg).Run(context.Background())
	if err != nil {
		log.Fatalf("Sweep failed: %v", err)
	}
	printReport(report)
}

func loadConfig(configFile string) (*config.Config, error) {
	var cfg *config.Config
	var err error

	if configFile != "" {
		cfg, err = config.LoadFromFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	} else {
		cfg = config.DefaultConfig()
	}

	cfg.ApplyEnv()
	return cfg, nil
}

func printReport(report *sweep.Report) {
	fmt.Printf("Found %d sstables, out of which %d are expired\n",
		len(report.Descriptors), len(report.Classification.Expired))

	for _, d := range report.Resolution.Blocked {
		fmt.Printf("Expired sstable %s is blocked by: %v\n", d.Name, report.Resolution.Blockers[d.Name])
	}

	fmt.Printf("Total size of expired sstables: %s\n", space.FormatSize(report.ExpiredTotal))
	fmt.Printf("Reclaimable now (not blocked): %s across %d sstables\n",
		space.FormatSize(report.ReclaimableNow), len(report.Resolution.NonBlocked))
	fmt.Printf("Reclaimable after blockers expire: %s across %d sstables\n",
		space.FormatSize(report.ReclaimableLater), len(report.Resolution.Blocked))

	if len(report.Moved) > 0 {
		fmt.Printf("Moved %d sstables to quarantine\n", len(report.Moved))
	}
}
