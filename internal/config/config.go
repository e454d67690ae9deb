// Package config provides unified configuration for the sstsweep tools.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the policy and destinations of one sweep run.
type Config struct {
	// TableDir is the absolute path to the table directory to inspect.
	TableDir string `json:"table_dir" yaml:"table_dir"`

	// GCGraceSeconds is the GC grace period in seconds.
	GCGraceSeconds int64 `json:"gc_grace_seconds" yaml:"gc_grace_seconds"`

	// DefaultTTLSeconds is the table's default time to live in seconds.
	DefaultTTLSeconds int64 `json:"default_ttl_seconds" yaml:"default_ttl_seconds"`

	// IgnoreMaxDeletionTime treats never-expiring sstables as if their
	// writes carried the default TTL.
	IgnoreMaxDeletionTime bool `json:"ignore_max_deletion_time" yaml:"ignore_max_deletion_time"`

	// QuarantineDir, when set, is the directory non-blocked expired
	// sstables are safely moved to.
	QuarantineDir string `json:"quarantine_dir" yaml:"quarantine_dir"`

	// AuditDB, when set, is the path of the sqlite audit journal.
	AuditDB string `json:"audit_db" yaml:"audit_db"`

	// Archive configures the optional object-storage archive of
	// quarantined sstables.
	Archive ArchiveConfig `json:"archive" yaml:"archive"`
}

// ArchiveConfig holds the S3 archive destination.
type ArchiveConfig struct {
	// Bucket enables archiving when non-empty.
	Bucket string `json:"bucket" yaml:"bucket"`

	// Prefix is the object key prefix within the bucket.
	Prefix string `json:"prefix" yaml:"prefix"`

	// Region is the AWS region of the bucket.
	Region string `json:"region" yaml:"region"`

	// Endpoint is an optional custom endpoint (MinIO, LocalStack).
	Endpoint string `json:"endpoint" yaml:"endpoint"`

	// UsePathStyle enables path-style addressing.
	UsePathStyle bool `json:"use_path_style" yaml:"use_path_style"`

	// Compress snappy-encodes component payloads before upload.
	Compress bool `json:"compress" yaml:"compress"`
}

// DefaultConfig returns the configuration defaults.
func DefaultConfig() *Config {
	return &Config{
		Archive: ArchiveConfig{
			Prefix: "reclaimed",
			Region: "us-east-1",
		},
	}
}

// LoadFromFile loads configuration from a YAML or JSON file, selected
// by extension, on top of the defaults.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: unable to read %s: %w", path, err)
	}

	cfg := DefaultConfig()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: unable to parse YAML %s: %w", path, err)
		}
	case ".json":
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: unable to parse JSON %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("config: unsupported config format %s (use .yaml, .yml, or .json)", path)
	}
	return cfg, nil
}

// ApplyEnv overlays SSTSWEEP_* environment variables onto the config.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("SSTSWEEP_TABLE_DIR"); v != "" {
		c.TableDir = v
	}
	if v := os.Getenv("SSTSWEEP_GC_GRACE_SECONDS"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.GCGraceSeconds = n
		}
	}
	if v := os.Getenv("SSTSWEEP_DEFAULT_TTL_SECONDS"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.DefaultTTLSeconds = n
		}
	}
	if v := os.Getenv("SSTSWEEP_QUARANTINE_DIR"); v != "" {
		c.QuarantineDir = v
	}
	if v := os.Getenv("SSTSWEEP_AUDIT_DB"); v != "" {
		c.AuditDB = v
	}
	if v := os.Getenv("SSTSWEEP_ARCHIVE_BUCKET"); v != "" {
		c.Archive.Bucket = v
	}
	if v := os.Getenv("SSTSWEEP_ARCHIVE_REGION"); v != "" {
		c.Archive.Region = v
	}
}

// Validate checks the configuration before a run starts.
func (c *Config) Validate() error {
	if c.TableDir == "" {
		return fmt.Errorf("config: table_dir is required")
	}
	info, err := os.Stat(c.TableDir)
	if err != nil {
		return fmt.Errorf("config: unable to find table directory at %s: %w", c.TableDir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("config: table path %s is not a directory", c.TableDir)
	}
	if c.GCGraceSeconds < 0 {
		return fmt.Errorf("config: gc_grace_seconds must be >= 0, got %d", c.GCGraceSeconds)
	}
	if c.DefaultTTLSeconds < 0 {
		return fmt.Errorf("config: default_ttl_seconds must be >= 0, got %d", c.DefaultTTLSeconds)
	}
	// The TTL is only consulted when substituting never-expiring
	// deletion times, so it is mandatory only then.
	if c.IgnoreMaxDeletionTime && c.DefaultTTLSeconds == 0 {
		return fmt.Errorf("config: ignore_max_deletion_time requires default_ttl_seconds > 0")
	}
	if c.QuarantineDir != "" {
		info, err := os.Stat(c.QuarantineDir)
		if err != nil {
			return fmt.Errorf("config: unable to find quarantine directory at %s: %w", c.QuarantineDir, err)
		}
		if !info.IsDir() {
			return fmt.Errorf("config: quarantine path %s is not a directory", c.QuarantineDir)
		}
	}
	if c.Archive.Bucket != "" && c.QuarantineDir == "" {
		return fmt.Errorf("config: archive requires a quarantine_dir to upload from")
	}
	return nil
}
