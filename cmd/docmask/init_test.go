package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nao1215/docmask/internal/config"
)

// TestNewInitCmd tests the init command creation.
func TestNewInitCmd(t *testing.T) {
	t.Parallel()

	cmd := NewInitCmd()

	if cmd.Use != "init" {
		t.Errorf("expected use 'init', got %q", cmd.Use)
	}
	flag := cmd.Flags().Lookup("output")
	if flag == nil || flag.Shorthand != "o" || flag.DefValue != config.DefaultConfigFile {
		t.Errorf("unexpected output flag: %+v", flag)
	}
	flag = cmd.Flags().Lookup("force")
	if flag == nil || flag.Shorthand != "f" || flag.DefValue != "false" {
		t.Errorf("unexpected force flag: %+v", flag)
	}
}

// TestRunInitCmd tests the init command execution.
func TestRunInitCmd(t *testing.T) {
	t.Parallel()

	t.Run("creates config file", func(t *testing.T) {
		t.Parallel()

		outputPath := filepath.Join(t.TempDir(), "nested", ".docmask")

		var buf bytes.Buffer
		cmd := NewInitCmd()
		cmd.SetOut(&buf)
		cmd.SetArgs([]string{"-o", outputPath})
		if err := cmd.Execute(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		content, err := os.ReadFile(outputPath) //nolint:gosec // Test path
		if err != nil {
			t.Fatalf("failed to read file: %v", err)
		}
		for _, key := range []string{"masking:", "pipeline:", "output:", "word_limit:"} {
			if !strings.Contains(string(content), key) {
				t.Errorf("expected config to contain %q", key)
			}
		}

		info, err := os.Stat(outputPath)
		if err != nil {
			t.Fatal(err)
		}
		if info.Mode().Perm() != 0600 {
			t.Errorf("expected 0600 permissions, got %v", info.Mode().Perm())
		}
		if !strings.Contains(buf.String(), "Created configuration file") {
			t.Errorf("unexpected output: %q", buf.String())
		}
	})

	t.Run("template loads with default values", func(t *testing.T) {
		t.Parallel()

		outputPath := filepath.Join(t.TempDir(), ".docmask")
		cmd := NewInitCmd()
		cmd.SetOut(&bytes.Buffer{})
		cmd.SetArgs([]string{"-o", outputPath})
		if err := cmd.Execute(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		file, err := config.LoadConfigFile(outputPath)
		if err != nil {
			t.Fatalf("template does not parse: %v", err)
		}
		cfg := config.NewConfig()
		file.Apply(cfg)

		defaults := config.NewConfig()
		if cfg.WordLimit != defaults.WordLimit ||
			cfg.MaxConcurrency != defaults.MaxConcurrency ||
			cfg.PollInterval != defaults.PollInterval ||
			cfg.PollBackoff != defaults.PollBackoff ||
			cfg.MaxPollInterval != defaults.MaxPollInterval ||
			cfg.GlobalTimeout != defaults.GlobalTimeout ||
			cfg.RequestTimeout != defaults.RequestTimeout {
			t.Errorf("template values differ from defaults: %+v", cfg)
		}
		if cfg.BaseURL == "" {
			t.Error("template should carry an example base_url")
		}
		if cfg.Minio.Enabled() {
			t.Error("template should leave MinIO disabled")
		}
	})

	t.Run("fails if file exists without force", func(t *testing.T) {
		t.Parallel()

		outputPath := filepath.Join(t.TempDir(), ".docmask")
		if err := os.WriteFile(outputPath, []byte("existing"), 0600); err != nil {
			t.Fatalf("failed to create test file: %v", err)
		}

		cmd := NewInitCmd()
		cmd.SetArgs([]string{"-o", outputPath})
		err := cmd.Execute()
		if err == nil || !strings.Contains(err.Error(), "already exists") {
			t.Errorf("expected 'already exists' error, got %v", err)
		}
	})

	t.Run("overwrites file with force flag", func(t *testing.T) {
		t.Parallel()

		outputPath := filepath.Join(t.TempDir(), ".docmask")
		if err := os.WriteFile(outputPath, []byte("existing"), 0600); err != nil {
			t.Fatalf("failed to create test file: %v", err)
		}

		cmd := NewInitCmd()
		cmd.SetOut(&bytes.Buffer{})
		cmd.SetArgs([]string{"-o", outputPath, "-f"})
		if err := cmd.Execute(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		content, err := os.ReadFile(outputPath) //nolint:gosec // Test path
		if err != nil {
			t.Fatal(err)
		}
		if string(content) == "existing" {
			t.Error("expected file to be overwritten")
		}
	})
}
