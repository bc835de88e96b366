package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nao1215/docmask/internal/masking"
)

// NewValidateCmd creates the validate command.
func NewValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check the configuration and the masking service connection",
		Long: `Validate checks the configuration the way 'docmask mask' would and sends
one synchronous probe request to the masking service.

Use it after editing .docmask or rotating the auth key.`,
		Args: cobra.NoArgs,
		RunE: runValidateCmd,
	}

	serviceFlags(cmd)

	return cmd
}

// runValidateCmd executes the validate command.
func runValidateCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd, lookupEnv)
	if err != nil {
		return err
	}
	if err := applyServiceFlags(cmd, cfg); err != nil {
		return err
	}
	if err := cfg.ValidateService(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	if err := cfg.ValidatePipeline(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cmd, cmd.ErrOrStderr())
	client, err := newMaskingClient(cfg, logger)
	if err != nil {
		return err
	}

	return validateService(cmd.Context(), client, cfg.BaseURL, cmd)
}

// validateService probes v and prints the outcome.
func validateService(ctx context.Context, v masking.Validator, baseURL string, cmd *cobra.Command) error {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Checking masking service at %s...\n", baseURL)
	if err := v.Validate(ctx); err != nil {
		return fmt.Errorf("masking service check failed: %w", err)
	}
	fmt.Fprintln(out, "Masking service OK")
	return nil
}
