package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	dmlog "github.com/nao1215/docmask/internal/log"
)

// NewRootCmd creates the root command for docmask.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "docmask",
		Short: "Mask sensitive text in documents through an asynchronous masking service",
		Long: `docmask masks sensitive text in .docx, HTML and plain text documents.

Each document is split into chunks of at most --word-limit words, the chunks
are submitted to the masking service concurrently and polled until they
resolve. Chunks that fail or do not finish in time keep their original text,
so the masked output always has the same paragraphs as the input.

Settings are read from a .docmask file (see 'docmask init'), then from the
environment (DOCMASK_AUTH_KEY), then from command line flags.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().Bool("log-json", false, "Write logs as JSON")
	cmd.PersistentFlags().StringP("config", "c", "",
		"Configuration file path (default: .docmask in current or home directory)")

	cmd.AddCommand(NewMaskCmd())
	cmd.AddCommand(NewValidateCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// getBoolFlag retrieves a boolean flag from the command or its root.
func getBoolFlag(cmd *cobra.Command, name string) bool {
	v, err := cmd.Flags().GetBool(name)
	if err != nil {
		v, err = cmd.Root().PersistentFlags().GetBool(name)
		if err != nil {
			return false
		}
	}
	return v
}

// getStringFlag retrieves a string flag from the command or its root.
func getStringFlag(cmd *cobra.Command, name string) string {
	v, err := cmd.Flags().GetString(name)
	if err != nil {
		v, err = cmd.Root().PersistentFlags().GetString(name)
		if err != nil {
			return ""
		}
	}
	return v
}

// setupLogger creates the redacting logger selected by the global flags.
func setupLogger(cmd *cobra.Command, w io.Writer) *slog.Logger {
	verbose := getBoolFlag(cmd, "verbose")
	if getBoolFlag(cmd, "log-json") {
		return dmlog.NewRedactingJSONLogger(w, verbose)
	}
	return dmlog.NewRedactingLogger(w, verbose)
}
