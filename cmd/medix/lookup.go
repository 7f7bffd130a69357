package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"medix/internal/platform/config"
	"medix/internal/platform/logger"
	"medix/internal/registry"
	"medix/internal/verification"
)

func lookupCmd() *cobra.Command {
	var (
		server   string
		token    string
		timeout  time.Duration
		logLevel string
	)

	cmd := &cobra.Command{
		Use:   "lookup <regNo>",
		Short: "Look up an SLMC registration and print the result as JSON",
		Long: `Runs one registry lookup. By default the SLMC registry is queried
directly; with --server the lookup goes through a running portal's
/api/slmc/verify endpoint using --token as the session.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var verifier verification.Verifier
			if server != "" {
				verifier = verification.NewHTTPVerifier(server, token, &http.Client{Timeout: timeout})
			} else {
				cfg, err := config.FromEnv()
				if err != nil {
					return fmt.Errorf("load config: %w", err)
				}
				log := logger.NewWithWriter(os.Stderr, logLevel)
				verifier = registry.NewService(registry.NewClient(cfg.Registry.URL, cfg.Registry.Timeout), log)
			}

			result, err := verifier.Verify(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("%s: %w", registry.Message(err), err)
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		},
	}

	cmd.Flags().StringVar(&server, "server", "", "Portal base URL, e.g. http://localhost:8080")
	cmd.Flags().StringVar(&token, "token", os.Getenv("MEDIX_SESSION_TOKEN"), "Session token for --server")
	cmd.Flags().DurationVar(&timeout, "timeout", 15*time.Second, "HTTP timeout for --server")
	cmd.Flags().StringVar(&logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	return cmd
}
