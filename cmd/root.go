package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"billgen/internal/logger"
)

var version = "1.0.0"

var rootCmd = &cobra.Command{
	Use:   "billgen",
	Short: "billgen - invoices, PDFs and reports for a small print shop",
	Long: `billgen talks to the billing backend to manage customers, services and
bills, renders branded A4 invoice PDFs, and aggregates paid and unpaid
totals into reports.

Common environment variables:
  BILLGEN_API_URL     - Billing backend base URL (default: http://localhost:5000/api)
  BILLGEN_API_TIMEOUT - Request timeout in seconds (default: 15)
  ISSUER_PROFILE      - YAML file with the company details printed on invoices
  LOG_LEVEL           - debug, info, warn or error (default: info)`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	Run: func(cmd *cobra.Command, args []string) {
		log := logger.WithComponent("root")
		log.Debug().
			Str("version", version).
			Msg("billgen executed without a subcommand")

		_ = cmd.Help()
	},
}

func Execute() {
	log := logger.WithComponent("cmd")

	if err := rootCmd.Execute(); err != nil {
		log.Debug().
			Err(err).
			Msg("Command execution failed")
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().BoolP("version", "v", false, "Print version information")
}
