package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"billgen/internal/invoice"
	"billgen/internal/logger"
	"billgen/internal/report"
	"billgen/internal/sheets"
	"billgen/pkg/models"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Summarize paid and unpaid bills",
	Long: `Aggregate bills into paid, unpaid and grand totals and list them page by page.

The date range narrows everything, including the summary cards. The status
filter only narrows the listing and its filtered total.

Required environment variables:
  BILLGEN_API_URL - Billing backend base URL (default: http://localhost:5000/api)

Required for --export-sheet:
  GOOGLE_APPLICATION_CREDENTIALS - Path to service account JSON file, OR
  GOOGLE_CREDENTIALS - Inline JSON credentials string
  GOOGLE_SHEET_URL - Google Sheets URL to append the report to

Optional environment variables:
  REPORT_WORKSHEET - Worksheet name for --export-sheet (default: Reports)`,
	Example: `  # This year's report
  billgen report --from 2024-01-01 --to 2024-12-31

  # Second page of unpaid bills, 20 per page
  billgen report --status unpaid --page 2 --page-size 20

  # Append the January report to Google Sheets
  billgen report --from 2024-01-01 --to 2024-01-31 --export-sheet`,
	Args: cobra.NoArgs,
	RunE: runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)

	reportCmd.Flags().String("from", "", "First bill date to include (format: YYYY-MM-DD)")
	reportCmd.Flags().String("to", "", "Last bill date to include (format: YYYY-MM-DD)")
	reportCmd.Flags().String("status", "all", "List all, paid or unpaid bills")
	reportCmd.Flags().Int("page", 1, "Page to show")
	reportCmd.Flags().Int("page-size", report.DefaultPageSize, "Rows per page (5, 10, 20 or 50)")
	reportCmd.Flags().Bool("json", false, "Print the report as JSON")
	reportCmd.Flags().Bool("export-sheet", false, "Append the listing and summary to Google Sheets")
	reportCmd.Flags().String("worksheet", "", "Worksheet for --export-sheet (default: REPORT_WORKSHEET)")
}

// reportFilterFromFlags configures view from the command's flags.
func reportFilterFromFlags(cmd *cobra.Command, view *report.View) error {
	fromStr, _ := cmd.Flags().GetString("from")
	toStr, _ := cmd.Flags().GetString("to")
	statusStr, _ := cmd.Flags().GetString("status")
	pageSize, _ := cmd.Flags().GetInt("page-size")

	from, err := optionalDate(fromStr)
	if err != nil {
		return fmt.Errorf("invalid --from date. Use YYYY-MM-DD: %w", err)
	}
	to, err := optionalDate(toStr)
	if err != nil {
		return fmt.Errorf("invalid --to date. Use YYYY-MM-DD: %w", err)
	}
	status, err := report.ParseStatus(statusStr)
	if err != nil {
		return err
	}

	view.SetRange(from, to)
	view.SetStatus(status)
	return view.SetPageSize(pageSize)
}

func optionalDate(s string) (*models.Date, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	d, err := models.ParseDate(s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func runReport(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("report")
	page, _ := cmd.Flags().GetInt("page")
	asJSON, _ := cmd.Flags().GetBool("json")
	exportSheet, _ := cmd.Flags().GetBool("export-sheet")
	worksheet, _ := cmd.Flags().GetString("worksheet")

	view := report.NewView()
	if err := reportFilterFromFlags(cmd, view); err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if exportSheet {
		if err := cfg.RequireSheet(); err != nil {
			return err
		}
		if worksheet == "" {
			worksheet = cfg.ReportWorksheet
		}
	}

	ctx, cancel := commandContext()
	defer cancel()

	snap, err := newClient(cfg).FetchAll(ctx)
	if err != nil {
		return handleAPIError(err, log)
	}

	// The first pass learns the page count so the requested page can be clamped.
	view.Report(snap.Bills(), snap.CustomerIndex())
	view.SetPage(page)
	rep := view.Report(snap.Bills(), snap.CustomerIndex())

	log.Info().
		Int("bills", len(snap.Bills())).
		Int("matching", len(rep.Matching)).
		Int("page", rep.Page).
		Int("total_pages", rep.TotalPages).
		Msg("Report built")

	if asJSON {
		if err := printJSON(rep); err != nil {
			return err
		}
	} else {
		printReport(rep)
	}

	if !exportSheet {
		return nil
	}

	sheetsService, err := sheets.NewSheetsService(ctx, cfg.GoogleSheetURL, cfg.GoogleServiceAccountKey)
	if err != nil {
		return handleSheetsError(err, log)
	}
	written, err := sheetsService.ExportReport(ctx, rep, worksheet)
	if err != nil {
		return handleSheetsError(err, log)
	}

	fmt.Println()
	fmt.Printf("Sheet: %s\n", worksheet)
	fmt.Printf("Rows added: %d\n", written)
	fmt.Printf("URL: %s\n", cfg.GoogleSheetURL)
	return nil
}

func printReport(rep report.Report) {
	fmt.Println(strings.Repeat("=", 84))
	fmt.Printf("%-28s%-28s%s\n", "PAID", "UNPAID", "GRAND TOTAL")
	fmt.Printf("%-28s%-28s%s\n", money(rep.Paid.Total), money(rep.Unpaid.Total), money(rep.GrandTotal))
	fmt.Printf("%-28s%-28s\n", fmt.Sprintf("%d bills", rep.Paid.Count), fmt.Sprintf("%d bills", rep.Unpaid.Count))
	fmt.Println(strings.Repeat("=", 84))

	if rep.Empty() {
		fmt.Println(report.EmptyMessage)
		return
	}

	fmt.Printf("%-14s %-10s %-30s %14s  %s\n", "BILL #", "DATE", "CUSTOMER", "TOTAL", "STATUS")
	fmt.Println(strings.Repeat("-", 84))
	for _, row := range rep.Rows {
		fmt.Printf("%-14s %-10s %-30s %14s  %s\n",
			row.Bill.BillNumber, row.Bill.Date, truncate(row.CustomerName, 30), invoice.Format(row.Bill.Total), row.Bill.Status())
	}
	fmt.Println(strings.Repeat("-", 84))
	fmt.Printf("Showing %d of %d bills, page %d of %d. Filtered total (%s): %s\n",
		len(rep.Rows), len(rep.Matching), rep.Page, rep.TotalPages, rep.Filter.Status, money(rep.FilteredTotal))
}

func handleSheetsError(err error, log zerolog.Logger) error {
	log.Error().Err(err).Msg("Google Sheets export failed")

	errStr := err.Error()
	switch {
	case strings.Contains(errStr, "neither GOOGLE_SERVICE_ACCOUNT_KEY"):
		return fmt.Errorf("Google credentials are missing. Set GOOGLE_APPLICATION_CREDENTIALS or GOOGLE_CREDENTIALS")
	case strings.Contains(errStr, "invalid Google Sheets URL"):
		return fmt.Errorf("GOOGLE_SHEET_URL is not a Google Sheets URL")
	case strings.Contains(errStr, "PERMISSION_DENIED") || strings.Contains(errStr, "403"):
		return fmt.Errorf("permission denied. Share the spreadsheet with the service account's email address")
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("Google Sheets did not answer in time, please try again")
	default:
		return fmt.Errorf("failed to write to Google Sheet: %w", err)
	}
}
