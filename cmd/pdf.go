package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"billgen/internal/archive"
	"billgen/internal/config"
	"billgen/internal/invoice"
	"billgen/internal/logger"
	"billgen/internal/render"
	"billgen/internal/report"
	"billgen/pkg/models"
)

var pdfCmd = &cobra.Command{
	Use:   "pdf [bill-id]",
	Short: "Render invoice PDFs",
	Long: `Render one bill, or every bill with --all, as a branded A4 invoice PDF
named Invoice-<bill number>.pdf.

With --all the bills are rendered by a pool of parallel workers and written to
--out-dir, or uploaded to S3 when --s3-bucket (or ARCHIVE_S3_BUCKET with --s3)
is set. One failing bill does not stop the others.

Required environment variables:
  BILLGEN_API_URL - Billing backend base URL (default: http://localhost:5000/api)

Optional environment variables:
  ISSUER_PROFILE    - YAML file with the company details printed on invoices
  PDF_WORKERS       - Number of parallel workers for --all (default: 4)
  ARCHIVE_S3_BUCKET - Default S3 bucket for --s3
  ARCHIVE_S3_PREFIX - Key prefix inside the bucket (default: invoices)
  AWS_REGION        - Region of the bucket (default: ap-south-1)`,
	Example: `  # Render one bill into the current directory
  billgen pdf 12

  # Render one bill to a chosen path
  billgen pdf 12 -o ~/Desktop/latest.pdf

  # Render every unpaid bill into ./invoices
  billgen pdf --all --status unpaid --out-dir ./invoices

  # Archive every bill to S3
  billgen pdf --all --s3-bucket abc-graphics-invoices`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPDF,
}

func init() {
	rootCmd.AddCommand(pdfCmd)

	pdfCmd.Flags().StringP("output", "o", "", "Output path for a single bill (default: ./Invoice-<number>.pdf)")
	pdfCmd.Flags().Bool("all", false, "Render every bill")
	pdfCmd.Flags().String("status", "all", "With --all: render all, paid or unpaid bills")
	pdfCmd.Flags().String("out-dir", "invoices", "With --all: directory to write the PDFs to")
	pdfCmd.Flags().String("s3-bucket", "", "With --all: upload the PDFs to this S3 bucket")
	pdfCmd.Flags().Bool("s3", false, "With --all: upload to ARCHIVE_S3_BUCKET")
	pdfCmd.Flags().Int("workers", 0, "With --all: number of parallel workers (default: PDF_WORKERS)")
	pdfCmd.Flags().Bool("verbose", false, "Show detailed processing information")
}

func runPDF(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("pdf")
	all, _ := cmd.Flags().GetBool("all")

	if all == (len(args) == 1) {
		return fmt.Errorf("give either a bill id or --all")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	generator, err := newGenerator(cfg)
	if err != nil {
		return err
	}

	if all {
		return runPDFAll(cmd, cfg, generator, log)
	}
	return runPDFOne(cmd, cfg, generator, args[0], log)
}

func runPDFOne(cmd *cobra.Command, cfg *config.Config, generator *render.Generator, arg string, log zerolog.Logger) error {
	output, _ := cmd.Flags().GetString("output")

	id, err := parseID(arg, "bill")
	if err != nil {
		return err
	}

	ctx, cancel := commandContext()
	defer cancel()

	bill, err := newClient(cfg).EnrichedBill(ctx, id)
	if err != nil {
		return handleAPIError(err, log)
	}

	data, err := generator.Render(*bill)
	if err != nil {
		return handleRenderError(err, log)
	}

	if output == "" {
		output = render.FileName(bill.BillNumber)
	}
	dir, name := filepath.Split(output)
	if dir == "" {
		dir = "."
	}
	sink, err := archive.NewDirSink(dir)
	if err != nil {
		return handleRenderError(err, log)
	}
	location, err := sink.Put(ctx, name, data)
	if err != nil {
		return handleRenderError(err, log)
	}

	log.Info().
		Str("bill_number", bill.BillNumber).
		Str("path", location).
		Int("bytes", len(data)).
		Msg("Invoice PDF written")

	fmt.Printf("Invoice %s written to %s (%s)\n", bill.BillNumber, location, money(bill.Total))
	return nil
}

func runPDFAll(cmd *cobra.Command, cfg *config.Config, generator *render.Generator, log zerolog.Logger) error {
	statusStr, _ := cmd.Flags().GetString("status")
	outDir, _ := cmd.Flags().GetString("out-dir")
	bucket, _ := cmd.Flags().GetString("s3-bucket")
	useS3, _ := cmd.Flags().GetBool("s3")
	workers, _ := cmd.Flags().GetInt("workers")
	verbose, _ := cmd.Flags().GetBool("verbose")

	status, err := report.ParseStatus(statusStr)
	if err != nil {
		return err
	}
	if useS3 && bucket == "" {
		bucket = cfg.ArchiveS3Bucket
		if bucket == "" {
			return fmt.Errorf("ARCHIVE_S3_BUCKET environment variable is required for --s3")
		}
	}
	if workers <= 0 {
		workers = cfg.PDFWorkers
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	snap, err := newClient(cfg).FetchAll(ctx)
	if err != nil {
		return handleAPIError(err, log)
	}

	var bills []models.Bill
	for _, b := range snap.Bills() {
		if !status.Matches(b) {
			continue
		}
		enriched, _ := snap.Enriched(b.ID)
		bills = append(bills, enriched)
	}
	if len(bills) == 0 {
		fmt.Println(report.EmptyMessage)
		return nil
	}

	sink, target, err := pdfSink(bucket, cfg, outDir)
	if err != nil {
		return handleRenderError(err, log)
	}

	fmt.Println(strings.Repeat("=", 80))
	fmt.Println("                         INVOICE PDF BATCH")
	fmt.Println(strings.Repeat("=", 80))
	fmt.Printf("Target: %s\n", target)
	fmt.Printf("Rendering %d invoices with %d parallel workers...\n", len(bills), workers)
	fmt.Println()

	batch := render.NewBatch(generator, sink, workers)
	batch.OnResult = func(done, total int, result render.BatchResult) {
		fmt.Printf("[%d/%d] %s - %s", done, total, result.FileName, resultMark(result.Err))
		if result.Err != nil {
			fmt.Printf(" (%s)", result.Err.Error())
		} else if verbose {
			fmt.Printf(" (%s, %d bytes)", result.Location, result.Size)
		}
		fmt.Println()
	}
	results := batch.Run(ctx, bills)

	failed := render.Failed(results)
	fmt.Println()
	fmt.Println(strings.Repeat("=", 50))
	fmt.Println("                 RESULT")
	fmt.Println(strings.Repeat("=", 50))
	fmt.Printf("Rendered: %d\n", len(results)-failed)
	if failed > 0 {
		fmt.Printf("Failed:   %d\n", failed)
	}
	fmt.Printf("Total billed: %s\n", money(invoice.Sum(bills)))

	log.Info().
		Int("total", len(results)).
		Int("failed", failed).
		Str("target", target).
		Msg("Invoice PDF batch completed")

	if failed > 0 {
		return fmt.Errorf("%d of %d invoices could not be rendered", failed, len(results))
	}
	return nil
}

func pdfSink(bucket string, cfg *config.Config, outDir string) (archive.Sink, string, error) {
	if bucket != "" {
		sink, err := archive.NewS3Sink(bucket, cfg.ArchiveS3Prefix, cfg.AWSRegion)
		if err != nil {
			return nil, "", err
		}
		return sink, "s3://" + bucket + "/" + cfg.ArchiveS3Prefix, nil
	}
	sink, err := archive.NewDirSink(outDir)
	if err != nil {
		return nil, "", err
	}
	return sink, outDir, nil
}

func resultMark(err error) string {
	if err != nil {
		return "❌"
	}
	return "✅"
}

func handleRenderError(err error, log zerolog.Logger) error {
	log.Error().Err(err).Msg("Invoice PDF generation failed")

	var renderErr *render.RenderError
	switch {
	case errors.As(err, &renderErr):
		return fmt.Errorf("could not generate the invoice PDF for bill %s, please try again: %w", renderErr.BillNumber, renderErr.Err)
	case errors.Is(err, archive.ErrStoreFailed):
		return fmt.Errorf("the PDF was generated but could not be saved: %w", err)
	case errors.Is(err, os.ErrPermission):
		return fmt.Errorf("permission denied writing the PDF: %w", err)
	default:
		return fmt.Errorf("invoice PDF generation failed: %w", err)
	}
}
