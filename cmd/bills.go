package cmd

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"billgen/internal/invoice"
	"billgen/internal/logger"
	"billgen/internal/report"
	"billgen/pkg/models"
)

var billsCmd = &cobra.Command{
	Use:   "bills",
	Short: "Manage bills",
	Long: `List, inspect, create, update, mark paid and delete bills.

Bill items are given as service_id:quantity[:unit_price]. When the unit price
is left out the service's current catalog price is used. The backend assigns
the bill number and stores the authoritative total.

Required environment variables:
  BILLGEN_API_URL - Billing backend base URL (default: http://localhost:5000/api)`,
	Example: `  # List unpaid bills
  billgen bills list --status unpaid

  # Preview a new bill without submitting it
  billgen bills create --customer 3 --item 1:2 --item 4:1:1200

  # Submit it
  billgen bills create --customer 3 --item 1:2 --item 4:1:1200 --yes

  # Compare a bill's total against its items
  billgen bills get 12 --check`,
}

var billsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List bills",
	Args:  cobra.NoArgs,
	RunE:  runBillsList,
}

var billsGetCmd = &cobra.Command{
	Use:   "get <bill-id>",
	Short: "Show one bill with its items",
	Args:  cobra.ExactArgs(1),
	RunE:  runBillsGet,
}

var billsCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a bill",
	Args:  cobra.NoArgs,
	RunE:  runBillsCreate,
}

var billsUpdateCmd = &cobra.Command{
	Use:   "update <bill-id>",
	Short: "Change a bill's customer, date, items or paid flag",
	Long: `Change a bill. Flags that are not given keep the bill's current value;
--item replaces the whole item list.`,
	Args: cobra.ExactArgs(1),
	RunE: runBillsUpdate,
}

var billsTogglePaidCmd = &cobra.Command{
	Use:   "toggle-paid <bill-id>",
	Short: "Flip a bill between paid and unpaid",
	Args:  cobra.ExactArgs(1),
	RunE:  runBillsTogglePaid,
}

var billsDeleteCmd = &cobra.Command{
	Use:   "delete <bill-id>",
	Short: "Delete a bill",
	Args:  cobra.ExactArgs(1),
	RunE:  runBillsDelete,
}

func init() {
	rootCmd.AddCommand(billsCmd)
	billsCmd.AddCommand(billsListCmd, billsGetCmd, billsCreateCmd, billsUpdateCmd, billsTogglePaidCmd, billsDeleteCmd)

	billsListCmd.Flags().String("status", "all", "Show all, paid or unpaid bills")
	billsListCmd.Flags().Bool("json", false, "Print the bills as JSON")

	billsGetCmd.Flags().Bool("json", false, "Print the bill as JSON")
	billsGetCmd.Flags().Bool("check", false, "Compare the stored total with the sum of the items and fail on a mismatch")

	for _, c := range []*cobra.Command{billsCreateCmd, billsUpdateCmd} {
		c.Flags().Int64("customer", 0, "Customer id")
		c.Flags().String("date", "", "Bill date (format: YYYY-MM-DD, default: today on the backend)")
		c.Flags().StringArray("item", nil, "Item as service_id:quantity[:unit_price], repeatable")
		c.Flags().Bool("paid", false, "Mark the bill as paid")
		c.Flags().Bool("yes", false, "Submit; without it the draft is only shown")
	}
	billsCreateCmd.MarkFlagRequired("customer")
	billsCreateCmd.MarkFlagRequired("item")
}

// itemSpec is one parsed --item value.
type itemSpec struct {
	ServiceID int64
	Quantity  int64
	UnitPrice *decimal.Decimal
}

// parseItemSpec parses service_id:quantity[:unit_price].
func parseItemSpec(s string) (itemSpec, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return itemSpec{}, fmt.Errorf("invalid item %q, expected service_id:quantity[:unit_price]", s)
	}

	serviceID, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return itemSpec{}, fmt.Errorf("invalid service id in item %q", s)
	}
	quantity, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return itemSpec{}, fmt.Errorf("invalid quantity in item %q, must be a whole number", s)
	}

	spec := itemSpec{ServiceID: serviceID, Quantity: quantity}
	if len(parts) == 3 && parts[2] != "" {
		price, err := decimal.NewFromString(parts[2])
		if err != nil {
			return itemSpec{}, fmt.Errorf("invalid unit price in item %q", s)
		}
		spec.UnitPrice = &price
	}
	return spec, nil
}

// draftItems turns item flags into draft items, seeding missing unit prices
// from the catalog.
func draftItems(raw []string, catalog []models.Service) ([]invoice.DraftItem, error) {
	byID := make(map[int64]models.Service, len(catalog))
	for _, s := range catalog {
		byID[s.ID] = s
	}

	items := make([]invoice.DraftItem, 0, len(raw))
	for _, r := range raw {
		spec, err := parseItemSpec(r)
		if err != nil {
			return nil, err
		}
		service, known := byID[spec.ServiceID]
		if !known {
			return nil, fmt.Errorf("service %d is not in the catalog", spec.ServiceID)
		}

		item := invoice.DraftItem{
			ServiceID:   spec.ServiceID,
			ServiceName: service.Name,
			Quantity:    spec.Quantity,
			UnitPrice:   service.Price,
		}
		if spec.UnitPrice != nil {
			item.UnitPrice = *spec.UnitPrice
		}
		items = append(items, item)
	}
	return items, nil
}

// draftFromBill starts an edit from a bill's current state.
func draftFromBill(b models.Bill) invoice.Draft {
	d := invoice.Draft{
		CustomerID: b.CustomerID,
		Date:       b.Date,
		IsPaid:     b.IsPaid,
		Items:      make([]invoice.DraftItem, 0, len(b.Items)),
	}
	for _, item := range b.Items {
		d.Items = append(d.Items, invoice.DraftItem{
			ServiceID:   item.ServiceID,
			ServiceName: item.ServiceName,
			Quantity:    item.Quantity.Value.IntPart(),
			UnitPrice:   item.UnitPrice.Value,
		})
	}
	return d
}

// applyDraftFlags overrides draft fields with the flags the user set.
func applyDraftFlags(cmd *cobra.Command, d *invoice.Draft, catalog []models.Service) error {
	flags := cmd.Flags()

	if flags.Changed("customer") {
		d.CustomerID, _ = flags.GetInt64("customer")
	}
	if flags.Changed("date") {
		raw, _ := flags.GetString("date")
		date, err := models.ParseDate(raw)
		if err != nil {
			return fmt.Errorf("invalid date format. Use YYYY-MM-DD: %w", err)
		}
		d.Date = date
	}
	if flags.Changed("paid") {
		d.IsPaid, _ = flags.GetBool("paid")
	}
	if flags.Changed("item") {
		raw, _ := flags.GetStringArray("item")
		items, err := draftItems(raw, catalog)
		if err != nil {
			return err
		}
		d.Items = items
	}
	return nil
}

func printDraft(d invoice.Draft) {
	fmt.Println(strings.Repeat("=", 60))
	fmt.Printf("Customer: %d\n", d.CustomerID)
	if d.Date.IsZero() {
		fmt.Println("Date:     (today)")
	} else {
		fmt.Printf("Date:     %s\n", d.Date)
	}
	fmt.Printf("Paid:     %t\n", d.IsPaid)
	fmt.Println(strings.Repeat("-", 60))
	for _, item := range d.Items {
		fmt.Printf("%-28s %5d x %10s = %12s\n", truncate(item.ServiceName, 28), item.Quantity, invoice.Format(item.UnitPrice), invoice.Format(item.LineTotal()))
	}
	fmt.Println(strings.Repeat("-", 60))
	fmt.Printf("%-47s %12s\n", "Total", money(d.Total()))
	fmt.Println(strings.Repeat("=", 60))
}

func runBillsList(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("bills")
	statusStr, _ := cmd.Flags().GetString("status")
	asJSON, _ := cmd.Flags().GetBool("json")

	status, err := report.ParseStatus(statusStr)
	if err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx, cancel := commandContext()
	defer cancel()

	snap, err := newClient(cfg).FetchAll(ctx)
	if err != nil {
		return handleAPIError(err, log)
	}

	customers := snap.CustomerIndex()
	var bills []models.Bill
	for _, b := range snap.Bills() {
		if status.Matches(b) {
			bills = append(bills, b.WithCustomer(customers.Lookup(b.CustomerID)))
		}
	}

	if asJSON {
		return printJSON(bills)
	}
	if len(bills) == 0 {
		fmt.Println(report.EmptyMessage)
		return nil
	}

	fmt.Printf("%-6s %-14s %-10s %-26s %14s  %s\n", "ID", "BILL #", "DATE", "CUSTOMER", "TOTAL", "STATUS")
	fmt.Println(strings.Repeat("-", 84))
	for _, b := range bills {
		fmt.Printf("%-6d %-14s %-10s %-26s %14s  %s\n",
			b.ID, b.BillNumber, b.Date, truncate(report.CustomerName(b, customers), 26), invoice.Format(b.Total), b.Status())
	}
	fmt.Println(strings.Repeat("-", 84))
	fmt.Printf("%d bills, %s\n", len(bills), money(invoice.Sum(bills)))
	return nil
}

func runBillsGet(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("bills")
	asJSON, _ := cmd.Flags().GetBool("json")
	check, _ := cmd.Flags().GetBool("check")

	id, err := parseID(args[0], "bill")
	if err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx, cancel := commandContext()
	defer cancel()

	bill, err := newClient(cfg).EnrichedBill(ctx, id)
	if err != nil {
		return handleAPIError(err, log)
	}

	if asJSON {
		if err := printJSON(bill); err != nil {
			return err
		}
	} else {
		printBill(bill)
	}

	if !check {
		return nil
	}
	result, err := invoice.CheckTotal(*bill)
	for _, w := range result.Warnings {
		fmt.Printf("Warning: %s\n", w)
	}
	if err != nil {
		return handleBillCheckError(err, log)
	}
	fmt.Println("Total matches the items.")
	return nil
}

func runBillsCreate(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("bills")
	submit, _ := cmd.Flags().GetBool("yes")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx, cancel := commandContext()
	defer cancel()

	client := newClient(cfg)
	catalog, err := client.ListServices(ctx)
	if err != nil {
		return handleAPIError(err, log)
	}

	var draft invoice.Draft
	if err := applyDraftFlags(cmd, &draft, catalog); err != nil {
		return err
	}
	printDraft(draft)

	if err := invoice.ValidateDraft(draft); err != nil {
		return handleAPIError(err, log)
	}
	if !submit {
		fmt.Println("Dry run: nothing was submitted. Re-run with --yes to create the bill.")
		return nil
	}

	bill, err := client.CreateBill(ctx, draft)
	if err != nil {
		return handleAPIError(err, log)
	}

	fmt.Printf("Bill %s created (ID %d), total %s\n", bill.BillNumber, bill.ID, money(bill.Total))
	return nil
}

func runBillsUpdate(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("bills")
	submit, _ := cmd.Flags().GetBool("yes")

	id, err := parseID(args[0], "bill")
	if err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx, cancel := commandContext()
	defer cancel()

	client := newClient(cfg)
	current, err := client.GetBill(ctx, id)
	if err != nil {
		return handleAPIError(err, log)
	}

	var catalog []models.Service
	if cmd.Flags().Changed("item") {
		if catalog, err = client.ListServices(ctx); err != nil {
			return handleAPIError(err, log)
		}
	}

	draft := draftFromBill(*current)
	if err := applyDraftFlags(cmd, &draft, catalog); err != nil {
		return err
	}
	printDraft(draft)

	if err := invoice.ValidateDraft(draft); err != nil {
		return handleAPIError(err, log)
	}
	if !submit {
		fmt.Println("Dry run: nothing was submitted. Re-run with --yes to update the bill.")
		return nil
	}

	bill, err := client.UpdateBill(ctx, id, draft)
	if err != nil {
		return handleAPIError(err, log)
	}

	fmt.Printf("Bill %s updated, total %s\n", bill.BillNumber, money(bill.Total))
	return nil
}

func runBillsTogglePaid(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("bills")

	id, err := parseID(args[0], "bill")
	if err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx, cancel := commandContext()
	defer cancel()

	bill, err := newClient(cfg).TogglePaid(ctx, id)
	if err != nil {
		return handleAPIError(err, log)
	}

	fmt.Printf("Bill %s is now %s\n", bill.BillNumber, strings.ToLower(bill.Status()))
	return nil
}

func runBillsDelete(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("bills")

	id, err := parseID(args[0], "bill")
	if err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx, cancel := commandContext()
	defer cancel()

	msg, err := newClient(cfg).DeleteBill(ctx, id)
	if err != nil {
		return handleAPIError(err, log)
	}
	if msg == "" {
		msg = "Bill deleted"
	}
	fmt.Println(msg)
	return nil
}

func printBill(b *models.Bill) {
	fmt.Println(strings.Repeat("=", 60))
	fmt.Printf("Bill:     %s (ID %d)\n", b.BillNumber, b.ID)
	fmt.Printf("Date:     %s\n", orDash(b.Date.String()))
	fmt.Printf("Status:   %s\n", b.Status())
	fmt.Printf("Customer: %s\n", orDash(b.CustomerName))
	if b.CustomerPhone != "" {
		fmt.Printf("Phone:    %s\n", b.CustomerPhone)
	}
	if b.CustomerEmail != "" {
		fmt.Printf("Email:    %s\n", b.CustomerEmail)
	}
	if b.CustomerAddress != "" {
		fmt.Printf("Address:  %s\n", b.CustomerAddress)
	}
	fmt.Println(strings.Repeat("-", 60))
	for _, item := range b.Items {
		fmt.Printf("%-28s %5s x %10s = %12s\n",
			truncate(orDash(item.ServiceName), 28), orDash(item.Quantity.String()), orDash(item.UnitPrice.String()), invoice.Format(invoice.LineTotal(item)))
	}
	fmt.Println(strings.Repeat("-", 60))
	fmt.Printf("%-47s %12s\n", "Total", money(b.Total))
	fmt.Println(strings.Repeat("=", 60))
}

func handleBillCheckError(err error, log zerolog.Logger) error {
	var compErr *invoice.ComputationError
	switch {
	case errors.As(err, &compErr) && errors.Is(err, invoice.ErrTotalMismatch):
		log.Warn().Str("bill_number", compErr.BillNumber).Msg("Total check failed")
		return fmt.Errorf("bill %s: stored total does not match its items", compErr.BillNumber)
	default:
		return fmt.Errorf("total check failed: %w", err)
	}
}
