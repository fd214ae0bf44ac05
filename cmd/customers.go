package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"billgen/internal/invoice"
	"billgen/internal/logger"
	"billgen/pkg/models"
)

var customersCmd = &cobra.Command{
	Use:   "customers",
	Short: "Manage customers",
	Long: `List, inspect, create, update and delete customers on the billing backend.

Required environment variables:
  BILLGEN_API_URL - Billing backend base URL (default: http://localhost:5000/api)`,
	Example: `  # List all customers
  billgen customers list

  # Create a customer
  billgen customers create --name "Nimal Perera" --phone "071 000 0000" --email nimal@example.lk

  # Change a customer's address
  billgen customers update 4 --name "Nimal Perera" --address "12 Lake Rd, Polonnaruwa"`,
}

var customersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List customers",
	Args:  cobra.NoArgs,
	RunE:  runCustomersList,
}

var customersGetCmd = &cobra.Command{
	Use:   "get <customer-id>",
	Short: "Show one customer",
	Args:  cobra.ExactArgs(1),
	RunE:  runCustomersGet,
}

var customersCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a customer",
	Args:  cobra.NoArgs,
	RunE:  runCustomersCreate,
}

var customersUpdateCmd = &cobra.Command{
	Use:   "update <customer-id>",
	Short: "Replace a customer's details",
	Args:  cobra.ExactArgs(1),
	RunE:  runCustomersUpdate,
}

var customersDeleteCmd = &cobra.Command{
	Use:   "delete <customer-id>",
	Short: "Delete a customer",
	Long: `Delete a customer. The backend deactivates the record; bills issued to the
customer keep their copied name, email, phone and address.`,
	Args: cobra.ExactArgs(1),
	RunE: runCustomersDelete,
}

func init() {
	rootCmd.AddCommand(customersCmd)
	customersCmd.AddCommand(customersListCmd, customersGetCmd, customersCreateCmd, customersUpdateCmd, customersDeleteCmd)

	customersListCmd.Flags().Bool("json", false, "Print the customers as JSON")
	customersGetCmd.Flags().Bool("json", false, "Print the customer as JSON")

	for _, c := range []*cobra.Command{customersCreateCmd, customersUpdateCmd} {
		c.Flags().String("name", "", "Customer name [REQUIRED]")
		c.Flags().String("email", "", "Email address")
		c.Flags().String("phone", "", "Phone number")
		c.Flags().String("address", "", "Postal address")
		c.MarkFlagRequired("name")
	}
}

func customerInputFromFlags(cmd *cobra.Command) invoice.CustomerInput {
	name, _ := cmd.Flags().GetString("name")
	email, _ := cmd.Flags().GetString("email")
	phone, _ := cmd.Flags().GetString("phone")
	address, _ := cmd.Flags().GetString("address")
	return invoice.CustomerInput{
		Name:    strings.TrimSpace(name),
		Email:   strings.TrimSpace(email),
		Phone:   strings.TrimSpace(phone),
		Address: strings.TrimSpace(address),
	}
}

func runCustomersList(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("customers")
	asJSON, _ := cmd.Flags().GetBool("json")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx, cancel := commandContext()
	defer cancel()

	customers, err := newClient(cfg).ListCustomers(ctx)
	if err != nil {
		return handleAPIError(err, log)
	}
	log.Debug().Int("count", len(customers)).Msg("Customers fetched")

	if asJSON {
		return printJSON(customers)
	}
	if len(customers) == 0 {
		fmt.Println("No customers yet.")
		return nil
	}

	fmt.Printf("%-6s %-28s %-16s %s\n", "ID", "NAME", "PHONE", "EMAIL")
	fmt.Println(strings.Repeat("-", 80))
	for _, c := range customers {
		fmt.Printf("%-6d %-28s %-16s %s\n", c.ID, truncate(c.Name, 28), c.Phone, c.Email)
	}
	return nil
}

func runCustomersGet(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("customers")
	asJSON, _ := cmd.Flags().GetBool("json")

	id, err := parseID(args[0], "customer")
	if err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx, cancel := commandContext()
	defer cancel()

	customer, err := newClient(cfg).GetCustomer(ctx, id)
	if err != nil {
		return handleAPIError(err, log)
	}

	if asJSON {
		return printJSON(customer)
	}
	printCustomer(customer)
	return nil
}

func runCustomersCreate(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("customers")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx, cancel := commandContext()
	defer cancel()

	customer, err := newClient(cfg).CreateCustomer(ctx, customerInputFromFlags(cmd))
	if err != nil {
		return handleAPIError(err, log)
	}

	fmt.Printf("Customer created (ID %d)\n", customer.ID)
	printCustomer(customer)
	return nil
}

func runCustomersUpdate(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("customers")

	id, err := parseID(args[0], "customer")
	if err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx, cancel := commandContext()
	defer cancel()

	customer, err := newClient(cfg).UpdateCustomer(ctx, id, customerInputFromFlags(cmd))
	if err != nil {
		return handleAPIError(err, log)
	}

	fmt.Println("Customer updated")
	printCustomer(customer)
	return nil
}

func runCustomersDelete(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("customers")

	id, err := parseID(args[0], "customer")
	if err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx, cancel := commandContext()
	defer cancel()

	msg, err := newClient(cfg).DeleteCustomer(ctx, id)
	if err != nil {
		return handleAPIError(err, log)
	}
	if msg == "" {
		msg = "Customer deleted"
	}
	fmt.Println(msg)
	return nil
}

func printCustomer(c *models.Customer) {
	fmt.Printf("ID:       %d\n", c.ID)
	fmt.Printf("Name:     %s\n", c.Name)
	fmt.Printf("Email:    %s\n", orDash(c.Email))
	fmt.Printf("Phone:    %s\n", orDash(c.Phone))
	fmt.Printf("Address:  %s\n", orDash(c.Address))
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
