package cmd

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"billgen/internal/invoice"
	"billgen/internal/logger"
	"billgen/pkg/models"
)

var servicesCmd = &cobra.Command{
	Use:   "services",
	Short: "Manage the service catalog",
	Long: `List, inspect, create, update and delete catalog services. A service's price
seeds the default unit price of new bill items; bills already issued keep the
price they were created with.

Required environment variables:
  BILLGEN_API_URL - Billing backend base URL (default: http://localhost:5000/api)`,
	Example: `  # List the catalog
  billgen services list

  # Add a service
  billgen services create --name "Banner print" --price 2500 --description "Flex banner per sq ft"`,
}

var servicesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List services",
	Args:  cobra.NoArgs,
	RunE:  runServicesList,
}

var servicesGetCmd = &cobra.Command{
	Use:   "get <service-id>",
	Short: "Show one service",
	Args:  cobra.ExactArgs(1),
	RunE:  runServicesGet,
}

var servicesCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a service",
	Args:  cobra.NoArgs,
	RunE:  runServicesCreate,
}

var servicesUpdateCmd = &cobra.Command{
	Use:   "update <service-id>",
	Short: "Replace a service's details",
	Args:  cobra.ExactArgs(1),
	RunE:  runServicesUpdate,
}

var servicesDeleteCmd = &cobra.Command{
	Use:   "delete <service-id>",
	Short: "Delete a service",
	Args:  cobra.ExactArgs(1),
	RunE:  runServicesDelete,
}

func init() {
	rootCmd.AddCommand(servicesCmd)
	servicesCmd.AddCommand(servicesListCmd, servicesGetCmd, servicesCreateCmd, servicesUpdateCmd, servicesDeleteCmd)

	servicesListCmd.Flags().Bool("json", false, "Print the services as JSON")
	servicesGetCmd.Flags().Bool("json", false, "Print the service as JSON")

	for _, c := range []*cobra.Command{servicesCreateCmd, servicesUpdateCmd} {
		c.Flags().String("name", "", "Service name [REQUIRED]")
		c.Flags().String("description", "", "Short description")
		c.Flags().String("price", "0", "Default unit price")
		c.MarkFlagRequired("name")
	}
}

func serviceInputFromFlags(cmd *cobra.Command) (invoice.ServiceInput, error) {
	name, _ := cmd.Flags().GetString("name")
	description, _ := cmd.Flags().GetString("description")
	priceStr, _ := cmd.Flags().GetString("price")

	price, err := decimal.NewFromString(strings.TrimSpace(priceStr))
	if err != nil {
		return invoice.ServiceInput{}, fmt.Errorf("invalid price %q", priceStr)
	}
	return invoice.ServiceInput{
		Name:        strings.TrimSpace(name),
		Description: strings.TrimSpace(description),
		Price:       price,
	}, nil
}

func runServicesList(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("services")
	asJSON, _ := cmd.Flags().GetBool("json")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx, cancel := commandContext()
	defer cancel()

	services, err := newClient(cfg).ListServices(ctx)
	if err != nil {
		return handleAPIError(err, log)
	}

	if asJSON {
		return printJSON(services)
	}
	if len(services) == 0 {
		fmt.Println("No services yet.")
		return nil
	}

	fmt.Printf("%-6s %-30s %14s  %s\n", "ID", "NAME", "PRICE", "DESCRIPTION")
	fmt.Println(strings.Repeat("-", 80))
	for _, s := range services {
		fmt.Printf("%-6d %-30s %14s  %s\n", s.ID, truncate(s.Name, 30), invoice.Format(s.Price), truncate(s.Description, 26))
	}
	return nil
}

func runServicesGet(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("services")
	asJSON, _ := cmd.Flags().GetBool("json")

	id, err := parseID(args[0], "service")
	if err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx, cancel := commandContext()
	defer cancel()

	service, err := newClient(cfg).GetService(ctx, id)
	if err != nil {
		return handleAPIError(err, log)
	}

	if asJSON {
		return printJSON(service)
	}
	printService(service)
	return nil
}

func runServicesCreate(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("services")

	in, err := serviceInputFromFlags(cmd)
	if err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx, cancel := commandContext()
	defer cancel()

	service, err := newClient(cfg).CreateService(ctx, in)
	if err != nil {
		return handleAPIError(err, log)
	}

	fmt.Printf("Service created (ID %d)\n", service.ID)
	printService(service)
	return nil
}

func runServicesUpdate(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("services")

	id, err := parseID(args[0], "service")
	if err != nil {
		return err
	}
	in, err := serviceInputFromFlags(cmd)
	if err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx, cancel := commandContext()
	defer cancel()

	service, err := newClient(cfg).UpdateService(ctx, id, in)
	if err != nil {
		return handleAPIError(err, log)
	}

	fmt.Println("Service updated")
	printService(service)
	return nil
}

func runServicesDelete(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("services")

	id, err := parseID(args[0], "service")
	if err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx, cancel := commandContext()
	defer cancel()

	msg, err := newClient(cfg).DeleteService(ctx, id)
	if err != nil {
		return handleAPIError(err, log)
	}
	if msg == "" {
		msg = "Service deleted"
	}
	fmt.Println(msg)
	return nil
}

func printService(s *models.Service) {
	fmt.Printf("ID:           %d\n", s.ID)
	fmt.Printf("Name:         %s\n", s.Name)
	fmt.Printf("Price:        %s\n", money(s.Price))
	fmt.Printf("Description:  %s\n", orDash(s.Description))
}
