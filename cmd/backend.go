package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"billgen/internal/api"
	"billgen/internal/config"
	"billgen/internal/invoice"
	"billgen/internal/issuer"
	"billgen/internal/render"
)

// commandTimeout bounds the backend calls of a single command.
const commandTimeout = 2 * time.Minute

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func newClient(cfg *config.Config) *api.Client {
	return api.New(cfg.APIURL, cfg.APITimeout)
}

func newGenerator(cfg *config.Config) (*render.Generator, error) {
	profile, err := issuer.LoadFile(cfg.IssuerProfile)
	if err != nil {
		return nil, fmt.Errorf("failed to load issuer profile: %w", err)
	}
	return render.NewGenerator(profile), nil
}

func commandContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), commandTimeout)
}

func parseID(arg, what string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s id %q", what, arg)
	}
	return id, nil
}

// money formats an amount with the default issuer currency.
func money(d decimal.Decimal) string {
	return invoice.FormatMoney(issuer.Default().Currency, d)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// handleAPIError turns backend, transport and validation failures into the
// message shown to the user.
func handleAPIError(err error, log zerolog.Logger) error {
	log.Error().Err(err).Msg("Backend request failed")

	var validation invoice.ValidationErrors
	var apiErr *api.APIError

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("the billing backend did not answer in time. Try again or raise BILLGEN_API_TIMEOUT")
	case errors.Is(err, context.Canceled):
		return fmt.Errorf("request was canceled")
	case errors.As(err, &validation):
		lines := make([]string, 0, len(validation))
		for _, ve := range validation {
			lines = append(lines, fmt.Sprintf("  %s: %s", ve.Field, ve.Message))
		}
		return fmt.Errorf("please fix the following before submitting:\n%s", strings.Join(lines, "\n"))
	case errors.Is(err, invoice.ErrValidation):
		return fmt.Errorf("please fix the input before submitting: %v", err)
	case errors.As(err, &apiErr):
		return errors.New(api.UserMessage(err))
	case errors.Is(err, api.ErrTransport):
		return errors.New(api.UserMessage(err))
	default:
		return fmt.Errorf("request failed: %w", err)
	}
}
