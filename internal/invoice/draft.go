package invoice

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"billgen/pkg/models"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	// Decimals are compared as numbers by the gte/gt tags.
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			return d.InexactFloat64()
		}
		return nil
	}, decimal.Decimal{})
	return v
}

// DraftItem is one line of a bill being authored.
type DraftItem struct {
	ServiceID   int64           `json:"service_id" validate:"gt=0"`
	ServiceName string          `json:"-"`
	Quantity    int64           `json:"quantity" validate:"gte=1"`
	UnitPrice   decimal.Decimal `json:"unit_price" validate:"gte=0"`
}

// LineTotal returns quantity × unit price.
func (i DraftItem) LineTotal() decimal.Decimal {
	return decimal.NewFromInt(i.Quantity).Mul(i.UnitPrice)
}

// Draft is a bill before submission. The backend assigns the bill number and
// stores the total.
type Draft struct {
	CustomerID int64       `json:"customer_id" validate:"required,gt=0"`
	Date       models.Date `json:"date"`
	Items      []DraftItem `json:"items" validate:"required,min=1,dive"`
	IsPaid     bool        `json:"is_paid"`
}

// Total is the live preview of the amount the backend will store.
func (d Draft) Total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range d.Items {
		total = total.Add(item.LineTotal())
	}
	return total
}

// CustomerInput is the editable part of a customer.
type CustomerInput struct {
	Name    string `json:"name" validate:"required"`
	Email   string `json:"email" validate:"omitempty,email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

// ServiceInput is the editable part of a catalog service.
type ServiceInput struct {
	Name        string          `json:"name" validate:"required"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price" validate:"gte=0"`
}

// ValidateDraft rejects drafts without a customer, without items, or with an item
// whose quantity is below one or whose unit price is negative.
func ValidateDraft(d Draft) error {
	return convertValidationError(validate.Struct(d))
}

// ValidateCustomer rejects customers without a name or with a malformed email.
func ValidateCustomer(c CustomerInput) error {
	c.Name = strings.TrimSpace(c.Name)
	return convertValidationError(validate.Struct(c))
}

// ValidateService rejects services without a name or with a negative price.
func ValidateService(s ServiceInput) error {
	s.Name = strings.TrimSpace(s.Name)
	return convertValidationError(validate.Struct(s))
}

func convertValidationError(err error) error {
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}

	out := make(ValidationErrors, 0, len(verrs))
	for _, fe := range verrs {
		ve := NewValidationError(fieldPath(fe.Namespace()), fe.Value(), messageFor(fe))
		if fe.Field() == "items" && (fe.Tag() == "required" || fe.Tag() == "min") {
			ve.Err = ErrEmptyItems
		}
		out = append(out, ve)
	}
	return out
}

// fieldPath drops the struct name validator puts in front of every namespace.
func fieldPath(ns string) string {
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		if fe.Field() == "items" {
			return ErrEmptyItems.Error()
		}
		return "is required"
	case "min":
		if fe.Field() == "items" {
			return ErrEmptyItems.Error()
		}
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be >= %s", fe.Param())
	case "email":
		return "must be a valid email address"
	default:
		return fmt.Sprintf("failed the %q check", fe.Tag())
	}
}
