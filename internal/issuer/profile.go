// Package issuer holds the static identity printed on every invoice: company
// name, contact lines, logo and the bank accounts customers pay into.
package issuer

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrInvalidProfile is returned when a profile file is unusable.
var ErrInvalidProfile = errors.New("invalid issuer profile")

// BankAccount is one payment destination shown in the PAYMENT METHODS block.
type BankAccount struct {
	Bank   string `yaml:"bank"`
	Number string `yaml:"number"`
	Holder string `yaml:"holder"`
	Branch string `yaml:"branch"`
}

// Profile is the issuer configuration.
type Profile struct {
	Company      string        `yaml:"company"`
	Tagline      string        `yaml:"tagline"`
	Location     string        `yaml:"location"`
	Website      string        `yaml:"website"`
	Phone        string        `yaml:"phone"`
	CallPhone    string        `yaml:"call_phone"`
	WhatsApp     string        `yaml:"whatsapp"`
	Email        string        `yaml:"email"`
	LogoPath     string        `yaml:"logo_path"`
	Currency     string        `yaml:"currency"`
	PaymentNote  string        `yaml:"payment_note"`
	ThankYou     string        `yaml:"thank_you"`
	ThankYouNote string        `yaml:"thank_you_note"`
	Font         FontFiles     `yaml:"font"`
	Banks        []BankAccount `yaml:"banks"`

	// Logo holds the image bytes loaded from LogoPath, if any.
	Logo []byte `yaml:"-"`
	// Fonts holds the TrueType faces loaded from Font, keyed by gofpdf style.
	// Nil means the built-in cp1252 Helvetica.
	Fonts map[string][]byte `yaml:"-"`
}

// FontStyles are the gofpdf styles the invoice layout draws with.
var FontStyles = []string{"", "B", "I"}

// FontFiles names TrueType files for text outside cp1252, such as Sinhala or
// Tamil customer names. Bold and Italic fall back to Regular.
type FontFiles struct {
	Regular string `yaml:"regular"`
	Bold    string `yaml:"bold"`
	Italic  string `yaml:"italic"`
}

func (f FontFiles) load() (map[string][]byte, error) {
	if f.Regular == "" {
		if f.Bold != "" || f.Italic != "" {
			return nil, fmt.Errorf("%w: font needs a regular face", ErrInvalidProfile)
		}
		return nil, nil
	}

	fonts := make(map[string][]byte, len(FontStyles))
	for i, path := range []string{f.Regular, f.Bold, f.Italic} {
		style := FontStyles[i]
		if path == "" {
			fonts[style] = fonts[""]
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read font: %w", err)
		}
		if !isTrueType(data) {
			return nil, fmt.Errorf("%w: %s is not a TrueType font", ErrInvalidProfile, path)
		}
		fonts[style] = data
	}
	return fonts, nil
}

func isTrueType(data []byte) bool {
	return bytes.HasPrefix(data, []byte{0x00, 0x01, 0x00, 0x00}) || bytes.HasPrefix(data, []byte("true"))
}

// Default returns the built-in ABC Graphics profile.
func Default() Profile {
	return Profile{
		Company:      "ABC Graphics",
		Tagline:      "Creativity Beyond Limits!",
		Location:     "Polonnaruwa",
		Website:      "www.abcgraphics.lk",
		Phone:        "071 523 4993",
		CallPhone:    "075 971 5913",
		WhatsApp:     "071 523 4993",
		Email:        "abceditinggraphic@gmail.com",
		Currency:     "Rs.",
		PaymentNote:  "* Please send the payment slip to us after payment",
		ThankYou:     "Thank you for choosing ABC Graphics!",
		ThankYouNote: "We appreciate your business and look forward to serving you again",
		Banks: []BankAccount{
			{Bank: "BANK OF CEYLON", Number: "92339910", Holder: "H.K.B.S.Rathanasiri", Branch: "Kaduruwela Branch"},
			{Bank: "PEOPLES BANK", Number: "005200170090177", Holder: "H.K.B.S.Rathnasiri", Branch: "Polonnaruwa Branch"},
			{Bank: "NDB BANK", Number: "115511917281", Holder: "H.K.B.S.Rathnasiri", Branch: "Boralasgamuwa Branch"},
		},
	}
}

// ContactLine is the "location • website • phone" row under the tagline.
func (p Profile) ContactLine() string {
	return joinBullets(p.Location, p.Website, p.Phone)
}

// ChannelsLine is the footer row listing call, WhatsApp and web channels.
func (p Profile) ChannelsLine() string {
	var call, wa string
	if p.CallPhone != "" {
		call = p.CallPhone + " (Call)"
	}
	if p.WhatsApp != "" {
		wa = p.WhatsApp + " (WhatsApp)"
	}
	return joinBullets(call, wa, p.Website)
}

// Monogram is the fallback mark drawn when no logo is configured.
func (p Profile) Monogram() string {
	var b strings.Builder
	for _, word := range strings.Fields(p.Company) {
		b.WriteString(strings.ToUpper(word[:1]))
		if b.Len() == 3 {
			break
		}
	}
	return b.String()
}

// Validate checks that the profile can be printed.
func (p Profile) Validate() error {
	if strings.TrimSpace(p.Company) == "" {
		return fmt.Errorf("%w: company is required", ErrInvalidProfile)
	}
	for i, b := range p.Banks {
		if b.Bank == "" || b.Number == "" {
			return fmt.Errorf("%w: bank %d needs a name and an account number", ErrInvalidProfile, i+1)
		}
	}
	return nil
}

// LoadFile overlays the YAML file at path on top of Default. An empty path
// returns Default unchanged. A listed banks section replaces the default banks.
func LoadFile(path string) (Profile, error) {
	const op = "issuer.LoadFile"

	p := Default()
	if path == "" {
		return p, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return Profile{}, fmt.Errorf("%s: read %s: %w", op, path, err)
	}

	var f Profile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return Profile{}, fmt.Errorf("%s: %w: %v", op, ErrInvalidProfile, err)
	}
	p.merge(f)

	if p.LogoPath != "" {
		logo, err := os.ReadFile(p.LogoPath)
		if err != nil {
			return Profile{}, fmt.Errorf("%s: read logo: %w", op, err)
		}
		p.Logo = logo
	}

	fonts, err := p.Font.load()
	if err != nil {
		return Profile{}, fmt.Errorf("%s: %w", op, err)
	}
	p.Fonts = fonts

	if err := p.Validate(); err != nil {
		return Profile{}, fmt.Errorf("%s: %w", op, err)
	}
	return p, nil
}

func (p *Profile) merge(f Profile) {
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&p.Company, f.Company)
	set(&p.Tagline, f.Tagline)
	set(&p.Location, f.Location)
	set(&p.Website, f.Website)
	set(&p.Phone, f.Phone)
	set(&p.CallPhone, f.CallPhone)
	set(&p.WhatsApp, f.WhatsApp)
	set(&p.Email, f.Email)
	set(&p.LogoPath, f.LogoPath)
	set(&p.Currency, f.Currency)
	set(&p.PaymentNote, f.PaymentNote)
	set(&p.ThankYou, f.ThankYou)
	set(&p.ThankYouNote, f.ThankYouNote)
	set(&p.Font.Regular, f.Font.Regular)
	set(&p.Font.Bold, f.Font.Bold)
	set(&p.Font.Italic, f.Font.Italic)
	if len(f.Banks) > 0 {
		p.Banks = f.Banks
	}
}

func joinBullets(parts ...string) string {
	kept := parts[:0:0]
	for _, s := range parts {
		if s != "" {
			kept = append(kept, s)
		}
	}
	return strings.Join(kept, " • ")
}
