package pricing

import (
	"strings"

	"github.com/shopspring/decimal"

	"sjsage522/pricewatch/pkg/errors"
)

// Detection reports which currency marker was found in the raw price text
type Detection int

const (
	// DetectedSource means a source marker was present and the amount was converted
	DetectedSource Detection = iota
	// DetectedTarget means the amount was already in the target currency
	DetectedTarget
	// DetectedUnknown means no marker was present; the amount was converted as if it were source
	DetectedUnknown
)

func (d Detection) String() string {
	switch d {
	case DetectedSource:
		return "source"
	case DetectedTarget:
		return "target"
	default:
		return "unknown"
	}
}

// Currency describes the source and target markers and the display prefix
type Currency struct {
	SourceMarkers []string
	TargetMarkers []string
	TargetPrefix  string
}

// DefaultCurrency converts US dollars into Philippine pesos
func DefaultCurrency() Currency {
	return Currency{
		SourceMarkers: []string{"$"},
		TargetMarkers: []string{"PHP", "₱"},
		TargetPrefix:  "PHP",
	}
}

// WithPrefix returns a copy of the currency using a different display prefix
func (c Currency) WithPrefix(prefix string) Currency {
	if prefix != "" {
		c.TargetPrefix = prefix
	}
	return c
}

// Normalized is a price expressed in the target currency
type Normalized struct {
	Amount   decimal.Decimal
	Display  string
	Detected Detection
}

// Normalizer converts raw price strings into the target currency
type Normalizer struct {
	rate     decimal.Decimal
	currency Currency
}

// NewNormalizer creates a normalizer bound to an exchange rate
func NewNormalizer(rate decimal.Decimal, currency Currency) (*Normalizer, error) {
	if !rate.IsPositive() {
		return nil, errors.NewValidation("", "exchange rate must be positive")
	}
	return &Normalizer{rate: rate, currency: currency}, nil
}

// Rate returns the bound exchange rate
func (n *Normalizer) Rate() decimal.Decimal {
	return n.rate
}

// Currency returns the currency configuration
func (n *Normalizer) Currency() Currency {
	return n.currency
}

// Normalize parses raw and converts it using the bound rate
func (n *Normalizer) Normalize(raw string) (Normalized, error) {
	return n.NormalizeWithRate(raw, n.rate)
}

// NormalizeWithRate parses raw and converts it using an explicit rate
func (n *Normalizer) NormalizeWithRate(raw string, rate decimal.Decimal) (Normalized, error) {
	value, err := ParseAmount(raw)
	if err != nil {
		return Normalized{}, err
	}

	detected := n.detect(raw)
	if detected != DetectedTarget {
		value = value.Mul(rate)
	}
	value = value.Round(2)

	return Normalized{
		Amount:   value,
		Display:  FormatDisplay(n.currency.TargetPrefix, value),
		Detected: detected,
	}, nil
}

// detect checks source markers first so text carrying both is treated as source
func (n *Normalizer) detect(raw string) Detection {
	for _, m := range n.currency.SourceMarkers {
		if m != "" && strings.Contains(raw, m) {
			return DetectedSource
		}
	}
	for _, m := range n.currency.TargetMarkers {
		if m != "" && strings.Contains(raw, m) {
			return DetectedTarget
		}
	}
	return DetectedUnknown
}

// ParseAmount drops everything but digits and dots, so thousands separators vanish
func ParseAmount(raw string) (decimal.Decimal, error) {
	var b strings.Builder
	for _, r := range raw {
		if (r >= '0' && r <= '9') || r == '.' {
			b.WriteRune(r)
		}
	}
	cleaned := b.String()
	if cleaned == "" {
		return decimal.Zero, errors.NewMalformedPrice("", raw, nil)
	}

	value, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, errors.NewMalformedPrice("", raw, err)
	}
	return value, nil
}

// FormatDisplay renders an amount as prefix followed by a thousands-grouped two-decimal number.
// Grouping works on the decimal digits so the text always matches the amount.
func FormatDisplay(prefix string, amount decimal.Decimal) string {
	fixed := amount.StringFixed(2)
	sign := ""
	if strings.HasPrefix(fixed, "-") {
		sign, fixed = "-", fixed[1:]
	}
	whole, frac, _ := strings.Cut(fixed, ".")

	var b strings.Builder
	b.WriteString(prefix)
	b.WriteString(sign)
	for i, d := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(d)
	}
	b.WriteByte('.')
	b.WriteString(frac)
	return b.String()
}
