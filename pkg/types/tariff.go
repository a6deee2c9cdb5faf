package types

import (
	"fmt"
	"strings"
	"time"
)

// TariffOption defines the pricing structure of an offer.
type TariffOption string

const (
	// OptionBase is a flat rate per kWh.
	OptionBase TariffOption = "BASE"
	// OptionHPHC is a peak/off-peak split rate (heures pleines / heures creuses).
	OptionHPHC TariffOption = "HPHC"
	// OptionTempo is a dynamic day-type rate. It is priced with the flat-rate
	// formula as an approximation.
	OptionTempo TariffOption = "TEMPO"
)

// ParseTariffOption validates a raw option string from the API.
func ParseTariffOption(s string) (TariffOption, error) {
	switch o := TariffOption(s); o {
	case OptionBase, OptionHPHC, OptionTempo:
		return o, nil
	}
	return "", fmt.Errorf("unknown tariff option: %q", s)
}

// FreshnessStatus classifies how recently an observation was verified
// against its source.
type FreshnessStatus string

const (
	StatusFresh     FreshnessStatus = "fresh"
	StatusVerifying FreshnessStatus = "verifying"
	StatusStale     FreshnessStatus = "stale"
	StatusBroken    FreshnessStatus = "broken"
)

// PowerTiers lists the standard contracted capacities in kVA.
var PowerTiers = []int{3, 6, 9, 12, 15, 18, 24, 30, 36}

// ValidPowerTier reports whether kva is one of the standard tiers.
func ValidPowerTier(kva int) bool {
	for _, t := range PowerTiers {
		if t == kva {
			return true
		}
	}
	return false
}

// TariffObservation is one priced offer snapshot as published by the API.
// It is immutable once received and held only for the duration of a
// display session.
type TariffObservation struct {
	Supplier     string       `json:"supplier"`
	Option       TariffOption `json:"option"`
	PuissanceKVA int          `json:"puissance_kva"`

	// PriceKWhTTC is the flat unit price. It is used for BASE and TEMPO and
	// as a fallback for either HPHC leg.
	PriceKWhTTC *float64 `json:"price_kwh_ttc"`
	// PriceKWhHPTTC and PriceKWhHCTTC are the peak/off-peak unit prices used
	// for HPHC.
	PriceKWhHPTTC *float64 `json:"price_kwh_hp_ttc"`
	PriceKWhHCTTC *float64 `json:"price_kwh_hc_ttc"`

	// AboMonthTTC is the monthly subscription fee.
	AboMonthTTC float64 `json:"abo_month_ttc"`

	DataStatus FreshnessStatus `json:"data_status"`

	// Provenance fields carried through for display only.
	ObservedAt    time.Time  `json:"observed_at,omitzero"`
	ParserVersion string     `json:"parser_version,omitempty"`
	SourceURL     string     `json:"source_url,omitempty"`
	LastVerified  *time.Time `json:"last_verified,omitempty"`
}

// SupplierKey returns the normalized supplier identifier used for join-key
// comparisons. Suppliers are matched case-insensitively.
func (o *TariffObservation) SupplierKey() string {
	return strings.ToLower(strings.TrimSpace(o.Supplier))
}

// IsRegulatedReference reports whether this row is the regulated-tariff
// reference itself. Detection is by supplier name: exactly "trve" or
// containing "réglementé", case-insensitively. The reference row never
// displays a delta against itself.
func (o *TariffObservation) IsRegulatedReference() bool {
	name := o.SupplierKey()
	return name == "trve" || strings.Contains(name, "réglementé")
}

// Normalize fills defaults the API is allowed to omit. A missing or unknown
// data_status is treated as stale.
func (o *TariffObservation) Normalize() {
	switch o.DataStatus {
	case StatusFresh, StatusVerifying, StatusStale, StatusBroken:
	default:
		o.DataStatus = StatusStale
	}
}

// Validate checks the observation decoded from the API. Records failing
// validation are flagged and dropped at the boundary rather than letting
// ambiguity propagate into the computation pipeline.
func (o *TariffObservation) Validate() error {
	if strings.TrimSpace(o.Supplier) == "" {
		return fmt.Errorf("missing supplier")
	}
	if _, err := ParseTariffOption(string(o.Option)); err != nil {
		return err
	}
	if !ValidPowerTier(o.PuissanceKVA) {
		return fmt.Errorf("invalid puissance_kva: %d", o.PuissanceKVA)
	}
	if o.AboMonthTTC < 0 {
		return fmt.Errorf("negative abo_month_ttc: %f", o.AboMonthTTC)
	}
	return nil
}
