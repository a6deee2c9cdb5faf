package types

import (
	"fmt"
	"strings"
	"time"
)

// TrveDiffEntry is one regulated-tariff comparison record: the signed
// difference in €/MWh between a commercial offer and the TRVE reference for
// a (supplier, option, puissance) triple.
type TrveDiffEntry struct {
	Supplier       string       `json:"supplier"`
	Option         TariffOption `json:"option"`
	PuissanceKVA   int          `json:"puissance_kva"`
	DeltaEurPerMWh float64      `json:"delta_eur_per_mwh"`

	ComparedAt time.Time `json:"compared_at,omitzero"`
	Status     string    `json:"status,omitempty"`
}

// JoinKey identifies the (supplier, option, puissance) triple a delta entry
// applies to. The supplier component is normalized once at construction so
// comparisons never depend on the source's casing.
type JoinKey struct {
	Supplier     string
	Option       TariffOption
	PuissanceKVA int
}

// Key returns the normalized join key for this entry.
func (e *TrveDiffEntry) Key() JoinKey {
	return JoinKey{
		Supplier:     strings.ToLower(strings.TrimSpace(e.Supplier)),
		Option:       e.Option,
		PuissanceKVA: e.PuissanceKVA,
	}
}

// ObservationKey returns the join key for an observation, matching Key.
func ObservationKey(o *TariffObservation) JoinKey {
	return JoinKey{
		Supplier:     o.SupplierKey(),
		Option:       o.Option,
		PuissanceKVA: o.PuissanceKVA,
	}
}

// Validate checks a delta entry decoded from the API.
func (e *TrveDiffEntry) Validate() error {
	if strings.TrimSpace(e.Supplier) == "" {
		return fmt.Errorf("missing supplier")
	}
	if _, err := ParseTariffOption(string(e.Option)); err != nil {
		return err
	}
	if !ValidPowerTier(e.PuissanceKVA) {
		return fmt.Errorf("invalid puissance_kva: %d", e.PuissanceKVA)
	}
	return nil
}
