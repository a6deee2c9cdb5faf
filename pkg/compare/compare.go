// Package compare implements the tariff cost-comparison engine: annual
// cost estimation, regulated-tariff delta resolution and the
// filter/sort/rank pipeline producing the rows the comparator displays.
//
// Everything in this package is a pure function of its inputs. The full
// result is recomputed from scratch on every parameter change; there is no
// incremental update and no caching.
package compare

import (
	"sort"

	"github.com/samber/lo"

	"github.com/openwatt/openwatt/pkg/types"
)

// Params are the user-controlled inputs to a comparison run.
type Params struct {
	// ConsumptionKWH is the annual consumption estimate in kWh.
	ConsumptionKWH float64 `json:"consumptionKWH"`
	// HCSharePct is the share of consumption falling in off-peak hours,
	// in percent. Only HPHC offers use it.
	HCSharePct float64 `json:"hcSharePct"`

	// Option and PuissanceKVA are optional exact-match filters.
	Option       *types.TariffOption `json:"option,omitempty"`
	PuissanceKVA *int                `json:"puissanceKVA,omitempty"`

	// CheaperOnly drops rows known to be at or above the regulated tariff.
	// Rows with no comparison available are always kept.
	CheaperOnly bool `json:"cheaperOnly"`
}

// Normalize clamps parameters into their valid ranges.
func (p *Params) Normalize() {
	if p.ConsumptionKWH < 0 {
		p.ConsumptionKWH = 0
	}
	if p.HCSharePct < 0 {
		p.HCSharePct = 0
	} else if p.HCSharePct > 100 {
		p.HCSharePct = 100
	}
}

// Row is one annotated table row: an observation extended with its
// estimated annual cost and, when a matching delta entry exists, the
// signed €/year difference versus the regulated tariff.
type Row struct {
	types.TariffObservation

	AnnualCost float64 `json:"annualCost"`
	// VsTRVE is nil when no comparison is available, which must not be
	// conflated with a delta of exactly 0.
	VsTRVE *float64 `json:"vsTrve,omitempty"`
	// IsTRVE marks the regulated-tariff reference row itself. It is shown
	// as the reference and never carries a delta against itself.
	IsTRVE bool `json:"isTrve"`
}

// RankedRow is one entry of the top-3 view.
type RankedRow struct {
	Row
	Rank int `json:"rank"`
	// DeltaToBest is this row's annual cost minus rank 1's, always >= 0.
	DeltaToBest float64 `json:"deltaToBest"`
}

// Result is the ordered, annotated view produced by Run.
type Result struct {
	Rows []Row `json:"rows"`
	// Top is the ranked top-3 view, present only when at least 3 rows
	// survive the filters.
	Top []RankedRow `json:"top,omitempty"`
}

// Run executes the pipeline: option filter, power filter, cost and delta
// annotation, optional cheaper-only filter, stable ascending cost sort and
// top-3 extraction. An empty input yields an empty result, not an error.
func Run(observations []types.TariffObservation, deltas []types.TrveDiffEntry, params Params) Result {
	params.Normalize()

	kept := lo.Filter(observations, func(o types.TariffObservation, _ int) bool {
		if params.Option != nil && o.Option != *params.Option {
			return false
		}
		if params.PuissanceKVA != nil && o.PuissanceKVA != *params.PuissanceKVA {
			return false
		}
		return true
	})

	ix := NewDeltaIndex(deltas)
	rows := lo.Map(kept, func(o types.TariffObservation, _ int) Row {
		row := Row{
			TariffObservation: o,
			AnnualCost:        AnnualCost(&o, params.ConsumptionKWH, params.HCSharePct),
			IsTRVE:            o.IsRegulatedReference(),
		}
		if !row.IsTRVE {
			if v, ok := ix.Annual(&o, params.ConsumptionKWH); ok {
				row.VsTRVE = &v
			}
		}
		return row
	})

	if params.CheaperOnly {
		rows = lo.Filter(rows, func(r Row, _ int) bool {
			// "cannot evaluate" is not the same as "fails the filter"
			return r.VsTRVE == nil || *r.VsTRVE < 0
		})
	}

	// stable: ties retain relative input order, display keys depend on it
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].AnnualCost < rows[j].AnnualCost
	})

	res := Result{Rows: rows}
	if len(rows) >= 3 {
		best := rows[0].AnnualCost
		res.Top = make([]RankedRow, 3)
		for i := range res.Top {
			res.Top[i] = RankedRow{
				Row:         rows[i],
				Rank:        i + 1,
				DeltaToBest: rows[i].AnnualCost - best,
			}
		}
	}
	return res
}
