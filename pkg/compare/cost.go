package compare

import (
	"github.com/samber/lo"

	"github.com/openwatt/openwatt/pkg/types"
)

// AnnualCost estimates the yearly cost in euros of an offer for the given
// annual consumption (kWh) and off-peak share (percent, 0-100).
//
// Missing prices are never an error: each option resolves its unit prices
// through a fallback chain (HPHC: hp→ttc→0 for peak, hc→ttc→peak for
// off-peak; BASE/TEMPO: ttc→hp→0), so the function is total over its
// domain. An unknown option costs the subscription only.
func AnnualCost(o *types.TariffObservation, consumptionKWH, hcSharePct float64) float64 {
	fixed := 12 * o.AboMonthTTC

	switch o.Option {
	case types.OptionHPHC:
		peakPtr, _ := lo.Coalesce(o.PriceKWhHPTTC, o.PriceKWhTTC)
		peak := lo.FromPtrOr(peakPtr, 0)
		offPeakPtr, _ := lo.Coalesce(o.PriceKWhHCTTC, o.PriceKWhTTC)
		offPeak := lo.FromPtrOr(offPeakPtr, peak)

		peakKWH := consumptionKWH * (1 - hcSharePct/100)
		offPeakKWH := consumptionKWH * (hcSharePct / 100)
		return fixed + peakKWH*peak + offPeakKWH*offPeak

	case types.OptionBase, types.OptionTempo:
		flatPtr, _ := lo.Coalesce(o.PriceKWhTTC, o.PriceKWhHPTTC)
		return fixed + consumptionKWH*lo.FromPtrOr(flatPtr, 0)

	default:
		return fixed
	}
}
