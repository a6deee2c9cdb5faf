package compare

import (
	"github.com/openwatt/openwatt/pkg/types"
)

// DeltaIndex resolves regulated-tariff deltas by normalized join key.
// When the source list contains duplicate keys the first entry in list
// order wins; duplicates are not deduplicated upstream.
type DeltaIndex struct {
	byKey map[types.JoinKey]float64
}

// NewDeltaIndex builds an index over the raw delta list.
func NewDeltaIndex(entries []types.TrveDiffEntry) DeltaIndex {
	byKey := make(map[types.JoinKey]float64, len(entries))
	for _, e := range entries {
		k := e.Key()
		if _, ok := byKey[k]; ok {
			continue
		}
		byKey[k] = e.DeltaEurPerMWh
	}
	return DeltaIndex{byKey: byKey}
}

// Annual returns the matched delta converted to €/year at the given
// consumption, preserving its sign: negative means the offer is cheaper
// than the regulated tariff by that amount per year. The second return is
// false when no entry matches the observation's join key, which is
// distinct from an exact-match delta of 0.
func (ix DeltaIndex) Annual(o *types.TariffObservation, consumptionKWH float64) (float64, bool) {
	d, ok := ix.byKey[types.ObservationKey(o)]
	if !ok {
		return 0, false
	}
	return d / 1000 * consumptionKWH, true
}
