package compare

// ConsumptionProfile is a named consumption preset used to default the
// consumption parameter.
type ConsumptionProfile struct {
	ID        string  `json:"id"`
	Label     string  `json:"label"`
	AnnualKWH float64 `json:"annual_kwh"`
}

// Profiles are the four fixed presets offered by the comparator.
var Profiles = []ConsumptionProfile{
	{ID: "studio", Label: "Studio (2 000 kWh/an)", AnnualKWH: 2000},
	{ID: "apartment", Label: "Appartement (5 000 kWh/an)", AnnualKWH: 5000},
	{ID: "house", Label: "Maison (8 000 kWh/an)", AnnualKWH: 8000},
	{ID: "large-house", Label: "Grande maison tout électrique (12 000 kWh/an)", AnnualKWH: 12000},
}

// ProfileByID looks up a preset by its identifier.
func ProfileByID(id string) (ConsumptionProfile, bool) {
	for _, p := range Profiles {
		if p.ID == id {
			return p, true
		}
	}
	return ConsumptionProfile{}, false
}

// SelectedProfile returns the preset the given consumption corresponds to,
// or nil when consumption matches none. A manual edit to the consumption
// field clears the selection by construction: the marker only exists while
// consumption still equals a preset value.
func SelectedProfile(consumptionKWH float64) *ConsumptionProfile {
	for i := range Profiles {
		if Profiles[i].AnnualKWH == consumptionKWH {
			return &Profiles[i]
		}
	}
	return nil
}
