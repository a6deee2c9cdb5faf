// Package source is the data-loading boundary between the comparison
// engine and the backend tariff API. The engine itself never performs I/O;
// it is handed fully decoded lists through the Source interface.
package source

import (
	"context"
	"fmt"

	"github.com/levenlabs/go-lflag"

	"github.com/openwatt/openwatt/pkg/types"
)

// Source supplies the two externally produced lists the comparator
// consumes. The two fetches are independent: a failure of one does not
// block computation that depends only on the other.
type Source interface {
	// Tariffs returns the latest validated tariff observations.
	Tariffs(ctx context.Context) ([]types.TariffObservation, error)

	// TRVEDiff returns the latest validated regulated-tariff delta records.
	TRVEDiff(ctx context.Context) ([]types.TrveDiffEntry, error)
}

// Configured sets up the data source based on flags.
func Configured() Source {
	provider := lflag.String("source-provider", "api", "Data source to use (available: api)")

	var s struct{ Source }

	api := configuredAPI()

	lflag.Do(func() {
		switch *provider {
		case "api":
			if err := api.Validate(); err != nil {
				panic(fmt.Sprintf("api source validation failed: %v", err))
			}
			s.Source = api
		default:
			panic(fmt.Sprintf("unknown source provider: %s", *provider))
		}
	})

	return &s
}
