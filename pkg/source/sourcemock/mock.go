package sourcemock

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/openwatt/openwatt/pkg/source"
	"github.com/openwatt/openwatt/pkg/types"
)

type MockSource struct {
	mock.Mock
}

var _ source.Source = (*MockSource)(nil)

func (m *MockSource) Tariffs(ctx context.Context) ([]types.TariffObservation, error) {
	args := m.Called(ctx)
	if items, ok := args.Get(0).([]types.TariffObservation); ok {
		return items, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockSource) TRVEDiff(ctx context.Context) ([]types.TrveDiffEntry, error) {
	args := m.Called(ctx)
	if items, ok := args.Get(0).([]types.TrveDiffEntry); ok {
		return items, args.Error(1)
	}
	return nil, args.Error(1)
}
