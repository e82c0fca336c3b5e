package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/subsidy-console-gateway/internal/dto"
	"github.com/noah-isme/subsidy-console-gateway/internal/models"
)

func TestOverviewCounterRefreshTakesRequestedBucket(t *testing.T) {
	api := newFakeEnterpriseAPI()
	api.overviews[models.SubsidyChannelLicense] = []dto.OverviewCountPayload{{State: "requested", Count: 4}, {State: "approved", Count: 9}}
	api.overviews[models.SubsidyChannelCoupon] = []dto.OverviewCountPayload{{State: "REQUESTED", Count: 2}}

	changes := 0
	counter := NewOverviewCounter("ent-1", api, nil, nil, func() { changes++ })
	require.NoError(t, counter.Refresh(context.Background()))

	snapshot := counter.Snapshot()
	assert.False(t, snapshot.IsLoading)
	assert.Equal(t, 4, snapshot.Counts[models.SubsidyChannelLicense])
	assert.Equal(t, 2, snapshot.Counts[models.SubsidyChannelCoupon])
	assert.GreaterOrEqual(t, changes, 2)
}

func TestOverviewCounterRefreshFailureKeepsCounts(t *testing.T) {
	api := newFakeEnterpriseAPI()
	api.overviews[models.SubsidyChannelLicense] = []dto.OverviewCountPayload{{State: "requested", Count: 3}}
	counter := NewOverviewCounter("ent-1", api, nil, nil, nil)
	require.NoError(t, counter.Refresh(context.Background()))

	api.overviewErr = errors.New("unavailable")
	err := counter.Refresh(context.Background())
	require.Error(t, err)

	snapshot := counter.Snapshot()
	assert.False(t, snapshot.IsLoading)
	assert.Equal(t, 3, snapshot.Counts[models.SubsidyChannelLicense])
}

func TestOverviewCounterDecrementIsLocalAndUnclamped(t *testing.T) {
	api := newFakeEnterpriseAPI()
	api.overviews[models.SubsidyChannelCoupon] = []dto.OverviewCountPayload{{State: "requested", Count: 1}}
	metrics := NewMetricsService()
	counter := NewOverviewCounter("ent-1", api, nil, metrics, nil)
	require.NoError(t, counter.Refresh(context.Background()))

	counter.Decrement(models.SubsidyChannelCoupon)
	assert.Equal(t, 0, counter.Snapshot().Counts[models.SubsidyChannelCoupon])

	counter.Decrement(models.SubsidyChannelCoupon)
	assert.Equal(t, -1, counter.Snapshot().Counts[models.SubsidyChannelCoupon])
	assert.Equal(t, 0, counter.Snapshot().Counts[models.SubsidyChannelLicense])
}

func TestOverviewCounterSnapshotIsACopy(t *testing.T) {
	counter := NewOverviewCounter("ent-1", newFakeEnterpriseAPI(), nil, nil, nil)
	snapshot := counter.Snapshot()
	snapshot.Counts[models.SubsidyChannelLicense] = 42
	assert.Equal(t, 0, counter.Snapshot().Counts[models.SubsidyChannelLicense])
}
