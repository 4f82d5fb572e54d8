package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonthKey(t *testing.T) {
	// 23:30 on Apr 30 in UTC-5 is already May in UTC.
	loc := time.FixedZone("EST", -5*3600)
	assert.Equal(t, "2026-05", MonthKey(time.Date(2026, 4, 30, 23, 30, 0, 0, loc)))
	assert.Equal(t, "2026-01", MonthKey(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)))
}

func TestEcoService_CurrentInsertsOnce(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	svc := NewEcoService(repo)
	svc.now = func() time.Time { return time.Date(2026, 4, 12, 9, 0, 0, 0, time.UTC) }

	rec, created, err := svc.Current(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "2026-04", rec.MonthKey)
	assert.Equal(t, EcoSeedGrams, rec.CO2AbsorbedGrams)

	_, created, err = svc.Current(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, 1, repo.ecoInserts)
}

func TestEcoService_View(t *testing.T) {
	svc := NewEcoService(newFakeRepo())

	v, err := svc.View(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, v.Trend, 4)
	assert.Equal(t, "Apr", v.Trend[3].Month)
	assert.Equal(t, "That's like planting one tree", v.Equivalence)
}
