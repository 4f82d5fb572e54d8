package app

import (
	"context"
	"testing"
	"time"

	"technowear/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthService_LatestSeedsOnce(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	svc := NewHealthService(repo, NewJitterSource(1))

	first, err := svc.Latest(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 72.0, first.HeartRate)
	assert.Equal(t, 16.0, first.BreathingRate)
	assert.Equal(t, int64(4523), first.Steps)
	assert.Equal(t, "good", first.PostureStatus)

	second, err := svc.Latest(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, repo.sampleInserts)
}

func TestJitterSource_Bounds(t *testing.T) {
	src := NewJitterSource(7)
	cur := seedSample("u1", time.Now())
	for i := 0; i < 500; i++ {
		next := src.Next(cur)
		assert.LessOrEqual(t, next.HeartRate-cur.HeartRate, 1.5+1e-9)
		assert.GreaterOrEqual(t, next.HeartRate-cur.HeartRate, -1.5-1e-9)
		assert.GreaterOrEqual(t, next.BreathingRate, 12.0)
		assert.LessOrEqual(t, next.BreathingRate, 20.0)
		assert.GreaterOrEqual(t, next.Steps, cur.Steps)
		assert.Less(t, next.Steps-cur.Steps, int64(10))
		cur = next
	}
}

func TestHealthService_StreamStopsOnCancel(t *testing.T) {
	repo := newFakeRepo()
	svc := NewHealthService(repo, NewJitterSource(3))
	ctx, cancel := context.WithCancel(context.Background())

	got := make(chan domain.HealthMetricSample, 16)
	done := make(chan error, 1)
	go func() {
		done <- svc.Stream(ctx, "u1", time.Millisecond, func(s domain.HealthMetricSample) error {
			got <- s
			return nil
		})
	}()

	<-got
	<-got
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("stream did not stop after cancel")
	}
	assert.Equal(t, 1, repo.sampleInserts, "jittered samples are never stored")
}
