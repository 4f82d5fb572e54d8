package app

import (
	"context"
	"math"
	"math/rand"
	"sync"
	"time"

	"technowear/internal/domain"

	"github.com/google/uuid"
)

// MetricJitterInterval is how often the health widget receives a new sample.
const MetricJitterInterval = 3 * time.Second

// MetricsSource produces the next live sample from the previous one. It stands
// in for a real garment telemetry feed.
type MetricsSource interface {
	Next(prev domain.HealthMetricSample) domain.HealthMetricSample
}

// JitterSource randomly perturbs the previous sample. Results are never
// persisted.
type JitterSource struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewJitterSource creates a JitterSource with a deterministic seed.
func NewJitterSource(seed int64) *JitterSource {
	return &JitterSource{rnd: rand.New(rand.NewSource(seed))}
}

// Next implements MetricsSource.
func (j *JitterSource) Next(prev domain.HealthMetricSample) domain.HealthMetricSample {
	j.mu.Lock()
	defer j.mu.Unlock()
	next := prev
	next.HeartRate = prev.HeartRate + (j.rnd.Float64()-0.5)*3
	next.BreathingRate = math.Max(12, math.Min(20, prev.BreathingRate+(j.rnd.Float64()-0.5)*2))
	next.Steps = prev.Steps + int64(math.Floor(j.rnd.Float64()*10))
	next.RecordedAt = prev.RecordedAt.Add(MetricJitterInterval)
	return next
}

// seedSample is stored once for a user that has no samples.
func seedSample(userID string, now time.Time) domain.HealthMetricSample {
	return domain.HealthMetricSample{
		ID:              uuid.NewString(),
		UserID:          userID,
		HeartRate:       72,
		BreathingRate:   16,
		StressLevel:     35,
		SleepQuality:    85,
		RecoveryScore:   78,
		PostureStatus:   "good",
		BodyTemperature: 36.8,
		Steps:           4523,
		RecordedAt:      now.UTC(),
	}
}

// HealthService encapsulates the health metrics widget use cases.
type HealthService struct {
	repo   domain.HealthMetricRepository
	source MetricsSource
	now    func() time.Time
}

// NewHealthService creates a HealthService backed by the given repository.
func NewHealthService(repo domain.HealthMetricRepository, source MetricsSource) *HealthService {
	return &HealthService{repo: repo, source: source, now: time.Now}
}

// Latest returns the newest sample, seeding one when the user has none.
func (s *HealthService) Latest(ctx context.Context, userID string) (domain.HealthMetricSample, error) {
	latest, err := s.repo.LatestSample(ctx, userID)
	if err != nil {
		return domain.HealthMetricSample{}, err
	}
	if latest != nil {
		return *latest, nil
	}
	return s.repo.InsertSample(ctx, seedSample(userID, s.now()))
}

// Stream emits the latest sample and then a jittered one every interval until
// ctx is done or emit fails. The ticker is stopped before Stream returns.
func (s *HealthService) Stream(ctx context.Context, userID string, interval time.Duration, emit func(domain.HealthMetricSample) error) error {
	cur, err := s.Latest(ctx, userID)
	if err != nil {
		return err
	}
	if err := emit(cur); err != nil {
		return err
	}

	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			// A tick racing cancellation must not emit.
			if ctx.Err() != nil {
				return nil
			}
			cur = s.source.Next(cur)
			if err := emit(cur); err != nil {
				return err
			}
		}
	}
}
