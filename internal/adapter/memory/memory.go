// Package memory implements in-memory adapters for development and testing.
package memory

import (
	"context"
	"errors"
	"sort"
	"sync"

	"technowear/internal/domain"
)

// DB implements an in-memory database storage.
type DB struct {
	mu       sync.Mutex
	garments []domain.Garment
	goals    []domain.FitnessGoal
	eco      []domain.EcoImpactRecord
	samples  []domain.HealthMetricSample
}

// New creates a new in-memory database.
func New() *DB {
	return &DB{}
}

// Ensure interfaces are met.
var _ domain.GarmentRepository = (*DB)(nil)
var _ domain.GoalRepository = (*DB)(nil)
var _ domain.EcoImpactRepository = (*DB)(nil)
var _ domain.HealthMetricRepository = (*DB)(nil)

// --- GarmentRepository ---

// InsertGarment adds a garment.
func (db *DB) InsertGarment(ctx context.Context, g domain.Garment) (domain.Garment, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if g.ID == "" {
		return domain.Garment{}, errors.New("garment id is required")
	}
	if g.BluetoothID != "" && g.QRCode != "" {
		return domain.Garment{}, errors.New("garment has both bluetooth id and qr code")
	}
	g.CreatedAt = g.CreatedAt.UTC()
	db.garments = append(db.garments, g)
	return g, nil
}

// ListGarments lists the user's garments, newest first.
func (db *DB) ListGarments(ctx context.Context, userID string) ([]domain.Garment, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	result := make([]domain.Garment, 0)
	for _, g := range db.garments {
		if g.UserID == userID {
			result = append(result, g)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

// GetGarment returns a garment owned by userID, or nil.
func (db *DB) GetGarment(ctx context.Context, userID, id string) (*domain.Garment, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, g := range db.garments {
		if g.ID == id && g.UserID == userID {
			ret := g
			return &ret, nil
		}
	}
	return nil, nil
}

// DeleteGarment removes a garment owned by userID.
func (db *DB) DeleteGarment(ctx context.Context, userID, id string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	for i, g := range db.garments {
		if g.ID == id && g.UserID == userID {
			db.garments = append(db.garments[:i], db.garments[i+1:]...)
			return nil
		}
	}
	return nil
}

// CountGarments returns how many garments the user has.
func (db *DB) CountGarments(ctx context.Context, userID string) (int, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	n := 0
	for _, g := range db.garments {
		if g.UserID == userID {
			n++
		}
	}
	return n, nil
}

// --- GoalRepository ---

// InsertGoal adds a goal.
func (db *DB) InsertGoal(ctx context.Context, g domain.FitnessGoal) (domain.FitnessGoal, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	g.CreatedAt = g.CreatedAt.UTC()
	db.goals = append(db.goals, g)
	return g, nil
}

// ListGoals lists the user's goals, newest first.
func (db *DB) ListGoals(ctx context.Context, userID string) ([]domain.FitnessGoal, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	result := make([]domain.FitnessGoal, 0)
	for _, g := range db.goals {
		if g.UserID == userID {
			result = append(result, g)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

// SetGoalCompleted updates the completion flag of a goal.
func (db *DB) SetGoalCompleted(ctx context.Context, userID, id string, completed bool) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	for i := range db.goals {
		if db.goals[i].ID == id && db.goals[i].UserID == userID {
			db.goals[i].Completed = completed
			return nil
		}
	}
	return nil
}

// GetGoal returns a goal owned by userID, or nil.
func (db *DB) GetGoal(ctx context.Context, userID, id string) (*domain.FitnessGoal, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, g := range db.goals {
		if g.ID == id && g.UserID == userID {
			ret := g
			return &ret, nil
		}
	}
	return nil, nil
}

// --- EcoImpactRepository ---

// GetEcoImpact returns the record for the month, or nil.
func (db *DB) GetEcoImpact(ctx context.Context, userID, monthKey string) (*domain.EcoImpactRecord, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, r := range db.eco {
		if r.UserID == userID && r.MonthKey == monthKey {
			ret := r
			return &ret, nil
		}
	}
	return nil, nil
}

// InsertEcoImpact adds a monthly record. A second record for the same month
// is rejected like the unique index in Postgres.
func (db *DB) InsertEcoImpact(ctx context.Context, r domain.EcoImpactRecord) (domain.EcoImpactRecord, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, e := range db.eco {
		if e.UserID == r.UserID && e.MonthKey == r.MonthKey {
			return domain.EcoImpactRecord{}, errors.New("eco impact already recorded for month")
		}
	}
	r.CreatedAt = r.CreatedAt.UTC()
	db.eco = append(db.eco, r)
	return r, nil
}

// --- HealthMetricRepository ---

// LatestSample returns the newest sample for the user, or nil.
func (db *DB) LatestSample(ctx context.Context, userID string) (*domain.HealthMetricSample, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	var latest *domain.HealthMetricSample
	for i := range db.samples {
		s := &db.samples[i]
		if s.UserID != userID {
			continue
		}
		if latest == nil || s.RecordedAt.After(latest.RecordedAt) {
			latest = s
		}
	}
	if latest == nil {
		return nil, nil
	}
	ret := *latest
	return &ret, nil
}

// InsertSample adds a metric sample.
func (db *DB) InsertSample(ctx context.Context, s domain.HealthMetricSample) (domain.HealthMetricSample, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	s.RecordedAt = s.RecordedAt.UTC()
	db.samples = append(db.samples, s)
	return s, nil
}
