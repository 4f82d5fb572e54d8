package app

import (
	"context"
	"time"

	"technowear/internal/domain"

	"github.com/google/uuid"
)

// EcoSeedGrams is the CO2 value a new month starts with.
const EcoSeedGrams = 14.53

// MonthlyCO2 is one point of the eco trend chart.
type MonthlyCO2 struct {
	Month string  `json:"month"`
	CO2   float64 `json:"co2"`
}

// EcoView is the eco-impact widget view model.
type EcoView struct {
	Current     domain.EcoImpactRecord `json:"current"`
	Trend       []MonthlyCO2           `json:"trend"`
	Equivalence string                 `json:"equivalence"`
}

// EcoService encapsulates eco-impact use cases.
type EcoService struct {
	repo domain.EcoImpactRepository
	now  func() time.Time
}

// NewEcoService creates an EcoService backed by the given repository.
func NewEcoService(repo domain.EcoImpactRepository) *EcoService {
	return &EcoService{repo: repo, now: time.Now}
}

// MonthKey formats t as YYYY-MM in UTC.
func MonthKey(t time.Time) string {
	return t.UTC().Format("2006-01")
}

// Current returns this month's record, creating it at EcoSeedGrams when absent.
// created reports whether a row was inserted.
func (s *EcoService) Current(ctx context.Context, userID string) (rec domain.EcoImpactRecord, created bool, err error) {
	now := s.now()
	key := MonthKey(now)
	existing, err := s.repo.GetEcoImpact(ctx, userID, key)
	if err != nil {
		return domain.EcoImpactRecord{}, false, err
	}
	if existing != nil {
		return *existing, false, nil
	}
	rec, err = s.repo.InsertEcoImpact(ctx, domain.EcoImpactRecord{
		ID:               uuid.NewString(),
		UserID:           userID,
		MonthKey:         key,
		CO2AbsorbedGrams: EcoSeedGrams,
		CreatedAt:        now.UTC(),
	})
	if err != nil {
		return domain.EcoImpactRecord{}, false, err
	}
	return rec, true, nil
}

// View returns the full widget model for userID.
func (s *EcoService) View(ctx context.Context, userID string) (EcoView, error) {
	rec, _, err := s.Current(ctx, userID)
	if err != nil {
		return EcoView{}, err
	}
	return EcoView{Current: rec, Trend: s.Trend(), Equivalence: "That's like planting one tree"}, nil
}

// Trend returns the monthly absorption series.
func (s *EcoService) Trend() []MonthlyCO2 {
	return []MonthlyCO2{
		{"Jan", 12.3}, {"Feb", 13.8}, {"Mar", 14.1}, {"Apr", 14.53},
	}
}
