package domain

import (
	"context"
	"time"
)

// EcoImpactRecord is the monthly CO2 absorption aggregate for a user.
type EcoImpactRecord struct {
	ID               string    `json:"id"`
	UserID           string    `json:"userId"`
	MonthKey         string    `json:"monthYear"`
	CO2AbsorbedGrams float64   `json:"co2AbsorbedGrams"`
	CreatedAt        time.Time `json:"createdAt"`
}

// EcoImpactRepository is the port for eco-impact persistence.
type EcoImpactRepository interface {
	GetEcoImpact(ctx context.Context, userID, monthKey string) (*EcoImpactRecord, error)
	InsertEcoImpact(ctx context.Context, r EcoImpactRecord) (EcoImpactRecord, error)
}
