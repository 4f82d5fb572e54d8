package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"technowear/internal/domain"
)

// GetEcoImpact returns the user's record for monthKey, or nil.
func (d *DB) GetEcoImpact(ctx context.Context, userID, monthKey string) (*domain.EcoImpactRecord, error) {
	var r domain.EcoImpactRecord
	err := d.sql.QueryRowContext(ctx,
		"SELECT id, user_id, month_year, co2_absorbed_grams, created_at FROM eco_impact WHERE user_id=$1 AND month_year=$2;",
		userID, monthKey,
	).Scan(&r.ID, &r.UserID, &r.MonthKey, &r.CO2AbsorbedGrams, &r.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// InsertEcoImpact stores the month's record. When two requests race, the
// first row wins and both callers get it back.
func (d *DB) InsertEcoImpact(ctx context.Context, r domain.EcoImpactRecord) (domain.EcoImpactRecord, error) {
	_, err := d.sql.ExecContext(ctx,
		"INSERT INTO eco_impact(id, user_id, month_year, co2_absorbed_grams, created_at) VALUES($1, $2, $3, $4, $5) ON CONFLICT (user_id, month_year) DO NOTHING;",
		r.ID, r.UserID, r.MonthKey, r.CO2AbsorbedGrams, r.CreatedAt.UTC(),
	)
	if err != nil {
		return domain.EcoImpactRecord{}, err
	}
	stored, err := d.GetEcoImpact(ctx, r.UserID, r.MonthKey)
	if err != nil {
		return domain.EcoImpactRecord{}, err
	}
	if stored == nil {
		return domain.EcoImpactRecord{}, fmt.Errorf("eco impact for %s vanished after insert", r.MonthKey)
	}
	return *stored, nil
}
