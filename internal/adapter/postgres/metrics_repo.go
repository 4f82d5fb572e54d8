package postgres

import (
	"context"
	"database/sql"
	"errors"

	"technowear/internal/domain"
)

// LatestSample returns the user's newest health metric sample, or nil.
func (d *DB) LatestSample(ctx context.Context, userID string) (*domain.HealthMetricSample, error) {
	var s domain.HealthMetricSample
	var garmentID sql.NullString
	err := d.sql.QueryRowContext(ctx,
		`SELECT id, user_id, garment_id, heart_rate, breathing_rate, stress_level, sleep_quality,
			recovery_score, posture_status, body_temperature, steps, recorded_at
		FROM health_metrics WHERE user_id=$1 ORDER BY recorded_at DESC LIMIT 1;`,
		userID,
	).Scan(&s.ID, &s.UserID, &garmentID, &s.HeartRate, &s.BreathingRate, &s.StressLevel, &s.SleepQuality,
		&s.RecoveryScore, &s.PostureStatus, &s.BodyTemperature, &s.Steps, &s.RecordedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	s.GarmentID = garmentID.String
	return &s, nil
}

// InsertSample stores a health metric sample.
func (d *DB) InsertSample(ctx context.Context, s domain.HealthMetricSample) (domain.HealthMetricSample, error) {
	s.RecordedAt = s.RecordedAt.UTC()
	_, err := d.sql.ExecContext(ctx,
		`INSERT INTO health_metrics(id, user_id, garment_id, heart_rate, breathing_rate, stress_level, sleep_quality,
			recovery_score, posture_status, body_temperature, steps, recorded_at)
		VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12);`,
		s.ID, s.UserID, nullString(s.GarmentID), s.HeartRate, s.BreathingRate, s.StressLevel, s.SleepQuality,
		s.RecoveryScore, s.PostureStatus, s.BodyTemperature, s.Steps, s.RecordedAt,
	)
	if err != nil {
		return domain.HealthMetricSample{}, err
	}
	return s, nil
}
