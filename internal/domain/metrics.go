package domain

import (
	"context"
	"time"
)

// HealthMetricSample is a single reading from a user's garments.
type HealthMetricSample struct {
	ID              string    `json:"id" bson:"_id"`
	UserID          string    `json:"userId" bson:"user_id"`
	GarmentID       string    `json:"garmentId,omitempty" bson:"garment_id,omitempty"`
	HeartRate       float64   `json:"heartRate" bson:"heart_rate"`
	BreathingRate   float64   `json:"breathingRate" bson:"breathing_rate"`
	StressLevel     float64   `json:"stressLevel" bson:"stress_level"`
	SleepQuality    float64   `json:"sleepQuality" bson:"sleep_quality"`
	RecoveryScore   float64   `json:"recoveryScore" bson:"recovery_score"`
	PostureStatus   string    `json:"postureStatus" bson:"posture_status"`
	BodyTemperature float64   `json:"bodyTemperature" bson:"body_temperature"`
	Steps           int64     `json:"steps" bson:"steps"`
	RecordedAt      time.Time `json:"recordedAt" bson:"recorded_at"`
}

// HealthMetricRepository is the port for metric sample persistence.
type HealthMetricRepository interface {
	LatestSample(ctx context.Context, userID string) (*HealthMetricSample, error)
	InsertSample(ctx context.Context, s HealthMetricSample) (HealthMetricSample, error)
}
