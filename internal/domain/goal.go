package domain

import (
	"context"
	"time"
)

// GoalType categorises a fitness goal.
type GoalType string

// Goal types.
const (
	GoalSteps    GoalType = "steps"
	GoalRecovery GoalType = "recovery"
	GoalStress   GoalType = "stress"
	GoalCustom   GoalType = "custom"
)

// FitnessGoal is a user-defined or seeded target.
type FitnessGoal struct {
	ID           string    `json:"id"`
	UserID       string    `json:"userId"`
	Title        string    `json:"title"`
	TargetValue  int64     `json:"targetValue"`
	CurrentValue int64     `json:"currentValue"`
	Completed    bool      `json:"isCompleted"`
	Type         GoalType  `json:"goalType"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Progress returns completion in percent, capped at 100.
func (g FitnessGoal) Progress() float64 {
	if g.TargetValue <= 0 {
		return 0
	}
	p := float64(g.CurrentValue) / float64(g.TargetValue) * 100
	if p > 100 {
		return 100
	}
	return p
}

// GoalRepository is the port for goal persistence.
type GoalRepository interface {
	InsertGoal(ctx context.Context, g FitnessGoal) (FitnessGoal, error)
	ListGoals(ctx context.Context, userID string) ([]FitnessGoal, error)
	SetGoalCompleted(ctx context.Context, userID, id string, completed bool) error
	GetGoal(ctx context.Context, userID, id string) (*FitnessGoal, error)
}
