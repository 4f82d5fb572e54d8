package postgres

import (
	"context"
	"database/sql"
	"errors"

	"technowear/internal/domain"
)

const goalColumns = "id, user_id, title, target_value, current_value, is_completed, goal_type, created_at"

func scanGoal(r rowScanner) (domain.FitnessGoal, error) {
	var g domain.FitnessGoal
	err := r.Scan(&g.ID, &g.UserID, &g.Title, &g.TargetValue, &g.CurrentValue, &g.Completed, &g.Type, &g.CreatedAt)
	return g, err
}

// InsertGoal stores a goal and returns the stored row.
func (d *DB) InsertGoal(ctx context.Context, g domain.FitnessGoal) (domain.FitnessGoal, error) {
	row := d.sql.QueryRowContext(ctx,
		"INSERT INTO fitness_goals("+goalColumns+") VALUES($1, $2, $3, $4, $5, $6, $7, $8) RETURNING "+goalColumns+";",
		g.ID, g.UserID, g.Title, g.TargetValue, g.CurrentValue, g.Completed, string(g.Type), g.CreatedAt.UTC(),
	)
	return scanGoal(row)
}

// ListGoals returns the user's goals, newest first.
func (d *DB) ListGoals(ctx context.Context, userID string) ([]domain.FitnessGoal, error) {
	rows, err := d.sql.QueryContext(ctx,
		"SELECT "+goalColumns+" FROM fitness_goals WHERE user_id=$1 ORDER BY created_at DESC;", userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck

	out := make([]domain.FitnessGoal, 0)
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// SetGoalCompleted updates the completion flag, scoped to a user.
func (d *DB) SetGoalCompleted(ctx context.Context, userID, id string, completed bool) error {
	_, err := d.sql.ExecContext(ctx,
		"UPDATE fitness_goals SET is_completed=$1 WHERE id=$2 AND user_id=$3;", completed, id, userID)
	return err
}

// GetGoal returns one goal scoped to a user, or nil.
func (d *DB) GetGoal(ctx context.Context, userID, id string) (*domain.FitnessGoal, error) {
	row := d.sql.QueryRowContext(ctx,
		"SELECT "+goalColumns+" FROM fitness_goals WHERE id=$1 AND user_id=$2;", id, userID)
	g, err := scanGoal(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &g, nil
}
