package domain

import "context"

// ChangeKind is the kind of row mutation carried by a Change.
type ChangeKind string

// Change kinds.
const (
	ChangeInsert ChangeKind = "INSERT"
	ChangeUpdate ChangeKind = "UPDATE"
	ChangeDelete ChangeKind = "DELETE"
)

// Table names used on the change feed.
const (
	TableGarments = "garments"
	TableGoals    = "fitness_goals"
)

// Change describes a single row mutation scoped to a user.
type Change struct {
	Table  string     `json:"table"`
	Kind   ChangeKind `json:"kind"`
	UserID string     `json:"userId"`
	RowID  string     `json:"rowId"`
}

// ChangeFeed delivers row changes filtered by table and owning user.
type ChangeFeed interface {
	Publish(ctx context.Context, c Change) error
	Subscribe(table, userID string, fn func(Change)) (unsubscribe func(), err error)
}
