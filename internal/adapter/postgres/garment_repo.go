package postgres

import (
	"context"
	"database/sql"
	"errors"

	"technowear/internal/domain"
)

const garmentColumns = "id, user_id, name, garment_type, bluetooth_id, qr_code, is_paired, created_at"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGarment(r rowScanner) (domain.Garment, error) {
	var g domain.Garment
	var bt, qr sql.NullString
	if err := r.Scan(&g.ID, &g.UserID, &g.Name, &g.Type, &bt, &qr, &g.Paired, &g.CreatedAt); err != nil {
		return domain.Garment{}, err
	}
	g.BluetoothID = bt.String
	g.QRCode = qr.String
	return g, nil
}

// InsertGarment stores a garment and returns the stored row.
func (d *DB) InsertGarment(ctx context.Context, g domain.Garment) (domain.Garment, error) {
	row := d.sql.QueryRowContext(ctx,
		"INSERT INTO garments("+garmentColumns+") VALUES($1, $2, $3, $4, $5, $6, $7, $8) RETURNING "+garmentColumns+";",
		g.ID, g.UserID, g.Name, string(g.Type), nullString(g.BluetoothID), nullString(g.QRCode), g.Paired, g.CreatedAt.UTC(),
	)
	return scanGarment(row)
}

// ListGarments returns the user's garments, newest first.
func (d *DB) ListGarments(ctx context.Context, userID string) ([]domain.Garment, error) {
	rows, err := d.sql.QueryContext(ctx,
		"SELECT "+garmentColumns+" FROM garments WHERE user_id=$1 ORDER BY created_at DESC;", userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck

	out := make([]domain.Garment, 0)
	for rows.Next() {
		g, err := scanGarment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// GetGarment returns one garment scoped to a user, or nil.
func (d *DB) GetGarment(ctx context.Context, userID, id string) (*domain.Garment, error) {
	row := d.sql.QueryRowContext(ctx,
		"SELECT "+garmentColumns+" FROM garments WHERE id=$1 AND user_id=$2;", id, userID)
	g, err := scanGarment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &g, nil
}

// DeleteGarment removes a garment, scoped to a user.
func (d *DB) DeleteGarment(ctx context.Context, userID, id string) error {
	_, err := d.sql.ExecContext(ctx, "DELETE FROM garments WHERE id=$1 AND user_id=$2;", id, userID)
	return err
}

// CountGarments returns the number of garments a user owns.
func (d *DB) CountGarments(ctx context.Context, userID string) (int, error) {
	var n int
	err := d.sql.QueryRowContext(ctx, "SELECT COUNT(1) FROM garments WHERE user_id=$1;", userID).Scan(&n)
	return n, err
}
