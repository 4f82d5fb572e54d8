package domain

import (
	"context"
	"time"
)

// GarmentType enumerates supported wearables.
type GarmentType string

// Garment types.
const (
	GarmentShirt  GarmentType = "shirt"
	GarmentShorts GarmentType = "shorts"
	GarmentJacket GarmentType = "jacket"
	GarmentPants  GarmentType = "pants"
	GarmentShoes  GarmentType = "shoes"
	GarmentOther  GarmentType = "other"
)

// PairingMethod is how a garment was connected.
type PairingMethod string

// Pairing methods.
const (
	PairBluetooth PairingMethod = "bluetooth"
	PairQR        PairingMethod = "qr"
)

// Garment is a wearable device paired to a user account. At most one of
// BluetoothID and QRCode is set.
type Garment struct {
	ID          string      `json:"id"`
	UserID      string      `json:"userId"`
	Name        string      `json:"name"`
	Type        GarmentType `json:"type"`
	BluetoothID string      `json:"bluetoothId,omitempty"`
	QRCode      string      `json:"qrCode,omitempty"`
	Paired      bool        `json:"isPaired"`
	CreatedAt   time.Time   `json:"createdAt"`
}

// Method returns the pairing method implied by the identifier that is set.
func (g Garment) Method() PairingMethod {
	if g.BluetoothID != "" {
		return PairBluetooth
	}
	if g.QRCode != "" {
		return PairQR
	}
	return ""
}

// GarmentRepository is the port for garment persistence.
type GarmentRepository interface {
	InsertGarment(ctx context.Context, g Garment) (Garment, error)
	ListGarments(ctx context.Context, userID string) ([]Garment, error)
	GetGarment(ctx context.Context, userID, id string) (*Garment, error)
	DeleteGarment(ctx context.Context, userID, id string) error
	CountGarments(ctx context.Context, userID string) (int, error)
}
