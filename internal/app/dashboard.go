package app

import (
	"context"
	"sync"

	"technowear/internal/domain"

	"go.uber.org/zap"
)

// Tab is a dashboard section.
type Tab string

// Dashboard tabs.
const (
	TabHealth Tab = "health"
	TabTrends Tab = "trends"
	TabEco    Tab = "eco"
)

// Valid reports whether t is a known tab.
func (t Tab) Valid() bool {
	switch t {
	case TabHealth, TabTrends, TabEco:
		return true
	}
	return false
}

// DashboardSnapshot is the dashboard view model.
type DashboardSnapshot struct {
	User         domain.User `json:"user"`
	Tab          Tab         `json:"tab"`
	GarmentCount int         `json:"garmentCount"`
}

// Dashboard composes the signed-in home: active tab, garment count and the
// pairing dialog. The user is read from the session once at construction.
type Dashboard struct {
	user     domain.User
	garments *GarmentService
	pairing  *PairingService
	log      *zap.SugaredLogger

	mu    sync.Mutex
	tab   Tab
	count int
}

// NewDashboard builds the dashboard for session and loads the garment count.
func NewDashboard(ctx context.Context, session *domain.Session, garments *GarmentService, pairing *PairingService, log *zap.SugaredLogger) (*Dashboard, error) {
	if session == nil {
		return nil, ErrNoSession
	}
	d := &Dashboard{
		user:     session.User,
		garments: garments,
		pairing:  pairing,
		log:      log,
		tab:      TabHealth,
	}
	if err := d.RefreshGarmentCount(ctx); err != nil {
		return nil, err
	}
	return d, nil
}

// SelectTab switches the active tab.
func (d *Dashboard) SelectTab(t Tab) error {
	if !t.Valid() {
		return ErrUnknownTab
	}
	d.mu.Lock()
	d.tab = t
	d.mu.Unlock()
	return nil
}

// RefreshGarmentCount re-counts the user's garments.
func (d *Dashboard) RefreshGarmentCount(ctx context.Context) error {
	n, err := d.garments.Count(ctx, d.user.ID)
	if err != nil {
		return err
	}
	d.mu.Lock()
	d.count = n
	d.mu.Unlock()
	return nil
}

// OpenPairing opens the add-garment dialog. Closing it refreshes the count.
func (d *Dashboard) OpenPairing() *PairingWizard {
	return d.pairing.Open(d.user.ID, func() {
		if err := d.RefreshGarmentCount(context.Background()); err != nil {
			d.log.Warnw("refresh garment count failed", "user", d.user.ID, "error", err)
		}
	})
}

// Snapshot returns the current view model.
func (d *Dashboard) Snapshot() DashboardSnapshot {
	d.mu.Lock()
	defer d.mu.Unlock()
	return DashboardSnapshot{User: d.user, Tab: d.tab, GarmentCount: d.count}
}
