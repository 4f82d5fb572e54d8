package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"technowear/internal/domain"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DeleteConfirmationTTL bounds how long a delete request waits for the user.
const DeleteConfirmationTTL = 5 * time.Minute

// DeleteConfirmation is a pending garment removal awaiting explicit consent.
type DeleteConfirmation struct {
	Token     string    `json:"token"`
	GarmentID string    `json:"garmentId"`
	Name      string    `json:"name"`
	ExpiresAt time.Time `json:"expiresAt"`

	userID string
}

// GarmentView is a garment with its display labels.
type GarmentView struct {
	domain.Garment
	Method string `json:"method"`
	Status string `json:"status"`
}

func viewGarment(g domain.Garment) GarmentView {
	v := GarmentView{Garment: g, Status: "Disconnected"}
	switch g.Method() {
	case domain.PairBluetooth:
		v.Method = "Bluetooth"
	case domain.PairQR:
		v.Method = "QR Code"
	}
	if g.Paired {
		v.Status = "Connected"
	}
	return v
}

// GarmentService encapsulates the garment list use cases.
type GarmentService struct {
	repo domain.GarmentRepository
	feed domain.ChangeFeed
	log  *zap.SugaredLogger
	now  func() time.Time

	mu      sync.Mutex
	pending map[string]DeleteConfirmation
}

// NewGarmentService creates a GarmentService.
func NewGarmentService(repo domain.GarmentRepository, feed domain.ChangeFeed, log *zap.SugaredLogger) *GarmentService {
	return &GarmentService{
		repo:    repo,
		feed:    feed,
		log:     log,
		now:     time.Now,
		pending: make(map[string]DeleteConfirmation),
	}
}

// List returns the user's garments newest first.
func (s *GarmentService) List(ctx context.Context, userID string) ([]GarmentView, error) {
	items, err := s.repo.ListGarments(ctx, userID)
	if err != nil {
		return nil, fail(MsgLoadGarments, err)
	}
	out := make([]GarmentView, 0, len(items))
	for _, g := range items {
		out = append(out, viewGarment(g))
	}
	return out, nil
}

// Count returns how many garments the user has.
func (s *GarmentService) Count(ctx context.Context, userID string) (int, error) {
	return s.repo.CountGarments(ctx, userID)
}

// Create stores a garment and announces it on the change feed.
func (s *GarmentService) Create(ctx context.Context, g domain.Garment) (domain.Garment, error) {
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	if g.CreatedAt.IsZero() {
		g.CreatedAt = s.now().UTC()
	}
	out, err := s.repo.InsertGarment(ctx, g)
	if err != nil {
		return domain.Garment{}, err
	}
	s.publish(ctx, domain.ChangeInsert, out.UserID, out.ID)
	return out, nil
}

// RequestDelete starts a removal. The row is untouched until ConfirmDelete.
func (s *GarmentService) RequestDelete(ctx context.Context, userID, garmentID string) (DeleteConfirmation, error) {
	g, err := s.repo.GetGarment(ctx, userID, garmentID)
	if err != nil {
		return DeleteConfirmation{}, fail(MsgRemoveGarment, err)
	}
	if g == nil {
		return DeleteConfirmation{}, ErrNotFound
	}
	c := DeleteConfirmation{
		Token:     uuid.NewString(),
		GarmentID: g.ID,
		Name:      g.Name,
		ExpiresAt: s.now().Add(DeleteConfirmationTTL),
		userID:    userID,
	}
	s.mu.Lock()
	s.gcLocked()
	s.pending[c.Token] = c
	s.mu.Unlock()
	return c, nil
}

// ConfirmDelete removes the garment named by a pending confirmation.
func (s *GarmentService) ConfirmDelete(ctx context.Context, userID, token string) error {
	c, err := s.take(userID, token)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteGarment(ctx, userID, c.GarmentID); err != nil {
		return fail(MsgRemoveGarment, err)
	}
	s.publish(ctx, domain.ChangeDelete, userID, c.GarmentID)
	return nil
}

// CancelDelete discards a pending confirmation and leaves the row in place.
func (s *GarmentService) CancelDelete(userID, token string) error {
	_, err := s.take(userID, token)
	if errors.Is(err, ErrConfirmationExpired) {
		return nil
	}
	return err
}

func (s *GarmentService) take(userID, token string) (DeleteConfirmation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.pending[token]
	if !ok || c.userID != userID {
		return DeleteConfirmation{}, ErrConfirmationNotFound
	}
	delete(s.pending, token)
	if !s.now().Before(c.ExpiresAt) {
		return DeleteConfirmation{}, ErrConfirmationExpired
	}
	return c, nil
}

func (s *GarmentService) gcLocked() {
	now := s.now()
	for tok, c := range s.pending {
		if !now.Before(c.ExpiresAt) {
			delete(s.pending, tok)
		}
	}
}

// Watch emits the user's list now and again after every garment change for
// that user, until ctx is done. Bursts of changes coalesce into one refetch,
// which always reads the latest backend state.
func (s *GarmentService) Watch(ctx context.Context, userID string, emit func([]GarmentView) error) error {
	changed := make(chan struct{}, 1)
	unsub, err := s.feed.Subscribe(domain.TableGarments, userID, func(domain.Change) {
		select {
		case changed <- struct{}{}:
		default:
		}
	})
	if err != nil {
		return fmt.Errorf("subscribe garments: %w", err)
	}
	defer unsub()

	for {
		items, err := s.List(ctx, userID)
		if err != nil {
			return err
		}
		if err := emit(items); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return nil
		case <-changed:
		}
	}
}

func (s *GarmentService) publish(ctx context.Context, kind domain.ChangeKind, userID, rowID string) {
	if s.feed == nil {
		return
	}
	if err := s.feed.Publish(ctx, domain.Change{Table: domain.TableGarments, Kind: kind, UserID: userID, RowID: rowID}); err != nil {
		s.log.Warnw("publish garment change failed", "user", userID, "row", rowID, "error", err)
	}
}
