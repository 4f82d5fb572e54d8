package app

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"technowear/internal/domain"
	"technowear/internal/validate"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SimulatedPairingDelay is how long the simulated handshake takes.
const SimulatedPairingDelay = 2 * time.Second

// PairingStep is the wizard position. Steps only move forward; Close resets.
type PairingStep string

// Pairing steps.
const (
	StepChooseMethod PairingStep = "choose_method"
	StepPairing      PairingStep = "pairing"
	StepDetails      PairingStep = "details"
)

// DevicePairer connects to a garment and returns its identifier.
type DevicePairer interface {
	Pair(ctx context.Context, method domain.PairingMethod) (identifier string, err error)
}

// SimulatedPairer waits Delay and fabricates an identifier from the clock.
// No Bluetooth or QR protocol is spoken.
type SimulatedPairer struct {
	Delay time.Duration
	Now   func() time.Time
	After func(time.Duration) <-chan time.Time
}

// NewSimulatedPairer returns a pairer with the standard delay and real clock.
func NewSimulatedPairer() *SimulatedPairer {
	return &SimulatedPairer{Delay: SimulatedPairingDelay, Now: time.Now, After: time.After}
}

// Pair implements DevicePairer.
func (p *SimulatedPairer) Pair(ctx context.Context, method domain.PairingMethod) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-p.After(p.Delay):
	}
	ts := strconv.FormatInt(p.Now().UnixMilli(), 10)
	switch method {
	case domain.PairBluetooth:
		return "BT-" + ts, nil
	case domain.PairQR:
		return "QR-" + ts, nil
	default:
		return "", fmt.Errorf("unsupported pairing method %q", method)
	}
}

// WizardState is the pairing dialog view model.
type WizardState struct {
	ID     string               `json:"id"`
	Step   PairingStep          `json:"step"`
	Method domain.PairingMethod `json:"method,omitempty"`
	Error  string               `json:"error,omitempty"`
}

// PairingWizard is the add-garment dialog for one user.
type PairingWizard struct {
	id       string
	userID   string
	pairer   DevicePairer
	garments *GarmentService
	onClose  func()

	mu         sync.Mutex
	step       PairingStep
	method     domain.PairingMethod
	identifier string
	lastErr    string
	cancel     context.CancelFunc
	done       chan struct{}
}

func newPairingWizard(userID string, pairer DevicePairer, garments *GarmentService, onClose func()) *PairingWizard {
	return &PairingWizard{
		id:       uuid.NewString(),
		userID:   userID,
		pairer:   pairer,
		garments: garments,
		onClose:  onClose,
		step:     StepChooseMethod,
	}
}

// ID returns the wizard id.
func (w *PairingWizard) ID() string { return w.id }

// State returns a snapshot of the wizard.
func (w *PairingWizard) State() WizardState {
	w.mu.Lock()
	defer w.mu.Unlock()
	return WizardState{ID: w.id, Step: w.step, Method: w.method, Error: w.lastErr}
}

// ChooseMethod picks the pairing method and starts pairing in the background.
func (w *PairingWizard) ChooseMethod(method domain.PairingMethod) error {
	if method != domain.PairBluetooth && method != domain.PairQR {
		return &validate.Error{Field: "method", Tag: "oneof", Message: "Please choose Bluetooth or QR code"}
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.step != StepChooseMethod {
		return ErrInvalidStep
	}
	ctx, cancel := context.WithCancel(context.Background())
	w.step = StepPairing
	w.method = method
	w.lastErr = ""
	w.cancel = cancel
	w.done = make(chan struct{})
	go w.pair(ctx, method, w.done)
	return nil
}

func (w *PairingWizard) pair(ctx context.Context, method domain.PairingMethod, done chan struct{}) {
	defer close(done)
	id, err := w.pairer.Pair(ctx, method)

	w.mu.Lock()
	defer w.mu.Unlock()
	if ctx.Err() != nil || w.done != done {
		return
	}
	w.cancel()
	w.cancel = nil
	if err != nil {
		w.step = StepChooseMethod
		w.method = ""
		w.lastErr = "Pairing failed. Please try again."
		return
	}
	w.identifier = id
	w.step = StepDetails
}

// Wait blocks until the running pairing attempt finishes or ctx is done.
func (w *PairingWizard) Wait(ctx context.Context) error {
	w.mu.Lock()
	done := w.done
	w.mu.Unlock()
	if done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Complete stores the paired garment with the user's details. On success the
// wizard closes and resets; on backend failure it stays open for retry.
func (w *PairingWizard) Complete(ctx context.Context, name, garmentType string) (domain.Garment, error) {
	w.mu.Lock()
	if w.step != StepDetails {
		w.mu.Unlock()
		return domain.Garment{}, ErrInvalidStep
	}
	form := GarmentDetailsForm{Name: strings.TrimSpace(name), Type: strings.TrimSpace(garmentType)}
	if err := validate.First(&form); err != nil {
		w.mu.Unlock()
		return domain.Garment{}, err
	}
	g := domain.Garment{
		UserID: w.userID,
		Name:   form.Name,
		Type:   domain.GarmentType(form.Type),
		Paired: true,
	}
	switch w.method {
	case domain.PairBluetooth:
		g.BluetoothID = w.identifier
	case domain.PairQR:
		g.QRCode = w.identifier
	}
	created, err := w.garments.Create(ctx, g)
	if err != nil {
		w.lastErr = "Failed to add garment"
		w.mu.Unlock()
		return domain.Garment{}, fmt.Errorf("%w: %w", ErrAddGarment, err)
	}
	w.resetLocked()
	w.mu.Unlock()

	w.closed()
	return created, nil
}

// Close dismisses the dialog, cancelling a running pairing attempt.
func (w *PairingWizard) Close() {
	w.mu.Lock()
	w.resetLocked()
	w.mu.Unlock()
	w.closed()
}

func (w *PairingWizard) resetLocked() {
	if w.cancel != nil {
		w.cancel()
		w.cancel = nil
	}
	w.step = StepChooseMethod
	w.method = ""
	w.identifier = ""
	w.lastErr = ""
	w.done = nil
}

func (w *PairingWizard) closed() {
	if w.onClose != nil {
		w.onClose()
	}
}

// PairingService keeps at most one open pairing dialog per user.
type PairingService struct {
	pairer   DevicePairer
	garments *GarmentService
	log      *zap.SugaredLogger

	mu      sync.Mutex
	wizards map[string]*PairingWizard // by user id
}

// NewPairingService creates a PairingService.
func NewPairingService(pairer DevicePairer, garments *GarmentService, log *zap.SugaredLogger) *PairingService {
	return &PairingService{
		pairer:   pairer,
		garments: garments,
		log:      log,
		wizards:  make(map[string]*PairingWizard),
	}
}

// Open creates a wizard for userID, closing the one the user already had
// open. onClose runs whenever the dialog closes, after the wizard has been
// forgotten.
func (s *PairingService) Open(userID string, onClose func()) *PairingWizard {
	var w *PairingWizard
	w = newPairingWizard(userID, s.pairer, s.garments, func() {
		s.forget(userID, w.id)
		if onClose != nil {
			onClose()
		}
	})
	s.mu.Lock()
	prev := s.wizards[userID]
	s.wizards[userID] = w
	s.mu.Unlock()

	if prev != nil {
		s.log.Debugw("pairing dialog replaced", "user", userID, "wizard", prev.id)
		prev.Close()
	}
	s.log.Debugw("pairing dialog opened", "user", userID, "wizard", w.id)
	return w
}

// Get returns the user's wizard with the given id.
func (s *PairingService) Get(userID, id string) (*PairingWizard, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.wizards[userID]
	if !ok || w.id != id {
		return nil, ErrNotFound
	}
	return w, nil
}

// OpenCount returns the number of dialogs currently open.
func (s *PairingService) OpenCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.wizards)
}

func (s *PairingService) forget(userID, id string) {
	s.mu.Lock()
	if w, ok := s.wizards[userID]; ok && w.id == id {
		delete(s.wizards, userID)
	}
	s.mu.Unlock()
}

// IsAddGarmentFailure reports whether err is a backend failure from Complete.
func IsAddGarmentFailure(err error) bool { return errors.Is(err, ErrAddGarment) }
