package app

import (
	"context"
	"errors"
	"sort"
	"sync"

	"technowear/internal/domain"

	"go.uber.org/zap"
)

func nopLog() *zap.SugaredLogger { return zap.NewNop().Sugar() }

type mockAuthProvider struct {
	signUpFn             func(ctx context.Context, email, password string, data map[string]any) (*domain.Session, error)
	signInWithPasswordFn func(ctx context.Context, email, password string) (*domain.Session, error)
	signInWithOTPFn      func(ctx context.Context, email string, opts domain.OTPOptions) error
	verifyOTPFn          func(ctx context.Context, email, token, otpType string) (*domain.Session, error)
	resetPasswordFn      func(ctx context.Context, email, redirectTo string) error
	signInWithIDTokenFn  func(ctx context.Context, provider domain.OAuthProviderName, idToken string) (*domain.Session, error)
	signOutFn            func(ctx context.Context, accessToken string) error

	calls int
}

func (m *mockAuthProvider) SignUp(ctx context.Context, email, password string, data map[string]any) (*domain.Session, error) {
	m.calls++
	if m.signUpFn != nil {
		return m.signUpFn(ctx, email, password, data)
	}
	return nil, errors.New("not implemented")
}

func (m *mockAuthProvider) SignInWithPassword(ctx context.Context, email, password string) (*domain.Session, error) {
	m.calls++
	if m.signInWithPasswordFn != nil {
		return m.signInWithPasswordFn(ctx, email, password)
	}
	return nil, errors.New("not implemented")
}

func (m *mockAuthProvider) SignInWithOTP(ctx context.Context, email string, opts domain.OTPOptions) error {
	m.calls++
	if m.signInWithOTPFn != nil {
		return m.signInWithOTPFn(ctx, email, opts)
	}
	return nil
}

func (m *mockAuthProvider) VerifyOTP(ctx context.Context, email, token, otpType string) (*domain.Session, error) {
	m.calls++
	if m.verifyOTPFn != nil {
		return m.verifyOTPFn(ctx, email, token, otpType)
	}
	return nil, errors.New("not implemented")
}

func (m *mockAuthProvider) ResetPasswordForEmail(ctx context.Context, email, redirectTo string) error {
	m.calls++
	if m.resetPasswordFn != nil {
		return m.resetPasswordFn(ctx, email, redirectTo)
	}
	return nil
}

func (m *mockAuthProvider) SignInWithIDToken(ctx context.Context, provider domain.OAuthProviderName, idToken string) (*domain.Session, error) {
	m.calls++
	if m.signInWithIDTokenFn != nil {
		return m.signInWithIDTokenFn(ctx, provider, idToken)
	}
	return nil, errors.New("not implemented")
}

func (m *mockAuthProvider) SignOut(ctx context.Context, accessToken string) error {
	m.calls++
	if m.signOutFn != nil {
		return m.signOutFn(ctx, accessToken)
	}
	return nil
}

type mockOAuth struct {
	authCodeURLFn func(provider domain.OAuthProviderName, state string) (string, error)
	exchangeFn    func(ctx context.Context, provider domain.OAuthProviderName, code string) (string, error)
}

func (m *mockOAuth) AuthCodeURL(provider domain.OAuthProviderName, state string) (string, error) {
	if m.authCodeURLFn != nil {
		return m.authCodeURLFn(provider, state)
	}
	return "https://idp.example/authorize?state=" + state, nil
}

func (m *mockOAuth) Exchange(ctx context.Context, provider domain.OAuthProviderName, code string) (string, error) {
	if m.exchangeFn != nil {
		return m.exchangeFn(ctx, provider, code)
	}
	return "id-token", nil
}

// fakeSessions is an in-process SessionStore that notifies synchronously.
type fakeSessions struct {
	mu       sync.Mutex
	sessions map[string]*domain.Session
	watchers map[string]map[int]func(*domain.Session)
	next     int
	loadErr  error
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{
		sessions: make(map[string]*domain.Session),
		watchers: make(map[string]map[int]func(*domain.Session)),
	}
}

func (f *fakeSessions) Load(_ context.Context, sid string) (*domain.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	return f.sessions[sid], nil
}

func (f *fakeSessions) Save(_ context.Context, sid string, s *domain.Session) error {
	f.mu.Lock()
	f.sessions[sid] = s
	fns := f.listeners(sid)
	f.mu.Unlock()
	for _, fn := range fns {
		fn(s)
	}
	return nil
}

func (f *fakeSessions) Delete(_ context.Context, sid string) error {
	f.mu.Lock()
	delete(f.sessions, sid)
	fns := f.listeners(sid)
	f.mu.Unlock()
	for _, fn := range fns {
		fn(nil)
	}
	return nil
}

func (f *fakeSessions) Watch(sid string, fn func(*domain.Session)) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.watchers[sid] == nil {
		f.watchers[sid] = make(map[int]func(*domain.Session))
	}
	id := f.next
	f.next++
	f.watchers[sid][id] = fn
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.watchers[sid], id)
	}
}

func (f *fakeSessions) listeners(sid string) []func(*domain.Session) {
	out := make([]func(*domain.Session), 0, len(f.watchers[sid]))
	for _, fn := range f.watchers[sid] {
		out = append(out, fn)
	}
	return out
}

func (f *fakeSessions) watcherCount(sid string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.watchers[sid])
}

// fakeFeed is an in-process ChangeFeed.
type fakeFeed struct {
	mu        sync.Mutex
	subs      map[int]func(domain.Change)
	filters   map[int][2]string
	next      int
	published []domain.Change
	failWith  error
}

func newFakeFeed() *fakeFeed {
	return &fakeFeed{subs: make(map[int]func(domain.Change)), filters: make(map[int][2]string)}
}

func (f *fakeFeed) Publish(_ context.Context, c domain.Change) error {
	if f.failWith != nil {
		return f.failWith
	}
	f.mu.Lock()
	f.published = append(f.published, c)
	var fns []func(domain.Change)
	for id, fn := range f.subs {
		if flt := f.filters[id]; flt[0] == c.Table && flt[1] == c.UserID {
			fns = append(fns, fn)
		}
	}
	f.mu.Unlock()
	for _, fn := range fns {
		fn(c)
	}
	return nil
}

func (f *fakeFeed) Subscribe(table, userID string, fn func(domain.Change)) (func(), error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.next
	f.next++
	f.subs[id] = fn
	f.filters[id] = [2]string{table, userID}
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.subs, id)
		delete(f.filters, id)
	}, nil
}

// fakeRepo implements the row repositories over maps.
type fakeRepo struct {
	mu       sync.Mutex
	garments map[string]domain.Garment
	goals    map[string]domain.FitnessGoal
	eco      map[string]domain.EcoImpactRecord
	samples  []domain.HealthMetricSample

	insertGarmentFn func(g domain.Garment) error
	failGarments    error
	failGoalInsert  error
	ecoInserts      int
	sampleInserts   int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		garments: make(map[string]domain.Garment),
		goals:    make(map[string]domain.FitnessGoal),
		eco:      make(map[string]domain.EcoImpactRecord),
	}
}

func (r *fakeRepo) InsertGarment(_ context.Context, g domain.Garment) (domain.Garment, error) {
	if r.insertGarmentFn != nil {
		if err := r.insertGarmentFn(g); err != nil {
			return domain.Garment{}, err
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.garments[g.ID] = g
	return g, nil
}

func (r *fakeRepo) ListGarments(_ context.Context, userID string) ([]domain.Garment, error) {
	if r.failGarments != nil {
		return nil, r.failGarments
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Garment
	for _, g := range r.garments {
		if g.UserID == userID {
			out = append(out, g)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *fakeRepo) GetGarment(_ context.Context, userID, id string) (*domain.Garment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.garments[id]
	if !ok || g.UserID != userID {
		return nil, nil
	}
	return &g, nil
}

func (r *fakeRepo) DeleteGarment(_ context.Context, userID, id string) error {
	if r.failGarments != nil {
		return r.failGarments
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if g, ok := r.garments[id]; ok && g.UserID == userID {
		delete(r.garments, id)
	}
	return nil
}

func (r *fakeRepo) CountGarments(ctx context.Context, userID string) (int, error) {
	items, err := r.ListGarments(ctx, userID)
	return len(items), err
}

func (r *fakeRepo) InsertGoal(_ context.Context, g domain.FitnessGoal) (domain.FitnessGoal, error) {
	if r.failGoalInsert != nil {
		return domain.FitnessGoal{}, r.failGoalInsert
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.goals[g.ID] = g
	return g, nil
}

func (r *fakeRepo) ListGoals(_ context.Context, userID string) ([]domain.FitnessGoal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.FitnessGoal
	for _, g := range r.goals {
		if g.UserID == userID {
			out = append(out, g)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *fakeRepo) SetGoalCompleted(_ context.Context, userID, id string, completed bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.goals[id]
	if !ok || g.UserID != userID {
		return nil
	}
	g.Completed = completed
	r.goals[id] = g
	return nil
}

func (r *fakeRepo) GetGoal(_ context.Context, userID, id string) (*domain.FitnessGoal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.goals[id]
	if !ok || g.UserID != userID {
		return nil, nil
	}
	return &g, nil
}

func (r *fakeRepo) GetEcoImpact(_ context.Context, userID, monthKey string) (*domain.EcoImpactRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.eco[userID+"/"+monthKey]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (r *fakeRepo) InsertEcoImpact(_ context.Context, rec domain.EcoImpactRecord) (domain.EcoImpactRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ecoInserts++
	r.eco[rec.UserID+"/"+rec.MonthKey] = rec
	return rec, nil
}

func (r *fakeRepo) LatestSample(_ context.Context, userID string) (*domain.HealthMetricSample, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var latest *domain.HealthMetricSample
	for i := range r.samples {
		s := r.samples[i]
		if s.UserID != userID {
			continue
		}
		if latest == nil || s.RecordedAt.After(latest.RecordedAt) {
			latest = &s
		}
	}
	return latest, nil
}

func (r *fakeRepo) InsertSample(_ context.Context, s domain.HealthMetricSample) (domain.HealthMetricSample, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sampleInserts++
	r.samples = append(r.samples, s)
	return s, nil
}
