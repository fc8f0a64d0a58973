package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/promstudy/promstudy/internal/client/api"
	"github.com/promstudy/promstudy/internal/client/models"
	"github.com/promstudy/promstudy/internal/client/storage"
	"github.com/promstudy/promstudy/internal/logging"
)

// Keys under which the session is persisted.
const (
	TokenKey   = "auth_token"
	ProfileKey = "user_profile"
)

const (
	minSecretLength = 6
	maxTransitions  = 32
)

// Backend is the part of the REST API the session depends on.
// *api.Client implements it.
type Backend interface {
	Token(ctx context.Context, username, password string) (string, error)
	Me(ctx context.Context, token string) (*models.UserProfile, error)
	Signup(ctx context.Context, req models.SignupRequest) (*models.UserProfile, error)
	PromptCount(ctx context.Context) (int64, error)
	TotalLikes(ctx context.Context) (int64, error)
}

// State is a session state.
type State int

const (
	StateAnonymous State = iota
	StateHydrating
	StateAuthenticated
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateAnonymous:
		return "anonymous"
	case StateHydrating:
		return "hydrating"
	case StateAuthenticated:
		return "authenticated"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Transition is one recorded state change.
type Transition struct {
	From   State
	To     State
	Reason string
	At     time.Time
}

// Snapshot is a consistent read of the session.
type Snapshot struct {
	State   State
	Token   string
	User    *models.UserProfile
	Loading bool
	Stats   models.Stats
}

// Manager is the session. Create it with New; the zero value is not usable.
type Manager struct {
	backend Backend
	store   storage.Store
	log     logging.Logger
	now     func() time.Time

	inflight *semaphore.Weighted

	mu      sync.RWMutex
	state   State
	token   string
	user    *models.UserProfile
	loading bool
	stats   models.Stats
	epoch   uint64
	history []Transition
}

// Option customises a Manager.
type Option func(*Manager)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l logging.Logger) Option {
	return func(m *Manager) { m.log = l }
}

// WithClock replaces time.Now, used for transition timestamps and token expiry.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// New builds an anonymous session. Call Init to restore persisted state.
func New(backend Backend, store storage.Store, opts ...Option) *Manager {
	m := &Manager{
		backend:  backend,
		store:    store,
		log:      logging.Discard(),
		now:      time.Now,
		inflight: semaphore.NewWeighted(1),
		state:    StateAnonymous,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.log = m.log.With("component", "session")
	return m
}

// Snapshot returns the current session. The profile is a copy.
func (m *Manager) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Snapshot{
		State:   m.state,
		Token:   m.token,
		User:    m.user.Clone(),
		Loading: m.loading,
		Stats:   m.stats,
	}
}

func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

func (m *Manager) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token
}

// User returns a copy of the hydrated profile, or nil.
func (m *Manager) User() *models.UserProfile {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.user.Clone()
}

func (m *Manager) Loading() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.loading
}

func (m *Manager) Stats() models.Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.stats
}

// Transitions returns the most recent state changes, oldest first.
func (m *Manager) Transitions() []Transition {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]Transition(nil), m.history...)
}

// Init restores a persisted session while the statistics are fetched
// alongside it. It fails only when persisted storage cannot be read.
func (m *Manager) Init(ctx context.Context) error {
	if !m.inflight.TryAcquire(1) {
		return ErrOperationInProgress
	}
	defer m.inflight.Release(1)

	var g errgroup.Group
	g.Go(func() error {
		m.fetchStats(ctx)
		return nil
	})
	err := m.restore(ctx)
	_ = g.Wait()
	return err
}

// Login exchanges credentials for a token and hydrates its profile. On any
// failure the session is left as it was.
func (m *Manager) Login(ctx context.Context, identifier, secret string) error {
	if !m.inflight.TryAcquire(1) {
		return ErrOperationInProgress
	}
	defer m.inflight.Release(1)

	return m.login(ctx, m.currentEpoch(), identifier, secret)
}

// SignupAndCreateProfile registers an account with its profile and then
// logs in with the same credentials.
func (m *Manager) SignupAndCreateProfile(ctx context.Context, email, secret string, fields models.ProfileFields) error {
	email = strings.TrimSpace(email)
	if err := validateSignup(email, secret, fields); err != nil {
		return err
	}

	if !m.inflight.TryAcquire(1) {
		return ErrOperationInProgress
	}
	defer m.inflight.Release(1)

	epoch := m.setLoading(true)
	req := models.SignupRequest{
		Username:      email,
		Email:         email,
		Password:      secret,
		ProfileFields: fields.Trimmed(),
	}
	if _, err := m.backend.Signup(ctx, req); err != nil {
		m.clearLoading(epoch)
		m.log.Info(ctx, "signup rejected", "email", email, "error", err)
		return newRegistrationError(err)
	}
	m.log.Info(ctx, "account created", "email", email)

	return m.login(ctx, epoch, email, secret)
}

// Logout clears the session in memory and in storage. It cannot fail and
// does nothing when the session is already anonymous.
func (m *Manager) Logout(ctx context.Context) {
	if !m.teardown(ctx, "logout") {
		return
	}
	m.log.Info(ctx, "logged out")
}

func validateSignup(email, secret string, fields models.ProfileFields) error {
	switch {
	case email == "" || secret == "":
		return &RegistrationError{Message: MsgCredentialsRequired}
	case len([]rune(secret)) < minSecretLength:
		return &RegistrationError{Message: MsgPasswordTooShort}
	case !fields.Complete():
		return &RegistrationError{Message: MsgProfileIncomplete}
	}
	return nil
}

// login runs under epoch; a Logout that already bumped it makes login fail
// with ErrSessionReset before anything is sent.
func (m *Manager) login(ctx context.Context, epoch uint64, identifier, secret string) error {
	prev, ok := m.begin(ctx, epoch, "login requested")
	if !ok {
		return ErrSessionReset
	}

	token, err := m.backend.Token(ctx, identifier, secret)
	if err != nil {
		authErr := newAuthenticationError(err)
		m.rollback(ctx, epoch, prev, "credentials rejected")
		m.log.Info(ctx, "login rejected", "identifier", identifier, "error", err)
		return authErr
	}

	profile, err := m.fetchProfile(ctx, token)
	if err != nil {
		m.rollback(ctx, epoch, prev, "profile fetch after login failed")
		m.log.Warn(ctx, "login token could not be hydrated", "error", err)
		return &AuthenticationError{Message: MsgProfileUnavailable, Err: err}
	}

	committed, err := m.commitWith(ctx, epoch, token, profile, "login succeeded", func() error {
		return m.persist(ctx, token, profile)
	})
	if err != nil {
		m.rollback(ctx, epoch, prev, "persisting session failed")
		return fmt.Errorf("persist session: %w", err)
	}
	if !committed {
		return ErrSessionReset
	}
	return nil
}

func (m *Manager) restore(ctx context.Context) error {
	raw, err := m.store.Get(ctx, TokenKey)
	if err != nil {
		return fmt.Errorf("read persisted token: %w", err)
	}
	if len(raw) == 0 {
		if err := m.store.Delete(ctx, ProfileKey); err != nil {
			return fmt.Errorf("drop orphaned profile: %w", err)
		}
		return nil
	}
	token := string(raw)
	cached := m.cachedProfile(ctx)

	epoch := m.beginRestore(ctx, token)

	profile, err := m.fetchProfile(ctx, token)
	if err != nil {
		if errors.Is(err, api.ErrUnavailable) && cached != nil && ctx.Err() == nil {
			m.commit(ctx, epoch, token, cached, "backend unavailable, using cached profile")
			return nil
		}
		m.selfHeal(ctx, epoch, err)
		return nil
	}

	_, _ = m.commitWith(ctx, epoch, token, profile, "persisted token accepted", func() error {
		m.refreshPersistedProfile(ctx, profile)
		return nil
	})
	return nil
}

// refreshPersistedProfile overwrites the cached profile. Failures are only
// logged; the token stays valid either way.
func (m *Manager) refreshPersistedProfile(ctx context.Context, profile *models.UserProfile) {
	data, err := json.Marshal(profile)
	if err == nil {
		err = m.store.Set(ctx, ProfileKey, data)
	}
	if err != nil {
		m.log.Warn(ctx, "refreshing persisted profile failed", "error", err)
	}
}

func (m *Manager) cachedProfile(ctx context.Context) *models.UserProfile {
	data, err := m.store.Get(ctx, ProfileKey)
	if err != nil || len(data) == 0 {
		return nil
	}
	var p models.UserProfile
	if err := json.Unmarshal(data, &p); err != nil {
		m.log.Warn(ctx, "persisted profile is unreadable", "error", err)
		return nil
	}
	return &p
}

func (m *Manager) fetchProfile(ctx context.Context, token string) (*models.UserProfile, error) {
	if exp, ok := tokenExpiry(token); ok && !exp.After(m.now()) {
		return nil, &ProfileFetchError{Err: ErrTokenExpired}
	}
	p, err := m.backend.Me(ctx, token)
	if err != nil {
		return nil, &ProfileFetchError{Err: err}
	}
	return p, nil
}

func (m *Manager) persist(ctx context.Context, token string, profile *models.UserProfile) error {
	data, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}
	return m.store.SetAll(ctx, map[string][]byte{
		TokenKey:   []byte(token),
		ProfileKey: data,
	})
}

func (m *Manager) clearPersisted(ctx context.Context) {
	if err := m.store.DeleteAll(ctx, TokenKey, ProfileKey); err != nil {
		m.log.Error(ctx, "clearing persisted session failed", "error", err)
	}
}

// selfHeal handles a stored token the backend (or its expiry) rejected.
func (m *Manager) selfHeal(ctx context.Context, epoch uint64, cause error) {
	reason := failureReason(cause)

	m.mu.Lock()
	if m.epoch != epoch {
		m.mu.Unlock()
		return
	}
	m.recordLogged(ctx, StateFailed, reason)
	m.loading = false
	m.mu.Unlock()

	m.log.Warn(ctx, "stored session rejected, signing out", "error", cause)
	m.teardown(ctx, "session torn down after "+reason)
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, ErrTokenExpired):
		return "token expired"
	case api.IsStatus(err, http.StatusUnauthorized), api.IsStatus(err, http.StatusForbidden):
		return "token rejected by backend"
	case errors.Is(err, api.ErrUnavailable):
		return "backend unavailable"
	default:
		return "profile fetch failed"
	}
}

// fetchStats reads both counters concurrently. Either failing leaves the
// stats at zero.
func (m *Manager) fetchStats(ctx context.Context) {
	var stats models.Stats

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := m.backend.PromptCount(gctx)
		if err != nil {
			return &StatsFetchError{Endpoint: "prompts/count", Err: err}
		}
		stats.TotalPrompts = n
		return nil
	})
	g.Go(func() error {
		n, err := m.backend.TotalLikes(gctx)
		if err != nil {
			return &StatsFetchError{Endpoint: "prompts/total-likes", Err: err}
		}
		stats.TotalLikes = n
		return nil
	})
	if err := g.Wait(); err != nil {
		m.log.Warn(ctx, "stats unavailable", "error", err)
		return
	}

	m.mu.Lock()
	m.stats = stats
	m.mu.Unlock()
	m.log.Debug(ctx, "stats loaded", "prompts", stats.TotalPrompts, "likes", stats.TotalLikes)
}

// snapshotState is what rollback restores.
type snapshotState struct {
	state State
	token string
	user  *models.UserProfile
}

func (m *Manager) currentEpoch() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.epoch
}

func (m *Manager) begin(ctx context.Context, epoch uint64, reason string) (snapshotState, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.epoch != epoch {
		return snapshotState{}, false
	}
	prev := snapshotState{state: m.state, token: m.token, user: m.user}
	m.recordLogged(ctx, StateHydrating, reason)
	m.loading = true
	return prev, true
}

func (m *Manager) beginRestore(ctx context.Context, token string) uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
	m.user = nil
	m.loading = true
	m.recordLogged(ctx, StateHydrating, "persisted token found")
	return m.epoch
}

func (m *Manager) rollback(ctx context.Context, epoch uint64, prev snapshotState, reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.epoch != epoch {
		return
	}
	m.token = prev.token
	m.user = prev.user
	m.loading = false
	m.recordLogged(ctx, prev.state, reason)
}

func (m *Manager) commit(ctx context.Context, epoch uint64, token string, profile *models.UserProfile, reason string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.epoch != epoch {
		return false
	}
	m.commitLocked(ctx, token, profile, reason)
	return true
}

// commitWith runs write and commits while holding mu, so a Logout either
// lands before (write skipped) or clears storage after the write. A write
// error leaves the session uncommitted.
func (m *Manager) commitWith(ctx context.Context, epoch uint64, token string, profile *models.UserProfile, reason string, write func() error) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.epoch != epoch {
		return false, nil
	}
	if err := write(); err != nil {
		return false, err
	}
	m.commitLocked(ctx, token, profile, reason)
	return true, nil
}

func (m *Manager) commitLocked(ctx context.Context, token string, profile *models.UserProfile, reason string) {
	m.token = token
	m.user = profile.Clone()
	m.loading = false
	m.recordLogged(ctx, StateAuthenticated, reason)
}

// teardown clears memory, invalidates in-flight work and erases storage.
// It reports whether there was anything to tear down.
func (m *Manager) teardown(ctx context.Context, reason string) bool {
	m.mu.Lock()
	if m.state == StateAnonymous {
		m.mu.Unlock()
		return false
	}
	m.epoch++
	m.token = ""
	m.user = nil
	m.loading = false
	m.recordLogged(ctx, StateAnonymous, reason)
	m.mu.Unlock()

	m.clearPersisted(ctx)
	return true
}

func (m *Manager) setLoading(v bool) uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loading = v
	return m.epoch
}

func (m *Manager) clearLoading(epoch uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.epoch == epoch {
		m.loading = false
	}
}

// record appends a transition to to and switches state. Callers hold mu.
func (m *Manager) record(to State, reason string) {
	t := Transition{From: m.state, To: to, Reason: reason, At: m.now()}
	m.state = to
	m.history = append(m.history, t)
	if len(m.history) > maxTransitions {
		m.history = append([]Transition(nil), m.history[len(m.history)-maxTransitions:]...)
	}
}

func (m *Manager) recordLogged(ctx context.Context, to State, reason string) {
	from := m.state
	m.record(to, reason)
	m.log.Info(ctx, "session transition", "from", from, "to", to, "reason", reason)
}
