package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/flowtask/flowtask/internal/core/domain"
	"github.com/flowtask/flowtask/internal/core/ports"
	"github.com/flowtask/flowtask/internal/metrics"
)

// SessionService owns the process-wide authentication state. Construct one
// per process and pass it to consumers; Close releases the store.
//
// The mutex is never held across gateway calls: a 401 re-enters the service
// through Invalidate.
type SessionService struct {
	auth     ports.AuthGateway
	store    ports.SessionStore
	redirect ports.LoginRedirector
	log      zerolog.Logger
	now      func() time.Time

	initOnce sync.Once

	mu        sync.Mutex
	session   domain.Session
	gen       uint64
	listeners []func(domain.Session)
}

var _ ports.SessionService = (*SessionService)(nil)

// NewSessionService returns a service in the Initializing state. redirect
// may be nil.
func NewSessionService(auth ports.AuthGateway, store ports.SessionStore, redirect ports.LoginRedirector, log zerolog.Logger) *SessionService {
	return &SessionService{
		auth:     auth,
		store:    store,
		redirect: redirect,
		log:      log.With().Str("component", "session").Logger(),
		now:      time.Now,
		session:  domain.NewInitializingSession(),
	}
}

// Subscribe registers fn to receive a snapshot after every transition.
func (s *SessionService) Subscribe(fn func(domain.Session)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Current returns a copy of the session.
func (s *SessionService) Current() domain.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session.Clone()
}

// Initialize resolves the Initializing state. Only the first call does any
// work; later calls return the current session.
func (s *SessionService) Initialize(ctx context.Context) (domain.Session, error) {
	s.initOnce.Do(func() { s.initialize(ctx) })
	return s.Current(), nil
}

func (s *SessionService) initialize(ctx context.Context) {
	gen := s.begin()

	token, err := s.store.LoadToken(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("could not read stored session, starting signed out")
		token = ""
	}

	if token == "" {
		s.commit(ctx, gen, "initialize", nil, domain.AnonymousSession())
		return
	}

	if s.tokenExpired(token) {
		s.log.Info().Msg("stored token has expired")
		s.commit(ctx, gen, "initialize", s.store.Clear, domain.AnonymousSession())
		return
	}

	user, err := s.auth.CurrentUser(ports.WithBearerToken(ctx, token))
	if err != nil {
		s.log.Info().Err(err).Msg("stored token rejected, clearing session")
		s.commit(ctx, gen, "initialize", s.store.Clear, domain.AnonymousSession())
		return
	}

	// The token is already stored; failing to refresh the stored user copy
	// does not invalidate the session.
	refresh := func(ctx context.Context) error {
		if err := s.store.Save(ctx, token, *user); err != nil {
			s.log.Warn().Err(err).Msg("could not refresh stored user")
		}
		return nil
	}
	s.commit(ctx, gen, "initialize", refresh, domain.AuthenticatedSession(*user, token))
}

// Login authenticates, fetches the current user with the new token and only
// then persists both. On failure nothing is persisted and the state is left
// as it was.
func (s *SessionService) Login(ctx context.Context, email, password string) error {
	gen := s.begin()

	token, err := s.auth.Login(ctx, domain.Credentials{Email: email, Password: password})
	if err != nil {
		return err
	}

	user, err := s.auth.CurrentUser(ports.WithBearerToken(ctx, token.AccessToken))
	if err != nil {
		return err
	}

	persist := func(ctx context.Context) error { return s.store.Save(ctx, token.AccessToken, *user) }
	return s.commit(ctx, gen, "login", persist, domain.AuthenticatedSession(*user, token.AccessToken))
}

// Register creates the account and signs in with the same credentials.
func (s *SessionService) Register(ctx context.Context, email, name, password string) error {
	if _, err := s.auth.Register(ctx, domain.Registration{Email: email, Name: name, Password: password}); err != nil {
		return err
	}
	return s.Login(ctx, email, password)
}

// Logout clears the stored session. The state is Anonymous afterwards even
// when clearing the store fails.
func (s *SessionService) Logout(ctx context.Context) error {
	_, err := s.signOut(ctx, "logout")
	return err
}

// Invalidate is the authorization-failure path, subscribed to the gateway's
// unauthorized event. It signs out like Logout, then sends the user back to
// the login surface unless they were already signed out.
func (s *SessionService) Invalidate(ctx context.Context) {
	prev, err := s.signOut(ctx, "invalidate")
	if err != nil {
		s.log.Warn().Err(err).Msg("could not clear stored session")
	}
	if prev != domain.SessionAnonymous && s.redirect != nil {
		s.redirect.RedirectToLogin(ctx)
	}
}

// Close releases the session store.
func (s *SessionService) Close() error {
	return s.store.Close()
}

func (s *SessionService) signOut(ctx context.Context, reason string) (domain.SessionState, error) {
	s.mu.Lock()
	prev := s.session.State()
	s.gen++
	err := s.store.Clear(ctx)
	s.session = domain.AnonymousSession()
	snapshot, listeners := s.snapshotLocked()
	s.mu.Unlock()

	s.announce(snapshot, listeners, reason)
	if err != nil {
		return prev, fmt.Errorf("clear session: %w", err)
	}
	return prev, nil
}

// begin starts a new generation. Results carrying an older generation are
// discarded by commit.
func (s *SessionService) begin() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	return s.gen
}

// commit applies next if gen is still current. persist runs under the lock
// so the store and the in-memory state never disagree; it must not call back
// into the service.
func (s *SessionService) commit(ctx context.Context, gen uint64, reason string, persist func(context.Context) error, next domain.Session) error {
	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		s.log.Debug().Str("reason", reason).Msg("discarding superseded session result")
		return domain.ErrSessionSuperseded
	}

	var persistErr error
	if persist != nil {
		persistErr = persist(ctx)
	}
	if persistErr != nil && next.IsAuthenticated {
		// Never claim a session that was not stored.
		s.mu.Unlock()
		return fmt.Errorf("persist session: %w", persistErr)
	}

	s.session = next
	snapshot, listeners := s.snapshotLocked()
	s.mu.Unlock()

	s.announce(snapshot, listeners, reason)
	return persistErr
}

func (s *SessionService) snapshotLocked() (domain.Session, []func(domain.Session)) {
	listeners := make([]func(domain.Session), len(s.listeners))
	copy(listeners, s.listeners)
	return s.session.Clone(), listeners
}

func (s *SessionService) announce(snapshot domain.Session, listeners []func(domain.Session), reason string) {
	state := snapshot.State()
	metrics.SessionTransitionsTotal.WithLabelValues(string(state), reason).Inc()
	s.log.Info().Str("state", string(state)).Str("reason", reason).Msg("session transition")
	for _, fn := range listeners {
		fn(snapshot)
	}
}

// tokenExpired reports whether token is a JWT whose exp claim has passed.
// Opaque tokens are never considered expired here; the backend decides.
func (s *SessionService) tokenExpired(token string) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return exp.Before(s.now())
}
