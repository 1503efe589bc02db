package domain

// SessionState is the lifecycle state of the process-wide session.
type SessionState string

const (
	SessionInitializing  SessionState = "initializing"
	SessionAnonymous     SessionState = "anonymous"
	SessionAuthenticated SessionState = "authenticated"
)

// Session is a snapshot of the authentication state.
// IsAuthenticated is true exactly when both User and Token are present.
type Session struct {
	User            *User
	Token           string
	IsAuthenticated bool
	IsLoading       bool
}

// NewInitializingSession is the state a process starts in.
func NewInitializingSession() Session {
	return Session{IsLoading: true}
}

// AnonymousSession is the resolved signed-out state.
func AnonymousSession() Session {
	return Session{}
}

// AuthenticatedSession builds the signed-in state for user and token.
func AuthenticatedSession(user User, token string) Session {
	return Session{
		User:            &user,
		Token:           token,
		IsAuthenticated: token != "",
	}
}

// State derives the state machine position from the flags.
func (s Session) State() SessionState {
	switch {
	case s.IsLoading:
		return SessionInitializing
	case s.IsAuthenticated:
		return SessionAuthenticated
	default:
		return SessionAnonymous
	}
}

// UserID returns the signed-in user's id, or 0 when anonymous.
func (s Session) UserID() int64 {
	if s.User == nil {
		return 0
	}
	return s.User.ID
}

// Clone returns a deep copy so callers cannot mutate shared state.
func (s Session) Clone() Session {
	if s.User != nil {
		u := *s.User
		s.User = &u
	}
	return s
}
