// Package backend is the in-memory state of the development server: accounts
// with bcrypt password hashes, HS256 bearer tokens and the task table.
package backend

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/flowtask/flowtask/internal/core/domain"
	"github.com/flowtask/flowtask/internal/core/ports"
	"github.com/flowtask/flowtask/internal/metrics"
)

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("incorrect email or password")
	ErrInvalidToken       = errors.New("invalid token")
	ErrUserNotFound       = errors.New("user not found")
	ErrTaskNotFound       = errors.New("task not found")
	ErrUnknownAssignee    = errors.New("assigned user does not exist")
)

type account struct {
	user         domain.User
	passwordHash []byte
}

// Backend is safe for concurrent use.
type Backend struct {
	jwtSecret []byte
	tokenTTL  time.Duration
	now       func() time.Time

	mu         sync.RWMutex
	accounts   map[int64]*account
	byEmail    map[string]int64
	tasks      map[int64]domain.Task
	nextUserID int64
	nextTaskID int64
}

func New(jwtSecret string, tokenTTL time.Duration) *Backend {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &Backend{
		jwtSecret: []byte(jwtSecret),
		tokenTTL:  tokenTTL,
		now:       time.Now,
		accounts:  make(map[int64]*account),
		byEmail:   make(map[string]int64),
		tasks:     make(map[int64]domain.Task),
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register stores a new account.
func (b *Backend) Register(_ context.Context, reg domain.Registration) (*domain.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(reg.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	email := normalizeEmail(reg.Email)
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, exists := b.byEmail[email]; exists {
		return nil, ErrEmailTaken
	}

	b.nextUserID++
	user := domain.User{
		ID:        b.nextUserID,
		Email:     email,
		Name:      strings.TrimSpace(reg.Name),
		CreatedAt: b.now().UTC(),
	}
	b.accounts[user.ID] = &account{user: user, passwordHash: hash}
	b.byEmail[email] = user.ID
	return &user, nil
}

// Login checks the credentials and issues a bearer token.
func (b *Backend) Login(_ context.Context, creds domain.Credentials) (domain.AuthToken, error) {
	b.mu.RLock()
	id, ok := b.byEmail[normalizeEmail(creds.Email)]
	var acc account
	if ok {
		acc = *b.accounts[id]
	}
	b.mu.RUnlock()

	if !ok || bcrypt.CompareHashAndPassword(acc.passwordHash, []byte(creds.Password)) != nil {
		return domain.AuthToken{}, ErrInvalidCredentials
	}

	token, err := b.issueToken(acc.user)
	if err != nil {
		return domain.AuthToken{}, err
	}
	return domain.AuthToken{AccessToken: token, TokenType: "bearer"}, nil
}

func (b *Backend) issueToken(user domain.User) (string, error) {
	now := b.now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(user.ID, 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(b.tokenTTL)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(b.jwtSecret)
}

// Authenticate resolves a bearer token to the user id it was issued for.
func (b *Backend) Authenticate(token string) (int64, error) {
	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return b.jwtSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(b.now))
	if err != nil || !parsed.Valid {
		return 0, ErrInvalidToken
	}

	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return 0, ErrInvalidToken
	}
	b.mu.RLock()
	_, exists := b.accounts[id]
	b.mu.RUnlock()
	if !exists {
		return 0, ErrInvalidToken
	}
	return id, nil
}

func (b *Backend) User(_ context.Context, id int64) (*domain.User, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	acc, ok := b.accounts[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	u := acc.user
	return &u, nil
}

// Users lists accounts ordered by id.
func (b *Backend) Users(context.Context) []domain.User {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]domain.User, 0, len(b.accounts))
	for _, acc := range b.accounts {
		out = append(out, acc.user)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Tasks lists tasks ordered by id, narrowed by filter.
func (b *Backend) Tasks(_ context.Context, filter ports.TaskFilter) []domain.Task {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]domain.Task, 0, len(b.tasks))
	for _, t := range b.tasks {
		if filter.Status != "" && t.Status != filter.Status {
			continue
		}
		if filter.AssignedTo != 0 && !t.IsAssignedTo(filter.AssignedTo) {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (b *Backend) Task(_ context.Context, id int64) (*domain.Task, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	t, ok := b.tasks[id]
	if !ok {
		return nil, ErrTaskNotFound
	}
	return &t, nil
}

// CreateTask stores draft. createdBy wins over the draft's creator.
func (b *Backend) CreateTask(_ context.Context, draft domain.TaskDraft, createdBy int64) (*domain.Task, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.checkAssigneeLocked(draft.AssignedUserID); err != nil {
		return nil, err
	}

	b.nextTaskID++
	t := applyDraft(domain.Task{ID: b.nextTaskID, CreatedAt: b.now().UTC()}, draft)
	t.CreatedByID = &createdBy
	b.tasks[t.ID] = t
	metrics.DevTasksTotal.Set(float64(len(b.tasks)))
	return &t, nil
}

// UpdateTask replaces the editable fields of task id. The creator never
// changes.
func (b *Backend) UpdateTask(_ context.Context, id int64, draft domain.TaskDraft) (*domain.Task, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	current, ok := b.tasks[id]
	if !ok {
		return nil, ErrTaskNotFound
	}
	if err := b.checkAssigneeLocked(draft.AssignedUserID); err != nil {
		return nil, err
	}

	t := applyDraft(current, draft)
	b.tasks[id] = t
	return &t, nil
}

func (b *Backend) DeleteTask(_ context.Context, id int64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.tasks[id]; !ok {
		return ErrTaskNotFound
	}
	delete(b.tasks, id)
	metrics.DevTasksTotal.Set(float64(len(b.tasks)))
	return nil
}

func (b *Backend) checkAssigneeLocked(id *int64) error {
	if id == nil {
		return nil
	}
	if _, ok := b.accounts[*id]; !ok {
		return ErrUnknownAssignee
	}
	return nil
}

func applyDraft(t domain.Task, d domain.TaskDraft) domain.Task {
	t.Title = strings.TrimSpace(d.Title)
	t.Description = d.Description
	t.Status = d.Status
	t.Deadline = d.Deadline
	t.AssignedUserID = d.AssignedUserID
	t.AttachmentURL = d.AttachmentURL
	return t
}
