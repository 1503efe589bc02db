package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/flowtask/flowtask/internal/core/domain"
	"github.com/flowtask/flowtask/internal/core/ports"
)

const (
	sessionCollection = "client_sessions"
	defaultTimeout    = 10 * time.Second
)

// Config selects the server and database holding the session collection.
type Config struct {
	URI      string
	Database string
	Timeout  time.Duration
}

// SessionStore keeps one document per client instance.
type SessionStore struct {
	coll     *mongo.Collection
	instance string
}

var _ ports.SessionStore = (*SessionStore)(nil)

// Open connects to cfg.URI and pings the server before handing out the
// store. The store owns the client.
func Open(ctx context.Context, cfg Config, instance string) (*SessionStore, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	connectCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.URI).SetTimeout(timeout))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(connectCtx)
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	return NewSessionStore(client.Database(cfg.Database), instance), nil
}

func NewSessionStore(db *mongo.Database, instance string) *SessionStore {
	return &SessionStore{coll: db.Collection(sessionCollection), instance: instance}
}

type sessionDoc struct {
	Instance  string     `bson:"_id"`
	Token     string     `bson:"token"`
	User      *mongoUser `bson:"user,omitempty"`
	UpdatedAt int64      `bson:"updated_at"`
}

type mongoUser struct {
	ID        int64  `bson:"id"`
	Email     string `bson:"email"`
	Name      string `bson:"name"`
	CreatedAt int64  `bson:"created_at"`
}

func (s *SessionStore) LoadToken(ctx context.Context) (string, error) {
	doc, err := s.find(ctx)
	if err != nil || doc == nil {
		return "", err
	}
	return doc.Token, nil
}

func (s *SessionStore) LoadUser(ctx context.Context) (*domain.User, error) {
	doc, err := s.find(ctx)
	if err != nil || doc == nil || doc.User == nil {
		return nil, err
	}
	return &domain.User{
		ID:        doc.User.ID,
		Email:     doc.User.Email,
		Name:      doc.User.Name,
		CreatedAt: unixToTime(doc.User.CreatedAt),
	}, nil
}

// Save upserts the instance document; token and user land in one write.
func (s *SessionStore) Save(ctx context.Context, token string, user domain.User) error {
	doc := sessionDoc{
		Instance: s.instance,
		Token:    token,
		User: &mongoUser{
			ID:        user.ID,
			Email:     user.Email,
			Name:      user.Name,
			CreatedAt: user.CreatedAt.Unix(),
		},
		UpdatedAt: time.Now().UTC().Unix(),
	}

	_, err := s.coll.ReplaceOne(ctx, bson.M{"_id": s.instance}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	return nil
}

func (s *SessionStore) Clear(ctx context.Context) error {
	if _, err := s.coll.DeleteOne(ctx, bson.M{"_id": s.instance}); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// Close disconnects the underlying client.
func (s *SessionStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()
	return s.coll.Database().Client().Disconnect(ctx)
}

func (s *SessionStore) find(ctx context.Context) (*sessionDoc, error) {
	var doc sessionDoc
	if err := s.coll.FindOne(ctx, bson.M{"_id": s.instance}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("find session: %w", err)
	}
	return &doc, nil
}

func unixToTime(ts int64) time.Time {
	if ts == 0 {
		return time.Time{}
	}
	return time.Unix(ts, 0).UTC()
}
