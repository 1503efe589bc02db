package mongo

import (
	"context"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/flowtask/flowtask/internal/core/domain"
)

func TestSessionDoc_BSONShape(t *testing.T) {
	doc := sessionDoc{
		Instance:  "default",
		Token:     "tok",
		User:      &mongoUser{ID: 3, Email: "a@b.com", Name: "Ann", CreatedAt: 1700000000},
		UpdatedAt: 1700000001,
	}

	raw, err := bson.Marshal(doc)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var m bson.M
	if err := bson.Unmarshal(raw, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if m["_id"] != "default" || m["token"] != "tok" {
		t.Fatalf("unexpected document: %v", m)
	}
	if _, ok := m["user"]; !ok {
		t.Fatalf("expected embedded user")
	}
}

func TestUnixToTime(t *testing.T) {
	if !unixToTime(0).IsZero() {
		t.Fatalf("expected zero time for 0")
	}
	if got := unixToTime(1700000000); !got.Equal(time.Unix(1700000000, 0)) || got.Location() != time.UTC {
		t.Fatalf("unexpected time %v", got)
	}
}

func storedDoc(instance, token string) bson.D {
	return bson.D{
		{Key: "_id", Value: instance},
		{Key: "token", Value: token},
		{Key: "user", Value: bson.D{
			{Key: "id", Value: int64(4)},
			{Key: "email", Value: "a@b.com"},
			{Key: "name", Value: "Ann"},
			{Key: "created_at", Value: int64(1700000000)},
		}},
		{Key: "updated_at", Value: int64(1700000001)},
	}
}

func TestSessionStore_Contract(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	ns := func(mt *mtest.T) string { return mt.DB.Name() + "." + sessionCollection }

	mt.Run("empty loads", func(mt *mtest.T) {
		store := NewSessionStore(mt.DB, "default")
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, ns(mt), mtest.FirstBatch),
			mtest.CreateCursorResponse(0, ns(mt), mtest.FirstBatch),
		)

		token, err := store.LoadToken(context.Background())
		if err != nil || token != "" {
			mt.Fatalf("expected empty token, got %q, %v", token, err)
		}
		user, err := store.LoadUser(context.Background())
		if err != nil || user != nil {
			mt.Fatalf("expected nil user, got %+v, %v", user, err)
		}
	})

	mt.Run("save then load", func(mt *mtest.T) {
		ctx := context.Background()
		store := NewSessionStore(mt.DB, "work")
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}))

		if err := store.Save(ctx, "tok-1", domain.User{ID: 4, Email: "a@b.com", Name: "Ann", CreatedAt: time.Unix(1700000000, 0)}); err != nil {
			mt.Fatalf("Save: %v", err)
		}
		if evt := mt.GetStartedEvent(); evt == nil || evt.CommandName != "update" {
			mt.Fatalf("Save must issue one upsert, got %+v", evt)
		}

		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, ns(mt), mtest.FirstBatch, storedDoc("work", "tok-1")),
			mtest.CreateCursorResponse(0, ns(mt), mtest.FirstBatch, storedDoc("work", "tok-1")),
		)
		token, err := store.LoadToken(ctx)
		if err != nil || token != "tok-1" {
			mt.Fatalf("LoadToken = %q, %v", token, err)
		}
		evt := mt.GetStartedEvent()
		if evt == nil || evt.CommandName != "find" {
			mt.Fatalf("expected a find, got %+v", evt)
		}
		if id, ok := evt.Command.Lookup("filter", "_id").StringValueOK(); !ok || id != "work" {
			mt.Fatalf("find must be scoped to the instance, filter %v", evt.Command.Lookup("filter"))
		}

		user, err := store.LoadUser(ctx)
		if err != nil || user == nil || user.ID != 4 || user.Name != "Ann" || !user.CreatedAt.Equal(time.Unix(1700000000, 0)) {
			mt.Fatalf("LoadUser = %+v, %v", user, err)
		}
	})

	mt.Run("clear removes both entries", func(mt *mtest.T) {
		ctx := context.Background()
		store := NewSessionStore(mt.DB, "work")
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}),
			mtest.CreateCursorResponse(0, ns(mt), mtest.FirstBatch),
			mtest.CreateCursorResponse(0, ns(mt), mtest.FirstBatch),
		)

		if err := store.Clear(ctx); err != nil {
			mt.Fatalf("Clear: %v", err)
		}
		if evt := mt.GetStartedEvent(); evt == nil || evt.CommandName != "delete" {
			mt.Fatalf("Clear must issue one delete, got %+v", evt)
		}
		if token, err := store.LoadToken(ctx); err != nil || token != "" {
			mt.Fatalf("expected token cleared, got %q, %v", token, err)
		}
		if user, err := store.LoadUser(ctx); err != nil || user != nil {
			mt.Fatalf("expected user cleared, got %+v, %v", user, err)
		}
	})

	mt.Run("server errors surface", func(mt *mtest.T) {
		store := NewSessionStore(mt.DB, "default")
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code:    13,
			Name:    "Unauthorized",
			Message: "not authorized",
		}))
		if _, err := store.LoadToken(context.Background()); err == nil {
			mt.Fatalf("expected find error")
		}
	})
}
