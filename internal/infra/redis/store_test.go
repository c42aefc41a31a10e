package redis

import (
	"context"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"toohak-quiz-service/internal/domain"
)

func TestStoreEmptyOnMissingKey(t *testing.T) {
	store, _ := newTestStore(t)

	snap, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(snap.Users) != 0 || len(snap.QuizSessions) != 0 {
		t.Fatalf("expected empty snapshot, got %+v", snap)
	}
}

func TestStoreRoundTrip(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	snap := domain.Empty()
	snap.Quizzes = append(snap.Quizzes, domain.Quiz{QuizID: 7, Name: "Countries"})
	if err := store.Save(ctx, snap); err != nil {
		t.Fatalf("save: %v", err)
	}
	if !mr.Exists("toohak:snapshot") {
		t.Fatalf("expected snapshot key written")
	}

	got, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got.Quizzes) != 1 || got.Quizzes[0].Name != "Countries" {
		t.Fatalf("expected saved quiz, got %+v", got.Quizzes)
	}
}

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewStore(client, "", 0), mr
}
