package memory

import (
	"context"
	"testing"

	"toohak-quiz-service/internal/domain"
)

func TestStoreRoundTrip(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	snap, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(snap.Users) != 0 || len(snap.Quizzes) != 0 {
		t.Fatalf("expected empty snapshot, got %+v", snap)
	}

	snap.Users = append(snap.Users, domain.User{UserID: 1, NameFirst: "Hayden Smith"})
	if err := store.Save(ctx, snap); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got.Users) != 1 || got.Users[0].NameFirst != "Hayden Smith" {
		t.Fatalf("expected saved user, got %+v", got.Users)
	}
}

func TestStoreLoadReturnsCopy(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	snap, _ := store.Load(ctx)
	snap.Users = append(snap.Users, domain.User{UserID: 1, NameFirst: "x"})
	snap.Quizzes = append(snap.Quizzes, domain.Quiz{QuizID: 2, Name: "My Quiz"})
	if err := store.Save(ctx, snap); err != nil {
		t.Fatalf("save: %v", err)
	}

	first, _ := store.Load(ctx)
	first.Users[0].NameFirst = "mutated"
	first.Quizzes[0].Name = "mutated"

	second, _ := store.Load(ctx)
	if second.Users[0].NameFirst != "x" || second.Quizzes[0].Name != "My Quiz" {
		t.Fatalf("mutation of a loaded snapshot leaked into the store: %+v", second)
	}
}
