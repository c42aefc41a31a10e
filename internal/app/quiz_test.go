package app

import (
	"context"
	"errors"
	"strings"
	"testing"

	"toohak-quiz-service/internal/domain"
)

func TestCreateQuizValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	token := registerUser(t, svc, "hayden@unsw.edu.au")

	cases := []struct {
		name     string
		quizName string
		desc     string
		want     error
	}{
		{"name too short", "ab", "", ErrQuizNameInvalid},
		{"name too long", strings.Repeat("a", 31), "", ErrQuizNameInvalid},
		{"name bad characters", "quiz!", "", ErrQuizNameInvalid},
		{"description too long", "Countries", strings.Repeat("d", 101), ErrDescriptionTooLong},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.CreateQuiz(ctx, token, tc.quizName, tc.desc); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}

	if _, err := svc.CreateQuiz(ctx, token, "Countries", ""); err != nil {
		t.Fatalf("create quiz: %v", err)
	}
	if _, err := svc.CreateQuiz(ctx, token, "Countries", ""); !errors.Is(err, ErrQuizNameTaken) {
		t.Fatalf("expected duplicate name rejection, got %v", err)
	}

	// Same name under a different owner is fine.
	other := registerUser(t, svc, "other@unsw.edu.au")
	if _, err := svc.CreateQuiz(ctx, other, "Countries", ""); err != nil {
		t.Fatalf("create quiz under other owner: %v", err)
	}
}

func TestQuizOwnership(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	token, quizID := quizWithQuestion(t, svc)
	other := registerUser(t, svc, "other@unsw.edu.au")

	if _, err := svc.GetQuizInfo(ctx, other, quizID); !errors.Is(err, domain.ErrNotOwner) {
		t.Fatalf("expected ownership rejection, got %v", err)
	}
	if _, err := svc.GetQuizInfo(ctx, token, quizID+1); !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected unknown quiz, got %v", err)
	}

	info, err := svc.GetQuizInfo(ctx, token, quizID)
	if err != nil {
		t.Fatalf("quiz info: %v", err)
	}
	if info.NumQuestions != 1 || info.Duration != 1 {
		t.Fatalf("unexpected quiz info: %+v", info)
	}
}

func TestRemoveRestoreTrash(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	token, quizID := quizWithQuestion(t, svc)

	if err := svc.RemoveQuiz(ctx, token, quizID); err != nil {
		t.Fatalf("remove quiz: %v", err)
	}
	trash, err := svc.ListTrash(ctx, token)
	if err != nil {
		t.Fatalf("list trash: %v", err)
	}
	if len(trash) != 1 || trash[0].QuizID != quizID {
		t.Fatalf("expected quiz in trash, got %+v", trash)
	}
	quizzes, _ := svc.ListQuizzes(ctx, token)
	if len(quizzes) != 0 {
		t.Fatalf("expected quiz out of active list, got %+v", quizzes)
	}

	// The trashed name still blocks a new quiz with the same name.
	if _, err := svc.CreateQuiz(ctx, token, "Countries", ""); !errors.Is(err, ErrQuizNameTaken) {
		t.Fatalf("expected trashed name reserved, got %v", err)
	}

	if err := svc.RestoreQuiz(ctx, token, quizID); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if err := svc.RestoreQuiz(ctx, token, quizID); !errors.Is(err, domain.ErrQuizNotInTrash) {
		t.Fatalf("expected not-in-trash rejection, got %v", err)
	}
}

func TestEmptyTrash(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	token, quizID := quizWithQuestion(t, svc)
	if err := svc.RemoveQuiz(ctx, token, quizID); err != nil {
		t.Fatalf("remove quiz: %v", err)
	}

	// One bad ID poisons the whole request; nothing is deleted.
	if err := svc.EmptyTrash(ctx, token, []int{quizID, quizID + 99}); !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected unknown quiz rejection, got %v", err)
	}
	trash, _ := svc.ListTrash(ctx, token)
	if len(trash) != 1 {
		t.Fatalf("expected trash untouched, got %+v", trash)
	}

	if err := svc.EmptyTrash(ctx, token, []int{quizID}); err != nil {
		t.Fatalf("empty trash: %v", err)
	}
	trash, _ = svc.ListTrash(ctx, token)
	if len(trash) != 0 {
		t.Fatalf("expected empty trash, got %+v", trash)
	}
}

func TestTransferQuiz(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	token, quizID := quizWithQuestion(t, svc)
	other := registerUser(t, svc, "other@unsw.edu.au")

	if err := svc.TransferQuiz(ctx, token, quizID, "hayden@unsw.edu.au"); !errors.Is(err, ErrTransferToSelf) {
		t.Fatalf("expected self-transfer rejection, got %v", err)
	}
	if err := svc.TransferQuiz(ctx, token, quizID, "nobody@unsw.edu.au"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected unknown target, got %v", err)
	}

	// A name clash on the receiving account blocks the transfer.
	if _, err := svc.CreateQuiz(ctx, other, "Countries", ""); err != nil {
		t.Fatalf("create clashing quiz: %v", err)
	}
	if err := svc.TransferQuiz(ctx, token, quizID, "other@unsw.edu.au"); !errors.Is(err, ErrQuizNameTaken) {
		t.Fatalf("expected name clash rejection, got %v", err)
	}

	if err := svc.UpdateQuizName(ctx, token, quizID, "Geography"); err != nil {
		t.Fatalf("rename: %v", err)
	}
	if err := svc.TransferQuiz(ctx, token, quizID, "other@unsw.edu.au"); err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if _, err := svc.GetQuizInfo(ctx, other, quizID); err != nil {
		t.Fatalf("new owner cannot read quiz: %v", err)
	}
	if _, err := svc.GetQuizInfo(ctx, token, quizID); !errors.Is(err, domain.ErrNotOwner) {
		t.Fatalf("expected old owner locked out, got %v", err)
	}
}

func TestUpdateQuizThumbnail(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	token, quizID := quizWithQuestion(t, svc)

	if err := svc.UpdateQuizThumbnail(ctx, token, quizID, "http://example.com/img.gif"); !errors.Is(err, ErrThumbnailType) {
		t.Fatalf("expected file-type rejection, got %v", err)
	}
	if err := svc.UpdateQuizThumbnail(ctx, token, quizID, "http://example.com/img.png"); err != nil {
		t.Fatalf("update thumbnail: %v", err)
	}
	info, _ := svc.GetQuizInfo(ctx, token, quizID)
	if !strings.Contains(info.ThumbnailURL, "/images/") {
		t.Fatalf("expected served local copy, got %q", info.ThumbnailURL)
	}
}
