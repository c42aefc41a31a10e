package app

import (
	"context"
	"math/rand"
	"sync"
	"testing"
	"time"

	"toohak-quiz-service/internal/domain"
	"toohak-quiz-service/internal/infra/memory"
)

type stubImages struct{}

func (stubImages) Fetch(url string) ([]byte, string, error) {
	return []byte{0xFF, 0xD8, 0xFF}, "jpg", nil
}

// fakeClock replaces the service clock so answer latencies are deterministic.
// Timer firing still runs on real time; tests keep countdowns short and poll.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.UnixMilli(1_700_000_000_000)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestService(t *testing.T) (*Service, *fakeClock) {
	t.Helper()
	clk := newFakeClock()
	svc := NewService(memory.NewStore(), Options{
		Countdown: 5 * time.Millisecond,
		CSVDir:    t.TempDir(),
		ImageDir:  t.TempDir(),
		Clock:     clk.Now,
		Rand:      rand.New(rand.NewSource(1)),
		Images:    stubImages{},
	})
	return svc, clk
}

func registerUser(t *testing.T, svc *Service, email string) string {
	t.Helper()
	token, err := svc.Register(context.Background(), email, "password1", "Hayden", "Smith")
	if err != nil {
		t.Fatalf("register %s: %v", email, err)
	}
	return token
}

func sampleQuestion(text string) QuestionInput {
	return QuestionInput{
		Question: text,
		Duration: 1,
		Points:   1,
		Answers: []AnswerInput{
			{Answer: "Paris", Correct: true},
			{Answer: "London", Correct: false},
		},
		ThumbnailURL: "http://example.com/img.jpg",
	}
}

// quizWithQuestion registers a user and creates a one-question quiz, returning
// the token and quiz ID.
func quizWithQuestion(t *testing.T, svc *Service) (string, int) {
	t.Helper()
	token := registerUser(t, svc, "hayden@unsw.edu.au")
	quizID, err := svc.CreateQuiz(context.Background(), token, "Countries", "capitals quiz")
	if err != nil {
		t.Fatalf("create quiz: %v", err)
	}
	if _, err := svc.CreateQuestion(context.Background(), token, quizID, sampleQuestion("What is the capital of France?")); err != nil {
		t.Fatalf("create question: %v", err)
	}
	return token, quizID
}

func startedSession(t *testing.T, svc *Service) (string, int, int) {
	t.Helper()
	token, quizID := quizWithQuestion(t, svc)
	sessionID, err := svc.StartSession(context.Background(), token, quizID, 3)
	if err != nil {
		t.Fatalf("start session: %v", err)
	}
	return token, quizID, sessionID
}

func mustState(t *testing.T, svc *Service, token string, quizID, sessionID int, want domain.State) {
	t.Helper()
	status, err := svc.GetSessionStatus(context.Background(), token, quizID, sessionID)
	if err != nil {
		t.Fatalf("session status: %v", err)
	}
	if status.State != want {
		t.Fatalf("expected state %s, got %s", want, status.State)
	}
}

// awaitState polls until the timer-driven transition lands or the deadline
// passes.
func awaitState(t *testing.T, svc *Service, token string, quizID, sessionID int, want domain.State) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		status, err := svc.GetSessionStatus(context.Background(), token, quizID, sessionID)
		if err != nil {
			t.Fatalf("session status: %v", err)
		}
		if status.State == want {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("session never reached %s", want)
}
