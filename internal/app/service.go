package app

import (
	"context"
	"math/rand"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"toohak-quiz-service/internal/domain"
)

// Store abstracts how the whole data snapshot is persisted (file, Redis,
// Postgres, in-memory). Every operation reads the full snapshot, mutates it
// locally, and writes it back as a unit.
type Store interface {
	Load(ctx context.Context) (domain.Snapshot, error)
	Save(ctx context.Context, snap domain.Snapshot) error
}

// ImageFetcher retrieves thumbnail image bytes for a URL. It returns the raw
// bytes and the stored file extension ("png" or "jpg").
type ImageFetcher interface {
	Fetch(url string) ([]byte, string, error)
}

// Options tune a Service. The zero value is usable; tests typically shorten
// Countdown and inject a deterministic Clock.
type Options struct {
	// Countdown is the QUESTION_COUNTDOWN duration armed by NEXT_QUESTION.
	Countdown time.Duration
	// BaseURL prefixes generated CSV and image links.
	BaseURL string
	// CSVDir and ImageDir are where exported files land.
	CSVDir   string
	ImageDir string
	// Clock is test-only for deterministic timestamps.
	Clock func() time.Time
	// Rand seeds name/colour/ID generation.
	Rand *rand.Rand
	// Images fetches thumbnail bytes; defaults to an HTTP fetcher.
	Images ImageFetcher
}

const defaultCountdown = 100 * time.Millisecond

// Service contains all quiz-platform use cases. A single mutex serializes the
// load-mutate-save cycle so the snapshot is always mutated atomically, matching
// the single-writer semantics the store contract assumes. Timer callbacks armed
// by NEXT_QUESTION take the same mutex when they fire.
type Service struct {
	store Store

	mu        sync.Mutex
	clock     func() time.Time
	rnd       *rand.Rand
	countdown time.Duration
	baseURL   string
	csvDir    string
	imageDir  string
	images    ImageFetcher
	csvGroup  singleflight.Group
}

func NewService(store Store, opts Options) *Service {
	s := &Service{
		store:     store,
		clock:     opts.Clock,
		rnd:       opts.Rand,
		countdown: opts.Countdown,
		baseURL:   opts.BaseURL,
		csvDir:    opts.CSVDir,
		imageDir:  opts.ImageDir,
		images:    opts.Images,
	}
	if s.clock == nil {
		s.clock = time.Now
	}
	if s.rnd == nil {
		s.rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if s.countdown <= 0 {
		s.countdown = defaultCountdown
	}
	if s.csvDir == "" {
		s.csvDir = "csv_files"
	}
	if s.imageDir == "" {
		s.imageDir = "images"
	}
	if s.images == nil {
		s.images = httpImageFetcher{}
	}
	return s
}

// Clear resets the snapshot to empty and removes generated CSV and image
// files. Exposed as a test/reset hook on the HTTP surface.
func (s *Service) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	removeGenerated(s.csvDir)
	removeGenerated(s.imageDir)
	return s.store.Save(ctx, domain.Empty())
}

func removeGenerated(dir string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		_ = os.Remove(filepath.Join(dir, entry.Name()))
	}
}

// resolveToken maps a token string to the owning user ID, distinguishing a
// malformed token from one that is simply not logged in.
func resolveToken(snap domain.Snapshot, token string) (int, error) {
	if token == "" {
		return 0, domain.ErrTokenStructure
	}
	for _, t := range snap.Tokens {
		if t.SessionID == token {
			return t.UserID, nil
		}
	}
	return 0, domain.ErrNotLoggedIn
}

func findQuiz(snap domain.Snapshot, quizID int) int {
	for i := range snap.Quizzes {
		if snap.Quizzes[i].QuizID == quizID {
			return i
		}
	}
	return -1
}

func findTrash(snap domain.Snapshot, quizID int) int {
	for i := range snap.Trash {
		if snap.Trash[i].QuizID == quizID {
			return i
		}
	}
	return -1
}

func findSession(snap domain.Snapshot, sessionID int) int {
	for i := range snap.QuizSessions {
		if snap.QuizSessions[i].SessionID == sessionID {
			return i
		}
	}
	return -1
}

// quizSession resolves a session by ID and checks it was started from the
// given quiz. A session of another quiz is indistinguishable from a missing
// one.
func quizSession(snap domain.Snapshot, quizID, sessionID int) int {
	idx := findSession(snap, sessionID)
	if idx == -1 || snap.QuizSessions[idx].Metadata.QuizID != quizID {
		return -1
	}
	return idx
}

// findSessionByPlayer resolves the session that contains the given player.
func findSessionByPlayer(snap domain.Snapshot, playerID int) (sessionIdx, playerIdx int) {
	for i := range snap.QuizSessions {
		for j := range snap.QuizSessions[i].Players {
			if snap.QuizSessions[i].Players[j].PlayerID == playerID {
				return i, j
			}
		}
	}
	return -1, -1
}

// ownedQuiz resolves token -> owner and checks the quiz exists and belongs to
// the caller. Shared by every host-facing operation.
func ownedQuiz(snap domain.Snapshot, token string, quizID int) (int, error) {
	userID, err := resolveToken(snap, token)
	if err != nil {
		return -1, err
	}
	quizIdx := findQuiz(snap, quizID)
	if quizIdx == -1 {
		return -1, domain.ErrQuizNotFound
	}
	if snap.Quizzes[quizIdx].OwnerUserID != userID {
		return -1, domain.ErrNotOwner
	}
	return quizIdx, nil
}

func (s *Service) nowSeconds() int64 {
	return s.clock().Unix()
}

func (s *Service) nowMillis() int64 {
	return s.clock().UnixMilli()
}
