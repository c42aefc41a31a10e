package app

import (
	"context"
	"errors"
	"log"
	"sort"
	"time"

	"toohak-quiz-service/internal/domain"
)

var (
	// ErrAutoStartNum caps the auto-start threshold at 50 players.
	ErrAutoStartNum = errors.New("autoStartNum cannot be greater than 50")
	// ErrTooManySessions caps a quiz at 10 sessions outside END.
	ErrTooManySessions = errors.New("a maximum of 10 sessions that are not in END state may exist")
	// ErrNoQuestions rejects starting a session of an empty quiz.
	ErrNoQuestions = errors.New("the quiz does not have any questions in it")
)

// StartSession launches a new session of the quiz in LOBBY, snapshotting the
// quiz as immutable session metadata.
func (s *Service) StartSession(ctx context.Context, token string, quizID, autoStartNum int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.store.Load(ctx)
	if err != nil {
		return 0, err
	}
	quizIdx, err := ownedQuiz(snap, token, quizID)
	if err != nil {
		return 0, err
	}
	if autoStartNum > 50 {
		return 0, ErrAutoStartNum
	}
	active := 0
	for _, sess := range snap.QuizSessions {
		if sess.Metadata.QuizID == quizID && sess.State != domain.StateEnd {
			active++
		}
	}
	if active >= 10 {
		return 0, ErrTooManySessions
	}
	if len(snap.Quizzes[quizIdx].Questions) == 0 {
		return 0, ErrNoQuestions
	}

	session := domain.QuizSession{
		SessionID: s.newSessionID(snap),
		State:     domain.StateLobby,
		Players:   []domain.Player{},
		Metadata:  snap.Quizzes[quizIdx].Clone(),
		Messages:  []domain.MessageDetails{},
	}
	snap.QuizSessions = append(snap.QuizSessions, session)
	if err := s.store.Save(ctx, snap); err != nil {
		return 0, err
	}
	return session.SessionID, nil
}

// commandAllowed is the session state-transition table. Each (state, command)
// pair not listed here is a rejection.
func commandAllowed(state domain.State, cmd domain.Command) bool {
	switch cmd {
	case domain.CommandNextQuestion:
		return state == domain.StateLobby || state == domain.StateQuestionClose || state == domain.StateAnswerShow
	case domain.CommandGoToAnswer:
		return state == domain.StateQuestionOpen || state == domain.StateQuestionClose
	case domain.CommandGoToFinalResults:
		return state == domain.StateQuestionClose || state == domain.StateAnswerShow
	case domain.CommandEnd:
		return state != domain.StateEnd
	}
	return false
}

// UpdateSessionState applies a host command to the session. NEXT_QUESTION
// additionally arms two deferred transitions: countdown -> QUESTION_OPEN after
// the configured short delay, and open -> QUESTION_CLOSE after the question's
// duration. Both delays are measured from now, not chained off each other.
func (s *Service) UpdateSessionState(ctx context.Context, token string, quizID, sessionID int, cmd domain.Command) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.store.Load(ctx)
	if err != nil {
		return err
	}
	if _, err := ownedQuiz(snap, token, quizID); err != nil {
		return err
	}
	sessionIdx := quizSession(snap, quizID, sessionID)
	if sessionIdx == -1 {
		return domain.ErrSessionNotFound
	}
	if !cmd.Valid() {
		return domain.ErrInvalidCommand
	}
	session := &snap.QuizSessions[sessionIdx]
	if !commandAllowed(session.State, cmd) {
		return domain.ErrCommandUnavailable
	}

	switch cmd {
	case domain.CommandNextQuestion:
		if session.AtQuestion >= len(session.Metadata.Questions) {
			return domain.ErrCommandUnavailable
		}
		session.AtQuestion++
		session.State = domain.StateQuestionCountdown
		duration := time.Duration(session.Metadata.Questions[session.AtQuestion-1].Duration) * time.Second
		if err := s.store.Save(ctx, snap); err != nil {
			return err
		}
		// Neither timer is cancelled by later commands; the guard inside
		// advanceSession makes a stale firing a no-op.
		time.AfterFunc(s.countdown, func() {
			s.advanceSession(sessionID, domain.StateQuestionCountdown, domain.StateQuestionOpen)
		})
		time.AfterFunc(duration+s.countdown, func() {
			s.advanceSession(sessionID, domain.StateQuestionOpen, domain.StateQuestionClose)
		})
		return nil
	case domain.CommandGoToAnswer:
		session.State = domain.StateAnswerShow
	case domain.CommandGoToFinalResults:
		session.State = domain.StateFinalResults
		session.AtQuestion = 0
	case domain.CommandEnd:
		session.State = domain.StateEnd
		session.AtQuestion = 0
	}
	return s.store.Save(ctx, snap)
}

// advanceSession is the guard for timer-driven transitions. It re-reads the
// current snapshot and applies from -> to only if the session still exists,
// under its original identity, in exactly the expected prior state. Any
// mismatch is swallowed: a stale timer must never surface an error or touch
// another session.
func (s *Service) advanceSession(sessionID int, from, to domain.State) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx := context.Background()
	snap, err := s.store.Load(ctx)
	if err != nil {
		log.Printf("session %d: timer load failed: %v", sessionID, err)
		return
	}
	sessionIdx := findSession(snap, sessionID)
	if sessionIdx == -1 {
		log.Printf("session %d: skipping stale %s -> %s, session gone", sessionID, from, to)
		return
	}
	session := &snap.QuizSessions[sessionIdx]
	if session.State != from {
		log.Printf("session %d: skipping stale %s -> %s, state is %s", sessionID, from, to, session.State)
		return
	}

	session.State = to
	if to == domain.StateQuestionOpen {
		session.TimeQuestionLastOpened = s.nowMillis()
	}
	if err := s.store.Save(ctx, snap); err != nil {
		log.Printf("session %d: timer save failed: %v", sessionID, err)
	}
}

// SessionStatus is the host-facing session read model. Metadata deliberately
// omits the owner's user ID.
type SessionStatus struct {
	State      domain.State `json:"state"`
	AtQuestion int          `json:"atQuestion"`
	Players    []string     `json:"players"`
	Metadata   QuizInfo     `json:"metadata"`
}

// GetSessionStatus returns the session's current state, sorted player names
// and quiz snapshot.
func (s *Service) GetSessionStatus(ctx context.Context, token string, quizID, sessionID int) (SessionStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.store.Load(ctx)
	if err != nil {
		return SessionStatus{}, err
	}
	if _, err := ownedQuiz(snap, token, quizID); err != nil {
		return SessionStatus{}, err
	}
	sessionIdx := quizSession(snap, quizID, sessionID)
	if sessionIdx == -1 {
		return SessionStatus{}, domain.ErrSessionNotFound
	}
	session := snap.QuizSessions[sessionIdx]

	names := make([]string, len(session.Players))
	for i, p := range session.Players {
		names[i] = p.Name
	}
	sort.Strings(names)

	return SessionStatus{
		State:      session.State,
		AtQuestion: session.AtQuestion,
		Players:    names,
		Metadata:   quizInfoOf(session.Metadata.Clone()),
	}, nil
}

// SessionList partitions a quiz's sessions by whether they have ended.
type SessionList struct {
	ActiveSessions   []int `json:"activeSessions"`
	InactiveSessions []int `json:"inactiveSessions"`
}

// ListSessions returns the quiz's session IDs, active and ended, ascending.
func (s *Service) ListSessions(ctx context.Context, token string, quizID int) (SessionList, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.store.Load(ctx)
	if err != nil {
		return SessionList{}, err
	}
	if _, err := resolveToken(snap, token); err != nil {
		return SessionList{}, err
	}
	if findQuiz(snap, quizID) == -1 {
		return SessionList{}, domain.ErrQuizNotFound
	}

	list := SessionList{ActiveSessions: []int{}, InactiveSessions: []int{}}
	for _, sess := range snap.QuizSessions {
		if sess.Metadata.QuizID != quizID {
			continue
		}
		if sess.State == domain.StateEnd {
			list.InactiveSessions = append(list.InactiveSessions, sess.SessionID)
		} else {
			list.ActiveSessions = append(list.ActiveSessions, sess.SessionID)
		}
	}
	sort.Ints(list.ActiveSessions)
	sort.Ints(list.InactiveSessions)
	return list, nil
}
