package app

import (
	"context"
	"sort"

	"toohak-quiz-service/internal/domain"
)

// JoinSession adds a guest to a LOBBY session. A blank name gets a generated
// unique one (5 lowercase letters then 3 digits).
func (s *Service) JoinSession(ctx context.Context, sessionID int, name string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.store.Load(ctx)
	if err != nil {
		return 0, err
	}
	sessionIdx := findSession(snap, sessionID)
	if sessionIdx == -1 {
		return 0, domain.ErrSessionNotFound
	}
	session := &snap.QuizSessions[sessionIdx]

	taken := make(map[string]bool, len(session.Players))
	for _, p := range session.Players {
		taken[p.Name] = true
	}
	if name != "" && taken[name] {
		return 0, domain.ErrDuplicateName
	}
	if session.State != domain.StateLobby {
		return 0, domain.ErrSessionNotInLobby
	}
	if name == "" {
		for {
			name = s.randomPlayerName()
			if !taken[name] {
				break
			}
		}
	}

	numQuestions := session.Metadata.NumQuestions
	answers := make([][]int, numQuestions)
	for i := range answers {
		answers[i] = []int{}
	}
	player := domain.Player{
		PlayerID:        nextID(),
		Name:            name,
		Answers:         answers,
		TimeTakenAnswer: make([]int64, numQuestions),
		Correct:         make([]bool, numQuestions),
	}
	session.Players = append(session.Players, player)
	if err := s.store.Save(ctx, snap); err != nil {
		return 0, err
	}
	return player.PlayerID, nil
}

// PlayerStatus is the guest-facing view of where their session is up to.
type PlayerStatus struct {
	State        domain.State `json:"state"`
	NumQuestions int          `json:"numQuestions"`
	AtQuestion   int          `json:"atQuestion"`
}

// GetPlayerStatus reports the state of the session the player is in.
func (s *Service) GetPlayerStatus(ctx context.Context, playerID int) (PlayerStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.store.Load(ctx)
	if err != nil {
		return PlayerStatus{}, err
	}
	sessionIdx, _ := findSessionByPlayer(snap, playerID)
	if sessionIdx == -1 {
		return PlayerStatus{}, domain.ErrPlayerNotFound
	}
	session := snap.QuizSessions[sessionIdx]
	return PlayerStatus{
		State:        session.State,
		NumQuestions: session.Metadata.NumQuestions,
		AtQuestion:   session.AtQuestion,
	}, nil
}

// AnswerView is an answer as shown to players: the correct flag is withheld.
type AnswerView struct {
	AnswerID int    `json:"answerId"`
	Answer   string `json:"answer"`
	Colour   string `json:"colour"`
}

// QuestionView is the player-facing read model of the active question.
type QuestionView struct {
	QuestionID   int          `json:"questionId"`
	Question     string       `json:"question"`
	Duration     int          `json:"duration"`
	ThumbnailURL string       `json:"thumbnailUrl"`
	Points       int          `json:"points"`
	Answers      []AnswerView `json:"answers"`
}

// GetPlayerQuestion returns the question the session is currently on. The
// position must match the session's own position exactly.
func (s *Service) GetPlayerQuestion(ctx context.Context, playerID, questionPosition int) (QuestionView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.store.Load(ctx)
	if err != nil {
		return QuestionView{}, err
	}
	sessionIdx, _ := findSessionByPlayer(snap, playerID)
	if sessionIdx == -1 {
		return QuestionView{}, domain.ErrPlayerNotFound
	}
	session := snap.QuizSessions[sessionIdx]
	if session.AtQuestion != questionPosition {
		return QuestionView{}, domain.ErrQuestionPosition
	}
	if session.State == domain.StateLobby || session.State == domain.StateEnd {
		return QuestionView{}, domain.ErrCommandUnavailable
	}

	question := session.Metadata.Questions[questionPosition-1]
	answers := make([]AnswerView, len(question.Answers))
	for i, a := range question.Answers {
		answers[i] = AnswerView{AnswerID: a.AnswerID, Answer: a.Answer, Colour: a.Colour}
	}
	return QuestionView{
		QuestionID:   question.QuestionID,
		Question:     question.Question,
		Duration:     question.Duration,
		ThumbnailURL: question.ThumbnailURL,
		Points:       question.Points,
		Answers:      answers,
	}, nil
}

// SubmitAnswer records a player's chosen answer IDs for the open question,
// their latency since the question opened, and whether the submitted set
// exactly matches the question's correct-answer set.
func (s *Service) SubmitAnswer(ctx context.Context, playerID, questionPosition int, answerIDs []int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.store.Load(ctx)
	if err != nil {
		return err
	}
	sessionIdx, playerIdx := findSessionByPlayer(snap, playerID)
	if sessionIdx == -1 {
		return domain.ErrPlayerNotFound
	}
	session := &snap.QuizSessions[sessionIdx]
	if questionPosition > session.Metadata.NumQuestions {
		return domain.ErrQuestionPosition
	}
	if session.State != domain.StateQuestionOpen {
		return domain.ErrQuestionNotOpen
	}
	if session.AtQuestion < questionPosition {
		return domain.ErrQuestionNotReached
	}
	if len(answerIDs) == 0 {
		return domain.ErrNoAnswers
	}
	question := session.Metadata.Questions[questionPosition-1]
	valid := make(map[int]bool, len(question.Answers))
	for _, a := range question.Answers {
		valid[a.AnswerID] = true
	}
	for _, id := range answerIDs {
		if !valid[id] {
			return domain.ErrAnswerNotFound
		}
	}
	seen := make(map[int]bool, len(answerIDs))
	for _, id := range answerIDs {
		if seen[id] {
			return domain.ErrDuplicateAnswerIDs
		}
		seen[id] = true
	}

	player := &session.Players[playerIdx]
	player.Answers[questionPosition-1] = append([]int(nil), answerIDs...)
	player.TimeTakenAnswer[questionPosition-1] = s.nowMillis() - session.TimeQuestionLastOpened
	player.Correct[questionPosition-1] = exactAnswerMatch(answerIDs, question)
	return s.store.Save(ctx, snap)
}

// exactAnswerMatch reports whether the submitted IDs are exactly the
// question's correct-answer set: order-independent, no subset or superset
// credit.
func exactAnswerMatch(answerIDs []int, question domain.Question) bool {
	correct := correctAnswerIDs(question)
	if len(answerIDs) != len(correct) {
		return false
	}
	submitted := append([]int(nil), answerIDs...)
	sort.Ints(submitted)
	sort.Ints(correct)
	for i := range submitted {
		if submitted[i] != correct[i] {
			return false
		}
	}
	return true
}

func correctAnswerIDs(question domain.Question) []int {
	ids := []int{}
	for _, a := range question.Answers {
		if a.Correct {
			ids = append(ids, a.AnswerID)
		}
	}
	return ids
}

// SendMessage appends a chat message to the player's session.
func (s *Service) SendMessage(ctx context.Context, playerID int, body string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.store.Load(ctx)
	if err != nil {
		return err
	}
	if len(body) < 1 || len(body) > 100 {
		return domain.ErrMessageLength
	}
	sessionIdx, playerIdx := findSessionByPlayer(snap, playerID)
	if sessionIdx == -1 {
		return domain.ErrPlayerNotFound
	}
	session := &snap.QuizSessions[sessionIdx]
	session.Messages = append(session.Messages, domain.MessageDetails{
		MessageBody: body,
		PlayerID:    playerID,
		PlayerName:  session.Players[playerIdx].Name,
		TimeSent:    s.nowSeconds(),
	})
	return s.store.Save(ctx, snap)
}

// ListMessages returns all chat messages in the player's session, oldest
// first.
func (s *Service) ListMessages(ctx context.Context, playerID int) ([]domain.MessageDetails, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	sessionIdx, _ := findSessionByPlayer(snap, playerID)
	if sessionIdx == -1 {
		return nil, domain.ErrPlayerNotFound
	}
	return append([]domain.MessageDetails{}, snap.QuizSessions[sessionIdx].Messages...), nil
}
