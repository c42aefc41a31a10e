package app

import (
	"context"
	"errors"

	"toohak-quiz-service/internal/domain"
)

var (
	// ErrQuestionLength bounds question text to 5-50 characters.
	ErrQuestionLength = errors.New("question must be between 5 and 50 characters")
	// ErrAnswerCount bounds questions to 2-6 answers.
	ErrAnswerCount = errors.New("question must have between 2 and 6 answers")
	// ErrBadDuration is returned for non-positive question durations.
	ErrBadDuration = errors.New("duration must be a positive number")
	// ErrQuizTooLong caps total quiz duration at 3 minutes.
	ErrQuizTooLong = errors.New("quiz duration cannot exceed 3 minutes")
	// ErrBadPoints bounds question points to 1-10.
	ErrBadPoints = errors.New("points must be between 1 and 10")
	// ErrAnswerLength bounds answer strings to 1-30 characters.
	ErrAnswerLength = errors.New("answers must be between 1 and 30 characters")
	// ErrDuplicateAnswers is returned when two answer strings match.
	ErrDuplicateAnswers = errors.New("answer strings must not be duplicated")
	// ErrNoCorrectAnswer requires at least one answer marked correct.
	ErrNoCorrectAnswer = errors.New("there are no correct answers")
	// ErrThumbnailRequired is returned when a question has no thumbnail URL.
	ErrThumbnailRequired = errors.New("thumbnail URL must not be empty")
	// ErrBadPosition is returned for an out-of-range or no-op question move.
	ErrBadPosition = errors.New("invalid new position")
)

// AnswerInput is one proposed answer on question create/update.
type AnswerInput struct {
	Answer  string `json:"answer"`
	Correct bool   `json:"correct"`
}

// QuestionInput carries the fields for question create/update.
type QuestionInput struct {
	Question     string        `json:"question"`
	Duration     int           `json:"duration"`
	Points       int           `json:"points"`
	Answers      []AnswerInput `json:"answers"`
	ThumbnailURL string        `json:"thumbnailUrl"`
}

// validateQuestionInput applies the shared create/update rules. quizDuration
// is the quiz's total duration excluding the question being replaced.
func validateQuestionInput(in QuestionInput, quizDuration int) error {
	if len(in.Question) < 5 || len(in.Question) > 50 {
		return ErrQuestionLength
	}
	if len(in.Answers) < 2 || len(in.Answers) > 6 {
		return ErrAnswerCount
	}
	if in.Duration <= 0 {
		return ErrBadDuration
	}
	if quizDuration+in.Duration > 180 {
		return ErrQuizTooLong
	}
	if in.Points < 1 || in.Points > 10 {
		return ErrBadPoints
	}
	for _, a := range in.Answers {
		if len(a.Answer) < 1 || len(a.Answer) > 30 {
			return ErrAnswerLength
		}
	}
	for i := 0; i < len(in.Answers); i++ {
		for j := i + 1; j < len(in.Answers); j++ {
			if in.Answers[i].Answer == in.Answers[j].Answer {
				return ErrDuplicateAnswers
			}
		}
	}
	anyCorrect := false
	for _, a := range in.Answers {
		if a.Correct {
			anyCorrect = true
			break
		}
	}
	if !anyCorrect {
		return ErrNoCorrectAnswer
	}
	if in.ThumbnailURL == "" {
		return ErrThumbnailRequired
	}
	if !validThumbnailURL(in.ThumbnailURL) {
		return ErrThumbnailType
	}
	return nil
}

// buildAnswers assigns IDs and a random colour order to the proposed answers.
func (s *Service) buildAnswers(in []AnswerInput) []domain.Answer {
	colours := s.randomColourOrder()
	answers := make([]domain.Answer, len(in))
	for i, a := range in {
		answers[i] = domain.Answer{
			AnswerID: nextID(),
			Answer:   a.Answer,
			Colour:   colours[i%len(colours)],
			Correct:  a.Correct,
		}
	}
	return answers
}

// CreateQuestion appends a question to the quiz.
func (s *Service) CreateQuestion(ctx context.Context, token string, quizID int, in QuestionInput) (int, error) {
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
	quiz := &snap.Quizzes[quizIdx]
	if err := validateQuestionInput(in, quiz.Duration); err != nil {
		return 0, err
	}
	link, err := s.storeImage(in.ThumbnailURL)
	if err != nil {
		return 0, err
	}

	question := domain.Question{
		QuestionID:   nextID(),
		Question:     in.Question,
		Duration:     in.Duration,
		Points:       in.Points,
		Answers:      s.buildAnswers(in.Answers),
		ThumbnailURL: link,
	}
	quiz.Questions = append(quiz.Questions, question)
	quiz.NumQuestions++
	quiz.Duration += in.Duration
	quiz.TimeLastEdited = s.nowSeconds()
	if err := s.store.Save(ctx, snap); err != nil {
		return 0, err
	}
	return question.QuestionID, nil
}

// UpdateQuestion replaces a question's content in place.
func (s *Service) UpdateQuestion(ctx context.Context, token string, quizID, questionID int, in QuestionInput) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.store.Load(ctx)
	if err != nil {
		return err
	}
	quizIdx, err := ownedQuiz(snap, token, quizID)
	if err != nil {
		return err
	}
	quiz := &snap.Quizzes[quizIdx]
	questionIdx := -1
	for i := range quiz.Questions {
		if quiz.Questions[i].QuestionID == questionID {
			questionIdx = i
			break
		}
	}
	if questionIdx == -1 {
		return domain.ErrQuestionNotFound
	}
	if err := validateQuestionInput(in, quiz.Duration-quiz.Questions[questionIdx].Duration); err != nil {
		return err
	}
	link, err := s.storeImage(in.ThumbnailURL)
	if err != nil {
		return err
	}

	quiz.Duration = quiz.Duration - quiz.Questions[questionIdx].Duration + in.Duration
	quiz.TimeLastEdited = s.nowSeconds()
	q := &quiz.Questions[questionIdx]
	q.Question = in.Question
	q.Duration = in.Duration
	q.Points = in.Points
	q.Answers = s.buildAnswers(in.Answers)
	q.ThumbnailURL = link
	return s.store.Save(ctx, snap)
}

// DeleteQuestion removes a question. Blocked while any session for the quiz is
// outside END.
func (s *Service) DeleteQuestion(ctx context.Context, token string, quizID, questionID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.store.Load(ctx)
	if err != nil {
		return err
	}
	quizIdx, err := ownedQuiz(snap, token, quizID)
	if err != nil {
		return err
	}
	quiz := &snap.Quizzes[quizIdx]
	questionIdx := -1
	for i := range quiz.Questions {
		if quiz.Questions[i].QuestionID == questionID {
			questionIdx = i
			break
		}
	}
	if questionIdx == -1 {
		return domain.ErrQuestionNotFound
	}
	for _, sess := range snap.QuizSessions {
		if sess.Metadata.QuizID == quizID && sess.State != domain.StateEnd {
			return domain.ErrQuizInUse
		}
	}

	quiz.Duration -= quiz.Questions[questionIdx].Duration
	quiz.Questions = append(quiz.Questions[:questionIdx], quiz.Questions[questionIdx+1:]...)
	quiz.NumQuestions--
	quiz.TimeLastEdited = s.nowSeconds()
	return s.store.Save(ctx, snap)
}

// MoveQuestion repositions a question within the quiz.
func (s *Service) MoveQuestion(ctx context.Context, token string, quizID, questionID, newPosition int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.store.Load(ctx)
	if err != nil {
		return err
	}
	quizIdx, err := ownedQuiz(snap, token, quizID)
	if err != nil {
		return err
	}
	quiz := &snap.Quizzes[quizIdx]
	questionIdx := -1
	for i := range quiz.Questions {
		if quiz.Questions[i].QuestionID == questionID {
			questionIdx = i
			break
		}
	}
	if questionIdx == -1 {
		return domain.ErrQuestionNotFound
	}
	if newPosition < 0 || newPosition > len(quiz.Questions)-1 || newPosition == questionIdx {
		return ErrBadPosition
	}

	moved := quiz.Questions[questionIdx]
	quiz.Questions = append(quiz.Questions[:questionIdx], quiz.Questions[questionIdx+1:]...)
	quiz.Questions = append(quiz.Questions[:newPosition], append([]domain.Question{moved}, quiz.Questions[newPosition:]...)...)
	quiz.TimeLastEdited = s.nowSeconds()
	return s.store.Save(ctx, snap)
}

// DuplicateQuestion inserts a copy of the question immediately after it.
func (s *Service) DuplicateQuestion(ctx context.Context, token string, quizID, questionID int) (int, error) {
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
	quiz := &snap.Quizzes[quizIdx]
	questionIdx := -1
	for i := range quiz.Questions {
		if quiz.Questions[i].QuestionID == questionID {
			questionIdx = i
			break
		}
	}
	if questionIdx == -1 {
		return 0, domain.ErrQuestionNotFound
	}
	if quiz.Duration+quiz.Questions[questionIdx].Duration > 180 {
		return 0, ErrQuizTooLong
	}

	dupe := quiz.Questions[questionIdx]
	dupe.Answers = append([]domain.Answer(nil), dupe.Answers...)
	dupe.QuestionID = nextID()
	quiz.Questions = append(quiz.Questions[:questionIdx+1], append([]domain.Question{dupe}, quiz.Questions[questionIdx+1:]...)...)
	quiz.NumQuestions++
	quiz.Duration += dupe.Duration
	quiz.TimeLastEdited = s.nowSeconds()
	if err := s.store.Save(ctx, snap); err != nil {
		return 0, err
	}
	return dupe.QuestionID, nil
}
