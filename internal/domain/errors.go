package domain

import "errors"

var (
	// ErrTokenStructure is returned when a token is not structurally valid.
	ErrTokenStructure = errors.New("token is not a valid structure")
	// ErrNotLoggedIn is returned when a well-formed token is not bound to a
	// currently logged in session.
	ErrNotLoggedIn = errors.New("token is not for a currently logged in session")

	// ErrQuizNotFound indicates the quiz ID does not refer to a valid quiz.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrNotOwner indicates the caller does not own the target quiz.
	ErrNotOwner = errors.New("user does not own this quiz")
	// ErrSessionNotFound indicates the session ID does not refer to a valid session.
	ErrSessionNotFound = errors.New("quiz session not found")
	// ErrQuestionNotFound indicates a question ID is not part of the quiz.
	ErrQuestionNotFound = errors.New("question not found in this quiz")
	// ErrPlayerNotFound indicates the player ID does not belong to any session.
	ErrPlayerNotFound = errors.New("player not found")
	// ErrUserNotFound indicates no registered user matches the given email.
	ErrUserNotFound = errors.New("no user with the given email")
	// ErrQuizNotInTrash indicates a restore target is not currently trashed.
	ErrQuizNotInTrash = errors.New("quiz is not currently in the trash")

	// ErrInvalidCommand is returned for a command outside the known enumeration.
	ErrInvalidCommand = errors.New("action provided is not a valid action enum")
	// ErrCommandUnavailable is returned when a known command is illegal in the
	// session's current state.
	ErrCommandUnavailable = errors.New("action cannot be applied in the current state")
	// ErrSessionNotInLobby is returned when a guest joins outside LOBBY.
	ErrSessionNotInLobby = errors.New("session is not in LOBBY state")
	// ErrQuestionNotOpen is returned for answer submissions outside QUESTION_OPEN.
	ErrQuestionNotOpen = errors.New("session is not in QUESTION_OPEN state")
	// ErrAnswersNotShown is returned for question-result reads outside ANSWER_SHOW.
	ErrAnswersNotShown = errors.New("session is not in ANSWER_SHOW state")
	// ErrResultsNotFinal is returned for final-result reads outside FINAL_RESULTS.
	ErrResultsNotFinal = errors.New("session is not in FINAL_RESULTS state")
	// ErrQuestionNotReached is returned when a player references a question the
	// session has not advanced to yet.
	ErrQuestionNotReached = errors.New("session is not yet up to this question")
	// ErrQuestionPosition is returned for a question position outside the
	// session's question count.
	ErrQuestionPosition = errors.New("question position is not valid for this session")
	// ErrQuizInUse blocks quiz/question deletion while a session is active.
	ErrQuizInUse = errors.New("all sessions for this quiz must be in END state")

	// ErrDuplicateName is returned when a joining player's name is taken.
	ErrDuplicateName = errors.New("name is already in use by another player")
	// ErrNoAnswers is returned when an answer submission is empty.
	ErrNoAnswers = errors.New("less than 1 answer ID was submitted")
	// ErrDuplicateAnswerIDs is returned when a submission repeats an answer ID.
	ErrDuplicateAnswerIDs = errors.New("duplicate answer IDs provided")
	// ErrAnswerNotFound is returned when a submitted ID is not one of the
	// question's answers.
	ErrAnswerNotFound = errors.New("answer IDs are not valid for this question")
	// ErrMessageLength bounds chat bodies to 1-100 characters.
	ErrMessageLength = errors.New("message body must be between 1 and 100 characters")
)
