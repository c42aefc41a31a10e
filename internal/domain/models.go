package domain

// State is the lifecycle state of a quiz session.
type State string

const (
	StateLobby             State = "LOBBY"
	StateQuestionCountdown State = "QUESTION_COUNTDOWN"
	StateQuestionOpen      State = "QUESTION_OPEN"
	StateQuestionClose     State = "QUESTION_CLOSE"
	StateAnswerShow        State = "ANSWER_SHOW"
	StateFinalResults      State = "FINAL_RESULTS"
	StateEnd               State = "END"
)

// Command is a host-issued session state-transition action.
type Command string

const (
	CommandNextQuestion     Command = "NEXT_QUESTION"
	CommandGoToAnswer       Command = "GO_TO_ANSWER"
	CommandGoToFinalResults Command = "GO_TO_FINAL_RESULTS"
	CommandEnd              Command = "END"
)

// Valid reports whether c is one of the four known commands. Anything else is
// rejected before it reaches the state machine.
func (c Command) Valid() bool {
	switch c {
	case CommandNextQuestion, CommandGoToAnswer, CommandGoToFinalResults, CommandEnd:
		return true
	}
	return false
}

// User is a registered quiz author.
type User struct {
	UserID                           int      `json:"userId"`
	NameFirst                        string   `json:"nameFirst"`
	NameLast                         string   `json:"nameLast"`
	Email                            string   `json:"email"`
	Password                         string   `json:"password"`
	NumSuccessfulLogins              int      `json:"numSuccessfulLogins"`
	NumFailedPasswordsSinceLastLogin int      `json:"numFailedPasswordsSinceLastLogin"`
	PrevPasswords                    []string `json:"prevPasswords"`
}

// Token binds a login session string to a user.
type Token struct {
	UserID    int    `json:"userId"`
	SessionID string `json:"sessionId"`
}

// Answer is one selectable option on a question. Multiple answers per question
// may be marked correct.
type Answer struct {
	AnswerID int    `json:"answerId"`
	Answer   string `json:"answer"`
	Colour   string `json:"colour"`
	Correct  bool   `json:"correct"`
}

// Question is a timed multiple-choice question within a quiz.
type Question struct {
	QuestionID   int      `json:"questionId"`
	Question     string   `json:"question"`
	Duration     int      `json:"duration"` // seconds
	Points       int      `json:"points"`
	Answers      []Answer `json:"answers"`
	ThumbnailURL string   `json:"thumbnailUrl"`
}

// Quiz is an authored quiz owned by a user.
type Quiz struct {
	QuizID         int        `json:"quizId"`
	Name           string     `json:"name"`
	OwnerUserID    int        `json:"ownerUserId"`
	NumQuestions   int        `json:"numQuestions"`
	Description    string     `json:"description"`
	Questions      []Question `json:"questions"`
	TimeCreated    int64      `json:"timeCreated"`
	TimeLastEdited int64      `json:"timeLastEdited"`
	Duration       int        `json:"duration"` // sum of question durations, seconds
	ThumbnailURL   string     `json:"thumbnailUrl"`
}

// Clone returns a deep copy of the quiz. Session metadata must not alias the
// live quiz, so editing the quiz after a session starts leaves the session
// untouched.
func (q Quiz) Clone() Quiz {
	cp := q
	cp.Questions = make([]Question, len(q.Questions))
	for i, question := range q.Questions {
		qc := question
		qc.Answers = append([]Answer(nil), question.Answers...)
		cp.Questions[i] = qc
	}
	return cp
}

// Player is a guest participant in one quiz session. The three parallel arrays
// are pre-sized to the question count at join time and each slot is written at
// most once.
type Player struct {
	PlayerID        int     `json:"playerId"`
	Name            string  `json:"name"`
	Answers         [][]int `json:"answers"`
	TimeTakenAnswer []int64 `json:"timeTakenAnswer"` // milliseconds
	Correct         []bool  `json:"correct"`
}

// Clone returns a deep copy of the player.
func (p Player) Clone() Player {
	cp := p
	cp.Answers = make([][]int, len(p.Answers))
	for i, ids := range p.Answers {
		cp.Answers[i] = append([]int(nil), ids...)
	}
	cp.TimeTakenAnswer = append([]int64(nil), p.TimeTakenAnswer...)
	cp.Correct = append([]bool(nil), p.Correct...)
	return cp
}

// MessageDetails is one chat message within a session.
type MessageDetails struct {
	MessageBody string `json:"messageBody"`
	PlayerID    int    `json:"playerId"`
	PlayerName  string `json:"playerName"`
	TimeSent    int64  `json:"timeSent"` // unix seconds
}

// QuizSession is one live, timed instance of a quiz. Metadata is a deep
// snapshot of the owning quiz taken at session start.
type QuizSession struct {
	SessionID              int              `json:"sessionId"`
	State                  State            `json:"state"`
	AtQuestion             int              `json:"atQuestion"`
	TimeQuestionLastOpened int64            `json:"timeQuestionLastOpened"` // unix milliseconds
	Players                []Player         `json:"players"`
	Metadata               Quiz             `json:"metadata"`
	Messages               []MessageDetails `json:"messages"`
}

// Clone returns a deep copy of the session.
func (s QuizSession) Clone() QuizSession {
	cp := s
	cp.Players = make([]Player, len(s.Players))
	for i, p := range s.Players {
		cp.Players[i] = p.Clone()
	}
	cp.Metadata = s.Metadata.Clone()
	cp.Messages = append([]MessageDetails(nil), s.Messages...)
	return cp
}

// Snapshot is the whole persisted data set. Operations load it, mutate a local
// copy and save it back as a unit.
type Snapshot struct {
	Users        []User        `json:"users"`
	Tokens       []Token       `json:"tokens"`
	Quizzes      []Quiz        `json:"quizzes"`
	QuizSessions []QuizSession `json:"quizSessions"`
	Trash        []Quiz        `json:"trash"`
}

// Empty returns a fresh zero-value snapshot with non-nil slices, so it
// serializes as empty arrays rather than nulls.
func Empty() Snapshot {
	return Snapshot{
		Users:        []User{},
		Tokens:       []Token{},
		Quizzes:      []Quiz{},
		QuizSessions: []QuizSession{},
		Trash:        []Quiz{},
	}
}

// Clone returns a deep copy of the snapshot.
func (s Snapshot) Clone() Snapshot {
	cp := Snapshot{
		Users:        make([]User, len(s.Users)),
		Tokens:       append([]Token(nil), s.Tokens...),
		Quizzes:      make([]Quiz, len(s.Quizzes)),
		QuizSessions: make([]QuizSession, len(s.QuizSessions)),
		Trash:        make([]Quiz, len(s.Trash)),
	}
	for i, u := range s.Users {
		uc := u
		uc.PrevPasswords = append([]string(nil), u.PrevPasswords...)
		cp.Users[i] = uc
	}
	for i, q := range s.Quizzes {
		cp.Quizzes[i] = q.Clone()
	}
	for i, sess := range s.QuizSessions {
		cp.QuizSessions[i] = sess.Clone()
	}
	for i, q := range s.Trash {
		cp.Trash[i] = q.Clone()
	}
	return cp
}
