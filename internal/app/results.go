package app

import (
	"context"
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"toohak-quiz-service/internal/domain"
)

func round1(x float64) float64 {
	return math.Round(x*10) / 10
}

// AnswerBreakdown lists, for one correct answer, the players whose submission
// included it.
type AnswerBreakdown struct {
	AnswerID       int      `json:"answerId"`
	PlayersCorrect []string `json:"playersCorrect"`
}

// QuestionResult is the per-question statistics block.
type QuestionResult struct {
	QuestionID               int               `json:"questionId"`
	QuestionCorrectBreakdown []AnswerBreakdown `json:"questionCorrectBreakdown"`
	AverageAnswerTime        float64           `json:"averageAnswerTime"` // seconds
	PercentCorrect           float64           `json:"percentCorrect"`
}

// RankedUser is one row of the final leaderboard.
type RankedUser struct {
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

// FinalResults is the complete output of a finished session.
type FinalResults struct {
	UsersRankedByScore []RankedUser     `json:"usersRankedByScore"`
	QuestionResults    []QuestionResult `json:"questionResults"`
}

// correctBreakdown builds the per-correct-answer player listing for the
// question at index questionIdx, in the question's answer order.
func correctBreakdown(session domain.QuizSession, questionIdx int) []AnswerBreakdown {
	question := session.Metadata.Questions[questionIdx]
	breakdown := []AnswerBreakdown{}
	for _, answer := range question.Answers {
		if !answer.Correct {
			continue
		}
		names := []string{}
		for _, p := range session.Players {
			for _, id := range p.Answers[questionIdx] {
				if id == answer.AnswerID {
					names = append(names, p.Name)
					break
				}
			}
		}
		breakdown = append(breakdown, AnswerBreakdown{AnswerID: answer.AnswerID, PlayersCorrect: names})
	}
	return breakdown
}

// fullyCorrect reports whether the player's recorded answer set for the
// question is exactly the correct set.
func fullyCorrect(p domain.Player, question domain.Question, questionIdx int) bool {
	if len(p.Answers) <= questionIdx {
		return false
	}
	return exactAnswerMatch(p.Answers[questionIdx], question)
}

// timeRank returns the player's 1-based rank among all players who answered
// the question fully correctly, ordered by ascending answer time. The sort is
// stable so time ties keep join order. Returns 0 if the player was not fully
// correct.
func timeRank(session domain.QuizSession, player domain.Player, questionIdx int) int {
	question := session.Metadata.Questions[questionIdx]
	if !fullyCorrect(player, question, questionIdx) {
		return 0
	}
	correct := []domain.Player{}
	for _, p := range session.Players {
		if fullyCorrect(p, question, questionIdx) {
			correct = append(correct, p)
		}
	}
	sort.SliceStable(correct, func(i, j int) bool {
		return correct[i].TimeTakenAnswer[questionIdx] < correct[j].TimeTakenAnswer[questionIdx]
	})
	for i, p := range correct {
		if p.PlayerID == player.PlayerID {
			return i + 1
		}
	}
	return 0
}

// computeFinalResults does the full ranking and per-question aggregation. A
// fully correct answer awards round(points/rank*10)/10 where rank is the
// player's position by answer time among fully correct players.
func computeFinalResults(session domain.QuizSession) FinalResults {
	ranked := make([]RankedUser, len(session.Players))
	for i, player := range session.Players {
		score := 0.0
		for q := range session.Metadata.Questions {
			rank := timeRank(session, player, q)
			if rank > 0 {
				score += round1(float64(session.Metadata.Questions[q].Points) / float64(rank))
			}
		}
		ranked[i] = RankedUser{Name: player.Name, Score: round1(score)}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	results := make([]QuestionResult, len(session.Metadata.Questions))
	for q, question := range session.Metadata.Questions {
		var totalMillis int64
		numCorrect := 0
		for _, p := range session.Players {
			totalMillis += p.TimeTakenAnswer[q]
			if p.Correct[q] {
				numCorrect++
			}
		}
		avg, pct := 0.0, 0.0
		// A session can reach FINAL_RESULTS with no players.
		if n := float64(len(session.Players)); n > 0 {
			avg = round1(float64(totalMillis) / n / 1000)
			pct = round1(float64(numCorrect) / n * 100)
		}
		results[q] = QuestionResult{
			QuestionID:               question.QuestionID,
			QuestionCorrectBreakdown: correctBreakdown(session, q),
			AverageAnswerTime:        avg,
			PercentCorrect:           pct,
		}
	}
	return FinalResults{UsersRankedByScore: ranked, QuestionResults: results}
}

// GetQuestionResults returns the single-question breakdown once answers are
// being shown. Unlike the final results, averages here are not rounded.
func (s *Service) GetQuestionResults(ctx context.Context, playerID, questionPosition int) (QuestionResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.store.Load(ctx)
	if err != nil {
		return QuestionResult{}, err
	}
	sessionIdx, _ := findSessionByPlayer(snap, playerID)
	if sessionIdx == -1 {
		return QuestionResult{}, domain.ErrPlayerNotFound
	}
	session := snap.QuizSessions[sessionIdx]
	if questionPosition > session.Metadata.NumQuestions {
		return QuestionResult{}, domain.ErrQuestionPosition
	}
	if session.State != domain.StateAnswerShow {
		return QuestionResult{}, domain.ErrAnswersNotShown
	}
	if session.AtQuestion < questionPosition {
		return QuestionResult{}, domain.ErrQuestionNotReached
	}

	questionIdx := questionPosition - 1
	var totalMillis int64
	numCorrect := 0
	for _, p := range session.Players {
		totalMillis += p.TimeTakenAnswer[questionIdx]
		if p.Correct[questionIdx] {
			numCorrect++
		}
	}
	avg, pct := 0.0, 0.0
	if n := float64(len(session.Players)); n > 0 {
		avg = float64(totalMillis) / (n * 1000)
		pct = float64(numCorrect) / n * 100
	}
	return QuestionResult{
		QuestionID:               session.Metadata.Questions[questionIdx].QuestionID,
		QuestionCorrectBreakdown: correctBreakdown(session, questionIdx),
		AverageAnswerTime:        avg,
		PercentCorrect:           pct,
	}, nil
}

// GetFinalResults returns the host-facing final results of a session in
// FINAL_RESULTS.
func (s *Service) GetFinalResults(ctx context.Context, token string, quizID, sessionID int) (FinalResults, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.finalSession(ctx, token, quizID, sessionID)
	if err != nil {
		return FinalResults{}, err
	}
	return computeFinalResults(session), nil
}

// GetPlayerResults returns the same final results resolved through a player
// ID rather than host credentials.
func (s *Service) GetPlayerResults(ctx context.Context, playerID int) (FinalResults, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.store.Load(ctx)
	if err != nil {
		return FinalResults{}, err
	}
	sessionIdx, _ := findSessionByPlayer(snap, playerID)
	if sessionIdx == -1 {
		return FinalResults{}, domain.ErrPlayerNotFound
	}
	session := snap.QuizSessions[sessionIdx]
	if session.State != domain.StateFinalResults {
		return FinalResults{}, domain.ErrResultsNotFinal
	}
	return computeFinalResults(session), nil
}

// finalSession validates host access and the FINAL_RESULTS precondition,
// returning a deep copy of the session. Caller must hold s.mu.
func (s *Service) finalSession(ctx context.Context, token string, quizID, sessionID int) (domain.QuizSession, error) {
	snap, err := s.store.Load(ctx)
	if err != nil {
		return domain.QuizSession{}, err
	}
	if _, err := ownedQuiz(snap, token, quizID); err != nil {
		return domain.QuizSession{}, err
	}
	sessionIdx := quizSession(snap, quizID, sessionID)
	if sessionIdx == -1 {
		return domain.QuizSession{}, domain.ErrSessionNotFound
	}
	if snap.QuizSessions[sessionIdx].State != domain.StateFinalResults {
		return domain.QuizSession{}, domain.ErrResultsNotFinal
	}
	return snap.QuizSessions[sessionIdx].Clone(), nil
}

// ExportCSV writes the final results grid to a CSV file keyed by session ID
// and returns the URL it is served at. Concurrent exports of the same session
// are collapsed to a single write.
func (s *Service) ExportCSV(ctx context.Context, token string, quizID, sessionID int) (string, error) {
	s.mu.Lock()
	session, err := s.finalSession(ctx, token, quizID, sessionID)
	s.mu.Unlock()
	if err != nil {
		return "", err
	}

	url, err, _ := s.csvGroup.Do(strconv.Itoa(sessionID), func() (interface{}, error) {
		return s.writeCSV(session)
	})
	if err != nil {
		return "", err
	}
	return url.(string), nil
}

func (s *Service) writeCSV(session domain.QuizSession) (string, error) {
	records := csvRecords(session)

	if err := os.MkdirAll(s.csvDir, 0o755); err != nil {
		return "", fmt.Errorf("create csv dir: %w", err)
	}
	fileName := fmt.Sprintf("session_%d.csv", session.SessionID)
	f, err := os.Create(filepath.Join(s.csvDir, fileName))
	if err != nil {
		return "", fmt.Errorf("create csv: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.WriteAll(records); err != nil {
		return "", fmt.Errorf("write csv: %w", err)
	}
	return s.baseURL + "/csv_files/" + fileName, nil
}

// csvRecords builds the header and one row per player sorted by name. Each
// question contributes a score column (rank-fractional award) and a rank
// column (position in the descending sort of that question's scores; tied
// scores collapse to the first matching position).
func csvRecords(session domain.QuizSession) [][]string {
	players := make([]domain.Player, len(session.Players))
	for i, p := range session.Players {
		players[i] = p.Clone()
	}
	sort.SliceStable(players, func(i, j int) bool {
		return players[i].Name < players[j].Name
	})
	sorted := session
	sorted.Players = players

	numQuestions := len(session.Metadata.Questions)
	header := []string{"Player"}
	for i := 1; i <= numQuestions; i++ {
		header = append(header, fmt.Sprintf("question%dscore", i), fmt.Sprintf("question%drank", i))
	}

	// scores[q][p] is player p's (name order) score on question q.
	scores := make([][]float64, numQuestions)
	for q := 0; q < numQuestions; q++ {
		scores[q] = make([]float64, len(players))
		points := float64(session.Metadata.Questions[q].Points)
		for p, player := range players {
			if rank := timeRank(sorted, player, q); rank > 0 {
				scores[q][p] = round1(points / float64(rank))
			}
		}
	}

	records := [][]string{header}
	for p, player := range players {
		row := []string{player.Name}
		for q := 0; q < numQuestions; q++ {
			descending := append([]float64(nil), scores[q]...)
			sort.Sort(sort.Reverse(sort.Float64Slice(descending)))
			rank := 0
			for i, v := range descending {
				if v == scores[q][p] {
					rank = i + 1
					break
				}
			}
			row = append(row,
				strconv.FormatFloat(scores[q][p], 'f', -1, 64),
				strconv.Itoa(rank),
			)
		}
		records = append(records, row)
	}
	return records
}
