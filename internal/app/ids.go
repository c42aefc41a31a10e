package app

import (
	"strings"
	"sync/atomic"
	"time"

	"toohak-quiz-service/internal/domain"
)

// idSeq hands out unique IDs for quizzes, questions, answers and players.
// Seeded from wall-clock millis so IDs stay unique across restarts of a
// file-backed deployment.
var idSeq atomic.Int64

func init() {
	idSeq.Store(time.Now().UnixMilli())
}

func nextID() int {
	return int(idSeq.Add(1))
}

// newSessionID draws from the squared pseudo-random scheme, retrying until the
// ID is unused by any existing session.
func (s *Service) newSessionID(snap domain.Snapshot) int {
	for {
		n := s.rnd.Intn(10000) + 1
		id := n * n
		if findSession(snap, id) == -1 {
			return id
		}
	}
}

const (
	nameLetters = "abcdefghijklmnopqrstuvwxyz"
	nameDigits  = "1234567890"
)

// randomPlayerName builds a name of 5 distinct lowercase letters followed by 3
// distinct digits.
func (s *Service) randomPlayerName() string {
	var b strings.Builder
	letters := []byte(nameLetters)
	for i := 0; i < 5; i++ {
		j := s.rnd.Intn(len(letters))
		b.WriteByte(letters[j])
		letters = append(letters[:j], letters[j+1:]...)
	}
	digits := []byte(nameDigits)
	for i := 0; i < 3; i++ {
		j := s.rnd.Intn(len(digits))
		b.WriteByte(digits[j])
		digits = append(digits[:j], digits[j+1:]...)
	}
	return b.String()
}

var answerColours = []string{"red", "blue", "green", "yellow", "purple", "brown", "orange"}

// randomColourOrder returns the answer colour palette in a random order.
func (s *Service) randomColourOrder() []string {
	colours := append([]string(nil), answerColours...)
	s.rnd.Shuffle(len(colours), func(i, j int) {
		colours[i], colours[j] = colours[j], colours[i]
	})
	return colours
}
