package app

import (
	"context"
	"errors"
	"regexp"
	"sort"

	"toohak-quiz-service/internal/domain"
)

var (
	// ErrQuizNameTaken is returned when the owner already has a quiz (active or
	// trashed) with the same name.
	ErrQuizNameTaken = errors.New("name is already used by user for another quiz")
	// ErrQuizNameInvalid bounds names to 3-30 alphanumeric/space characters.
	ErrQuizNameInvalid = errors.New("name must be 3-30 alphanumeric characters or spaces")
	// ErrDescriptionTooLong bounds descriptions to 100 characters.
	ErrDescriptionTooLong = errors.New("description must be 100 characters or less")
	// ErrTransferToSelf is returned when transferring a quiz to its current owner.
	ErrTransferToSelf = errors.New("email address corresponds to current owner")
	// ErrThumbnailType is returned for thumbnail URLs that are not jpg/png.
	ErrThumbnailType = errors.New("thumbnail URL is not a jpg or png file type")
)

var quizNamePattern = regexp.MustCompile(`^[A-Za-z0-9\s]+$`)

func quizNameTaken(snap domain.Snapshot, name string, ownerID int) bool {
	for _, q := range snap.Quizzes {
		if q.Name == name && q.OwnerUserID == ownerID {
			return true
		}
	}
	for _, q := range snap.Trash {
		if q.Name == name && q.OwnerUserID == ownerID {
			return true
		}
	}
	return false
}

// CreateQuiz makes a new empty quiz for the caller.
func (s *Service) CreateQuiz(ctx context.Context, token, name, description string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.store.Load(ctx)
	if err != nil {
		return 0, err
	}
	userID, err := resolveToken(snap, token)
	if err != nil {
		return 0, err
	}
	if quizNameTaken(snap, name, userID) {
		return 0, ErrQuizNameTaken
	}
	if len(name) < 3 || len(name) > 30 || !quizNamePattern.MatchString(name) {
		return 0, ErrQuizNameInvalid
	}
	if len(description) > 100 {
		return 0, ErrDescriptionTooLong
	}

	now := s.nowSeconds()
	quiz := domain.Quiz{
		QuizID:         nextID(),
		Name:           name,
		OwnerUserID:    userID,
		Description:    description,
		Questions:      []domain.Question{},
		TimeCreated:    now,
		TimeLastEdited: now,
	}
	snap.Quizzes = append(snap.Quizzes, quiz)
	if err := s.store.Save(ctx, snap); err != nil {
		return 0, err
	}
	return quiz.QuizID, nil
}

// QuizListItem is the id/name pair shown in quiz and trash listings.
type QuizListItem struct {
	QuizID int    `json:"quizId"`
	Name   string `json:"name"`
}

// ListQuizzes returns the caller's active quizzes.
func (s *Service) ListQuizzes(ctx context.Context, token string) ([]QuizListItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	userID, err := resolveToken(snap, token)
	if err != nil {
		return nil, err
	}
	items := []QuizListItem{}
	for _, q := range snap.Quizzes {
		if q.OwnerUserID == userID {
			items = append(items, QuizListItem{QuizID: q.QuizID, Name: q.Name})
		}
	}
	return items, nil
}

// QuizInfo is the owner-facing read model of a quiz.
type QuizInfo struct {
	QuizID         int               `json:"quizId"`
	Name           string            `json:"name"`
	TimeCreated    int64             `json:"timeCreated"`
	TimeLastEdited int64             `json:"timeLastEdited"`
	Description    string            `json:"description"`
	NumQuestions   int               `json:"numQuestions"`
	Questions      []domain.Question `json:"questions"`
	Duration       int               `json:"duration"`
	ThumbnailURL   string            `json:"thumbnailUrl"`
}

func quizInfoOf(q domain.Quiz) QuizInfo {
	return QuizInfo{
		QuizID:         q.QuizID,
		Name:           q.Name,
		TimeCreated:    q.TimeCreated,
		TimeLastEdited: q.TimeLastEdited,
		Description:    q.Description,
		NumQuestions:   q.NumQuestions,
		Questions:      q.Questions,
		Duration:       q.Duration,
		ThumbnailURL:   q.ThumbnailURL,
	}
}

// GetQuizInfo returns the full quiz details for its owner.
func (s *Service) GetQuizInfo(ctx context.Context, token string, quizID int) (QuizInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.store.Load(ctx)
	if err != nil {
		return QuizInfo{}, err
	}
	quizIdx, err := ownedQuiz(snap, token, quizID)
	if err != nil {
		return QuizInfo{}, err
	}
	return quizInfoOf(snap.Quizzes[quizIdx].Clone()), nil
}

// UpdateQuizName renames a quiz.
func (s *Service) UpdateQuizName(ctx context.Context, token string, quizID int, name string) error {
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
	if len(name) < 3 || len(name) > 30 || !quizNamePattern.MatchString(name) {
		return ErrQuizNameInvalid
	}
	owner := snap.Quizzes[quizIdx].OwnerUserID
	for _, q := range snap.Quizzes {
		if q.Name == name && q.OwnerUserID == owner {
			return ErrQuizNameTaken
		}
	}
	snap.Quizzes[quizIdx].Name = name
	snap.Quizzes[quizIdx].TimeLastEdited = s.nowSeconds()
	return s.store.Save(ctx, snap)
}

// UpdateQuizDescription replaces a quiz's description.
func (s *Service) UpdateQuizDescription(ctx context.Context, token string, quizID int, description string) error {
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
	if len(description) > 100 {
		return ErrDescriptionTooLong
	}
	snap.Quizzes[quizIdx].Description = description
	snap.Quizzes[quizIdx].TimeLastEdited = s.nowSeconds()
	return s.store.Save(ctx, snap)
}

// RemoveQuiz moves a quiz to the trash. Removal is blocked while any session
// for the quiz is outside END.
func (s *Service) RemoveQuiz(ctx context.Context, token string, quizID int) error {
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
	for _, sess := range snap.QuizSessions {
		if sess.Metadata.QuizID == quizID && sess.State != domain.StateEnd {
			return domain.ErrQuizInUse
		}
	}
	snap.Quizzes[quizIdx].TimeLastEdited = s.nowSeconds()
	snap.Trash = append(snap.Trash, snap.Quizzes[quizIdx])
	snap.Quizzes = append(snap.Quizzes[:quizIdx], snap.Quizzes[quizIdx+1:]...)
	return s.store.Save(ctx, snap)
}

// ListTrash returns the caller's trashed quizzes.
func (s *Service) ListTrash(ctx context.Context, token string) ([]QuizListItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	userID, err := resolveToken(snap, token)
	if err != nil {
		return nil, err
	}
	items := []QuizListItem{}
	for _, q := range snap.Trash {
		if q.OwnerUserID == userID {
			items = append(items, QuizListItem{QuizID: q.QuizID, Name: q.Name})
		}
	}
	return items, nil
}

// RestoreQuiz moves a quiz out of the trash back to the active list.
func (s *Service) RestoreQuiz(ctx context.Context, token string, quizID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.store.Load(ctx)
	if err != nil {
		return err
	}
	userID, err := resolveToken(snap, token)
	if err != nil {
		return err
	}
	quizIdx := findQuiz(snap, quizID)
	trashIdx := findTrash(snap, quizID)
	if quizIdx == -1 && trashIdx == -1 {
		return domain.ErrQuizNotFound
	}
	if trashIdx != -1 {
		if snap.Trash[trashIdx].OwnerUserID != userID {
			return domain.ErrNotOwner
		}
	} else {
		if snap.Quizzes[quizIdx].OwnerUserID != userID {
			return domain.ErrNotOwner
		}
		return domain.ErrQuizNotInTrash
	}

	snap.Trash[trashIdx].TimeLastEdited = s.nowSeconds()
	restored := snap.Trash[trashIdx]
	snap.Trash = append(snap.Trash[:trashIdx], snap.Trash[trashIdx+1:]...)
	snap.Quizzes = append(snap.Quizzes, restored)
	return s.store.Save(ctx, snap)
}

// EmptyTrash permanently deletes the given trashed quizzes. All IDs must be in
// the caller's trash or nothing is deleted.
func (s *Service) EmptyTrash(ctx context.Context, token string, quizIDs []int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.store.Load(ctx)
	if err != nil {
		return err
	}
	userID, err := resolveToken(snap, token)
	if err != nil {
		return err
	}
	indexes := make([]int, 0, len(quizIDs))
	for _, id := range quizIDs {
		idx := findTrash(snap, id)
		if idx == -1 {
			return domain.ErrQuizNotInTrash
		}
		indexes = append(indexes, idx)
	}
	for _, idx := range indexes {
		if snap.Trash[idx].OwnerUserID != userID {
			return domain.ErrNotOwner
		}
	}
	sort.Sort(sort.Reverse(sort.IntSlice(indexes)))
	for _, idx := range indexes {
		snap.Trash = append(snap.Trash[:idx], snap.Trash[idx+1:]...)
	}
	return s.store.Save(ctx, snap)
}

// TransferQuiz hands quiz ownership to the user registered under email.
func (s *Service) TransferQuiz(ctx context.Context, token string, quizID int, email string) error {
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
	owner := snap.Quizzes[quizIdx].OwnerUserID
	for _, u := range snap.Users {
		if u.UserID == owner && u.Email == email {
			return ErrTransferToSelf
		}
	}
	newOwnerID := -1
	for _, u := range snap.Users {
		if u.Email == email {
			newOwnerID = u.UserID
			break
		}
	}
	if newOwnerID == -1 {
		return domain.ErrUserNotFound
	}
	if quizNameTaken(snap, snap.Quizzes[quizIdx].Name, newOwnerID) {
		return ErrQuizNameTaken
	}
	snap.Quizzes[quizIdx].OwnerUserID = newOwnerID
	snap.Quizzes[quizIdx].TimeLastEdited = s.nowSeconds()
	return s.store.Save(ctx, snap)
}

// UpdateQuizThumbnail fetches the image behind thumbnailURL, stores a local
// copy and points the quiz at the served copy.
func (s *Service) UpdateQuizThumbnail(ctx context.Context, token string, quizID int, thumbnailURL string) error {
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
	if !validThumbnailURL(thumbnailURL) {
		return ErrThumbnailType
	}
	link, err := s.storeImage(thumbnailURL)
	if err != nil {
		return err
	}
	snap.Quizzes[quizIdx].ThumbnailURL = link
	snap.Quizzes[quizIdx].TimeLastEdited = s.nowSeconds()
	return s.store.Save(ctx, snap)
}
