package app

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"regexp"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"toohak-quiz-service/internal/domain"
)

var (
	// ErrEmailInUse is returned when registering or updating to a taken email.
	ErrEmailInUse = errors.New("email is already in use")
	// ErrInvalidEmail is returned for a malformed email address.
	ErrInvalidEmail = errors.New("invalid email")
	// ErrInvalidName is returned when a name has disallowed characters or length.
	ErrInvalidName = errors.New("name must be 2-20 letters, spaces, hyphens or apostrophes")
	// ErrWeakPassword is returned when a password fails the length/content rules.
	ErrWeakPassword = errors.New("password must be at least 8 characters with a letter and a number")
	// ErrBadCredentials is returned on login with an unknown email or wrong password.
	ErrBadCredentials = errors.New("email or password is incorrect")
	// ErrPasswordReused blocks changing back to a previously used password.
	ErrPasswordReused = errors.New("password has been used before by this user")
	// ErrWrongOldPassword is returned when the supplied old password does not match.
	ErrWrongOldPassword = errors.New("old password is not correct")
)

var (
	validate        = validator.New()
	userNamePattern = regexp.MustCompile(`^[A-Za-z \-']+$`)
	hasLetter       = regexp.MustCompile(`[a-zA-Z]`)
	hasDigit        = regexp.MustCompile(`[0-9]`)
)

func hashOf(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}

func validUserName(name string) bool {
	return len(name) >= 2 && len(name) <= 20 && userNamePattern.MatchString(name)
}

func validPassword(password string) bool {
	return len(password) >= 8 && hasLetter.MatchString(password) && hasDigit.MatchString(password)
}

// Register creates a user and an initial login session, returning the token.
func (s *Service) Register(ctx context.Context, email, password, nameFirst, nameLast string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.store.Load(ctx)
	if err != nil {
		return "", err
	}
	for _, u := range snap.Users {
		if u.Email == email {
			return "", ErrEmailInUse
		}
	}
	if validate.Var(email, "required,email") != nil {
		return "", ErrInvalidEmail
	}
	if !validUserName(nameFirst) || !validUserName(nameLast) {
		return "", ErrInvalidName
	}
	if !validPassword(password) {
		return "", ErrWeakPassword
	}

	hashed := hashOf(password)
	user := domain.User{
		UserID:              nextID(),
		NameFirst:           nameFirst,
		NameLast:            nameLast,
		Email:               email,
		Password:            hashed,
		NumSuccessfulLogins: 1,
		PrevPasswords:       []string{hashed},
	}
	token := domain.Token{UserID: user.UserID, SessionID: uuid.NewString()}

	snap.Users = append(snap.Users, user)
	snap.Tokens = append(snap.Tokens, token)
	if err := s.store.Save(ctx, snap); err != nil {
		return "", err
	}
	return token.SessionID, nil
}

// Login verifies credentials and opens a new login session.
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.store.Load(ctx)
	if err != nil {
		return "", err
	}
	userIdx := -1
	for i := range snap.Users {
		if snap.Users[i].Email == email {
			userIdx = i
			break
		}
	}
	if userIdx == -1 {
		return "", ErrBadCredentials
	}
	if snap.Users[userIdx].Password != hashOf(password) {
		snap.Users[userIdx].NumFailedPasswordsSinceLastLogin++
		if err := s.store.Save(ctx, snap); err != nil {
			return "", err
		}
		return "", ErrBadCredentials
	}

	snap.Users[userIdx].NumFailedPasswordsSinceLastLogin = 0
	snap.Users[userIdx].NumSuccessfulLogins++
	token := domain.Token{UserID: snap.Users[userIdx].UserID, SessionID: uuid.NewString()}
	snap.Tokens = append(snap.Tokens, token)
	if err := s.store.Save(ctx, snap); err != nil {
		return "", err
	}
	return token.SessionID, nil
}

// Logout removes the login session behind the token.
func (s *Service) Logout(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.store.Load(ctx)
	if err != nil {
		return err
	}
	if token == "" {
		return domain.ErrTokenStructure
	}
	for i := range snap.Tokens {
		if snap.Tokens[i].SessionID == token {
			snap.Tokens = append(snap.Tokens[:i], snap.Tokens[i+1:]...)
			return s.store.Save(ctx, snap)
		}
	}
	return domain.ErrNotLoggedIn
}

// UserDetails is the read model for the authenticated user.
type UserDetails struct {
	UserID                           int    `json:"userId"`
	Name                             string `json:"name"`
	Email                            string `json:"email"`
	NumSuccessfulLogins              int    `json:"numSuccessfulLogins"`
	NumFailedPasswordsSinceLastLogin int    `json:"numFailedPasswordsSinceLastLogin"`
}

// Details returns the caller's account details.
func (s *Service) Details(ctx context.Context, token string) (UserDetails, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.store.Load(ctx)
	if err != nil {
		return UserDetails{}, err
	}
	userID, err := resolveToken(snap, token)
	if err != nil {
		return UserDetails{}, err
	}
	for _, u := range snap.Users {
		if u.UserID == userID {
			return UserDetails{
				UserID:                           u.UserID,
				Name:                             u.NameFirst + " " + u.NameLast,
				Email:                            u.Email,
				NumSuccessfulLogins:              u.NumSuccessfulLogins,
				NumFailedPasswordsSinceLastLogin: u.NumFailedPasswordsSinceLastLogin,
			}, nil
		}
	}
	return UserDetails{}, domain.ErrNotLoggedIn
}

// UpdateDetails changes the caller's email and names.
func (s *Service) UpdateDetails(ctx context.Context, token, email, nameFirst, nameLast string) error {
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
	for _, u := range snap.Users {
		if u.UserID != userID && u.Email == email {
			return ErrEmailInUse
		}
	}
	if validate.Var(email, "required,email") != nil {
		return ErrInvalidEmail
	}
	if !validUserName(nameFirst) || !validUserName(nameLast) {
		return ErrInvalidName
	}
	for i := range snap.Users {
		if snap.Users[i].UserID == userID {
			snap.Users[i].Email = email
			snap.Users[i].NameFirst = nameFirst
			snap.Users[i].NameLast = nameLast
			break
		}
	}
	return s.store.Save(ctx, snap)
}

// UpdatePassword changes the caller's password, refusing reuse of any password
// in the account's history.
func (s *Service) UpdatePassword(ctx context.Context, token, oldPassword, newPassword string) error {
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
	userIdx := -1
	for i := range snap.Users {
		if snap.Users[i].UserID == userID {
			userIdx = i
			break
		}
	}
	if userIdx == -1 {
		return domain.ErrNotLoggedIn
	}
	user := &snap.Users[userIdx]

	oldHash := hashOf(oldPassword)
	newHash := hashOf(newPassword)
	if oldHash != user.Password {
		return ErrWrongOldPassword
	}
	if newHash == oldHash {
		return ErrPasswordReused
	}
	for _, prev := range user.PrevPasswords {
		if prev == newHash {
			return ErrPasswordReused
		}
	}
	if !validPassword(newPassword) {
		return ErrWeakPassword
	}

	user.PrevPasswords = append(user.PrevPasswords, user.Password)
	user.Password = newHash
	return s.store.Save(ctx, snap)
}
