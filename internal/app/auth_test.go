package app

import (
	"context"
	"errors"
	"testing"

	"toohak-quiz-service/internal/domain"
)

func TestRegisterValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	cases := []struct {
		name      string
		email     string
		password  string
		nameFirst string
		nameLast  string
		want      error
	}{
		{"bad email", "not-an-email", "password1", "Hayden", "Smith", ErrInvalidEmail},
		{"digits in name", "a@b.com", "password1", "Hayden2", "Smith", ErrInvalidName},
		{"name too short", "a@b.com", "password1", "H", "Smith", ErrInvalidName},
		{"password too short", "a@b.com", "pass1", "Hayden", "Smith", ErrWeakPassword},
		{"password no digit", "a@b.com", "passwordonly", "Hayden", "Smith", ErrWeakPassword},
		{"password no letter", "a@b.com", "12345678", "Hayden", "Smith", ErrWeakPassword},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Register(ctx, tc.email, tc.password, tc.nameFirst, tc.nameLast); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}

	if _, err := svc.Register(ctx, "hayden@unsw.edu.au", "password1", "Hayden", "Smith"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := svc.Register(ctx, "hayden@unsw.edu.au", "password1", "Other", "Person"); !errors.Is(err, ErrEmailInUse) {
		t.Fatalf("expected duplicate email rejection, got %v", err)
	}

	// Apostrophes, hyphens and spaces are allowed in names.
	if _, err := svc.Register(ctx, "obrien@unsw.edu.au", "password1", "Mary-Jane", "O'Brien"); err != nil {
		t.Fatalf("register with punctuation name: %v", err)
	}
}

func TestLoginTracksCounters(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	token := registerUser(t, svc, "hayden@unsw.edu.au")

	if _, err := svc.Login(ctx, "hayden@unsw.edu.au", "wrong-pass1"); !errors.Is(err, ErrBadCredentials) {
		t.Fatalf("expected bad credentials, got %v", err)
	}
	details, err := svc.Details(ctx, token)
	if err != nil {
		t.Fatalf("details: %v", err)
	}
	if details.NumFailedPasswordsSinceLastLogin != 1 {
		t.Fatalf("expected 1 failed login, got %d", details.NumFailedPasswordsSinceLastLogin)
	}

	if _, err := svc.Login(ctx, "hayden@unsw.edu.au", "password1"); err != nil {
		t.Fatalf("login: %v", err)
	}
	details, _ = svc.Details(ctx, token)
	if details.NumSuccessfulLogins != 2 {
		t.Fatalf("expected 2 successful logins, got %d", details.NumSuccessfulLogins)
	}
	if details.NumFailedPasswordsSinceLastLogin != 0 {
		t.Fatalf("expected failed counter reset, got %d", details.NumFailedPasswordsSinceLastLogin)
	}
	if details.Name != "Hayden Smith" {
		t.Fatalf("expected concatenated name, got %q", details.Name)
	}
}

func TestLogout(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	token := registerUser(t, svc, "hayden@unsw.edu.au")

	if err := svc.Logout(ctx, token); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, err := svc.Details(ctx, token); !errors.Is(err, domain.ErrNotLoggedIn) {
		t.Fatalf("expected token invalidated, got %v", err)
	}
	if err := svc.Logout(ctx, ""); !errors.Is(err, domain.ErrTokenStructure) {
		t.Fatalf("expected structural token rejection, got %v", err)
	}
}

func TestUpdatePassword(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	token := registerUser(t, svc, "hayden@unsw.edu.au")

	if err := svc.UpdatePassword(ctx, token, "nope12345", "fresh-pass1"); !errors.Is(err, ErrWrongOldPassword) {
		t.Fatalf("expected wrong old password, got %v", err)
	}
	if err := svc.UpdatePassword(ctx, token, "password1", "password1"); !errors.Is(err, ErrPasswordReused) {
		t.Fatalf("expected reuse rejection, got %v", err)
	}
	if err := svc.UpdatePassword(ctx, token, "password1", "fresh-pass1"); err != nil {
		t.Fatalf("update password: %v", err)
	}
	// The old password joins the history and can never come back.
	if err := svc.UpdatePassword(ctx, token, "fresh-pass1", "password1"); !errors.Is(err, ErrPasswordReused) {
		t.Fatalf("expected old password blocked, got %v", err)
	}
	if _, err := svc.Login(ctx, "hayden@unsw.edu.au", "fresh-pass1"); err != nil {
		t.Fatalf("login with new password: %v", err)
	}
}

func TestUpdateDetails(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	token := registerUser(t, svc, "hayden@unsw.edu.au")
	registerUser(t, svc, "taken@unsw.edu.au")

	if err := svc.UpdateDetails(ctx, token, "taken@unsw.edu.au", "Hayden", "Smith"); !errors.Is(err, ErrEmailInUse) {
		t.Fatalf("expected email conflict, got %v", err)
	}
	if err := svc.UpdateDetails(ctx, token, "new@unsw.edu.au", "Jake", "Renzella"); err != nil {
		t.Fatalf("update details: %v", err)
	}
	details, err := svc.Details(ctx, token)
	if err != nil {
		t.Fatalf("details: %v", err)
	}
	if details.Email != "new@unsw.edu.au" || details.Name != "Jake Renzella" {
		t.Fatalf("details not updated: %+v", details)
	}
}
