package cli

import (
	"context"
	"errors"

	"github.com/promstudy/promstudy/internal/client/models"
	"github.com/promstudy/promstudy/internal/client/session"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// Login authenticates with email (prompted for when empty) and a password
// read from the terminal. The session's user-facing message is printed on
// failure and the error returned.
func (a *App) Login(ctx context.Context, email string) error {
	var err error
	if email == "" {
		email, err = getSimpleText(a.reader, "Enter email", a.out)
		if err != nil {
			return err
		}
	}

	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer clear(password)

	if err := a.session.Login(ctx, email, string(password)); err != nil {
		a.report(ctx, "login", err)
		return err
	}

	a.printf("Logged in as %s\n", a.session.Snapshot().User.Email)
	return nil
}

// Signup collects credentials and the profile fields, creates the account
// and logs in with it.
func (a *App) Signup(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer clear(password)

	var fields models.ProfileFields
	prompts := []struct {
		prompt string
		dst    *string
	}{
		{"Enter name", &fields.Name},
		{"Enter gender", &fields.Gender},
		{"Enter age", &fields.Age},
		{"Enter school", &fields.School},
		{"Enter student ID", &fields.StudentID},
	}
	for _, p := range prompts {
		if *p.dst, err = getSimpleText(a.reader, p.prompt, a.out); err != nil {
			return err
		}
	}

	if err := a.session.SignupAndCreateProfile(ctx, email, string(password), fields); err != nil {
		a.report(ctx, "signup", err)
		return err
	}

	a.printf("Welcome, %s!\n", fields.Trimmed().Name)
	return nil
}

// Logout clears the session locally. It never fails.
func (a *App) Logout(ctx context.Context) error {
	if !a.isLoggedIn() {
		a.printf("Not logged in\n")
		return nil
	}
	a.session.Logout(ctx)
	a.printf("Logged out\n")
	return nil
}

// report prints err for the user. Authentication and registration errors
// already carry a user-facing message; anything else is logged with detail.
func (a *App) report(ctx context.Context, op string, err error) {
	var authErr *session.AuthenticationError
	var regErr *session.RegistrationError
	switch {
	case errors.As(err, &authErr), errors.As(err, &regErr):
		a.log.Debug(ctx, op+" failed", "error", errors.Unwrap(err))
	default:
		a.log.Error(ctx, op+" failed", "error", err)
	}
	a.printf("%s\n", err)
}
