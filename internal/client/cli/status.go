package cli

import (
	"context"
	"fmt"

	"github.com/promstudy/promstudy/internal/client/session"
)

func (a *App) getStatus() string {
	snap := a.session.Snapshot()
	if snap.State != session.StateAuthenticated || snap.User == nil {
		return ""
	}
	return fmt.Sprintf("(%s)", snap.User.Email)
}

// WhoAmI prints the hydrated profile.
func (a *App) WhoAmI(context.Context) error {
	snap := a.session.Snapshot()
	if snap.State != session.StateAuthenticated || snap.User == nil {
		a.printf("Not logged in\n")
		return nil
	}

	u := snap.User
	a.printf("Email:      %s\n", u.Email)
	a.printf("Name:       %s\n", u.Name)
	a.printf("Gender:     %s\n", u.Gender)
	a.printf("Age:        %s\n", u.Age)
	a.printf("School:     %s\n", u.School)
	a.printf("Student ID: %s\n", u.StudentID)
	if u.IsAdmin {
		a.printf("Role:       admin\n")
	}
	return nil
}

// Stats prints the counters loaded at start-up. Zeros mean the backend did
// not answer.
func (a *App) Stats(context.Context) error {
	s := a.session.Snapshot().Stats
	a.printf("Prompts: %d\nLikes:   %d\n", s.TotalPrompts, s.TotalLikes)
	return nil
}
