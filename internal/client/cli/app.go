package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"

	"github.com/promstudy/promstudy/internal/client/api"
	"github.com/promstudy/promstudy/internal/client/config"
	"github.com/promstudy/promstudy/internal/client/models"
	"github.com/promstudy/promstudy/internal/client/session"
	"github.com/promstudy/promstudy/internal/client/storage"
	"github.com/promstudy/promstudy/internal/logging"
)

// sessionIface is what the commands need from *session.Manager.
type sessionIface interface {
	Init(ctx context.Context) error
	Login(ctx context.Context, identifier, secret string) error
	SignupAndCreateProfile(ctx context.Context, email, secret string, fields models.ProfileFields) error
	Logout(ctx context.Context)
	Snapshot() session.Snapshot
}

type App struct {
	session sessionIface
	log     logging.Logger
	reader  *bufio.Reader
	out     io.Writer
	closer  io.Closer
}

// NewApp opens the session database named by cfg, connects the session to
// the REST backend and restores any persisted session. Close releases the
// database.
func NewApp(ctx context.Context, cfg *config.Config, in io.Reader, out, errOut io.Writer) (*App, error) {
	log := logging.New(errOut, cfg.LogLevel)

	store, err := storage.Open(ctx, cfg.StatePath)
	if err != nil {
		log.Error(ctx, "error opening session database", "path", cfg.StatePath, "error", err)
		return nil, err
	}

	client := api.New(cfg.APIBaseURL, api.WithTimeout(cfg.RequestTimeout), api.WithLogger(log))
	m := session.New(client, store, session.WithLogger(log))
	if err := m.Init(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("restore session: %w", err)
	}

	return &App{
		session: m,
		log:     log,
		reader:  bufio.NewReader(in),
		out:     out,
		closer:  store,
	}, nil
}

func (a *App) Close() error {
	if a.closer == nil {
		return nil
	}
	return a.closer.Close()
}

func (a *App) isLoggedIn() bool {
	return a.session.Snapshot().State == session.StateAuthenticated
}

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}
