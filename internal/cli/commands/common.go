package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/ecocollect-dev/ecocollect/internal/cli/backendselect"
	"github.com/ecocollect-dev/ecocollect/internal/cli/config"
	"github.com/ecocollect-dev/ecocollect/internal/cli/userconfig"
	"github.com/ecocollect-dev/ecocollect/internal/notify"
	"github.com/ecocollect-dev/ecocollect/internal/session"
	"github.com/ecocollect-dev/ecocollect/internal/shell"
)

// env bundles everything a command needs: the resolved backend, the
// session store, the notifier, and the application shell with its API
// client. Tests construct an env directly; production commands go
// through newEnv.
type env struct {
	out      io.Writer
	backend  *config.Backend
	sessions session.Store
	notifier *notify.Notifier
	shell    *shell.Shell
}

// newEnv loads the project config, resolves which backend to talk to,
// opens the session store, and wires up the shell.
func newEnv(backendAlias string) (*env, error) {
	cfg, err := config.LoadFromCurrentDir()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w\nRun 'ecocollect init' to create a configuration file", err)
	}

	backend, err := backendselect.ResolveBackend(cfg, backendAlias)
	if err != nil {
		return nil, err
	}

	if backend.URL == "" {
		return nil, fmt.Errorf("backend URL is empty. Please edit %s and add a valid URL", config.ConfigFileName)
	}

	dir, err := userconfig.Dir()
	if err != nil {
		return nil, err
	}

	sessions := session.Open(dir)
	notifier := notify.New(os.Stderr, 0)

	sh, err := shell.New(shell.Config{
		BaseURL:  backend.URL,
		Sessions: sessions,
		Notifier: notifier,
	})
	if err != nil {
		return nil, err
	}

	return &env{
		out:      os.Stdout,
		backend:  backend,
		sessions: sessions,
		notifier: notifier,
		shell:    sh,
	}, nil
}
