package cmd

import (
	"context"
	"io"
	"log/slog"
	"maps"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/pseudomuto/oraclekeeper/pkg/config"
	"github.com/pseudomuto/oraclekeeper/pkg/connection"
	"github.com/pseudomuto/oraclekeeper/pkg/executor"
	"github.com/pseudomuto/oraclekeeper/pkg/journal"
	"github.com/pseudomuto/oraclekeeper/pkg/oracle"
	"github.com/pseudomuto/oraclekeeper/pkg/preprocess"
	"github.com/pseudomuto/oraclekeeper/pkg/script"
	"github.com/pseudomuto/oraclekeeper/pkg/splitter"
	"github.com/urfave/cli/v3"
)

// session bundles the journal and executor for one command invocation.
type session struct {
	journal  *journal.Journal
	executor *executor.Executor
	client   *oracle.Client
}

func newSession(cfg *config.Config, db connection.TxManager, dialect journal.Dialect, lock executor.LockFunc, out io.Writer) *session {
	sp := splitter.New(cfg.Separator)

	j := journal.New(journal.Config{
		DB:       db,
		Dialect:  dialect,
		Schema:   cfg.Oracle.Schema,
		Table:    cfg.Oracle.JournalTable,
		Splitter: sp,
		Logger:   slog.Default(),
	})

	return &session{
		journal: j,
		executor: executor.New(executor.Config{
			DB:       db,
			Journal:  j,
			Splitter: sp,
			// Editors disagree about trailing whitespace; keep it out of checksums.
			Preprocessors:    []preprocess.Preprocessor{preprocess.TrimTrailingWhitespace()},
			VariablesEnabled: cfg.SubstituteVariables(),
			LogOutput:        cfg.LogOutput,
			Output:           out,
			CommandTimeout:   cfg.Oracle.CommandTimeout,
			Lock:             lock,
			Logger:           slog.Default(),
		}),
	}
}

func openSession(ctx context.Context, cfg *config.Config, url string, out io.Writer) (*session, error) {
	client, err := oracle.Open(ctx, url)
	if err != nil {
		return nil, err
	}

	if banner, err := client.Version(ctx); err == nil {
		slog.Info("Connected to Oracle", "version", banner)
	}

	s := newSession(cfg, client, oracle.Dialect{}, migrationLock(cfg, client), out)
	s.client = client
	return s, nil
}

// migrationLock returns the lock held by migrate, or nil when the lock is
// turned off in the configuration.
func migrationLock(cfg *config.Config, client *oracle.Client) executor.LockFunc {
	if !cfg.MigrationLock() {
		return nil
	}

	return func(ctx context.Context) (func(context.Context) error, error) {
		l, err := client.Lock(ctx, cfg.Oracle.LockName, cfg.Oracle.LockTimeout)
		if err != nil {
			return nil, err
		}

		return l.Release, nil
	}
}

func (s *session) Close() error {
	if s.client == nil {
		return nil
	}

	return s.client.Close()
}

// resolveURL picks the connection URL from --url (or ORACLEKEEPER_URL), falling
// back to oracle.url in the configuration.
func resolveURL(cmd *cli.Command, cfg *config.Config) (string, error) {
	if url := cmd.String("url"); url != "" {
		return url, nil
	}

	if cfg != nil && cfg.Oracle.URL != "" {
		return cfg.Oracle.URL, nil
	}

	return "", errors.New("no connection URL: set --url, ORACLEKEEPER_URL or oracle.url")
}

// parseVariables merges name=value assignments over the configured variables.
//
// Examples:
//   - ["env=prod"] -> {"env": "prod"}
//   - ["dsn=a=b"] -> {"dsn": "a=b"}
//   - ["novalue"] -> error
func parseVariables(base map[string]string, assignments []string) (map[string]string, error) {
	vars := make(map[string]string, len(base)+len(assignments))
	maps.Copy(vars, base)

	for _, assignment := range assignments {
		name, value, ok := strings.Cut(assignment, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, errors.Errorf("invalid variable %q, expected name=value", assignment)
		}

		vars[name] = value
	}

	return vars, nil
}

func loadScripts(dir string) (*script.Dir, error) {
	d, err := script.LoadDir(os.DirFS(dir))
	if err != nil {
		if os.IsNotExist(errors.Cause(err)) {
			return &script.Dir{}, nil
		}

		return nil, errors.Wrapf(err, "failed to load scripts from %s", dir)
	}

	return d, nil
}
