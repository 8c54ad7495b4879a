package project_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pseudomuto/oraclekeeper/pkg/config"
	"github.com/pseudomuto/oraclekeeper/pkg/consts"
	"github.com/pseudomuto/oraclekeeper/pkg/project"
	"github.com/stretchr/testify/require"
)

func TestProjectInitialize_CreatesDirectoriesAndFiles(t *testing.T) {
	tmpDir := t.TempDir()

	proj := project.New(tmpDir)
	require.NoError(t, proj.Initialize(project.InitOptions{}))

	require.DirExists(t, filepath.Join(tmpDir, "db"))
	require.DirExists(t, filepath.Join(tmpDir, "db", "migrations"))
	require.FileExists(t, filepath.Join(tmpDir, "db", "migrations", "README.md"))
	require.FileExists(t, filepath.Join(tmpDir, consts.ConfigFile))

	cfg := proj.Config()
	require.NotNil(t, cfg)
	require.Equal(t, consts.DefaultMigrationsDir, cfg.Dir)
	require.Equal(t, consts.DefaultSeparator, cfg.Separator)
	require.Equal(t, consts.DefaultJournalTable, cfg.Oracle.JournalTable)
	require.Equal(t, consts.DefaultLockName, cfg.Oracle.LockName)
	require.Equal(t, consts.DefaultLockTimeout, cfg.Oracle.LockTimeout)
	require.True(t, cfg.MigrationLock())
	require.Empty(t, cfg.Oracle.Schema)
	require.True(t, cfg.SubstituteVariables())
}

func TestProjectInitialize_PreservesExisting(t *testing.T) {
	tmpDir := t.TempDir()

	existing := []byte("dir: sql\nseparator: GO\n")
	configPath := filepath.Join(tmpDir, consts.ConfigFile)
	require.NoError(t, os.WriteFile(configPath, existing, consts.ModeFile))

	proj := project.New(tmpDir)
	require.NoError(t, proj.Initialize(project.InitOptions{Schema: "IGNORED"}))

	content, err := os.ReadFile(configPath)
	require.NoError(t, err)
	require.Equal(t, existing, content, "existing config should be preserved")

	require.Equal(t, "sql", proj.Config().Dir)
	require.Equal(t, "GO", proj.Config().Separator)
	require.Empty(t, proj.Config().Oracle.Schema)
	require.DirExists(t, filepath.Join(tmpDir, "sql"))

	// idempotent
	require.NoError(t, proj.Initialize(project.InitOptions{}))
	content, err = os.ReadFile(configPath)
	require.NoError(t, err)
	require.Equal(t, existing, content)
}

func TestProjectInitialize_Schema(t *testing.T) {
	tmpDir := t.TempDir()

	proj := project.New(tmpDir)
	require.NoError(t, proj.Initialize(project.InitOptions{Schema: "APP_OWNER"}))
	require.Equal(t, "APP_OWNER", proj.Config().Oracle.Schema)

	// the rewritten file round-trips
	cfg, err := config.LoadConfigFile(filepath.Join(tmpDir, consts.ConfigFile))
	require.NoError(t, err)
	require.Equal(t, "APP_OWNER", cfg.Oracle.Schema)
	require.Equal(t, consts.DefaultLockTimeout, cfg.Oracle.LockTimeout)
	require.Equal(t, consts.DefaultMigrationsDir, cfg.Dir)
}

func TestProjectInitialize_InvalidSchema(t *testing.T) {
	proj := project.New(t.TempDir())
	err := proj.Initialize(project.InitOptions{Schema: "not valid"})
	require.EqualError(t, err, `invalid schema: "not valid"`)
}

func TestProjectInitialize_ErrorHandling(t *testing.T) {
	t.Run("returns error if root is not a directory", func(t *testing.T) {
		filePath := filepath.Join(t.TempDir(), "not_a_dir")
		require.NoError(t, os.WriteFile(filePath, []byte("content"), consts.ModeFile))

		err := project.New(filePath).Initialize(project.InitOptions{})
		require.EqualError(t, err, filePath+" is not a directory")
	})

	t.Run("returns error if root does not exist", func(t *testing.T) {
		err := project.New("/non/existent/path").Initialize(project.InitOptions{})
		require.ErrorContains(t, err, "failed to stat dir: /non/existent/path")
	})

	t.Run("handles permission errors gracefully", func(t *testing.T) {
		if os.Getuid() == 0 {
			t.Skip("Cannot test permission errors as root")
		}

		readOnlyDir := filepath.Join(t.TempDir(), "readonly")
		require.NoError(t, os.MkdirAll(readOnlyDir, os.FileMode(0o555)))

		err := project.New(readOnlyDir).Initialize(project.InitOptions{})
		require.ErrorContains(t, err, "failed to")
	})
}
