package testutil

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pseudomuto/oraclekeeper/pkg/consts"
	"github.com/pseudomuto/oraclekeeper/pkg/docker"
	"github.com/stretchr/testify/require"
)

// OracleURL returns a connection URL for an Oracle database usable by
// integration tests.
//
// ORACLEKEEPER_URL is used when set. Otherwise a disposable Oracle Free
// container is started and removed when the test finishes. Its application
// user is granted EXECUTE on SYS.DBMS_LOCK so migration locks can be taken.
// The test is skipped in short mode or when Docker is unavailable.
func OracleURL(t *testing.T) string {
	t.Helper()

	if url := os.Getenv(consts.URLEnv); url != "" {
		return url
	}

	if testing.Short() {
		t.Skip("Skipping Oracle integration tests in short mode")
	}

	if _, err := exec.LookPath("docker"); err != nil {
		t.Skip("Docker not available")
	}

	if err := exec.Command("docker", "ps").Run(); err != nil {
		t.Skip("Docker daemon not running")
	}

	container := docker.NewWithOptions(docker.DockerOptions{
		User:    oracleUser,
		InitDir: grantScriptDir(t, oracleUser),
	})
	require.NoError(t, container.Start(context.Background()))
	t.Cleanup(func() { _ = container.Stop(context.Background()) })

	url, err := container.GetURL()
	require.NoError(t, err)
	return url
}

const oracleUser = "app"

// grantScriptDir writes the container init script granting user access to
// DBMS_LOCK. The directory is bind mounted, so it must be readable by the
// container's oracle user.
func grantScriptDir(t *testing.T, user string) string {
	t.Helper()

	dir := t.TempDir()
	require.NoError(t, os.Chmod(dir, consts.ModeDir))

	script := fmt.Sprintf(
		"ALTER SESSION SET CONTAINER = %s;\nGRANT EXECUTE ON SYS.DBMS_LOCK TO %s;\n",
		docker.DefaultService,
		strings.ToUpper(user),
	)
	path := filepath.Join(dir, "01_grant_dbms_lock.sql")
	require.NoError(t, os.WriteFile(path, []byte(script), consts.ModeFile))
	require.NoError(t, os.Chmod(path, consts.ModeFile))

	return dir
}
