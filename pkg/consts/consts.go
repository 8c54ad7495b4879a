package consts

import (
	"os"
	"time"
)

const (
	// ModeDir is the standard file mode for creating directories
	ModeDir = os.FileMode(0o755)

	// ModeFile is the standard file mode for creating files
	ModeFile = os.FileMode(0o644)

	// ConfigFile is the project configuration file looked up in the working directory
	ConfigFile = "oraclekeeper.yaml"

	// ConfigFileEnv overrides the location of ConfigFile
	ConfigFileEnv = "ORACLEKEEPER_CONFIG"

	// URLEnv supplies the Oracle connection URL when --url is not given
	URLEnv = "ORACLEKEEPER_URL"

	// DefaultMigrationsDir is where migration scripts are loaded from
	DefaultMigrationsDir = "db/migrations"

	// DefaultSeparator terminates a statement when it appears alone on a line
	DefaultSeparator = "/"

	// DefaultJournalTable is the table recording script outcomes
	DefaultJournalTable = "SCHEMAVERSIONS"

	// DefaultLockName is the DBMS_LOCK name serializing migration runs
	DefaultLockName = "oraclekeeper"

	// DefaultLockTimeout bounds how long a run waits for another run to finish
	DefaultLockTimeout = time.Minute

	// MaxScriptNameLength matches the journal's script_name column
	MaxScriptNameLength = 255

	// MaxFailureRemarkBytes matches the journal's failure_remark column
	MaxFailureRemarkBytes = 4000

	// DefaultOracleImage is the container image used by integration tests
	DefaultOracleImage = "gvenzl/oracle-free:23-slim-faststart"
)
