package config

import (
	"io"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/pseudomuto/oraclekeeper/pkg/consts"
	"github.com/pseudomuto/oraclekeeper/pkg/utils"
	"gopkg.in/yaml.v3"
)

type (
	// Oracle contains the connection and journal settings for the target
	// database.
	Oracle struct {
		// URL is the go-ora connection URL. The --url flag and ORACLEKEEPER_URL
		// take precedence.
		URL string `yaml:"url,omitempty"`

		// Schema owning the journal table. Empty means the connected user.
		Schema string `yaml:"schema,omitempty"`

		// JournalTable is the table recording script outcomes
		JournalTable string `yaml:"journal_table,omitempty"`

		// CommandTimeout bounds each statement. Zero means no limit.
		CommandTimeout time.Duration `yaml:"command_timeout,omitempty"`

		// LockName is the DBMS_LOCK name serializing migration runs
		LockName string `yaml:"lock_name,omitempty"`

		// LockTimeout bounds how long a run waits for the lock
		LockTimeout time.Duration `yaml:"lock_timeout,omitempty"`

		// LockEnabled turns the DBMS_LOCK migration lock on or off (default:
		// true). The connected user needs EXECUTE on SYS.DBMS_LOCK while it is on.
		LockEnabled *bool `yaml:"lock_enabled,omitempty"`
	}

	// Config represents the project configuration.
	Config struct {
		// Oracle contains database settings
		Oracle Oracle `yaml:"oracle"`

		// Dir specifies the directory where migration scripts are stored
		Dir string `yaml:"dir"`

		// Separator ends a statement when it is alone on a line
		Separator string `yaml:"separator,omitempty"`

		// Variables are substituted for $name$ references in scripts
		Variables map[string]string `yaml:"variables,omitempty"`

		// VariablesEnabled turns variable substitution on or off (default: true)
		VariablesEnabled *bool `yaml:"variables_enabled,omitempty"`

		// LogOutput writes the rows returned by each statement to stdout
		LogOutput bool `yaml:"log_output,omitempty"`
	}
)

// LoadConfig parses a project configuration from the provided io.Reader and
// applies defaults for anything not set.
//
// Example:
//
//	yamlData := `
//	oracle:
//	  schema: APP
//	dir: db/migrations
//	`
//
//	cfg, err := config.LoadConfig(strings.NewReader(yamlData))
//	if err != nil {
//		panic(err)
//	}
//
//	fmt.Printf("Journal: %s\n", cfg.Oracle.JournalTable)
func LoadConfig(r io.Reader) (*Config, error) {
	var cfg Config
	if err := yaml.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// LoadConfigFile loads a project configuration from the specified file path.
// This is a convenience function that opens the file and calls LoadConfig.
func LoadConfigFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open file: %s", path)
	}
	defer func() { _ = f.Close() }()

	return LoadConfig(f)
}

// SubstituteVariables reports whether $name$ variables are replaced in scripts.
func (c *Config) SubstituteVariables() bool {
	return c.VariablesEnabled == nil || *c.VariablesEnabled
}

// MigrationLock reports whether migration runs take the DBMS_LOCK lock.
func (c *Config) MigrationLock() bool {
	return c.Oracle.LockEnabled == nil || *c.Oracle.LockEnabled
}

// Validate checks the configuration for values Oracle would reject.
func (c *Config) Validate() error {
	if !utils.IsIdentifier(c.Oracle.JournalTable) {
		return errors.Errorf("invalid journal_table: %q", c.Oracle.JournalTable)
	}

	if c.Oracle.Schema != "" && !utils.IsIdentifier(c.Oracle.Schema) {
		return errors.Errorf("invalid schema: %q", c.Oracle.Schema)
	}

	if c.Oracle.CommandTimeout < 0 {
		return errors.Errorf("command_timeout must not be negative: %s", c.Oracle.CommandTimeout)
	}

	if c.Oracle.LockTimeout < 0 {
		return errors.Errorf("lock_timeout must not be negative: %s", c.Oracle.LockTimeout)
	}

	return nil
}

func (c *Config) applyDefaults() {
	if c.Dir == "" {
		c.Dir = consts.DefaultMigrationsDir
	}

	if c.Separator == "" {
		c.Separator = consts.DefaultSeparator
	}

	if c.Oracle.JournalTable == "" {
		c.Oracle.JournalTable = consts.DefaultJournalTable
	}

	if c.Oracle.LockName == "" {
		c.Oracle.LockName = consts.DefaultLockName
	}

	if c.Oracle.LockTimeout == 0 {
		c.Oracle.LockTimeout = consts.DefaultLockTimeout
	}
}
