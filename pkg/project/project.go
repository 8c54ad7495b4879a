package project

import (
	_ "embed"
	"io/fs"
	"os"
	"path/filepath"
	"testing/fstest"

	"github.com/pkg/errors"
	"github.com/pseudomuto/oraclekeeper/pkg/config"
	"github.com/pseudomuto/oraclekeeper/pkg/consts"
	"gopkg.in/yaml.v3"
)

var (
	//go:embed embed/oraclekeeper.yaml
	defaultConfig []byte

	//go:embed embed/README.md
	defaultReadme []byte

	image = fstest.MapFS{
		"db":                      {Mode: fs.ModeDir | consts.ModeDir},
		"db/migrations":           {Mode: fs.ModeDir | consts.ModeDir},
		"db/migrations/README.md": {Data: defaultReadme},
		consts.ConfigFile:         {Data: defaultConfig},
	}
)

type (
	// InitOptions contains options for project initialization
	InitOptions struct {
		// Schema sets oracle.schema in a newly written configuration
		Schema string
	}

	// Project is an oraclekeeper project rooted at a directory containing
	// oraclekeeper.yaml.
	Project struct {
		root   string
		config *config.Config
	}
)

// New creates a new Project instance rooted at path.
//
// Example:
//
//	proj := project.New("/path/to/my/project")
//	if err := proj.Initialize(project.InitOptions{Schema: "APP"}); err != nil {
//		log.Fatal(err)
//	}
//
//	fmt.Printf("Scripts go in %s\n", proj.Config().Dir)
func New(path string) *Project {
	return &Project{root: path}
}

// Initialize sets up the project directory structure and loads the
// configuration. This method is idempotent - it will only create missing files
// and directories, preserving any existing content.
func (p *Project) Initialize(options InitOptions) error {
	if err := p.ensureDirectory(); err != nil {
		return err
	}

	configPath := filepath.Join(p.root, consts.ConfigFile)
	_, err := os.Stat(configPath)
	newConfig := os.IsNotExist(err)

	// Walk the embedded FS and create missing files/directories
	for path, entry := range image {
		fullPath := filepath.Join(p.root, path)

		if _, err := os.Stat(fullPath); err == nil {
			continue
		} else if !os.IsNotExist(err) {
			return errors.Wrapf(err, "failed to stat %s", fullPath)
		}

		if entry.Mode.IsDir() {
			if err := os.MkdirAll(fullPath, entry.Mode.Perm()); err != nil {
				return errors.Wrapf(err, "failed to create directory %s", fullPath)
			}

			continue
		}

		parentDir := filepath.Dir(fullPath)
		if err := os.MkdirAll(parentDir, consts.ModeDir); err != nil {
			return errors.Wrapf(err, "failed to create parent directory %s", parentDir)
		}

		if err := os.WriteFile(fullPath, entry.Data, consts.ModeFile); err != nil {
			return errors.Wrapf(err, "failed to write file %s", fullPath)
		}
	}

	cfg, err := config.LoadConfigFile(configPath)
	if err != nil {
		return errors.Wrapf(err, "failed to load %s", consts.ConfigFile)
	}

	// Options only apply to a config written by this call
	if newConfig && options.Schema != "" {
		cfg.Oracle.Schema = options.Schema
		if err := cfg.Validate(); err != nil {
			return err
		}

		if err := writeConfig(configPath, cfg); err != nil {
			return err
		}
	}

	p.config = cfg

	migrationsDir := filepath.Join(p.root, cfg.Dir)
	if err := os.MkdirAll(migrationsDir, consts.ModeDir); err != nil {
		return errors.Wrapf(err, "failed to create migrations directory %s", migrationsDir)
	}

	return nil
}

// Config returns the configuration loaded by Initialize.
func (p *Project) Config() *config.Config {
	return p.config
}

func (p *Project) ensureDirectory() error {
	dir, err := os.Stat(p.root)
	if err != nil {
		return errors.Wrapf(err, "failed to stat dir: %s", p.root)
	}

	if !dir.IsDir() {
		return errors.Errorf("%s is not a directory", p.root)
	}

	return nil
}

func writeConfig(path string, cfg *config.Config) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "failed to open config file for writing: %s", path)
	}
	defer func() { _ = f.Close() }()

	encoder := yaml.NewEncoder(f)
	encoder.SetIndent(2)

	if err := encoder.Encode(cfg); err != nil {
		return errors.Wrap(err, "failed to write updated config")
	}

	return errors.Wrap(encoder.Close(), "failed to close yaml encoder")
}
