// Package script loads migration scripts from a filesystem.
//
// A Script is identified by its name and carries its raw, unprocessed
// contents. Scripts are read-only once loaded; preprocessing and splitting
// happen at execution time.
package script

import (
	"io"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/pseudomuto/oraclekeeper/pkg/consts"
)

type (
	// Script is a single migration script.
	Script struct {
		// Name uniquely identifies the script in the journal. Scripts loaded
		// from a directory are named by their slash separated path relative to
		// the directory, without the .sql extension.
		Name string

		// Contents is the raw text of the script.
		Contents string
	}

	// Dir is the set of scripts found in a directory, in lexical order.
	Dir struct {
		Scripts []*Script
	}
)

// Load reads a script from r.
func Load(name string, r io.Reader) (*Script, error) {
	if name == "" {
		return nil, errors.New("script name is required")
	}

	if len(name) > consts.MaxScriptNameLength {
		return nil, errors.Errorf("script name exceeds %d bytes: %s", consts.MaxScriptNameLength, name)
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read script: %s", name)
	}

	return &Script{Name: name, Contents: string(data)}, nil
}

// LoadDir loads every .sql file found under dir.
//
// Example usage:
//
//	dir, err := script.LoadDir(os.DirFS("db/migrations"))
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	for _, s := range dir.Scripts {
//		fmt.Println(s.Name)
//	}
func LoadDir(dir fs.FS) (*Dir, error) {
	d := &Dir{}

	// NB: WalkDir always walks in lexical order.
	if err := fs.WalkDir(dir, ".", func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if entry.IsDir() || filepath.Ext(path) != ".sql" {
			return nil
		}

		f, err := dir.Open(path)
		if err != nil {
			return errors.Wrapf(err, "failed to open: %s", path)
		}
		defer func() { _ = f.Close() }()

		s, err := Load(strings.TrimSuffix(path, ".sql"), f)
		if err != nil {
			return err
		}

		d.Scripts = append(d.Scripts, s)
		return nil
	}); err != nil {
		return nil, err
	}

	return d, nil
}

// Names returns the script names in execution order.
func (d *Dir) Names() []string {
	names := make([]string, 0, len(d.Scripts))
	for _, s := range d.Scripts {
		names = append(names, s.Name)
	}

	return names
}
