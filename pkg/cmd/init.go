package cmd

import (
	"context"
	"fmt"

	"github.com/pseudomuto/oraclekeeper/pkg/project"
	"github.com/urfave/cli/v3"
)

// initCmd returns a CLI command that initializes a new oraclekeeper project
// in the current directory.
//
// The initialization process is idempotent - running it multiple times will
// not overwrite existing files, making it safe to run in existing directories.
//
// Created structure:
//   - oraclekeeper.yaml: Configuration file
//   - db/migrations/: Directory for migration scripts
//
// Example usage:
//
//	# Initialize a project in current directory
//	oraclekeeper init
//
//	# Keep the journal table in a dedicated schema
//	oraclekeeper init --schema MIGRATIONS
func initCmd() *cli.Command {
	return &cli.Command{
		Name:  "init",
		Usage: "Initialize a project in the current directory",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "schema",
				Usage: "Schema owning the journal table (defaults to the connected user)",
				Config: cli.StringConfig{
					TrimSpace: true,
				},
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			proj := project.New(".")
			if err := proj.Initialize(project.InitOptions{Schema: cmd.String("schema")}); err != nil {
				return err
			}

			fmt.Fprintf(cmd.Root().Writer, "Initialized project; add migration scripts to %s\n", proj.Config().Dir)
			return nil
		},
	}
}
