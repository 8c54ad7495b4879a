package cmd

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/pseudomuto/oraclekeeper/pkg/config"
	"github.com/pseudomuto/oraclekeeper/pkg/journal"
	"github.com/pseudomuto/oraclekeeper/pkg/script"
	"github.com/urfave/cli/v3"
	"go.uber.org/fx"
)

type statusParams struct {
	fx.In

	Config *config.Config `optional:"true"`
}

// status returns a CLI command that reports the journal state of every
// migration script.
//
// Example usage:
//
//	# Show applied and pending scripts
//	oraclekeeper status
//
//	# Include checksums and failure details
//	oraclekeeper status --verbose
func status(p statusParams) *cli.Command {
	return &cli.Command{
		Name:   "status",
		Usage:  "Show applied, failed and pending migration scripts",
		Before: requireConfig(p.Config),
		Flags: []cli.Flag{
			urlFlag(),
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "Show checksums and failure details",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			url, err := resolveURL(cmd, p.Config)
			if err != nil {
				return err
			}

			scripts, err := loadScripts(p.Config.Dir)
			if err != nil {
				return err
			}

			w := cmd.Root().Writer
			s, err := openSession(ctx, p.Config, url, w)
			if err != nil {
				return err
			}
			defer func() { _ = s.Close() }()

			return showStatus(ctx, w, s, scripts.Scripts, cmd.Bool("verbose"))
		},
	}
}

func showStatus(ctx context.Context, w io.Writer, s *session, scripts []*script.Script, verbose bool) error {
	exists, err := s.journal.HasTable(ctx)
	if err != nil {
		return err
	}

	latest := make(map[string]*journal.Entry)
	var order []string
	if exists {
		entries, err := s.journal.Entries(ctx)
		if err != nil {
			return err
		}

		for _, e := range entries {
			if _, ok := latest[e.ScriptName]; !ok {
				order = append(order, e.ScriptName)
			}
			latest[e.ScriptName] = e
		}
	} else {
		fmt.Fprintf(w, "Journal table %s does not exist yet\n\n", s.journal.Name())
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	header := "SCRIPT\tSTATUS\tAPPLIED_AT"
	if verbose {
		header += "\tHASH\tREMARK"
	}
	fmt.Fprintln(tw, header)

	onDisk := make(map[string]bool, len(scripts))
	for _, sc := range scripts {
		onDisk[sc.Name] = true
		writeStatusRow(tw, sc.Name, latest[sc.Name], verbose)
	}

	// Journal entries whose script has since been removed from disk.
	for _, name := range order {
		if !onDisk[name] {
			writeStatusRow(tw, name+" (missing)", latest[name], verbose)
		}
	}

	return tw.Flush()
}

func writeStatusRow(w io.Writer, name string, entry *journal.Entry, verbose bool) {
	state, appliedAt, hash, remark := "pending", "-", "-", "-"

	if entry != nil {
		appliedAt = entry.AppliedAt.UTC().Format(time.RFC3339)
		hash = entry.Hash

		switch {
		case entry.Completed():
			state = "applied"
		case entry.FailureIndex != nil:
			state = fmt.Sprintf("failed at statement %d", *entry.FailureIndex+1)
		default:
			state = "failed"
		}

		if entry.FailureRemark != nil {
			remark = *entry.FailureRemark
		}
	}

	if verbose {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", name, state, appliedAt, hash, remark)
		return
	}

	fmt.Fprintf(w, "%s\t%s\t%s\n", name, state, appliedAt)
}
