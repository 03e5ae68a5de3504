package cmd

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/cassmigrate/cassmigrate/pkg/migrator"
	"github.com/urfave/cli/v3"
)

// statusCmd creates the status command which reports the applied and
// pending migrations without changing anything.
//
// Example usage:
//
//	cassmigrate status
func statusCmd() *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "Show the migration state of the cluster",
		Description: `Print the version history stored in the cluster and the migrations
still pending on disk. Failed and in-progress versions are reported
rather than treated as errors.`,
		Before: requireConfig,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			m, client, err := newMigrator(cmd)
			if err != nil {
				return err
			}
			defer client.Close()

			status, err := m.CurrentStatus(ctx)
			if err != nil {
				return err
			}

			return renderStatus(cmd.Writer, currentConfig.Keyspace, status)
		},
	}
}

// renderStatus writes a human-readable report of the cluster's migration
// state to w.
func renderStatus(w io.Writer, keyspace string, status *migrator.Status) error {
	fmt.Fprintf(w, "Keyspace: %s\n", keyspace)

	if !status.KeyspaceExists {
		fmt.Fprintln(w, "Keyspace does not exist; run migrate to create it.")
		return nil
	}
	if !status.TableExists {
		fmt.Fprintln(w, "Migrations table does not exist; run migrate to create it.")
		return nil
	}

	fmt.Fprintf(w, "Version: %d of %d\n", status.LastVersion, status.LatestVersion)

	if len(status.Applied) > 0 {
		fmt.Fprintln(w, "\nApplied:")

		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "  VERSION\tNAME\tSTATE\tCHECKSUM\tAPPLIED AT")
		for _, rec := range status.Applied {
			fmt.Fprintf(tw, "  %d\t%s\t%s\t%s\t%s\n",
				rec.Version,
				rec.Name,
				rec.State,
				shortHex(rec.Checksum),
				rec.AppliedAt.UTC().Format("2006-01-02 15:04:05"),
			)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}

	if len(status.Pending) > 0 {
		fmt.Fprintln(w, "\nPending:")

		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "  VERSION\tNAME\tCHECKSUM")
		for _, p := range status.Pending {
			fmt.Fprintf(tw, "  %d\t%s\t%s\n",
				p.Version,
				p.Migration.Name,
				shortHex(p.Migration.Checksum),
			)
		}
		return tw.Flush()
	}

	fmt.Fprintln(w, "\nDatabase is up-to-date.")
	return nil
}

// shortHex renders a checksum as an abbreviated hex string. Rows written
// by interrupted runs or other tools can carry short or empty checksums,
// which render as-is.
func shortHex(sum []byte) string {
	s := hex.EncodeToString(sum)
	if len(s) > 12 {
		s = s[:12]
	}
	return s
}
