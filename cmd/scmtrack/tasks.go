package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/helixml/scmtrack"
	"github.com/spf13/cobra"
)

func fetchCmd(envFile *string) *cobra.Command {
	var repoID int64

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch new changesets from the SCM",
		Long: `Fetch new changesets for one repository, or for every repository when
--repo is omitted. New changesets are scanned for issue references.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd.Context(), *envFile, func(ctx context.Context, client *scmtrack.Client) error {
				var (
					n   int
					err error
				)
				if repoID > 0 {
					n, err = client.Synchronizer.FetchChangesets(ctx, repoID)
				} else {
					n, err = client.Synchronizer.FetchAll(ctx)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "fetched %d changesets\n", n)
				return err
			})
		},
	}

	cmd.Flags().Int64Var(&repoID, "repo", 0, "Repository ID (default: all repositories)")
	return cmd
}

func scanCmd(envFile *string) *cobra.Command {
	var (
		repoID int64
		force  bool
	)

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan commit messages for issue references",
		Long: `Scan cached changesets for issue references. With --repo only that
repository is scanned, and only changesets not scanned before unless
--force is given. Without --repo every changeset of every repository is
rescanned.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd.Context(), *envFile, func(ctx context.Context, client *scmtrack.Client) error {
				var (
					n   int
					err error
				)
				if repoID > 0 {
					n, err = client.Scanner.ScanRepository(ctx, repoID, force)
				} else {
					n, err = client.Synchronizer.ScanAllForIssueIDs(ctx)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "recorded %d issue references\n", n)
				return err
			})
		},
	}

	cmd.Flags().Int64Var(&repoID, "repo", 0, "Repository ID (default: all repositories)")
	cmd.Flags().BoolVar(&force, "force", false, "Rescan changesets that were already scanned")
	return cmd
}

func purgeCmd(envFile *string) *cobra.Command {
	var (
		repoID int64
		remove bool
	)

	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Delete a repository's cached history",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd.Context(), *envFile, func(ctx context.Context, client *scmtrack.Client) error {
				if remove {
					if err := client.Synchronizer.Delete(ctx, repoID); err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "deleted repository %d\n", repoID)
					return nil
				}
				if err := client.Synchronizer.Purge(ctx, repoID); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "purged repository %d\n", repoID)
				return nil
			})
		},
	}

	cmd.Flags().Int64Var(&repoID, "repo", 0, "Repository ID")
	cmd.Flags().BoolVar(&remove, "delete", false, "Also delete the repository")
	_ = cmd.MarkFlagRequired("repo")
	return cmd
}

// withClient runs fn against a client whose worker and scheduler are off.
func withClient(ctx context.Context, envFile string, fn func(context.Context, *scmtrack.Client) error) error {
	client, _, _, err := openClient(envFile, scmtrack.WithoutBackground())
	if err != nil {
		return err
	}
	return errors.Join(fn(ctx, client), client.Close())
}
