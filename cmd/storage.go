package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/matheuskafuri/devfeed/internal/config"
)

var flagPruneOlderThan string

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Remove old articles from the local cache",
	Long: `Delete cached articles not seen in a fetch for longer than the retention
period and reclaim disk space. Bookmarks and votes are not touched.

Uses the retention value from config (default: 30d) unless overridden with --older-than.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		retention := s.cfg.RetentionDuration()
		if flagPruneOlderThan != "" {
			d, err := config.ParseDays(flagPruneOlderThan)
			if err != nil {
				return fmt.Errorf("invalid --older-than value: %w", err)
			}
			retention = d
		}
		return s.prune(retention)
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show feed, cache and annotation statistics",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		ctx, cancel := s.fetchContext(cmd)
		defer cancel()
		return s.stats(ctx, cachePath())
	},
}

func init() {
	pruneCmd.Flags().StringVar(&flagPruneOlderThan, "older-than", "", "override retention period (e.g., 30d, 720h)")
}

func (s *session) prune(retention time.Duration) error {
	deleted, err := s.db.Prune(retention)
	if err != nil {
		return fmt.Errorf("pruning: %w", err)
	}
	if deleted == 0 {
		fmt.Fprintln(s.out, "Nothing to prune.")
	} else {
		fmt.Fprintf(s.out, "Pruned %d article(s) older than %s.\n", deleted, formatDuration(retention))
	}
	return nil
}

func (s *session) stats(ctx context.Context, dbPath string) error {
	remote, err := s.api.Stats(ctx)
	if err != nil {
		s.warn("feed stats unavailable: %v", err)
	} else {
		if err := renderPairs(s.out, "Feed", [][]string{
			{"Posts", fmt.Sprint(remote.TotalPosts)},
			{"Upvotes", fmt.Sprint(remote.TotalUpvotes)},
			{"Views", fmt.Sprint(remote.TotalViews)},
		}); err != nil {
			return err
		}
	}

	count, size, err := s.db.Stats(dbPath)
	if err != nil {
		return fmt.Errorf("reading stats: %w", err)
	}
	sum := s.store.Summary()
	return renderPairs(s.out, "Local", [][]string{
		{"Cache", dbPath},
		{"Articles", fmt.Sprint(count)},
		{"Size", formatBytes(size)},
		{"Saved", fmt.Sprint(sum.BookmarkCount)},
		{"Voted", fmt.Sprint(sum.VotedCount)},
	})
}
