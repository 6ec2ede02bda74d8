package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/matheuskafuri/devfeed/internal/config"
	"github.com/matheuskafuri/devfeed/internal/feed"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	flagConfig   string
	flagVerbose  bool
	flagSearch   string
	flagTag      string
	flagTrending bool
	flagOffline  bool

	cfg *config.Config
)

var logger = slog.Default()

var rootCmd = &cobra.Command{
	Use:   "devfeed",
	Short: "Terminal client for the community news feed",
	Long: `devfeed lists articles from the news feed API, lets you vote on them and
keeps your bookmarks and votes locally.

Example usage:
  devfeed                     # List the feed
  devfeed --tag go            # Only articles tagged "go"
  devfeed --search sqlite     # Search titles and descriptions
  devfeed save 42             # Bookmark article 42 (again to remove)
  devfeed upvote 42           # Upvote article 42
  devfeed saved               # Show bookmarked articles`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig()
	},
	RunE: runList,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "path to config file")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "verbose output")

	rootCmd.Flags().StringVarP(&flagSearch, "search", "s", "", "only articles whose title or description contains this text")
	rootCmd.Flags().StringVarP(&flagTag, "tag", "t", "", "only articles with this tag")
	rootCmd.Flags().BoolVar(&flagTrending, "trending", false, "list the feed in trending order")
	rootCmd.Flags().BoolVar(&flagOffline, "offline", false, "list cached articles without contacting the feed")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(saveCmd)
	rootCmd.AddCommand(upvoteCmd)
	rootCmd.AddCommand(downvoteCmd)
	rootCmd.AddCommand(savedCmd)
	rootCmd.AddCommand(profileCmd)
	rootCmd.AddCommand(pruneCmd)
	rootCmd.AddCommand(statsCmd)
}

// initConfig loads .env, the config file and sets up logging.
func initConfig() error {
	_ = godotenv.Load()

	level := slog.LevelInfo
	if flagVerbose {
		level = slog.LevelDebug
	}
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	var err error
	cfg, err = config.Load(flagConfig)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if cfg.LogLevel == "debug" && !flagVerbose {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	logger.Debug("configuration loaded",
		"api_url", cfg.APIURL,
		"storage", cfg.StorageBackend(),
		"sources", cfg.SourceNames(),
	)
	return nil
}

func runList(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx, cancel := s.fetchContext(cmd)
	defer cancel()

	q := feed.Query{Search: flagSearch, Tag: flagTag, Trending: flagTrending}
	return s.list(ctx, q, flagOffline)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return nil
	},
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "devfeed %s (commit: %s, built: %s)\n", version, commit, date)
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
}
