package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"match-embed/internal/config"
	"match-embed/internal/logger"
)

// Version is set at build time via ldflags.
var Version = "dev"

// cli carries state shared by subcommands.
type cli struct {
	cfg    config.Config
	log    *slog.Logger
	output string
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:   "matchctl",
		Short: "Generate lost-and-found item embeddings",
		Long: `matchctl produces the same fused text and image embeddings as the
embedder service. Vectors are printed as JSON by default.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("failed to load environment variables: %w", err)
			}
			c.cfg = config.Load()
			c.log = logger.NewWithWriter(cmd.ErrOrStderr(), "matchctl", c.cfg.LogLevel)
			switch c.output {
			case "json", "yaml":
				return nil
			default:
				return fmt.Errorf("invalid --output %q (valid options: json, yaml)", c.output)
			}
		},
	}
	root.Version = Version
	root.PersistentFlags().StringVarP(&c.output, "output", "o", "json", "Output format: json or yaml")

	root.AddCommand(
		newEmbedCmd(c),
		newStrategyCmd(c),
		newRemoteCmd(c),
	)
	return root
}

// logger falls back to a discarding logger before PersistentPreRunE runs.
func (c *cli) logger() *slog.Logger {
	if c.log == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return c.log
}
