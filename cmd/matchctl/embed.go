package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"match-embed/internal/app"
	"match-embed/internal/embeddings"
	"match-embed/internal/predict"
)

type embedOptions struct {
	text      string
	imagePath string
	dim       int
	provider  string
}

// bind registers the flags shared by embed and strategy.
func (o *embedOptions) bind(cmd *cobra.Command) {
	cmd.Flags().IntVar(&o.dim, "dim", 0, "Fallback vector width (overrides EMBEDDING_DIM)")
	cmd.Flags().StringVar(&o.provider, "provider", "", "openai or hash (overrides EMBEDDING_PROVIDER)")
}

func (o *embedOptions) engine(cmd *cobra.Command, c *cli) (*embeddings.Engine, error) {
	cfg := c.cfg
	if cmd.Flags().Changed("dim") {
		cfg.EmbeddingDim = o.dim
	}
	if o.provider != "" {
		cfg.EmbeddingProvider = o.provider
	}
	return app.BuildEngine(cmd.Context(), cfg, c.logger())
}

func newEmbedCmd(c *cli) *cobra.Command {
	o := &embedOptions{}
	cmd := &cobra.Command{
		Use:   "embed",
		Short: "Embed a description and optional image locally",
		Long: `Embed a description and an optional image file in-process.

Example:
  matchctl embed --text "lost blue backpack near library" --image bag.jpg
  matchctl embed --provider hash --dim 64 --text "keys" -o yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			image, err := readImage(o.imagePath)
			if err != nil {
				return err
			}
			engine, err := o.engine(cmd, c)
			if err != nil {
				return err
			}
			svc := predict.New(engine, nil, nil, c.logger(), 0)
			resp, err := svc.Predict(cmd.Context(), "cli", o.text, image)
			if err != nil {
				return fmt.Errorf("embedding failed: %w", err)
			}
			return writeOutput(cmd.OutOrStdout(), c.output, resp)
		},
	}
	cmd.Flags().StringVarP(&o.text, "text", "t", "", "Item description")
	cmd.Flags().StringVarP(&o.imagePath, "image", "i", "", "Path to an image file")
	o.bind(cmd)
	return cmd
}

type strategyReport struct {
	Strategy embeddings.Strategy `json:"strategy" yaml:"strategy"`
	TextDim  int                 `json:"text_dim" yaml:"text_dim"`
	ImageDim int                 `json:"image_dim" yaml:"image_dim"`
}

func newStrategyCmd(c *cli) *cobra.Command {
	o := &embedOptions{}
	cmd := &cobra.Command{
		Use:   "strategy",
		Short: "Resolve and print the embedding strategy",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := o.engine(cmd, c)
			if err != nil {
				return err
			}
			textDim, imageDim := engine.Dimensions()
			return writeOutput(cmd.OutOrStdout(), c.output, strategyReport{
				Strategy: engine.Strategy(),
				TextDim:  textDim,
				ImageDim: imageDim,
			})
		},
	}
	o.bind(cmd)
	return cmd
}

func readImage(path string) ([]byte, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	return data, nil
}
