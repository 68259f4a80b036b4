package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/spf13/cobra"

	"match-embed/internal/queue"
)

// embedTaskPayload mirrors the embedder's queue payload.
type embedTaskPayload struct {
	Description string `json:"description"`
	Image       []byte `json:"image,omitempty"`
}

type remoteOptions struct {
	text      string
	imagePath string
	url       string
	attempts  int
	timeout   time.Duration
}

func newRemoteCmd(c *cli) *cobra.Command {
	o := &remoteOptions{}
	cmd := &cobra.Command{
		Use:   "remote",
		Short: "Embed through a running embedder over NATS",
		Long: `Send an embed task to the embedder's NATS queue and print the reply.

Example:
  matchctl remote --url nats://localhost:4222 --text "black wallet"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			url := o.url
			if url == "" {
				url = c.cfg.QueueURL
			}
			if url == "" {
				return errors.New("no queue configured (set --url or QUEUE_URL)")
			}
			image, err := readImage(o.imagePath)
			if err != nil {
				return err
			}
			nc, err := nats.Connect(url, nats.Name("matchctl"))
			if err != nil {
				return fmt.Errorf("failed to connect to NATS: %w", err)
			}
			defer nc.Close()

			ctx := cmd.Context()
			if o.timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, o.timeout)
				defer cancel()
			}
			resp, err := requestEmbedding(ctx, queue.NewNATS(c.logger(), nc), o.text, image, o.attempts)
			if err != nil {
				return err
			}
			return writeOutput(cmd.OutOrStdout(), c.output, resp)
		},
	}
	cmd.Flags().StringVarP(&o.text, "text", "t", "", "Item description")
	cmd.Flags().StringVarP(&o.imagePath, "image", "i", "", "Path to an image file")
	cmd.Flags().StringVar(&o.url, "url", "", "NATS URL (defaults to QUEUE_URL)")
	cmd.Flags().IntVar(&o.attempts, "attempts", 3, "Request attempts before giving up")
	cmd.Flags().DurationVar(&o.timeout, "timeout", 30*time.Second, "Overall request timeout")
	return cmd
}
