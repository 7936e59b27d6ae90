package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/saturnino-fabrica-de-software/selfiematch/internal/app"
	"github.com/saturnino-fabrica-de-software/selfiematch/internal/config"
	"github.com/saturnino-fabrica-de-software/selfiematch/internal/domain"
)

type matchOptions struct {
	GalleryID string
	Remote    bool
	Tolerance float64
}

var matchOpts matchOptions

var matchCmd = &cobra.Command{
	Use:   "match <image>",
	Short: "Match a selfie against a gallery and print the response",
	Long: "Runs the same pipeline as the HTTP and Lambda entry points. By default <image> is a local\n" +
		"file; with --remote it is a key in the configured object store.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		return runMatch(cmd.Context(), cmd, args[0], matchOpts)
	},
}

func init() {
	matchCmd.Flags().StringVarP(&matchOpts.GalleryID, "gallery", "g", "", "Gallery id to search")
	matchCmd.Flags().BoolVar(&matchOpts.Remote, "remote", false, "Treat <image> as an object store key")
	matchCmd.Flags().Float64VarP(&matchOpts.Tolerance, "tolerance", "t", 0, "Override MATCH_TOLERANCE")
	_ = matchCmd.MarkFlagRequired("gallery")
	rootCmd.AddCommand(matchCmd)
}

func runMatch(ctx context.Context, cmd *cobra.Command, image string, opts matchOptions) error {
	key := image
	overrides := []func(*config.Config){}

	if !opts.Remote {
		abs, err := filepath.Abs(image)
		if err != nil {
			return fmt.Errorf("resolve %s: %w", image, err)
		}
		if _, err := os.Stat(abs); err != nil {
			return fmt.Errorf("input file: %w", err)
		}
		key = filepath.Base(abs)
		overrides = append(overrides, func(c *config.Config) {
			c.ObjectStore = "file"
			c.LocalImageDir = filepath.Dir(abs)
		})
	}
	if opts.Tolerance > 0 {
		overrides = append(overrides, func(c *config.Config) {
			c.MatchTolerance = opts.Tolerance
		})
	}

	cfg, err := loadConfig(overrides...)
	if err != nil {
		return err
	}

	logger := config.NewLogger(cfg.Environment)
	pipeline, err := app.New(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to build match pipeline: %w", err)
	}
	defer pipeline.Close()

	resp := pipeline.Handler("cli").Handle(ctx, domain.MatchRequest{
		GalleryID: domain.GalleryID(opts.GalleryID),
		ImageKey:  key,
	})

	fmt.Fprintln(cmd.OutOrStdout(), resp.Body)
	if resp.StatusCode != 200 {
		return fmt.Errorf("match failed with status %d", resp.StatusCode)
	}
	return nil
}
