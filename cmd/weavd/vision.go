package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dharsanguruparan/weavd/internal/config"
	"github.com/dharsanguruparan/weavd/internal/labeler"
	"github.com/dharsanguruparan/weavd/internal/labeler/cloudvision"
	"github.com/dharsanguruparan/weavd/internal/labeler/gemini"
	"github.com/dharsanguruparan/weavd/internal/visionproxy"
)

func newVisionCmd(a *app) *cobra.Command {
	var provider string
	cmd := &cobra.Command{
		Use:   "vision",
		Short: "Serve the label, brand and color detection proxy",
		Example: `  # Google Cloud Vision with a service account key
  WEAVD_LABELER_CREDENTIALS_FILE=key.json weavd vision

  # Gemini
  WEAVD_LABELER_GEMINI_API_KEY=... weavd vision --provider gemini`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if provider != "" {
				a.cfg.Labeler.Provider = provider
			}
			l, err := newLabeler(ctx, a.cfg.Labeler)
			if err != nil {
				return err
			}
			defer l.Close()
			a.log.Infow("vision proxy starting", "provider", a.cfg.Labeler.Provider)
			return visionproxy.New(a.cfg.Labeler.Address, l, a.log).Run(ctx)
		},
	}
	cmd.Flags().StringVarP(&provider, "provider", "p", "", "cloudvision or gemini (overrides WEAVD_LABELER_PROVIDER)")
	return cmd
}

func newLabeler(ctx context.Context, cfg config.Labeler) (labeler.Labeler, error) {
	switch cfg.Provider {
	case "cloudvision":
		return cloudvision.New(ctx, cfg.CredentialsFile)
	case "gemini":
		return gemini.New(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	}
	return nil, fmt.Errorf("unknown labeler provider %q", cfg.Provider)
}
