package main

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dharsanguruparan/weavd/internal/config"
	"github.com/dharsanguruparan/weavd/internal/logging"
)

// app carries what every sub-command needs once the root has run.
type app struct {
	configFile string
	cfg        *config.Config
	log        *zap.SugaredLogger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	cmd := &cobra.Command{
		Use:   "weavd",
		Short: "Wardrobe intake service",
		Long: `weavd catalogs clothing photos into posts.

Users open an intake session, group their photos, optionally ask the vision
service for tag suggestions, and submit one group as a post.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()
			cfg, err := config.Load(a.configFile)
			if err != nil {
				return err
			}
			log, err := logging.New(cfg.IsDevelopment())
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			zap.ReplaceGlobals(log.Desugar())
			if cfg.SecretGenerated {
				log.Warn("WEAVD_SIGNING_SECRET not set, using a random key: session tokens will not survive a restart or work across replicas")
			}
			a.cfg, a.log = cfg, log
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.log != nil {
				_ = a.log.Sync()
			}
		},
	}
	cmd.PersistentFlags().StringVarP(&a.configFile, "config", "c", "", "optional config file (yaml, json or toml)")
	cmd.AddCommand(
		newAPICmd(a),
		newWorkerCmd(a),
		newVisionCmd(a),
	)
	return cmd
}
