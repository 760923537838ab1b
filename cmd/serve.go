package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kilianp07/brunch/api/web"
	"github.com/kilianp07/brunch/app"
	"github.com/kilianp07/brunch/infra/logger"
	"github.com/kilianp07/brunch/infra/metrics"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the upload web server",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config, :8501)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	log := logger.New("serve")

	svc, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			log.Errorf("service close: %v", err)
		}
	}()

	hash, block, err := cfg.Server.Keys()
	if err != nil {
		return err
	}
	srv, err := web.NewServer(svc, web.Options{
		HashKey:        hash,
		BlockKey:       block,
		MaxUploadBytes: int64(cfg.Server.MaxUploadMB) << 20,
		CacheSize:      cfg.Server.CacheSize,
		APIToken:       cfg.Server.APIToken,
		DoubleSided:    cfg.Cards.DoubleSided,
		Log:            logger.New("web"),
	})
	if err != nil {
		return err
	}

	if addr := cfg.Metrics.PrometheusAddr; addr != "" {
		go func() {
			if err := metrics.StartPromServer(ctx, addr); err != nil {
				log.Errorf("prom server: %v", err)
			}
		}()
	}

	addr := serveAddr
	if addr == "" {
		addr = cfg.Server.Addr
	}
	return srv.Start(ctx, addr)
}
