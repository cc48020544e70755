package cmd

import (
	"context"
	"nutrition-catalog/cmd/config"
	"nutrition-catalog/internal/utils"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	var (
		port      string
		rateLimit int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the catalog HTTP API",
		Example: `  # Start on APP_PORT from config (default 8080)
  nutrition-catalog serve

  # Start on a custom port with a looser rate limit
  nutrition-catalog serve --port 3000 --rate-limit 50`,
		RunE: func(cmd *cobra.Command, args []string) error {
			backends, closeBackends, err := config.OpenBackends(cmd.Context())
			if err != nil {
				return err
			}
			defer closeBackends()

			svc := config.NewServices(backends)
			defer svc.Assets.Close()

			app, err := config.NewApp(svc, config.AppOptions{RateLimit: rateLimit})
			if err != nil {
				return err
			}

			if port == "" {
				port = utils.GetConfig("APP_PORT")
			}

			serverErr := make(chan error, 1)
			go func() {
				log.Infof("Catalog API listening on :%s", port)
				serverErr <- app.Listen(":" + port)
			}()

			select {
			case <-cmd.Context().Done():
				log.Info("Shutting down server...")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := app.ShutdownWithContext(shutdownCtx); err != nil {
					log.Errorf("Server shutdown failed: %v", err)
					return err
				}
				log.Info("Server stopped")
				return nil
			case err := <-serverErr:
				return err
			}
		},
	}

	cmd.Flags().StringVarP(&port, "port", "p", "", "Port to listen on (default APP_PORT)")
	cmd.Flags().IntVar(&rateLimit, "rate-limit", 10, "Requests per second per client, 0 disables")

	return cmd
}
