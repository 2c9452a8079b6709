package cli

import (
	"errors"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/learnroad/internal/infrastructure/httpapi"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the planning API over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		services, err := loadServicesForCurrentDir()
		if err != nil {
			return err
		}
		err = httpapi.NewServer(services, slog.Default()).ListenAndServe(cmd.Context(), serveAddr)
		if errors.Is(err, cmd.Context().Err()) {
			return nil
		}
		return err
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "Listen address")
	RootCmd.AddCommand(serveCmd)
}
