package cmd

import (
	"context"
	"net"
	"time"

	"github.com/notecast/crosspost/internal/api"
	"github.com/notecast/crosspost/internal/observability"
	"github.com/notecast/crosspost/internal/storage"
	"github.com/notecast/crosspost/internal/utilities"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var serveCmd = cobra.Command{
	Use:  "serve",
	Long: "Start API server",
	Run: func(cmd *cobra.Command, args []string) {
		serve(cmd.Context())
	},
}

func serve(ctx context.Context) {
	config := loadGlobalConfig(ctx)

	db, err := storage.Dial(config)
	if err != nil {
		logrus.Fatalf("error opening database: %+v", err)
	}
	defer db.Close()

	a := api.NewAPIWithVersion(ctx, config, db, utilities.Version)

	addr := net.JoinHostPort(config.API.Host, config.API.Port)
	logrus.Infof("crosspost API started on: %s", addr)

	a.ListenAndServe(ctx, addr)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	api.WaitForCleanup(shutdownCtx)
	observability.WaitForCleanup(shutdownCtx)
}
