package commands

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/solvaholic/teampulse/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve reports over HTTP",
	Long: `Serve exposes weekly reports as a read-only JSON API, with Prometheus
metrics at /metrics.

Routes:
  GET /healthz
  GET /metrics
  GET /api/v1/weeks
  GET /api/v1/weeks/{week}/report
  GET /api/v1/weeks/{week}/metrics
  GET /api/v1/weeks/{week}/insights
  GET /api/v1/weeks/{week}/recommendations
  GET /api/v1/snapshots          (with --source db)

Examples:
  pulse serve --export ./slack-export
  pulse serve --source db --addr :9090`,
	RunE: runServe,
}

var (
	serveAddr   string
	serveSource string
)

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default: server.addr)")
	serveCmd.Flags().StringVar(&serveSource, "source", sourceExport, "Dataset source: export or db")
}

func runServe(cmd *cobra.Command, args []string) error {
	addr := serveAddr
	if addr == "" {
		addr = settings.ServerAddr
	}

	src, database, closeFn, err := openSource(serveSource)
	if err != nil {
		return err
	}
	defer closeFn()

	engine, err := newEngine()
	if err != nil {
		return err
	}

	var snapshots server.SnapshotLister
	if database != nil {
		snapshots = database
	}
	h, err := server.NewHandler(src, engine, snapshots)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return server.New(addr, h).Run(ctx)
}
