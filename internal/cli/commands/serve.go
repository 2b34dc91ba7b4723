package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/bqscope/internal/server"
)

// ServeOptions holds options for the serve command.
type ServeOptions struct {
	Addr       string
	FromReport string
}

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	opts := &ServeOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the usage index over HTTP",
		Long: `Expose the usage index through a small JSON API.

The index is built once at startup (or read with --from-report) and served
read-only. Endpoints:

  GET /api/tables          all entries
  GET /api/tables/{table}  one entry
  GET /healthz             liveness`,
		Example: `  # Scan and serve on the default address
  bqscope serve

  # Serve a previously written report on another port
  bqscope serve --from-report result.yaml --addr :9090`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Addr, "addr", ":8080", "Listen address")
	cmd.Flags().StringVar(&opts.FromReport, "from-report", "", "Read an existing report instead of scanning")

	return cmd
}

func runServe(cmd *cobra.Command, opts *ServeOptions) error {
	cmdCtx := NewCommandContext(cmd)
	r := cmdCtx.Renderer

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	report, err := loadReport(ctx, cmdCtx, opts.FromReport)
	if err != nil {
		return err
	}

	srv := server.New(server.Config{
		Addr:   opts.Addr,
		Report: report,
		Logger: cmdCtx.Logger,
	})

	r.Success(fmt.Sprintf("Serving %d tables on %s", len(report.Entries), opts.Addr))
	r.Muted("Press Ctrl+C to stop")

	return srv.Run(ctx)
}
