package cli

import (
	"github.com/spf13/cobra"

	"github.com/jmylchreest/landtint/internal/server"
)

func newServeCmd() *cobra.Command {
	var (
		cluster   clusterFlags
		listen    string
		maxUpload int64
		maxPixels int64
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the analysis over HTTP",
		Long: `Serve the analysis over HTTP.

POST /api/process-image accepts a multipart form with an "image" file and an
optional "numClusters" field (default 4). The response carries the report and
the dashboard as a base64 PNG data URL. GET /healthz reports liveness.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := newLogger(cmd)
			opts, err := cluster.options(cmd.Flags(), logger)
			if err != nil {
				return err
			}
			srv := server.New(server.Config{
				Addr:           listen,
				MaxUploadBytes: maxUpload,
				MaxPixels:      maxPixels,
				Analysis:       opts,
				Logger:         logger.Named("server"),
			})
			return srv.ListenAndServe(cmd.Context())
		},
	}

	fs := cmd.Flags()
	cluster.register(fs)
	fs.StringVar(&listen, "listen", server.DefaultAddr, "address to listen on")
	fs.Int64Var(&maxUpload, "max-upload", server.DefaultMaxUploadBytes, "maximum request size in bytes")
	fs.Int64Var(&maxPixels, "max-pixels", server.DefaultMaxPixels, "maximum decoded image size in pixels")
	return cmd
}
