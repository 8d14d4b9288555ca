package cmd

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/viant/imgvec/server"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the search API over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		addr := a.cfg.Server.Addr
		if serveAddr != "" {
			addr = serveAddr
		}
		srv := server.New(a.pipeline, server.Options{
			ImageDir:       a.cfg.Server.ImageDir,
			MaxUploadBytes: a.cfg.Server.MaxUploadBytes,
			Metrics:        a.metrics.Handler(),
			Logger:         a.logger,
		})
		color.Cyan("imgvec listening on %s (store: %s)", addr, a.cfg.Store.Backend)
		return srv.ListenAndServe(cmd.Context(), addr, a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides server.addr)")
}
