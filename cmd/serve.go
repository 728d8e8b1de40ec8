package main

import (
	"context"

	"github.com/desertthunder/mrd/internal/server"
	"github.com/desertthunder/mrd/internal/shared"
	"github.com/desertthunder/mrd/internal/web"
	"github.com/urfave/cli/v3"
)

// Serve runs the browser front end until interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	h := r.tryHistory()
	if h != nil {
		defer h.Close()
	}

	handler, err := web.NewHandler(web.HandlerOpts{
		Controller: r.newController(h, nil),
		Downloader: r.newDownloader(h, ""),
		Logger:     r.logger,
		BaseURL:    r.config.BaseURL(),
	})
	if err != nil {
		return err
	}

	router := server.NewBasicRouter()
	router.Use(server.WithRecovery(r.logger), server.WithRequestID(), server.WithLogging(r.logger))
	router.Handler(handler)
	r.logger.Debug("routes registered", "patterns", router.Patterns())

	addr := cmd.String("addr")
	if addr == "" {
		addr = r.config.Addr()
	}

	ready := make(chan string, 1)
	go func() {
		select {
		case bound := <-ready:
			url := "http://" + bound + "/"
			r.writePlain("Serving on %s (backend %s)\n", url, r.config.BaseURL())
			if cmd.Bool("open") {
				if err := shared.OpenBrowser(url); err != nil {
					r.logger.Warn("failed to open browser", "err", err)
				}
			}
		case <-ctx.Done():
		}
	}()

	return server.Serve(ctx, addr, router, r.logger, ready)
}
