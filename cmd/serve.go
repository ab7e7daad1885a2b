package main

import (
	"context"
	"fmt"
	"net"
	"strconv"

	"github.com/desertthunder/flickx/internal/proxy"
	"github.com/desertthunder/flickx/internal/server"
	"github.com/desertthunder/flickx/internal/services"
	"github.com/desertthunder/flickx/internal/shared"
	"github.com/urfave/cli/v3"
)

// Serve runs the proxy until the context is cancelled.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	cfg := r.config
	host, port := cfg.Server.Host, cfg.Server.Port
	if h := cmd.String("host"); h != "" {
		host = h
	}
	if p := int(cmd.Int("port")); p != 0 {
		port = p
	}
	if port <= 0 || port > 65535 {
		return fmt.Errorf("%w: port %d out of range", shared.ErrInvalidFlag, port)
	}

	if cfg.Backend.URL == "" {
		r.logger.Warn("backend URL is not configured; every proxied route will answer 500", "hint", "set BACKEND_URL")
	}

	trusted, err := server.ParseTrustedProxies(cfg.Server.TrustedProxies)
	if err != nil {
		return fmt.Errorf("%w: server.trusted_proxies: %v", shared.ErrInvalidConfig, err)
	}

	backend := services.NewBackendClient(cfg.Backend, nil, r.logger)
	router := proxy.NewRouter(backend, proxy.RouterOptions{
		Logger:         r.logger,
		ContactRate:    cfg.Server.ContactRate,
		ContactBurst:   cfg.Server.ContactBurst,
		TrustedProxies: trusted,
	})

	addr := net.JoinHostPort(host, strconv.Itoa(port))
	r.logger.Info("starting proxy", "addr", addr, "backend", cfg.BackendOrigin())
	return server.New(addr, router, r.logger).Run(ctx)
}
