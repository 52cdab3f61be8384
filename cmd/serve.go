package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/contentforge/internal/server"
	"github.com/desertthunder/contentforge/internal/shared"
	"github.com/urfave/cli/v3"
)

// Serve runs the HTTP API until interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	if err := r.loadConfig(cmd); err != nil {
		return err
	}
	if addr := cmd.String("addr"); addr != "" {
		host, port, err := net.SplitHostPort(addr)
		if err != nil {
			return fmt.Errorf("%w: --addr %q: %v", shared.ErrInvalidArgument, addr, err)
		}
		n, err := strconv.Atoi(port)
		if err != nil {
			return fmt.Errorf("%w: --addr port %q", shared.ErrInvalidArgument, port)
		}
		r.config.Server.Host, r.config.Server.Port = host, n
	}
	if cmd.Bool("debug") {
		shared.SetLogLevel(r.logger, log.DebugLevel)
	}

	db, closeDB, err := r.openDB(cmd)
	if err != nil {
		return err
	}
	defer closeDB()

	storage := r.storage()
	ai := r.newAI(storage)
	publisher := r.newPublisher(db)

	if r.config.App.DevBypassAuth {
		r.logger.Warn("auth bypass enabled, anonymous requests act as the dev user", "email", r.config.App.DevUserEmail)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(server.Deps{
		DB:      db,
		Config:  r.config,
		AI:      ai,
		Storage: storage,
		YouTube: publisher,
		Logger:  r.logger,
	})
	return srv.ListenAndServe(ctx)
}
