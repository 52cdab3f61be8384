package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/desertthunder/contentforge/internal/models"
	"github.com/desertthunder/contentforge/internal/server"
	"github.com/desertthunder/contentforge/internal/shared"
	"github.com/desertthunder/contentforge/internal/tasks"
	"github.com/urfave/cli/v3"
)

const defaultConnectTimeout = 2 * time.Minute

// YouTubeStatus reports whether the user has a connected channel.
func (r *Runner) YouTubeStatus(ctx context.Context, cmd *cli.Command) error {
	db, closeDB, err := r.openDB(cmd)
	if err != nil {
		return err
	}
	defer closeDB()

	user, err := r.currentUser(ctx, cmd, db)
	if err != nil {
		return err
	}

	status, err := r.newPublisher(db).Status(ctx, user.ID)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(status, true)
	}
	switch {
	case !status.Configured:
		r.writePlain("✗ YouTube is not configured (set youtube.client_id and youtube.client_secret)\n")
	case status.Connected:
		r.writePlain("✓ Connected to %s (%s)\n", status.ChannelTitle, status.ChannelID)
	default:
		r.writePlain("✗ Not connected. Run 'contentforge youtube connect'.\n")
	}
	return nil
}

// YouTubeConnect runs the OAuth consent flow with a local callback server on the configured
// redirect address.
func (r *Runner) YouTubeConnect(ctx context.Context, cmd *cli.Command) error {
	db, closeDB, err := r.openDB(cmd)
	if err != nil {
		return err
	}
	defer closeDB()

	publisher := r.newPublisher(db)
	if !publisher.Configured() {
		return fmt.Errorf("%w: youtube.client_id and youtube.client_secret must be set", shared.ErrYouTubeNotConfigured)
	}

	user, err := r.currentUser(ctx, cmd, db)
	if err != nil {
		return err
	}

	redirect, err := url.Parse(r.config.RedirectURL())
	if err != nil {
		return fmt.Errorf("%w: redirect URL: %v", shared.ErrInvalidConfig, err)
	}
	ln, err := net.Listen("tcp", redirect.Host)
	if err != nil {
		return fmt.Errorf("failed to listen for the OAuth callback on %s: %w", redirect.Host, err)
	}

	conn, err := r.awaitConnection(ctx, ln, publisher, user.ID, !cmd.Bool("no-browser"), cmd.Duration("timeout"))
	if err != nil {
		return err
	}

	r.writePlainln("✓ Authorization successful")
	r.writePlain("✓ Connected to %s (%s)\n", conn.ChannelTitle, conn.ChannelID)
	return nil
}

// awaitConnection serves the callback handler on ln until the first callback completes,
// ctx is done or timeout passes.
func (r *Runner) awaitConnection(
	ctx context.Context,
	ln net.Listener,
	publisher *tasks.YouTubePublisher,
	userID string,
	openBrowser bool,
	timeout time.Duration,
) (*models.YouTubeConnection, error) {
	authURL, err := publisher.ConnectURL(userID)
	if err != nil {
		return nil, err
	}

	callback := server.NewYouTubeCallbackHandler(publisher, "", r.logger)
	router := server.NewBasicRouter()
	router.Handler(callback)

	httpServer := &http.Server{Handler: router}
	serverErrors := make(chan error, 1)
	go func() {
		r.logger.Infof("starting OAuth callback server at %v", ln.Addr())
		if err := httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			r.logger.Warn("error shutting down server", "error", err)
		}
	}()

	if openBrowser {
		r.writePlain("→ Opening browser for YouTube authorization...\n")
		if err := shared.OpenBrowser(authURL); err != nil {
			r.logger.Warnf("failed to open browser automatically %v", err)
			r.writePlainln("⚠ Could not open browser automatically.")
			r.writePlain("Please open this URL in your browser:\n%s\n\n", authURL)
		}
	} else {
		r.writePlain("Open this URL in your browser:\n%s\n\n", authURL)
	}

	if timeout <= 0 {
		timeout = defaultConnectTimeout
	}
	r.writePlain("→ Waiting for authorization (%s timeout)...\n", timeout)

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case result := <-callback.Result():
		if err := result.Error(); err != nil {
			return nil, fmt.Errorf("authorization failed: %w", err)
		}
		return result.Connection, nil
	case err := <-serverErrors:
		return nil, fmt.Errorf("server error: %w", err)
	case <-timer.C:
		return nil, fmt.Errorf("%w: authorization timed out after %s", shared.ErrTimeout, timeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// YouTubeDisconnect revokes the stored token and deletes the connection.
func (r *Runner) YouTubeDisconnect(ctx context.Context, cmd *cli.Command) error {
	db, closeDB, err := r.openDB(cmd)
	if err != nil {
		return err
	}
	defer closeDB()

	user, err := r.currentUser(ctx, cmd, db)
	if err != nil {
		return err
	}

	if err := r.newPublisher(db).Disconnect(ctx, user.ID); err != nil {
		return err
	}
	return r.writePlain("✓ YouTube disconnected\n")
}
