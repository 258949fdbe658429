package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tutorhub/tutor-server/internal/app"
	"github.com/tutorhub/tutor-server/internal/config"
	"github.com/tutorhub/tutor-server/internal/tokens"
	"github.com/tutorhub/tutor-server/pkg/logger"
	"github.com/tutorhub/tutor-server/pkg/middleware"
	"github.com/urfave/cli/v3"
)

func main() {
	cmd := &cli.Command{
		Name:  "tutor-server",
		Usage: "Tutorial marketplace HTTP API",
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP API (configured from the environment and .env)",
				Action: serve,
			},
			{
				Name:  "token",
				Usage: "Issue an HS256 access token signed with JWT_SECRET",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "email",
						Required: true,
						Usage:    "Email claim of the token",
					},
					&cli.StringFlag{
						Name:  "name",
						Usage: "Display name claim",
					},
					&cli.StringFlag{
						Name:  "sub",
						Usage: "Subject claim (defaults to the email)",
					},
					&cli.DurationFlag{
						Name:  "ttl",
						Value: time.Hour,
						Usage: "Token lifetime",
					},
					&cli.StringFlag{
						Name:    "secret",
						Sources: cli.EnvVars("JWT_SECRET"),
						Usage:   "Signing secret",
					},
				},
				Action: issueToken,
			},
		},
		DefaultCommand: "serve",
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		logger.Fatalf("%v", err)
	}
}

func serve(ctx context.Context, _ *cli.Command) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger.Init(cfg.LogLevel)
	logger.Infof("config loaded: %s", app.Describe(cfg))
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	server, closer, err := app.NewServer(ctx, cfg)
	if err != nil {
		return fmt.Errorf("create server: %w", err)
	}
	defer func() {
		if closeErr := closer.Close(); closeErr != nil {
			logger.Warnf("close resources: %v", closeErr)
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("tutor-server listening on %s", server.Addr)
		errCh <- server.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case <-ctx.Done():
	case sig := <-sigCh:
		logger.Infof("received signal %s", sig)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func issueToken(ctx context.Context, c *cli.Command) error {
	p := middleware.Principal{Subject: c.String("sub"), Email: c.String("email"), Name: c.String("name")}
	tok, exp, err := tokens.Issue(c.String("secret"), p, c.Duration("ttl"))
	if err != nil {
		return err
	}
	fmt.Println(tok)
	fmt.Fprintf(os.Stderr, "expires %s\n", exp.Format(time.RFC3339))
	return nil
}
