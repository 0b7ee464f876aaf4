package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Shivanand-hulikatti/event-ticketing/internal/auth"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/clock"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/config"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/database"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/handler"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/memstore"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/notify"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/repository"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/service"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/storage"
	"github.com/spf13/cobra"
)

func newServeCommand(opts *rootOptions) *cobra.Command {
	var migrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), opts, migrate)
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", false, "apply the schema before serving (postgres only)")
	return cmd
}

// stores bundles the persistence layer chosen by STORE_DRIVER.
type stores struct {
	users    service.UserStore
	events   service.EventStore
	bookings service.BookingStore
	close    func()
}

func openStores(ctx context.Context, opts *rootOptions, migrate bool) (*stores, error) {
	cfg := opts.cfg
	if cfg.StoreDriver == config.StoreMemory {
		opts.logger.Warn("using in-memory store, data is lost on restart")
		m := memstore.New()
		return &stores{users: m.Users(), events: m.Events(), bookings: m.Bookings(), close: func() {}}, nil
	}

	pool, err := database.NewPool(ctx, cfg.DSN(), database.Options{MaxConns: cfg.DBMaxConns}, opts.logger)
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}
	if migrate {
		if err := database.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
	}
	opts.logger.Info("connected to postgres", "host", cfg.DBHost, "db", cfg.DBName)
	return &stores{
		users:    repository.NewUserRepository(pool),
		events:   repository.NewEventRepository(pool),
		bookings: repository.NewBookingRepository(pool),
		close:    pool.Close,
	}, nil
}

func newMailer(opts *rootOptions) notify.Mailer {
	cfg := opts.cfg
	if cfg.MailerSendAPIKey == "" {
		opts.logger.Warn("MAILERSEND_API_KEY not set, reset codes will be logged")
		return notify.NewLogMailer(opts.logger)
	}
	return notify.NewMailerSend(cfg.MailerSendAPIKey, cfg.MailFromEmail, cfg.MailFromName, opts.logger)
}

func newPublisher(opts *rootOptions) (notify.Publisher, error) {
	if opts.cfg.AMQPURL == "" {
		return notify.NopPublisher{}, nil
	}
	pub, err := notify.NewAMQPPublisher(opts.cfg.AMQPURL, opts.cfg.AMQPExchange)
	if err != nil {
		return nil, fmt.Errorf("amqp: %w", err)
	}
	opts.logger.Info("publishing booking events", "exchange", opts.cfg.AMQPExchange)
	return pub, nil
}

func closeLogged(opts *rootOptions, name string, c io.Closer) {
	if err := c.Close(); err != nil {
		opts.logger.Warn("close failed", "component", name, "err", err)
	}
}

func serve(ctx context.Context, opts *rootOptions, migrate bool) error {
	cfg := opts.cfg
	logger := opts.logger

	// ── 1. Persistence and collaborators ─────────────────────────────────
	st, err := openStores(ctx, opts, migrate)
	if err != nil {
		return err
	}
	defer st.close()

	images, err := storage.NewLocalStorage(cfg.UploadDir, cfg.PublicBaseURL)
	if err != nil {
		return err
	}

	pub, err := newPublisher(opts)
	if err != nil {
		return err
	}
	defer closeLogged(opts, "publisher", pub)

	// ── 2. Wire up layers ────────────────────────────────────────────────
	clk := clock.Real()
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL, clk)
	authSvc := service.NewAuthService(st.users, tokens, newMailer(opts), clk, service.AuthOptions{
		AllowedEmailDomains: cfg.AllowedEmailDomains,
		ResetCodeTTL:        cfg.ResetCodeTTL,
		RevealUnknownEmail:  cfg.RevealUnknownEmail,
	}, logger)
	eventSvc := service.NewEventService(st.events, images, logger)
	bookingSvc := service.NewBookingService(st.bookings, pub, logger)

	h := handler.New(authSvc, eventSvc, bookingSvc, tokens, handler.Options{
		MaxUploadBytes:       cfg.MaxUploadMB << 20,
		ExposeInternalErrors: cfg.ExposeInternalErrors,
	}, logger)

	// ── 3. Start server with graceful shutdown ────────────────────────────
	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      handler.NewRouter(h, images.Dir(), logger),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", cfg.HTTPAddr, "store_driver", cfg.StoreDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Block until SIGINT/SIGTERM or a listener failure.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)
	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-quit:
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	logger.Info("server stopped")
	return nil
}
