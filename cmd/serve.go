package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Shivanand-hulikatti/seminar-registration/internal/admission"
	"github.com/Shivanand-hulikatti/seminar-registration/internal/config"
	"github.com/Shivanand-hulikatti/seminar-registration/internal/database"
	"github.com/Shivanand-hulikatti/seminar-registration/internal/handler"
	"github.com/Shivanand-hulikatti/seminar-registration/internal/log"
	"github.com/Shivanand-hulikatti/seminar-registration/internal/notify"
	"github.com/Shivanand-hulikatti/seminar-registration/internal/repository"
	"github.com/Shivanand-hulikatti/seminar-registration/internal/repository/memory"
	"github.com/Shivanand-hulikatti/seminar-registration/internal/service"
	"github.com/Shivanand-hulikatti/seminar-registration/internal/translation"
)

func newServeCmd() *cobra.Command {
	var (
		port    int
		store   string
		migrate bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				cfg.HTTP.Port = port
			}
			if cmd.Flags().Changed("store") {
				cfg.Store = store
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			if migrate && cfg.Store == config.StorePostgres {
				if err := database.Migrate(cfg.Database); err != nil {
					return err
				}
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := buildApp(ctx, cfg)
			if err != nil {
				return err
			}
			defer a.close()

			ln, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.HTTP.Port))
			if err != nil {
				return fmt.Errorf("listen: %w", err)
			}
			return run(ctx, a, ln, cfg.HTTP)
		},
	}
	cmd.Flags().IntVarP(&port, "port", "p", 0, "HTTP port (overrides config)")
	cmd.Flags().StringVar(&store, "store", "", "store backend: memory or postgres (overrides config)")
	cmd.Flags().BoolVar(&migrate, "migrate", false, "apply migrations before serving (postgres only)")
	return cmd
}

// app is the wired service graph.
type app struct {
	handler http.Handler
	closers []func()
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// buildApp wires config into store, notifier, ledger and router.
func buildApp(ctx context.Context, cfg config.Config) (*app, error) {
	logger := log.WithComponent("serve")
	a := &app{}

	var store repository.Transactor
	switch cfg.Store {
	case config.StorePostgres:
		pool, err := database.NewPool(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, pool.Close)
		store = repository.NewPostgresStore(pool)
	default:
		store = memory.New()
	}

	catalog, err := translation.Load(cfg.Catalog)
	if err != nil {
		a.close()
		return nil, err
	}

	var notifier notify.Notifier
	switch cfg.Notify.Kind {
	case config.NotifierRedis:
		rn, err := notify.NewRedisNotifier(notify.RedisConfig{
			Addr:     cfg.Notify.RedisAddr,
			Password: cfg.Notify.RedisPassword,
			DB:       cfg.Notify.RedisDB,
			List:     cfg.Notify.RedisList,
		}, log.WithComponent("notify"))
		if err != nil {
			a.close()
			return nil, err
		}
		a.closers = append(a.closers, func() { _ = rn.Close() })
		notifier = rn
	default:
		notifier = notify.NewLogNotifier(log.WithComponent("mail"))
	}

	dispatcher := notify.NewDispatcher(catalog, notifier, time.Now, cfg.Notify.Organizers)
	ledger := service.NewLedger(store, admission.NewDecider(time.Now, admissionHooks(cfg.Admission)...), dispatcher)
	h := handler.NewEventHandler(service.NewEventService(store), ledger, handler.HeaderIdentity{}, catalog, time.Now)
	a.handler = handler.NewRouter(h, handler.RouterConfig{
		RegisterRateLimit: cfg.HTTP.RegisterRateLimit,
		EnableAccessLog:   true,
	})

	logger.Info().
		Str("store", cfg.Store).
		Str("notifier", cfg.Notify.Kind).
		Bool("notify_organizers", cfg.Notify.Organizers).
		Int("max_seats_per_registration", cfg.Admission.MaxSeatsPerRegistration).
		Msg("service wired")
	return a, nil
}

// admissionHooks builds the admission hooks enabled by cfg.
func admissionHooks(cfg config.AdmissionConfig) []admission.Hook {
	var hooks []admission.Hook
	if cfg.MaxSeatsPerRegistration > 0 {
		hooks = append(hooks, admission.MaxSeatsHook(cfg.MaxSeatsPerRegistration))
	}
	return hooks
}

// run serves a.handler on ln until ctx is cancelled, then shuts down
// gracefully.
func run(ctx context.Context, a *app, ln net.Listener, cfg config.HTTPConfig) error {
	logger := log.WithComponent("serve")
	srv := &http.Server{
		Handler:      a.handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info().Str("addr", ln.Addr().String()).Msg("server listening")
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}
