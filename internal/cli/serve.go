package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tweetlink/internal/accounts"
	"tweetlink/internal/auth"
	"tweetlink/internal/config"
	"tweetlink/internal/oauth"
	"tweetlink/internal/storage"
	"tweetlink/internal/users"
	"tweetlink/internal/web"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the web server",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		// Setup context for graceful shutdown
		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		go func() {
			<-sigChan
			slog.Info("shutdown signal received")
			cancel()
		}()

		return serve(ctx, cfg)
	},
}

func serve(ctx context.Context, cfg *config.Config) error {
	gin.SetMode(cfg.Server.Mode)

	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer storage.Close(db)

	store, closeStore, err := newSessionStore(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	defer closeStore()

	h := &web.Handler{
		Users: users.NewRepository(db, newValidator(cfg)),
		Links: accounts.NewLinker(db),
		Sessions: auth.NewSessionManager(store, auth.SessionOptions{
			HashKey:  cfg.Session.HashKey,
			BlockKey: cfg.Session.BlockKey,
			TTL:      cfg.Session.TTL,
			Secure:   cfg.Server.SecureCookies,
		}),
		Logger: slog.Default(),
	}

	tw, err := oauth.NewTwitter(oauth.Config{
		ClientID:     cfg.Twitter.ClientID,
		ClientSecret: cfg.Twitter.ClientSecret,
		RedirectURL:  cfg.Twitter.CallbackURL,
		Scopes:       cfg.Twitter.Scopes,
	})
	switch {
	case err == nil:
		h.Twitter = tw
	case errors.Is(err, oauth.ErrNotConfigured):
		slog.Warn("twitter client id not set, account linking disabled")
	default:
		return err
	}

	router, err := web.NewRouter(h)
	if err != nil {
		return fmt.Errorf("build router: %w", err)
	}

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("listening", "addr", cfg.Server.Addr, "base_url", cfg.Server.BaseURL)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func openDB(cfg *config.Config) (*gorm.DB, error) {
	db, err := storage.Open(cfg.Database.Path, cfg.Database.Debug)
	if err != nil {
		return nil, err
	}
	if err := storage.Migrate(db); err != nil {
		_ = storage.Close(db)
		return nil, err
	}
	return db, nil
}

func newValidator(cfg *config.Config) *users.Validator {
	if len(cfg.Users.DisposableDomains) == 0 {
		return users.NewValidator(nil)
	}
	return users.NewValidator(cfg.Users.DisposableDomains)
}

func newSessionStore(ctx context.Context, cfg config.RedisConfig) (auth.Store, func(), error) {
	if cfg.Addr == "" {
		slog.Warn("redis address not set, keeping sessions in memory")
		return auth.NewMemoryStore(), func() {}, nil
	}

	store, err := auth.NewRedisStore(ctx, cfg.Addr, cfg.Password, cfg.DB)
	if err != nil {
		return nil, nil, err
	}
	return store, func() { _ = store.Close() }, nil
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		db, err := openDB(cfg)
		if err != nil {
			return err
		}
		defer storage.Close(db)

		fmt.Fprintf(cmd.OutOrStdout(), "Schema up to date in %s\n", cfg.Database.Path)
		return nil
	},
}
