package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jottaiandra/lunnor-finance-hub-sub000/api"
	"github.com/jottaiandra/lunnor-finance-hub-sub000/config"
	"github.com/jottaiandra/lunnor-finance-hub-sub000/middleware"
	"github.com/jottaiandra/lunnor-finance-hub-sub000/migrations"
	"github.com/jottaiandra/lunnor-finance-hub-sub000/notify"
	"github.com/jottaiandra/lunnor-finance-hub-sub000/security"
	"github.com/jottaiandra/lunnor-finance-hub-sub000/services"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.IsProduction() {
		log.Println("Running in production environment")
	} else {
		log.Printf("Running in %s environment", cfg.Env)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	log.Println("Running migrations...")
	if err := migrations.Up(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	cipher, err := security.NewCipher(cfg.Security.EncryptionKey)
	if err != nil {
		return fmt.Errorf("failed to set up encryption: %w", err)
	}

	notifications, err := services.NewNotificationService(db, cipher, cfg.Notifications.WhatsAppAPIURL)
	if err != nil {
		return fmt.Errorf("failed to set up notifications: %w", err)
	}
	notifier, err := newNotifier(cfg, notifications)
	if err != nil {
		return err
	}
	notifications.SetNotifier(notifier)

	// Initialize Firebase Admin SDK
	log.Println("Initializing Firebase Admin SDK...")
	auth, err := middleware.InitializeFirebase(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize Firebase: %w", err)
	}

	transactions := services.NewTransactionService(db, notifications, cfg.Recurrence.OccurrenceCount)
	if cfg.Notifications.SchedulerEnabled {
		services.NewScheduler(transactions, notifications).Start(ctx)
	}

	server := api.NewServer(api.Services{
		Auth:          auth,
		Users:         services.NewUserService(db, cfg.Admin.DefaultEmails),
		Transactions:  transactions,
		Categories:    services.NewCategoryService(db),
		Filters:       services.NewFilterService(db),
		Goals:         services.NewGoalService(db, notifications),
		PeaceFund:     services.NewPeaceFundService(db, notifications),
		Notifications: notifications,
	}, api.Options{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Production:     cfg.IsProduction(),
		StaticDir:      cfg.Server.StaticDir,
	})

	srv := &http.Server{
		Handler:      server.Handler(),
		Addr:         ":" + cfg.Server.Port,
		WriteTimeout: cfg.Server.WriteTimeout,
		ReadTimeout:  cfg.Server.ReadTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Starting server on port %s...", cfg.Server.Port)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server stopped: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Println("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	notifications.Wait()
	log.Println("Server stopped")
	return nil
}

// newNotifier picks the delivery channel named by notifications.channel.
func newNotifier(cfg *config.Config, credentials notify.CredentialSource) (notify.Notifier, error) {
	switch cfg.Notifications.Channel {
	case "whatsapp":
		log.Println("Delivering notifications through WhatsApp")
		return notify.NewWhatsAppNotifier(credentials, nil), nil
	case "discord":
		log.Println("Delivering notifications to Discord")
		n, err := notify.NewDiscordNotifier(cfg.Notifications.DiscordToken, cfg.Notifications.DiscordChannelID)
		if err != nil {
			return nil, err
		}
		return n, nil
	default:
		log.Println("Notifications are only logged")
		return notify.LogNotifier{}, nil
	}
}
