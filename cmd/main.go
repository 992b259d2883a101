// Package main provides the entry point for the donation backend.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/jjdow676/donationform-backend-test/internal/config"
	"github.com/jjdow676/donationform-backend-test/internal/gateway"
	"github.com/jjdow676/donationform-backend-test/internal/handler"
	"github.com/jjdow676/donationform-backend-test/internal/logger"
	"github.com/jjdow676/donationform-backend-test/internal/mailer"
	"github.com/jjdow676/donationform-backend-test/internal/webhook"
)

// Run is the testable entrypoint for the application.
func Run(ctx context.Context) error {
	cfg := config.Load()
	log := logger.New(cfg.Env)
	log.Info("Starting donation backend",
		zap.String("env", cfg.Env),
		zap.Strings("allowed_origins", cfg.AllowedOrigins))

	gw := gateway.New(cfg, log)
	mail := mailer.New(cfg.SendGridAPIKey, !cfg.Production())
	disp := webhook.New(cfg, log, gw, mail)
	validate := validator.New()
	_ = validate.RegisterValidation("frequency", handler.FrequencyValidator)

	h := handler.New(log, gw, disp, validate)

	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		// Mirror whatever headers the preflight asks for.
		AllowedHeaders: []string{"*"},
		MaxAge:         300,
	}))
	r.Get("/", h.Health)
	r.Post("/webhook", h.Webhook)
	r.Post("/create-checkout-session", h.CreateCheckoutSession)
	r.Post("/create-payment-intent", h.CreatePaymentIntent)
	r.Post("/create-setup-intent", h.CreateSetupIntent)
	r.Post("/create-subscription", h.CreateSubscription)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
		// Webhook handling waits for both notification sends before
		// responding, so the write timeout is generous.
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()

	log.Info("Shutting down server")
	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(ctxShutdown)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := Run(ctx); err != nil {
		os.Exit(1)
	}
}
