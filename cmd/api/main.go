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

	"golang.org/x/sync/errgroup"

	"github.com/projeto-sistema-financas-pessoais/financas-pessoais-backand/internal/config"
	"github.com/projeto-sistema-financas-pessoais/financas-pessoais-backand/internal/database"
	"github.com/projeto-sistema-financas-pessoais/financas-pessoais-backand/internal/events"
	"github.com/projeto-sistema-financas-pessoais/financas-pessoais-backand/internal/logger"
	"github.com/projeto-sistema-financas-pessoais/financas-pessoais-backand/internal/server"
	"github.com/projeto-sistema-financas-pessoais/financas-pessoais-backand/internal/worker"
)

// @title           Finanças Pessoais API
// @version         1.0
// @description     Personal finance ledger: accounts, credit cards with invoices, installment and recurring transactions, and expense splits with relatives.

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	logger.Init(os.Getenv("ENV"), os.Getenv("LOG_LEVEL"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	dbConfig := database.NewConfig(appConfig)
	dbManager, err := database.NewManager(dbConfig)
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}
	defer dbManager.Close()

	if err := dbManager.RunMigrations(dbConfig); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	publisher := events.NewPublisher(appConfig.AMQPURL, appConfig.AMQPExchange)
	defer publisher.Close()

	svc := server.NewServices(dbManager.DB(), publisher, appConfig.LedgerPolicy())
	srv := &http.Server{
		Addr:              ":" + appConfig.Port,
		Handler:           server.NewRouter(appConfig, svc),
		ReadHeaderTimeout: 10 * time.Second,
	}
	sweeper := worker.NewSweeper(svc.Invoices, appConfig.SweepInterval)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Infof("Starting ledger API on port %s", appConfig.Port)
		log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", appConfig.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		return sweeper.Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
