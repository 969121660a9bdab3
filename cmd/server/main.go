// Command server runs the library loan service: the HTTP surface, the
// domain event pipeline, and the reservation expiry scheduler.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/librisys/loanservice/core"
	"github.com/librisys/loanservice/dispatch"
	"github.com/librisys/loanservice/expiry"
	"github.com/librisys/loanservice/features/command/createbook"
	"github.com/librisys/loanservice/features/command/createnotification"
	"github.com/librisys/loanservice/features/command/createreservation"
	"github.com/librisys/loanservice/features/command/deletebook"
	"github.com/librisys/loanservice/features/command/updatebook"
	"github.com/librisys/loanservice/features/reaction/bookavailable"
	"github.com/librisys/loanservice/features/reaction/bookdeleted"
	"github.com/librisys/loanservice/features/reaction/reservationcreated"
	"github.com/librisys/loanservice/mailer"
	"github.com/librisys/loanservice/oteladapters"
	"github.com/librisys/loanservice/shell/config"
	"github.com/librisys/loanservice/storage"
	"github.com/librisys/loanservice/storage/postgres"
	"github.com/librisys/loanservice/unitofwork"
	"github.com/librisys/loanservice/web"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

func run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger := oteladapters.NewSlogBridgeLoggerWithHandler(
		slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
	)

	// Set up signal handling for graceful shutdown.
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	pool, err := pgxpool.NewWithConfig(ctx, config.PostgresPGXPoolConfig())
	if err != nil {
		return fmt.Errorf("failed to create connection pool: %w", err)
	}
	defer pool.Close()

	db, err := postgres.NewDBFromPGXPool(pool)
	if err != nil {
		return fmt.Errorf("failed to wrap connection pool: %w", err)
	}

	books := postgres.NewBookRepository(logger)
	reservations := postgres.NewReservationRepository(logger)
	notifications := postgres.NewNotificationRepository(logger)
	customers := postgres.NewCustomerDirectory(logger)
	sender := mailer.NewSMTPSender(config.SMTPAddr(), config.SMTPFrom(), nil)

	dispatcher := dispatch.NewDispatcher(logger)
	dispatcher.Subscribe(
		core.ReservationCreatedEventType,
		reservationcreated.HandlerName,
		reservationcreated.NewHandler(books, db).Handle,
	)
	dispatcher.Subscribe(
		core.BookDeletedEventType,
		bookdeleted.HandlerName,
		bookdeleted.NewHandler(reservations, notifications, customers, sender, db, logger).Handle,
	)
	dispatcher.Subscribe(
		core.BookAvailableEventType,
		bookavailable.HandlerName,
		bookavailable.NewHandler(books, notifications, customers, sender, db, logger).Handle,
	)

	committer, err := unitofwork.NewCommitter(db, dispatcher, logger)
	if err != nil {
		return fmt.Errorf("failed to create committer: %w", err)
	}

	scheduler, err := expiry.NewScheduler(
		sweepDepsFactory(db, dispatcher, logger, sender),
		logger,
		expiry.WithInterval(config.ExpiryInterval()),
	)
	if err != nil {
		return fmt.Errorf("failed to create expiry scheduler: %w", err)
	}

	handlers := web.NewHandlers(
		books,
		createbook.NewCommandHandler(books, committer, db),
		updatebook.NewCommandHandler(books, committer, db),
		deletebook.NewCommandHandler(books, committer, db),
		createreservation.NewCommandHandler(books, reservations, committer, db),
		createnotification.NewCommandHandler(books, notifications, committer, db),
		db,
		logger,
	)
	consistency := web.NewEventualConsistency(db, dispatcher, logger)
	router := web.NewRouter(handlers, consistency, logger)

	server := &http.Server{
		Addr:              config.ListenAddr(),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	schedulerDone := make(chan struct{})
	go func() {
		defer close(schedulerDone)
		scheduler.Run(ctx)
	}()

	serverDone := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", server.Addr)
		serverDone <- server.ListenAndServe()
	}()

	// Wait for a shutdown signal or a server failure.
	select {
	case sig := <-sigChan:
		logger.Info("received signal, shutting down", "signal", sig.String())
	case err := <-serverDone:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			cancel()
			<-schedulerDone
			return fmt.Errorf("server failed: %w", err)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("server shutdown incomplete", "error", err.Error())
	}

	cancel()

	select {
	case <-schedulerDone:
	case <-time.After(shutdownTimeout):
		logger.Warn("expiry scheduler shutdown timeout")
	}

	return nil
}

// sweepDepsFactory acquires a fresh dependency set for every expiry sweep.
// The repositories are stateless and the pool handle is shared, so Release
// has nothing to return, but the scheduler still treats each sweep as an
// independent acquisition.
func sweepDepsFactory(
	db storage.DB,
	dispatcher *dispatch.Dispatcher,
	logger *oteladapters.SlogBridgeLogger,
	sender mailer.MessageSender,
) expiry.DepsFactory {

	return func(_ context.Context) (expiry.SweepDeps, error) {
		committer, err := unitofwork.NewCommitter(db, dispatcher, logger)
		if err != nil {
			return expiry.SweepDeps{}, err
		}

		return expiry.SweepDeps{
			Querier:       db,
			Books:         postgres.NewBookRepository(logger),
			Reservations:  postgres.NewReservationRepository(logger),
			Notifications: postgres.NewNotificationRepository(logger),
			Customers:     postgres.NewCustomerDirectory(logger),
			Sender:        sender,
			Committer:     committer,
			Release:       func() {},
		}, nil
	}
}
