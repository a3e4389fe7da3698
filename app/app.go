package app

import (
	"context"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/libraworks/library-api/config"
	"github.com/libraworks/library-api/internal/handler"
	"github.com/libraworks/library-api/internal/notify"
	"github.com/libraworks/library-api/internal/repository"
	"github.com/libraworks/library-api/internal/scheduler"
	"github.com/libraworks/library-api/internal/server"
	"github.com/libraworks/library-api/internal/service"
	"github.com/libraworks/library-api/migrations"
	"github.com/libraworks/library-api/pkg/kafka"
	"github.com/libraworks/library-api/pkg/logger"
	"github.com/libraworks/library-api/pkg/postgres"
)

func Run(cfg *config.Config) {
	log := logger.NewLogger(cfg.Log, "library")
	db, err := postgres.NewPostgresDB(context.Background(), &cfg.Database, migrations.MigrationFiles)
	if err != nil {
		log.Fatal("db init", zap.Error(err))
	}
	bookRepo, err := repository.NewBookRepository(db, log)
	if err != nil {
		log.Fatal("book repo", zap.Error(err))
	}
	loanRepo, err := repository.NewLoanRepository(db, log)
	if err != nil {
		log.Fatal("loan repo", zap.Error(err))
	}
	loanSvc := service.NewLoanService(loanRepo, bookRepo, log)
	bookSvc := service.NewBookService(bookRepo, loanSvc, log)

	producer, err := kafka.NewProducer(cfg.Kafka)
	if err != nil {
		log.Fatal("kafka.NewProducer", zap.Error(err))
	}
	sender := notify.NewKafkaSender(producer, kafka.NotifyTopic)

	consumer, err := kafka.NewConsumer(cfg.Kafka, kafka.NotifyConsumerGroup)
	if err != nil {
		log.Fatal("kafka.NewConsumer", zap.Error(err))
	}
	mailer := notify.NewMailer(cfg.SMTP, log)

	h := handler.New(bookSvc, loanSvc, log)
	srv := server.NewServer(cfg.Server, h.NewRouter())

	ctx, cancel := context.WithCancel(context.Background())
	gg, gctx := errgroup.WithContext(ctx)
	gg.Go(func() error {
		if err := srv.Run(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	gg.Go(func() error {
		kafka.Consume(gctx, consumer, notify.NewConsumer(mailer.Send, log), kafka.NotifyTopic)
		return nil
	})
	gg.Go(func() error {
		scheduler.New(loanSvc, sender, cfg.Overdue, log).Run(gctx)
		return nil
	})
	log.Info("http server start ON: ",
		zap.String("addr",
			net.JoinHostPort(cfg.Server.Host, cfg.Server.Port)))

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	select {
	case termSig := <-sig:
		log.Debug("Graceful shutdown", zap.Any("signal", termSig))
	case <-gctx.Done():
		log.Error("run", zap.Error(gctx.Err()))
	}

	closeCtx, closeCancel := context.WithTimeout(context.Background(), time.Second*5)
	defer closeCancel()

	if err = srv.Stop(closeCtx); err != nil {
		log.DPanic("srv.Stop", zap.Error(err))
	}
	cancel()
	if err = gg.Wait(); err != nil {
		log.Error("wait", zap.Error(err))
	}
	if err = consumer.Close(); err != nil {
		log.Error("consumer.Close", zap.Error(err))
	}
	if err = producer.Close(); err != nil {
		log.Error("producer.Close", zap.Error(err))
	}
	db.Close()
	log.Info("Graceful shutdown finished")
}
