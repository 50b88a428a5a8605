// Worker consumes session events from Kafka and emails sign-in notifications.
// Set KAFKA_BROKERS, SESSION_EVENTS_TOPIC and KAFKA_GROUP_ID. GRPC_ADDR is required by config but unused (e.g. set to :0).
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"

	"identity-platform/backend/internal/config"
	"identity-platform/backend/internal/db"
	"identity-platform/backend/internal/email"
	"identity-platform/backend/internal/events"
	identityrepo "identity-platform/backend/internal/identity/repository"
	"identity-platform/backend/internal/notification"
	"identity-platform/backend/internal/platform/logging"
	userrepo "identity-platform/backend/internal/user/repository"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("config: %v", err)
	}
	log := logging.New(cfg.LogLevel, cfg.LogFormat)

	brokers := cfg.KafkaBrokersList()
	if len(brokers) == 0 {
		log.Fatal("worker: KAFKA_BROKERS is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.WithError(err).Fatal("worker: db")
	}
	defer conn.Close()

	sender, err := email.NewSender(ctx, cfg.EmailOutbox, email.SESConfig{
		Region:          cfg.AWSRegion,
		AccessKeyID:     cfg.AWSAccessKeyID,
		SecretAccessKey: cfg.AWSSecretAccessKey,
		From:            cfg.EmailFrom,
	}, clockwork.NewRealClock(), log)
	if err != nil {
		log.WithError(err).Fatal("worker: email sender")
	}

	consumer, err := events.NewKafkaConsumer(brokers, cfg.SessionEventsTopic, cfg.KafkaGroupID, log)
	if err != nil {
		log.WithError(err).Fatal("worker: kafka consumer")
	}
	defer consumer.Close()

	notifier := notification.NewSignInNotifier(
		userrepo.NewPostgresRepository(conn),
		identityrepo.NewPostgresRepository(conn),
		sender, log)

	log.WithFields(logrus.Fields{"topic": cfg.SessionEventsTopic, "group": cfg.KafkaGroupID}).Info("worker: consuming session events")
	if err := consumer.Run(ctx, notifier.Handle); err != nil && ctx.Err() == nil {
		log.WithError(err).Error("worker: consumer stopped")
		return
	}
	log.Info("worker: stopped")
}
