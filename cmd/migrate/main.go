// migrate applies the embedded SQL migrations: go run ./cmd/migrate -direction up|down|version.
package main

import (
	"flag"

	"github.com/sirupsen/logrus"

	"identity-platform/backend/internal/config"
	"identity-platform/backend/internal/db/migrate"
	"identity-platform/backend/internal/platform/logging"
)

func main() {
	direction := flag.String("direction", migrate.Up, "Migration direction: up, down or version")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("config: %v", err)
	}
	log := logging.New(cfg.LogLevel, cfg.LogFormat)

	if err := migrate.Run(cfg.DatabaseURL, *direction, log); err != nil {
		log.WithError(err).Fatal("migrate failed")
	}
}
