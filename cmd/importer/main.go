// Command importer loads catalog dumps from a data directory into MongoDB.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"roadtrip/autocom"
	"roadtrip/config"
	"roadtrip/db"
	"roadtrip/importer"
	"roadtrip/logger"
	"roadtrip/rdx"

	"github.com/sirupsen/logrus"
)

func main() {
	dataDir := flag.String("data", "./data", "directory holding lieux.json, evenements.json and produits.json")
	skipLimit := flag.Int("skip-limit", 0, "halt a file after this many failed items (0 disables)")
	flag.Parse()

	cfg := config.Load()
	logger.Setup(cfg.LogFile, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := db.Init(ctx, cfg.MongoURI, cfg.MongoDatabase); err != nil {
		logrus.WithError(err).Fatal("mongodb connection failed")
	}
	defer db.Disconnect(context.Background())

	im := importer.New(importer.NewMongoWriter(db.POICollection), *skipLimit)
	if cfg.RedisAddr != "" {
		client, err := rdx.Connect(ctx, cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			logrus.WithError(err).Warn("redis unavailable, skipping locality autocomplete")
		} else {
			defer client.Close()
			im.Localities = autocom.NewRedisIndex(client, autocom.LocalitiesKey)
		}
	}
	failed := false
	for _, src := range importer.DefaultSources(*dataDir) {
		if _, err := im.ImportFile(ctx, src); err != nil {
			logrus.WithError(err).WithField("dataSource", src.DataSource).Error("import failed")
			failed = true
		}
	}
	if failed {
		db.Disconnect(context.Background())
		os.Exit(1)
	}
}
