package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/anyproto/any-sync/app"
	"github.com/anyproto/any-sync/app/logger"
	"go.uber.org/zap"

	"github.com/anyproto/review-submit-server/api"
	"github.com/anyproto/review-submit-server/config"
	"github.com/anyproto/review-submit-server/db"
	"github.com/anyproto/review-submit-server/filecache"
	"github.com/anyproto/review-submit-server/store"
	"github.com/anyproto/review-submit-server/submission"
	"github.com/anyproto/review-submit-server/submission/submissionrepo"
)

var log = logger.NewNamed("main")

// set by govvv at build time
var (
	GitCommit  string
	GitSummary string
	BuildDate  string
)

var flagConfigFile = flag.String("c", "etc/config.yml", "path to the config file")

func main() {
	flag.Parse()
	conf, err := config.NewFromFile(*flagConfigFile)
	if err != nil {
		log.Fatal("can't open config file", zap.Error(err))
	}

	a := new(app.App)
	a.Register(conf).
		Register(db.New()).
		Register(store.New()).
		Register(filecache.New()).
		Register(submissionrepo.New()).
		Register(submission.New()).
		Register(api.New())

	ctx := context.Background()
	if err = a.Start(ctx); err != nil {
		log.Fatal("can't start app", zap.Error(err))
	}
	log.Info("app started",
		zap.String("version", GitSummary),
		zap.String("commit", GitCommit),
		zap.String("buildDate", BuildDate))

	exit := make(chan os.Signal, 1)
	signal.Notify(exit, os.Interrupt, syscall.SIGTERM)
	<-exit

	ctx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()
	if err = a.Close(ctx); err != nil {
		log.Fatal("close error", zap.Error(err))
	}
	log.Info("goodbye!")
}
