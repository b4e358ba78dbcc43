package api

import (
	"context"
	"net/http"
	"time"

	"github.com/anyproto/any-sync/app"
	"github.com/anyproto/any-sync/app/logger"
	"go.uber.org/zap"

	"github.com/anyproto/review-submit-server/api/apiconfig"
	"github.com/anyproto/review-submit-server/filecache"
	"github.com/anyproto/review-submit-server/submission"
)

func New() Api {
	return new(api)
}

const CName = "api"

var log = logger.NewNamed(CName)

type Api interface {
	app.ComponentRunnable
}

type api struct {
	mux    *http.ServeMux
	server *http.Server
	config apiconfig.Config
}

func (a *api) Name() (name string) {
	return CName
}

func (a *api) Init(ap *app.App) (err error) {
	a.config = ap.MustComponent("config").(apiconfig.ConfigGetter).GetApi()
	a.mux = http.NewServeMux()
	h := handler{
		submission:  ap.MustComponent(submission.CName).(submission.Service),
		files:       ap.MustComponent(filecache.CName).(filecache.FileCache),
		maxFileSize: a.config.MaxFileSizeMb << 20,
	}
	if h.maxFileSize <= 0 {
		h.maxFileSize = 128 << 20
	}
	h.init(a.mux)
	a.server = &http.Server{Addr: a.config.Addr, Handler: a.mux}
	return
}

func (a *api) Run(ctx context.Context) (err error) {
	var errCh = make(chan error)
	go func() {
		errCh <- a.server.ListenAndServe()
	}()
	select {
	case err = <-errCh:
		return err
	case <-time.After(200 * time.Millisecond):
		log.Info("api server started", zap.String("addr", a.config.Addr))
		return
	}
}

func (a *api) Close(ctx context.Context) (err error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return a.server.Shutdown(ctx)
}
