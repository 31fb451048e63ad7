package mode

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/khaledhikmat/dogscan-go/api"
	"github.com/khaledhikmat/dogscan-go/model"
	"github.com/khaledhikmat/dogscan-go/pipeline"
	"github.com/khaledhikmat/dogscan-go/service/lgr"
)

// Server serves the prediction API until the context is cancelled.
func Server(canxCtx context.Context, svcs pipeline.ServicesFactory) error {
	analyzer, err := pipeline.NewAnalyzerFromServices(svcs)
	if err != nil {
		return err
	}

	errorStream := make(chan interface{}, 100)

	stats := api.NewStats()
	address := svcs.CfgSvc.GetServerAddress()

	if gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}
	router := api.NewRouter(&api.Dependencies{
		Svcs:           svcs,
		Analyzer:       analyzer,
		Stats:          stats,
		ErrorStream:    errorStream,
		RequestTimeout: time.Duration(svcs.CfgSvc.GetRequestTimeout()) * time.Second,
	})

	srv := &http.Server{
		Addr:              address,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		lgr.Logger.Info(
			"server listening",
			slog.String("address", address),
			slog.Int("modelsLoaded", analyzer.ModelsLoaded()),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	for {
		select {
		case <-canxCtx.Done():
			lgr.Logger.Info(
				"server context cancelled",
			)
			goto resume

		case err, ok := <-serveErr:
			if ok && err != nil {
				return model.GenError("server", err, map[string]interface{}{"address": address}, "error serving http")
			}
			goto resume

		case <-time.After(time.Duration(svcs.CfgSvc.GetServerStatsPeriodicTimeout()) * time.Second):
			procStats(svcs.DataSvc, stats.Snapshot(address))

		case e := <-errorStream:
			procError(svcs.DataSvc, e)
		}
	}

resume:
	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(svcs.CfgSvc.GetModeMaxShutdownTime())*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		lgr.Logger.Error("server shutdown failed", lgr.Err(err))
	}

	procStats(svcs.DataSvc, stats.Snapshot(address))
	drain(svcs, "server", nil, errorStream)
	return nil
}
