package mode

import (
	"context"
	"log/slog"

	"github.com/khaledhikmat/dogscan-go/pipeline"
	"github.com/khaledhikmat/dogscan-go/service/lgr"
)

// Scan runs the breed analysis over every image of the scan folder and
// returns once all of them are reported or the context is cancelled.
func Scan(canxCtx context.Context, svcs pipeline.ServicesFactory) error {
	analyzer, err := pipeline.NewAnalyzerFromServices(svcs)
	if err != nil {
		return err
	}

	errorStream := make(chan interface{})
	statsStream := make(chan interface{})

	folder := svcs.CfgSvc.GetScanFolder()
	lgr.Logger.Info("scan starting", slog.String("folder", folder))

	resultStream, reporterDone := pipeline.ScanReporter(canxCtx, svcs, errorStream)
	jobStream := pipeline.BreedScanner(canxCtx, svcs, analyzer, errorStream, statsStream, resultStream)
	pipeline.FolderFramer(canxCtx, folder, errorStream, statsStream, []chan pipeline.ScanJob{jobStream})

	for {
		select {
		case <-canxCtx.Done():
			lgr.Logger.Info(
				"scan context cancelled",
			)
			goto resume

		case <-reporterDone:
			lgr.Logger.Info(
				"scan completed",
				slog.String("folder", folder),
			)
			goto resume

		case s := <-statsStream:
			procStats(svcs.DataSvc, s)

		case e := <-errorStream:
			procError(svcs.DataSvc, e)
		}
	}

resume:
	drain(svcs, "scan", statsStream, errorStream)
	return nil
}
