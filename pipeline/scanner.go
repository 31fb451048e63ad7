package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/khaledhikmat/dogscan-go/model"
	"github.com/khaledhikmat/dogscan-go/service/lgr"
)

// BreedScanner runs the breed analysis over every job with a pool of
// workers and forwards the results. It returns the job stream, which the
// producer closes; resultStream is closed after the last worker exits.
func BreedScanner(canx context.Context, svcs ServicesFactory, analyzer *Analyzer, errorStream chan interface{}, statsStream chan interface{}, resultStream chan ScanResult) chan ScanJob {
	in := make(chan ScanJob, 100)

	maxWorkers := svcs.CfgSvc.GetScannerMaxWorkers()
	if maxWorkers <= 0 {
		maxWorkers = 1
	}

	lgr.Logger.Info("breed scanner starting...",
		slog.Int("workers", maxWorkers),
		slog.Int("variants", analyzer.settings.VariantCount()),
	)

	proc := func(job ScanJob) (ScanResult, error) {
		start := time.Now()
		report, err := analyzer.AnalyzeBreed(canx, job.Image)
		if err != nil {
			return ScanResult{}, err
		}

		// Records are stamped with the time the framer picked the file up
		createdAt := job.Timestamp
		if createdAt.IsZero() {
			createdAt = start
		}

		record := model.ScanRecord{
			ID:         uuid.NewString(),
			ScanType:   model.ScanTypeBreed,
			Source:     job.Path,
			ImagePath:  job.Path,
			ResultType: string(report.ResultType),
			Reasons:    report.Reasons,
			Elapsed:    time.Since(start).Seconds(),
			CreatedAt:  createdAt.UTC(),
		}
		if len(report.TopBreeds) > 0 {
			record.TopResult = report.TopBreeds[0].DisplayName
			record.Confidence = report.TopBreeds[0].Confidence
		}

		return ScanResult{Record: record, Report: report}, nil
	}

	var wg sync.WaitGroup
	for i := 0; i < maxWorkers; i++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()

			images := 0
			errors := 0
			beginTime := time.Now().Unix()
			var totalProcTime time.Duration

			defer func() {
				var avgProcTime float64
				if images > 0 {
					avgProcTime = totalProcTime.Seconds() / float64(images)
				}
				statsStream <- model.ScannerStats{
					Name:        "breedScanner",
					Worker:      worker,
					Folder:      svcs.CfgSvc.GetScanFolder(),
					Images:      images,
					Errors:      errors,
					Uptime:      time.Now().Unix() - beginTime,
					AvgProcTime: avgProcTime,
				}
			}()

			for job := range in {
				if canx.Err() != nil {
					lgr.Logger.Info("breed scanner worker context cancelled", slog.Int("worker", worker))
					return
				}

				start := time.Now()
				result, err := proc(job)
				totalProcTime += time.Since(start)
				images++

				if err != nil {
					errors++
					sendError(canx, errorStream, model.GenError("breed_scanner", err, map[string]interface{}{"path": job.Path, "worker": worker}, "error analyzing image"))
					continue
				}

				select {
				case <-canx.Done():
					return
				case resultStream <- result:
				}
			}
		}(i)
	}

	go func() {
		wg.Wait()
		close(resultStream)
	}()

	return in
}
