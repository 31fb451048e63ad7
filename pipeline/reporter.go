package pipeline

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/natefinch/lumberjack"

	"github.com/khaledhikmat/dogscan-go/model"
	"github.com/khaledhikmat/dogscan-go/service/lgr"
)

// ScanReporter logs, persists and announces every scan result. The returned
// done channel is closed once the result stream is closed and drained.
func ScanReporter(canx context.Context, svcs ServicesFactory, errorStream chan interface{}) (chan ScanResult, chan struct{}) {
	in := make(chan ScanResult, 100)
	done := make(chan struct{})

	scansLog := &lumberjack.Logger{
		Filename:   svcs.CfgSvc.GetScansLogFile(),
		MaxSize:    10, // MB
		MaxBackups: 5,
		MaxAge:     7, // days
		Compress:   true,
	}

	go func() {
		defer close(done)
		defer scansLog.Close()

		for result := range in {
			record := result.Record
			lgr.Logger.Info(
				"scan completed",
				slog.String("id", record.ID),
				slog.String("source", record.Source),
				slog.String("resultType", record.ResultType),
				slog.String("topResult", record.TopResult),
				slog.Float64("confidence", record.Confidence),
				slog.Any("reasons", record.Reasons),
			)

			if err := logScan(scansLog, result); err != nil {
				sendError(canx, errorStream, model.GenError("scan_reporter", err, map[string]interface{}{"id": record.ID}, "error writing scans log"))
			}

			if err := svcs.DataSvc.NewScan(record); err != nil {
				sendError(canx, errorStream, model.GenError("scan_reporter", err, map[string]interface{}{"id": record.ID}, "error storing scan"))
			}

			if err := svcs.WebhookSvc.Post(canx, ScanPayload(record)); err != nil {
				sendError(canx, errorStream, model.GenError("scan_reporter", err, map[string]interface{}{"id": record.ID}, "error posting scan webhook"))
			}
		}
	}()

	return in, done
}

// ScanPayload is the webhook body announcing a finished scan.
func ScanPayload(record model.ScanRecord) map[string]interface{} {
	return map[string]interface{}{
		"scanId":     record.ID,
		"scanType":   record.ScanType,
		"source":     record.Source,
		"topResult":  record.TopResult,
		"confidence": record.Confidence,
		"resultType": record.ResultType,
		"timestamp":  record.CreatedAt,
	}
}

func logScan(w *lumberjack.Logger, result ScanResult) error {
	entry := map[string]interface{}{
		"time":   result.Record.CreatedAt,
		"id":     result.Record.ID,
		"source": result.Record.Source,
		"report": result.Report,
	}

	line, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	_, err = w.Write(append(line, '\n'))
	return err
}
