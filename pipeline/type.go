package pipeline

import (
	"image"
	"time"

	"github.com/khaledhikmat/dogscan-go/model"
	"github.com/khaledhikmat/dogscan-go/service/config"
	"github.com/khaledhikmat/dogscan-go/service/data"
	"github.com/khaledhikmat/dogscan-go/service/inference"
	"github.com/khaledhikmat/dogscan-go/service/storage"
	"github.com/khaledhikmat/dogscan-go/service/webhook"
)

// ServicesFactory carries every service a mode processor needs. Emotion and
// age classifiers may be nil; the breed report then omits them.
type ServicesFactory struct {
	CfgSvc     config.IService
	DataSvc    data.IService
	StorageSvc storage.IService
	WebhookSvc webhook.IService
	BreedSvc   inference.IService
	EmotionSvc inference.IService
	AgeSvc     inference.IService
	DiseaseSvc inference.IService
}

// ScanJob is one decoded image picked up by the folder framer.
type ScanJob struct {
	Path      string
	Image     image.Image
	Timestamp time.Time
}

// ScanResult is a finished breed analysis on its way to the reporter.
type ScanResult struct {
	Record model.ScanRecord
	Report model.BreedReport
}
