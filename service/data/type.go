package data

import "github.com/khaledhikmat/dogscan-go/model"

type IService interface {
	RetrieveLabels(classifier string) ([]byte, error)
	RetrieveScans() ([]model.ScanRecord, error)
	RetrieveScanByID(id string) (model.ScanRecord, bool, error)
	NewScan(scan model.ScanRecord) error

	NewError(err interface{}) error
	NewServerStats(stats model.ServerStats) error
	NewFramerStats(stats model.FramerStats) error
	NewScannerStats(stats model.ScannerStats) error
}
