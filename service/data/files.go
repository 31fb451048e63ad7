package data

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"golang.org/x/xerrors"

	"github.com/khaledhikmat/dogscan-go/model"
	"github.com/khaledhikmat/dogscan-go/service/config"
)

// filesDBService keeps every entity kind in its own JSON array file under the
// data folder. Label files are read from the classifier parameters.
type filesDBService struct {
	CfgSvc config.IService
	mu     *sync.Mutex
}

func NewFilesDB(cfgsvc config.IService) IService {
	return &filesDBService{
		CfgSvc: cfgsvc,
		mu:     &sync.Mutex{},
	}
}

func (svc *filesDBService) RetrieveLabels(classifier string) ([]byte, error) {
	path := svc.CfgSvc.GetClassifierParameters(classifier).LabelsPath
	if path == "" {
		return nil, xerrors.Errorf("no labels configured for classifier %s", classifier)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, xerrors.Errorf("failed to read %s labels: %w", classifier, err)
	}
	return data, nil
}

// RetrieveScans returns the scan history, newest first.
func (svc *filesDBService) RetrieveScans() ([]model.ScanRecord, error) {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	scans, err := retrieveEntites[model.ScanRecord]("scans", svc.CfgSvc)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(scans, func(i, j int) bool {
		return scans[i].CreatedAt.After(scans[j].CreatedAt)
	})
	return scans, nil
}

func (svc *filesDBService) RetrieveScanByID(id string) (model.ScanRecord, bool, error) {
	scans, err := svc.RetrieveScans()
	if err != nil {
		return model.ScanRecord{}, false, err
	}

	for _, scan := range scans {
		if scan.ID == id {
			return scan, true, nil
		}
	}

	return model.ScanRecord{}, false, nil
}

func (svc *filesDBService) NewScan(scan model.ScanRecord) error {
	if scan.CreatedAt.IsZero() {
		scan.CreatedAt = time.Now().UTC()
	}
	return svc.newEntity(scan, "scans")
}

func (svc *filesDBService) NewError(err interface{}) error {
	// Determine if the error is custom
	var customErr model.CustomError
	switch e := err.(type) {
	case model.CustomError:
		customErr = e
	case error:
		customErr.Processor = "N/A"
		customErr.Inner = e
		customErr.Message = e.Error()
		customErr.StackTrace = "N/A"
	default:
		return xerrors.Errorf("unsupported error value %T", err)
	}

	inner := ""
	if customErr.Inner != nil {
		inner = customErr.Inner.Error()
	}

	errorData := struct {
		Timestamp  int64                  `json:"timestamp"`
		Processor  string                 `json:"processor"`
		Inner      string                 `json:"innerError"`
		Message    string                 `json:"message"`
		StackTrace string                 `json:"stackTrace"`
		Misc       map[string]interface{} `json:"misc"`
	}{
		Timestamp:  time.Now().Unix(),
		Processor:  customErr.Processor,
		Inner:      inner,
		Message:    customErr.Message,
		StackTrace: customErr.StackTrace,
		Misc:       customErr.Misc,
	}
	return svc.newEntity(errorData, "errors")
}

func (svc *filesDBService) NewServerStats(stats model.ServerStats) error {
	stats.Timestamp = time.Now().Unix()
	return svc.newEntity(stats, "server-stats")
}

func (svc *filesDBService) NewFramerStats(stats model.FramerStats) error {
	stats.Timestamp = time.Now().Unix()
	return svc.newEntity(stats, "framer-stats")
}

func (svc *filesDBService) NewScannerStats(stats model.ScannerStats) error {
	stats.Timestamp = time.Now().Unix()
	return svc.newEntity(stats, "scanner-stats")
}

// newEntity appends under the service lock; HTTP handlers and scan workers
// write concurrently.
func (svc *filesDBService) newEntity(entity interface{}, filename string) error {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	return newEntity(entity, filename, svc.CfgSvc)
}

func newEntity[T any](entity T, filename string, cfgsvc config.IService) error {
	entities, err := retrieveEntites[T](filename, cfgsvc)
	if err != nil {
		return err
	}

	entities = append(entities, entity)

	data, err := json.MarshalIndent(entities, "", "  ")
	if err != nil {
		return err
	}

	if err := os.MkdirAll(cfgsvc.GetDataFolder(), 0755); err != nil {
		return xerrors.Errorf("failed to create data folder: %w", err)
	}

	// Write to a sibling file and rename so readers never see half a file
	output := entityPath(filename, cfgsvc)
	tmp := output + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, output)
}

func retrieveEntites[T any](filename string, cfgsvc config.IService) ([]T, error) {
	entities := []T{}

	data, err := os.ReadFile(entityPath(filename, cfgsvc))
	if err != nil {
		// WARNING: File not found, return empty slice
		return entities, nil
	}

	if err := json.Unmarshal(data, &entities); err != nil {
		return nil, xerrors.Errorf("failed to parse %s: %w", filename, err)
	}

	return entities, nil
}

func entityPath(filename string, cfgsvc config.IService) string {
	return filepath.Join(cfgsvc.GetDataFolder(), filename+".json")
}
