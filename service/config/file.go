package config

import (
	"os"
	"strconv"

	"golang.org/x/xerrors"
	"gopkg.in/yaml.v3"

	"github.com/khaledhikmat/dogscan-go/model"
)

type fileSettings struct {
	ModeMaxShutdownTime        int                             `yaml:"modeMaxShutdownTime"`
	ModelsFolder               string                          `yaml:"modelsFolder"`
	DataFolder                 string                          `yaml:"dataFolder"`
	UploadsFolder              string                          `yaml:"uploadsFolder"`
	ScanFolder                 string                          `yaml:"scanFolder"`
	ServerAddress              string                          `yaml:"serverAddress"`
	RequestTimeout             int                             `yaml:"requestTimeout"`
	ServerStatsPeriodicTimeout int                             `yaml:"serverStatsPeriodicTimeout"`
	ScannerMaxWorkers          int                             `yaml:"scannerMaxWorkers"`
	OnnxRuntimeLibrary         string                          `yaml:"onnxRuntimeLibrary"`
	WebhookURL                 string                          `yaml:"webhookURL"`
	WebhookTimeout             int                             `yaml:"webhookTimeout"`
	ScansLogFile               string                          `yaml:"scansLogFile"`
	Classifiers                map[string]ClassifierParameters `yaml:"classifiers"`
	Inference                  model.InferenceSettings         `yaml:"inference"`
}

type fileService struct {
	settings fileSettings
}

// NewFile overlays the YAML file at path (if any) and then the environment
// on top of the hardcoded defaults. Keys missing from the file keep their
// default value.
func NewFile(path string) (IService, error) {
	settings := defaults(NewHardCoded())

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, xerrors.Errorf("failed to read config file %s: %w", path, err)
		}

		overlay := fileSettings{}
		if err := yaml.Unmarshal(data, &overlay); err != nil {
			return nil, xerrors.Errorf("failed to parse config file %s: %w", path, err)
		}

		// Decoded again on top of the defaults so that a partial inference
		// block only replaces the keys it names.
		if err := yaml.Unmarshal(data, &settings); err != nil {
			return nil, xerrors.Errorf("failed to parse config file %s: %w", path, err)
		}

		mergeClassifiers(&settings, overlay.Classifiers)
	}

	applyEnv(&settings)

	return &fileService{settings: settings}, nil
}

func defaults(svc IService) fileSettings {
	classifiers := map[string]ClassifierParameters{}
	for _, name := range ClassifierNames {
		classifiers[name] = svc.GetClassifierParameters(name)
	}

	return fileSettings{
		ModeMaxShutdownTime:        svc.GetModeMaxShutdownTime(),
		ModelsFolder:               svc.GetModelsFolder(),
		DataFolder:                 svc.GetDataFolder(),
		UploadsFolder:              svc.GetUploadsFolder(),
		ScanFolder:                 svc.GetScanFolder(),
		ServerAddress:              svc.GetServerAddress(),
		RequestTimeout:             svc.GetRequestTimeout(),
		ServerStatsPeriodicTimeout: svc.GetServerStatsPeriodicTimeout(),
		ScannerMaxWorkers:          svc.GetScannerMaxWorkers(),
		OnnxRuntimeLibrary:         svc.GetOnnxRuntimeLibrary(),
		WebhookURL:                 svc.GetWebhookURL(),
		WebhookTimeout:             svc.GetWebhookTimeout(),
		ScansLogFile:               svc.GetScansLogFile(),
		Classifiers:                classifiers,
		Inference:                  svc.GetInferenceSettings(),
	}
}

// mergeClassifiers fills the blank fields of every overridden classifier
// from its default.
func mergeClassifiers(settings *fileSettings, overlay map[string]ClassifierParameters) {
	base := NewHardCoded()
	merged := map[string]ClassifierParameters{}
	for _, name := range ClassifierNames {
		merged[name] = base.GetClassifierParameters(name)
	}

	for name, params := range overlay {
		def := merged[name]
		if params.ModelPath == "" {
			params.ModelPath = def.ModelPath
		}
		if params.LabelsPath == "" {
			params.LabelsPath = def.LabelsPath
		}
		if params.NameKey == "" {
			params.NameKey = def.NameKey
		}
		merged[name] = params
	}

	settings.Classifiers = merged
}

func applyEnv(settings *fileSettings) {
	envString("DOGSCAN_SERVER_ADDRESS", &settings.ServerAddress)
	envString("DOGSCAN_DATA_FOLDER", &settings.DataFolder)
	envString("DOGSCAN_UPLOADS_FOLDER", &settings.UploadsFolder)
	envString("DOGSCAN_SCAN_FOLDER", &settings.ScanFolder)
	envString("DOGSCAN_WEBHOOK_URL", &settings.WebhookURL)
	envString("ONNXRUNTIME_LIB", &settings.OnnxRuntimeLibrary)
	envInt("DOGSCAN_REQUEST_TIMEOUT", &settings.RequestTimeout)
	envInt("DOGSCAN_SCANNER_MAX_WORKERS", &settings.ScannerMaxWorkers)
}

func envString(key string, target *string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*target = v
	}
}

func envInt(key string, target *int) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return
	}
	if n, err := strconv.Atoi(v); err == nil && n > 0 {
		*target = n
	}
}

func (svc *fileService) GetModeMaxShutdownTime() int {
	return svc.settings.ModeMaxShutdownTime
}

func (svc *fileService) GetModelsFolder() string {
	return svc.settings.ModelsFolder
}

func (svc *fileService) GetDataFolder() string {
	return svc.settings.DataFolder
}

func (svc *fileService) GetUploadsFolder() string {
	return svc.settings.UploadsFolder
}

func (svc *fileService) GetScanFolder() string {
	return svc.settings.ScanFolder
}

func (svc *fileService) GetServerAddress() string {
	return svc.settings.ServerAddress
}

func (svc *fileService) GetRequestTimeout() int {
	return svc.settings.RequestTimeout
}

func (svc *fileService) GetServerStatsPeriodicTimeout() int {
	return svc.settings.ServerStatsPeriodicTimeout
}

func (svc *fileService) GetScannerMaxWorkers() int {
	return svc.settings.ScannerMaxWorkers
}

func (svc *fileService) GetOnnxRuntimeLibrary() string {
	return svc.settings.OnnxRuntimeLibrary
}

func (svc *fileService) GetWebhookURL() string {
	return svc.settings.WebhookURL
}

func (svc *fileService) GetWebhookTimeout() int {
	return svc.settings.WebhookTimeout
}

func (svc *fileService) GetScansLogFile() string {
	return svc.settings.ScansLogFile
}

func (svc *fileService) GetClassifierParameters(name string) ClassifierParameters {
	return svc.settings.Classifiers[name]
}

func (svc *fileService) GetInferenceSettings() model.InferenceSettings {
	s := svc.settings.Inference
	s.Rotations = append([]float64(nil), s.Rotations...)
	return s
}
