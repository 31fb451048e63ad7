package config

import "github.com/khaledhikmat/dogscan-go/model"

const (
	BreedClassifierName   = "breed"
	EmotionClassifierName = "emotion"
	AgeClassifierName     = "age"
	DiseaseClassifierName = "disease"
)

// ClassifierNames lists every classifier the service loads, breed first.
var ClassifierNames = []string{
	BreedClassifierName,
	EmotionClassifierName,
	AgeClassifierName,
	DiseaseClassifierName,
}

type ClassifierParameters struct {
	ModelPath  string `yaml:"modelPath"`
	LabelsPath string `yaml:"labelsPath"`
	NameKey    string `yaml:"nameKey"` // Record field used as display name
}

type IService interface {
	GetModeMaxShutdownTime() int
	GetModelsFolder() string
	GetDataFolder() string
	GetUploadsFolder() string
	GetScanFolder() string
	GetServerAddress() string
	GetRequestTimeout() int
	GetServerStatsPeriodicTimeout() int
	GetScannerMaxWorkers() int
	GetOnnxRuntimeLibrary() string
	GetWebhookURL() string
	GetWebhookTimeout() int
	GetScansLogFile() string
	GetClassifierParameters(name string) ClassifierParameters
	GetInferenceSettings() model.InferenceSettings
}
