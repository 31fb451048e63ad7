package config

import (
	"fmt"

	"github.com/khaledhikmat/dogscan-go/model"
)

const modelsFolder = "./models"

type hardcodedService struct {
}

func NewHardCoded() IService {
	return &hardcodedService{}
}

func (svc *hardcodedService) GetModeMaxShutdownTime() int {
	return 5
}

func (svc *hardcodedService) GetModelsFolder() string {
	return modelsFolder
}

func (svc *hardcodedService) GetDataFolder() string {
	return "./data"
}

func (svc *hardcodedService) GetUploadsFolder() string {
	return "./uploads"
}

func (svc *hardcodedService) GetScanFolder() string {
	return "./scan"
}

func (svc *hardcodedService) GetServerAddress() string {
	return ":5001"
}

// Seconds allowed for one prediction request, TTA included.
func (svc *hardcodedService) GetRequestTimeout() int {
	return 30
}

func (svc *hardcodedService) GetServerStatsPeriodicTimeout() int {
	return 60
}

func (svc *hardcodedService) GetScannerMaxWorkers() int {
	return 2
}

func (svc *hardcodedService) GetOnnxRuntimeLibrary() string {
	// Empty lets onnxruntime_go pick the platform default
	return ""
}

func (svc *hardcodedService) GetWebhookURL() string {
	return ""
}

func (svc *hardcodedService) GetWebhookTimeout() int {
	return 5
}

func (svc *hardcodedService) GetScansLogFile() string {
	return "scans.log"
}

func (svc *hardcodedService) GetClassifierParameters(name string) ClassifierParameters {
	switch name {
	case BreedClassifierName:
		return ClassifierParameters{
			ModelPath:  modelPath("dog_breed_model.onnx"),
			LabelsPath: fmt.Sprintf("%s/class_labels.json", modelsFolder),
			NameKey:    "display_name",
		}
	case EmotionClassifierName:
		return ClassifierParameters{
			ModelPath:  modelPath("dog_emotion_model.onnx"),
			LabelsPath: fmt.Sprintf("%s/emotion_labels.json", modelsFolder),
			NameKey:    "name",
		}
	case AgeClassifierName:
		return ClassifierParameters{
			ModelPath:  modelPath("dog_age_model.onnx"),
			LabelsPath: fmt.Sprintf("%s/age_labels.json", modelsFolder),
			NameKey:    "name",
		}
	case DiseaseClassifierName:
		return ClassifierParameters{
			ModelPath:  modelPath("dog_skin_disease_model.onnx"),
			LabelsPath: fmt.Sprintf("%s/disease_info.json", modelsFolder),
			NameKey:    "name",
		}
	}

	return ClassifierParameters{}
}

func (svc *hardcodedService) GetInferenceSettings() model.InferenceSettings {
	return model.DefaultInferenceSettings()
}

func modelPath(file string) string {
	return fmt.Sprintf("%s/trained_model/%s", modelsFolder, file)
}
