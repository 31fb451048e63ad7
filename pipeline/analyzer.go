package pipeline

import (
	"context"
	"image"

	"golang.org/x/xerrors"

	"github.com/khaledhikmat/dogscan-go/catalog"
	"github.com/khaledhikmat/dogscan-go/model"
	"github.com/khaledhikmat/dogscan-go/service/config"
	"github.com/khaledhikmat/dogscan-go/service/inference"
)

const diseaseTopK = 3

type Catalogs struct {
	Breed   *catalog.Catalog
	Emotion *catalog.Catalog
	Age     *catalog.Catalog
	Disease *catalog.Catalog
}

type Classifiers struct {
	Breed   inference.IService
	Emotion inference.IService
	Age     inference.IService
	Disease inference.IService
}

// Analyzer runs the breed and disease flows for one decoded image. It is
// safe for concurrent use.
type Analyzer struct {
	settings    model.InferenceSettings
	predictor   *Predictor
	catalogs    Catalogs
	classifiers Classifiers
}

func NewAnalyzer(settings model.InferenceSettings, catalogs Catalogs, classifiers Classifiers) *Analyzer {
	return &Analyzer{
		settings:    settings,
		predictor:   NewPredictor(settings),
		catalogs:    catalogs,
		classifiers: classifiers,
	}
}

// NewAnalyzerFromServices loads every label catalog through the data service.
// A malformed label file is fatal.
func NewAnalyzerFromServices(svcs ServicesFactory) (*Analyzer, error) {
	load := func(name string) (*catalog.Catalog, error) {
		raw, err := svcs.DataSvc.RetrieveLabels(name)
		if err != nil {
			return nil, err
		}

		cat, err := catalog.Build(raw, svcs.CfgSvc.GetClassifierParameters(name).NameKey)
		if err != nil {
			return nil, xerrors.Errorf("%s labels: %w", name, err)
		}
		return cat, nil
	}

	catalogs := Catalogs{}
	targets := map[string]**catalog.Catalog{
		config.BreedClassifierName:   &catalogs.Breed,
		config.EmotionClassifierName: &catalogs.Emotion,
		config.AgeClassifierName:     &catalogs.Age,
		config.DiseaseClassifierName: &catalogs.Disease,
	}
	for _, name := range config.ClassifierNames {
		cat, err := load(name)
		if err != nil {
			return nil, err
		}
		*targets[name] = cat
	}

	return NewAnalyzer(svcs.CfgSvc.GetInferenceSettings(), catalogs, Classifiers{
		Breed:   svcs.BreedSvc,
		Emotion: svcs.EmotionSvc,
		Age:     svcs.AgeSvc,
		Disease: svcs.DiseaseSvc,
	}), nil
}

// AnalyzeBreed averages the breed classifier over every augmented view,
// builds the verdict, flags blurry photos and adds the emotion and age
// top-1 labels when those classifiers are loaded.
func (a *Analyzer) AnalyzeBreed(ctx context.Context, img image.Image) (model.BreedReport, error) {
	if a.classifiers.Breed == nil {
		return model.BreedReport{}, model.NewClassifierError(config.BreedClassifierName, nil, "not loaded")
	}

	probs, err := a.predictor.Predict(ctx, img, a.classifiers.Breed)
	if err != nil {
		return model.BreedReport{}, err
	}

	report := model.BreedReport{
		Verdict: ClassifyBreed(probs, a.catalogs.Breed, a.settings),
	}

	if a.settings.BlurThreshold > 0 {
		width, height, err := targetSize(a.classifiers.Breed)
		if err != nil {
			return model.BreedReport{}, err
		}

		blurry, err := IsBlurry(Letterbox(img, width, height), a.settings.BlurThreshold)
		if err != nil {
			return model.BreedReport{}, xerrors.Errorf("blur check: %w", err)
		}
		if blurry {
			MarkBlurry(&report.Verdict)
		}
	}

	if report.Emotion, err = a.single(ctx, img, a.classifiers.Emotion, a.catalogs.Emotion); err != nil {
		return model.BreedReport{}, err
	}
	if report.Age, err = a.single(ctx, img, a.classifiers.Age, a.catalogs.Age); err != nil {
		return model.BreedReport{}, err
	}

	return report, nil
}

// AnalyzeDisease ranks the three most likely skin conditions.
func (a *Analyzer) AnalyzeDisease(ctx context.Context, img image.Image) (model.DiseaseReport, error) {
	if a.classifiers.Disease == nil {
		return model.DiseaseReport{}, model.NewClassifierError(config.DiseaseClassifierName, nil, "not loaded")
	}

	probs, err := a.predictor.PredictSingle(ctx, img, a.classifiers.Disease)
	if err != nil {
		return model.DiseaseReport{}, err
	}

	return model.DiseaseReport{
		TopDiseases: RankTop(probs, a.catalogs.Disease, diseaseTopK),
	}, nil
}

// ModelsLoaded counts the classifiers available to the analyzer.
func (a *Analyzer) ModelsLoaded() int {
	n := 0
	for _, clf := range []inference.IService{a.classifiers.Breed, a.classifiers.Emotion, a.classifiers.Age, a.classifiers.Disease} {
		if clf != nil {
			n++
		}
	}
	return n
}

func (a *Analyzer) single(ctx context.Context, img image.Image, clf inference.IService, cat *catalog.Catalog) (*model.RankedBreed, error) {
	if clf == nil {
		return nil, nil
	}

	probs, err := a.predictor.PredictSingle(ctx, img, clf)
	if err != nil {
		return nil, err
	}

	top := ClassifySingle(probs, cat)
	return &top, nil
}
