package pipeline

import (
	"context"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khaledhikmat/dogscan-go/catalog"
	"github.com/khaledhikmat/dogscan-go/model"
	"github.com/khaledhikmat/dogscan-go/service/config"
	"github.com/khaledhikmat/dogscan-go/service/data"
	"github.com/khaledhikmat/dogscan-go/service/inference"
)

func testAnalyzer(t *testing.T, settings model.InferenceSettings, classifiers Classifiers) *Analyzer {
	t.Helper()
	ages, err := catalog.Build([]byte(`["puppy","adult","senior"]`), "name")
	require.NoError(t, err)
	diseases, err := catalog.Build([]byte(`[{"name":"Healthy"},{"name":"Mange","severity":"moderate"}]`), "name")
	require.NoError(t, err)

	return NewAnalyzer(settings, Catalogs{
		Breed:   breedCatalog(t),
		Age:     ages,
		Disease: diseases,
	}, classifiers)
}

func fastSettings() model.InferenceSettings {
	settings := model.DefaultInferenceSettings()
	settings.Rotations = []float64{-7, 0, 7}
	return settings
}

func TestAnalyzeBreed(t *testing.T) {
	settings := fastSettings()
	settings.BlurThreshold = 0

	breed := inference.NewFake("breed", smallShape, 4, inference.Fixed(0.8, 0.1, 0.05, 0.05))
	a := testAnalyzer(t, settings, Classifiers{
		Breed: breed,
		Age:   inference.NewFake("age", smallShape, 3, inference.Fixed(0.1, 0.2, 0.7)),
	})

	report, err := a.AnalyzeBreed(context.Background(), gradientImage(24, 24))
	require.NoError(t, err)

	assert.Equal(t, model.ResultPureBreed, report.ResultType)
	assert.False(t, report.Blurry)
	assert.Equal(t, "Pug", report.TopBreeds[0].DisplayName)
	assert.Nil(t, report.Emotion)
	require.NotNil(t, report.Age)
	assert.Equal(t, "senior", report.Age.DisplayName)

	// 6 variants in one batch of 8
	assert.Equal(t, int64(1), inference.Calls(breed))
	assert.Equal(t, 2, a.ModelsLoaded())
}

func TestAnalyzeBreed_FlagsBlurryPhoto(t *testing.T) {
	a := testAnalyzer(t, fastSettings(), Classifiers{
		Breed: inference.NewFake("breed", smallShape, 4, inference.Fixed(0.8, 0.1, 0.05, 0.05)),
	})

	report, err := a.AnalyzeBreed(context.Background(), solidImage(24, 24, color.Gray{Y: 90}))
	require.NoError(t, err)

	assert.True(t, report.Blurry)
	assert.True(t, report.HasReason(model.ReasonBlurry))
	assert.True(t, report.IsUncertain)
	assert.Equal(t, model.ResultPureBreed, report.ResultType)
}

func TestAnalyzeBreed_NotLoaded(t *testing.T) {
	a := testAnalyzer(t, fastSettings(), Classifiers{})

	_, err := a.AnalyzeBreed(context.Background(), gradientImage(8, 8))
	assert.ErrorIs(t, err, model.ErrClassifierFailure)

	_, err = a.AnalyzeDisease(context.Background(), gradientImage(8, 8))
	assert.ErrorIs(t, err, model.ErrClassifierFailure)
}

func TestAnalyzeDisease(t *testing.T) {
	a := testAnalyzer(t, fastSettings(), Classifiers{
		Disease: inference.NewFake("disease", smallShape, 2, inference.Fixed(0.25, 0.75)),
	})

	report, err := a.AnalyzeDisease(context.Background(), gradientImage(8, 8))
	require.NoError(t, err)

	require.Len(t, report.TopDiseases, 2)
	assert.Equal(t, "Mange", report.TopDiseases[0].DisplayName)
	assert.Equal(t, "moderate", report.TopDiseases[0].Severity)
	assert.Equal(t, 75.0, report.TopDiseases[0].Confidence)
}

func TestNewAnalyzerFromServices(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
		return path
	}

	breed := write("breed.json", `{"0":{"class_name":"pug","display_name":"Pug"}}`)
	emotion := write("emotion.json", `["happy"]`)
	age := write("age.json", `["adult"]`)
	disease := write("disease.json", `[{"name":"Healthy"}]`)
	cfg := write("config.yaml", "classifiers:\n"+
		"  breed: {labelsPath: "+breed+"}\n"+
		"  emotion: {labelsPath: "+emotion+"}\n"+
		"  age: {labelsPath: "+age+"}\n"+
		"  disease: {labelsPath: "+disease+"}\n")

	cfgSvc, err := config.NewFile(cfg)
	require.NoError(t, err)

	svcs := ServicesFactory{
		CfgSvc:   cfgSvc,
		DataSvc:  data.NewFilesDB(cfgSvc),
		BreedSvc: inference.NewFake("breed", smallShape, 1, nil),
	}

	a, err := NewAnalyzerFromServices(svcs)
	require.NoError(t, err)
	assert.Equal(t, 1, a.catalogs.Breed.Len())
	assert.Equal(t, []string{"Healthy"}, a.catalogs.Disease.Names())
	assert.Equal(t, 1, a.ModelsLoaded())

	// A scalar root is malformed label data
	require.NoError(t, os.WriteFile(age, []byte(`42`), 0644))
	_, err = NewAnalyzerFromServices(svcs)
	assert.ErrorIs(t, err, model.ErrMalformedLabelData)
}
