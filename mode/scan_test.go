package mode

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khaledhikmat/dogscan-go/pipeline"
	"github.com/khaledhikmat/dogscan-go/service/config"
	"github.com/khaledhikmat/dogscan-go/service/data"
	"github.com/khaledhikmat/dogscan-go/service/inference"
	"github.com/khaledhikmat/dogscan-go/service/storage"
	"github.com/khaledhikmat/dogscan-go/service/webhook"
)

func writePNG(t *testing.T, path string, shade uint8) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 20, 20))
	for y := 0; y < 20; y++ {
		for x := 0; x < 20; x++ {
			img.Set(x, y, color.RGBA{R: shade, G: uint8(x * 10), B: uint8(y * 10), A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))
}

func newScanServices(t *testing.T) (pipeline.ServicesFactory, string) {
	t.Helper()
	dir := t.TempDir()
	scanFolder := filepath.Join(dir, "scan")
	dataFolder := filepath.Join(dir, "data")
	require.NoError(t, os.MkdirAll(scanFolder, 0755))

	labels := map[string]string{
		"class_labels.json":   `{"0":"pug","1":"beagle","2":"boxer"}`,
		"emotion_labels.json": `["happy","sad"]`,
		"age_labels.json":     `["puppy","adult","senior"]`,
		"disease_info.json":   `[{"name":"Healthy"},{"name":"Mange"}]`,
	}
	for name, content := range labels {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
	}

	cfg := fmt.Sprintf(`
modeMaxShutdownTime: 0
dataFolder: %s
scanFolder: %s
scansLogFile: %s
scannerMaxWorkers: 2
classifiers:
  breed:
    labelsPath: %s
  emotion:
    labelsPath: %s
  age:
    labelsPath: %s
  disease:
    labelsPath: %s
inference:
  rotations: [0]
  mirror: false
  blurThreshold: 0
`, dataFolder, scanFolder, filepath.Join(dir, "scans.log"),
		filepath.Join(dir, "class_labels.json"), filepath.Join(dir, "emotion_labels.json"),
		filepath.Join(dir, "age_labels.json"), filepath.Join(dir, "disease_info.json"))
	cfgPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0644))

	cfgSvc, err := config.NewFile(cfgPath)
	require.NoError(t, err)

	shape := inference.Shape{Batch: -1, Height: 16, Width: 16, Channels: 3}
	return pipeline.ServicesFactory{
		CfgSvc:     cfgSvc,
		DataSvc:    data.NewFilesDB(cfgSvc),
		StorageSvc: storage.NewFake(),
		WebhookSvc: webhook.NewFake(),
		BreedSvc:   inference.NewFake("breed", shape, 3, inference.Fixed(0.4, 0.35, 0.25)),
		DiseaseSvc: inference.NewFake("disease", shape, 2, nil),
	}, scanFolder
}

func TestScan(t *testing.T) {
	svcs, scanFolder := newScanServices(t)
	writePNG(t, filepath.Join(scanFolder, "a.png"), 10)
	writePNG(t, filepath.Join(scanFolder, "b.png"), 200)
	require.NoError(t, os.WriteFile(filepath.Join(scanFolder, "broken.jpg"), []byte("not a jpeg"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(scanFolder, "notes.txt"), []byte("skip me"), 0644))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	require.NoError(t, Scan(ctx, svcs))

	scans, err := svcs.DataSvc.RetrieveScans()
	require.NoError(t, err)
	require.Len(t, scans, 2)
	for _, scan := range scans {
		assert.Equal(t, "mixed_breed", scan.ResultType)
		assert.Equal(t, "pug", scan.TopResult)
		assert.Contains(t, scan.Reasons, "low_confidence")
	}
	assert.Len(t, webhook.Payloads(svcs.WebhookSvc), 2)

	dataFolder := svcs.CfgSvc.GetDataFolder()
	assert.FileExists(t, filepath.Join(dataFolder, "errors.json"))
	assert.FileExists(t, filepath.Join(dataFolder, "framer-stats.json"))
	assert.FileExists(t, filepath.Join(dataFolder, "scanner-stats.json"))
	assert.FileExists(t, svcs.CfgSvc.GetScansLogFile())
}

func TestScan_MissingLabels(t *testing.T) {
	svcs, _ := newScanServices(t)
	require.NoError(t, os.Remove(svcs.CfgSvc.GetClassifierParameters(config.AgeClassifierName).LabelsPath))

	assert.Error(t, Scan(context.Background(), svcs))
}

func TestScan_MissingFolder(t *testing.T) {
	svcs, scanFolder := newScanServices(t)
	require.NoError(t, os.RemoveAll(scanFolder))

	require.NoError(t, Scan(context.Background(), svcs))

	scans, err := svcs.DataSvc.RetrieveScans()
	require.NoError(t, err)
	assert.Empty(t, scans)
	assert.FileExists(t, filepath.Join(svcs.CfgSvc.GetDataFolder(), "errors.json"))
}
