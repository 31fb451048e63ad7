package api

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/khaledhikmat/dogscan-go/model"
	"github.com/khaledhikmat/dogscan-go/pipeline"
	"github.com/khaledhikmat/dogscan-go/service/lgr"
)

// Base64 inflates a 10 MiB photo to about 13.4 MiB.
const defaultMaxBodyBytes = 16 << 20

type Dependencies struct {
	Svcs           pipeline.ServicesFactory
	Analyzer       *pipeline.Analyzer
	Stats          *Stats
	ErrorStream    chan interface{}
	RequestTimeout time.Duration
	MaxBodyBytes   int64 // 0 means defaultMaxBodyBytes
}

type PredictRequest struct {
	Image string `json:"image"`
}

type breedResponse struct {
	ScanID   string         `json:"scan_id"`
	ScanType model.ScanType `json:"scan_type"`
	model.BreedReport
}

type diseaseResponse struct {
	ScanID   string         `json:"scan_id"`
	ScanType model.ScanType `json:"scan_type"`
	model.DiseaseReport
}

// NewRouter builds the gin engine with every middleware and route.
func NewRouter(deps *Dependencies) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), CORS(), TracePropagation(), RequestLogger())
	RegisterRoutes(r, deps)
	return r
}

func RegisterRoutes(r *gin.Engine, deps *Dependencies) {
	r.GET("/health", health(deps))

	predict := r.Group("/predict")
	predict.POST("/breed", predictBreed(deps))
	predict.POST("/disease", predictDisease(deps))

	r.GET("/scans", listScans(deps))
	r.GET("/scans/:id", getScan(deps))

	r.GET("/breeds", listBreeds(deps))
	r.GET("/breeds/:id", getBreed(deps))
}

func health(deps *Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":        "ok",
			"models_loaded": deps.Analyzer.ModelsLoaded(),
		})
	}
}

func predictBreed(deps *Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, name, img, ok := readImage(c, deps.MaxBodyBytes)
		if !ok {
			deps.Stats.failure()
			return
		}

		start := time.Now()
		report, err := run(c.Request.Context(), deps.RequestTimeout, func(ctx context.Context) (model.BreedReport, error) {
			return deps.Analyzer.AnalyzeBreed(ctx, img)
		})
		if err != nil {
			failPrediction(c, deps, "predict_breed", err)
			return
		}
		elapsed := time.Since(start)
		deps.Stats.success(elapsed)

		record := model.ScanRecord{
			ID:         uuid.NewString(),
			ScanType:   model.ScanTypeBreed,
			Source:     name,
			ResultType: string(report.ResultType),
			Reasons:    report.Reasons,
			Elapsed:    elapsed.Seconds(),
			CreatedAt:  time.Now().UTC(),
		}
		if len(report.TopBreeds) > 0 {
			record.TopResult = report.TopBreeds[0].DisplayName
			record.Confidence = report.TopBreeds[0].Confidence
		}
		persist(c.Request.Context(), deps, &record, raw)

		c.JSON(http.StatusOK, breedResponse{
			ScanID:      record.ID,
			ScanType:    model.ScanTypeBreed,
			BreedReport: report,
		})
	}
}

func predictDisease(deps *Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, name, img, ok := readImage(c, deps.MaxBodyBytes)
		if !ok {
			deps.Stats.failure()
			return
		}

		start := time.Now()
		report, err := run(c.Request.Context(), deps.RequestTimeout, func(ctx context.Context) (model.DiseaseReport, error) {
			return deps.Analyzer.AnalyzeDisease(ctx, img)
		})
		if err != nil {
			failPrediction(c, deps, "predict_disease", err)
			return
		}
		elapsed := time.Since(start)
		deps.Stats.success(elapsed)

		record := model.ScanRecord{
			ID:        uuid.NewString(),
			ScanType:  model.ScanTypeDisease,
			Source:    name,
			Elapsed:   elapsed.Seconds(),
			CreatedAt: time.Now().UTC(),
		}
		if len(report.TopDiseases) > 0 {
			record.TopResult = report.TopDiseases[0].DisplayName
			record.Confidence = report.TopDiseases[0].Confidence
		}
		persist(c.Request.Context(), deps, &record, raw)

		c.JSON(http.StatusOK, diseaseResponse{
			ScanID:        record.ID,
			ScanType:      model.ScanTypeDisease,
			DiseaseReport: report,
		})
	}
}

func listScans(deps *Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		scans, err := deps.Svcs.DataSvc.RetrieveScans()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve scans"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"scans": scans})
	}
}

func getScan(deps *Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		scan, found, err := deps.Svcs.DataSvc.RetrieveScanByID(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve scan"})
			return
		}
		if !found {
			c.JSON(http.StatusNotFound, gin.H{"error": "Scan not found"})
			return
		}
		c.JSON(http.StatusOK, scan)
	}
}

func listBreeds(deps *Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, deps.Analyzer.Breeds())
	}
}

func getBreed(deps *Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		breed, ok := deps.Analyzer.Breed(c.Param("id"))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "Breed not found"})
			return
		}
		c.JSON(http.StatusOK, breed)
	}
}

// readImage accepts a JSON body {"image": "<base64 or data URL>"} or a
// multipart upload in the "image" field. On failure the response is
// already written.
func readImage(c *gin.Context, limit int64) ([]byte, string, image.Image, bool) {
	var raw []byte
	name := "upload"

	if limit <= 0 {
		limit = defaultMaxBodyBytes
	}
	if c.Request.ContentLength > limit {
		tooLarge(c, limit)
		return nil, "", nil, false
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)

	file, err := c.FormFile("image")
	switch {
	case isMaxBytes(err):
		tooLarge(c, limit)
		return nil, "", nil, false

	case err == nil:
		f, err := file.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to open uploaded image"})
			return nil, "", nil, false
		}
		defer f.Close()

		raw, err = io.ReadAll(f)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read uploaded image"})
			return nil, "", nil, false
		}
		name = file.Filename

	default:
		var req PredictRequest
		err := c.ShouldBindJSON(&req)
		if isMaxBytes(err) {
			tooLarge(c, limit)
			return nil, "", nil, false
		}
		if err != nil || req.Image == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Missing 'image' field (base64)"})
			return nil, "", nil, false
		}

		raw, err = pipeline.DecodeBase64Image(req.Image)
		if err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Image decode failed: " + err.Error()})
			return nil, "", nil, false
		}
	}

	img, err := pipeline.DecodeImage(raw)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Image decode failed: " + err.Error()})
		return nil, "", nil, false
	}

	return raw, name, img, true
}

func isMaxBytes(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}

func tooLarge(c *gin.Context, limit int64) {
	c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": fmt.Sprintf("Request body exceeds %d bytes", limit)})
}

type outcome[T any] struct {
	value T
	err   error
}

// run bounds fn by timeout. Classifier calls are not interruptible, so fn
// keeps running in the background after the deadline.
func run[T any](parent context.Context, timeout time.Duration, fn func(ctx context.Context) (T, error)) (T, error) {
	ctx := parent
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(parent, timeout)
		defer cancel()
	}

	result := make(chan outcome[T], 1)
	go func() {
		v, err := fn(ctx)
		result <- outcome[T]{value: v, err: err}
	}()

	select {
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	case r := <-result:
		return r.value, r.err
	}
}

func failPrediction(c *gin.Context, deps *Dependencies, proc string, err error) {
	deps.Stats.failure()

	status := http.StatusInternalServerError
	message := "Inference failed: " + err.Error()
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
		message = "Inference timed out"
	case errors.Is(err, model.ErrImageDecode):
		status = http.StatusUnprocessableEntity
		message = "Image decode failed: " + err.Error()
	}

	lgr.Logger.ErrorContext(c.Request.Context(), "prediction failed",
		slog.String("processor", proc),
		slog.Int("status", status),
		lgr.Err(err),
	)
	report(deps, model.GenError(proc, err, map[string]interface{}{"status": status}, "prediction failed"))

	c.JSON(status, gin.H{"error": message})
}

// persist stores the uploaded image and the scan record and announces the
// scan. Failures are reported but never fail the request.
func persist(ctx context.Context, deps *Dependencies, record *model.ScanRecord, raw []byte) {
	path, err := deps.Svcs.StorageSvc.StoreFile(record.Source, raw)
	if err != nil {
		report(deps, model.GenError("scan_storage", err, map[string]interface{}{"id": record.ID}, "error storing image"))
	}
	record.ImagePath = path

	if err := deps.Svcs.DataSvc.NewScan(*record); err != nil {
		report(deps, model.GenError("scan_storage", err, map[string]interface{}{"id": record.ID}, "error storing scan"))
	}

	if err := deps.Svcs.WebhookSvc.Post(ctx, pipeline.ScanPayload(*record)); err != nil {
		report(deps, model.GenError("scan_webhook", err, map[string]interface{}{"id": record.ID}, "error posting scan webhook"))
	}
}

func report(deps *Dependencies, err model.CustomError) {
	select {
	case deps.ErrorStream <- err:
	default:
		lgr.Logger.Warn("errorStream full, dropping error", slog.String("processor", err.Processor))
	}
}
