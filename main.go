package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/khaledhikmat/dogscan-go/mode"
	"github.com/khaledhikmat/dogscan-go/pipeline"
	"github.com/khaledhikmat/dogscan-go/service/config"
	"github.com/khaledhikmat/dogscan-go/service/data"
	"github.com/khaledhikmat/dogscan-go/service/inference"
	"github.com/khaledhikmat/dogscan-go/service/lgr"
	"github.com/khaledhikmat/dogscan-go/service/storage"
	"github.com/khaledhikmat/dogscan-go/service/webhook"
)

const (
	// WARNING: this has to be bigger that the mode processor shutdown time
	waitOnShutdown = 8 * time.Second
)

var modeProcessors = map[string]mode.Processor{
	"server": mode.Server,
	"scan":   mode.Scan,
}

func main() {
	rootCtx := context.Background()
	canxCtx, canxFn := context.WithCancel(rootCtx)

	// Hook up a signal handler to cancel the context
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		lgr.Logger.Info(
			"received kill signal",
			slog.Any("signal", sig),
		)
		canxFn()
	}()

	// Load env vars if we are in DEV mode
	if os.Getenv("RUN_TIME_ENV") == "dev" || os.Getenv("RUN_TIME_ENV") == "" {
		lgr.Logger.Info("loading env vars from .env file")
		if err := godotenv.Load(); err != nil {
			lgr.Logger.Warn("no .env file loaded", lgr.Err(err))
		}
	}

	configPath := pflag.String("config", "", "YAML file overriding the default settings")
	folder := pflag.String("folder", "", "folder of images to analyze in scan mode")
	pflag.Parse()

	modeType := "server"
	if args := pflag.Args(); len(args) > 0 {
		modeType = args[0]
	}

	modeProc, ok := modeProcessors[modeType]
	if !ok {
		lgr.Logger.Error("invalid mode", slog.String("mode", modeType))
		panic("invalid mode")
	}

	if *folder != "" {
		os.Setenv("DOGSCAN_SCAN_FOLDER", *folder)
	}

	// Create the services needed for the mode processor
	cfgSvc, err := config.NewFile(*configPath)
	if err != nil {
		lgr.Logger.Error("error loading config", lgr.Err(err))
		panic("error loading config")
	}
	dataSvc := data.NewFilesDB(cfgSvc)
	storageSvc := storage.NewLocal(cfgSvc)
	webhookSvc := webhook.NewHTTP(cfgSvc)

	svcs := pipeline.ServicesFactory{
		CfgSvc:     cfgSvc,
		DataSvc:    dataSvc,
		StorageSvc: storageSvc,
		WebhookSvc: webhookSvc,
	}

	// Breed is required. The other classifiers are skipped when their model
	// cannot be loaded.
	classifiers := map[string]*inference.IService{
		config.BreedClassifierName:   &svcs.BreedSvc,
		config.EmotionClassifierName: &svcs.EmotionSvc,
		config.AgeClassifierName:     &svcs.AgeSvc,
		config.DiseaseClassifierName: &svcs.DiseaseSvc,
	}
	for _, name := range config.ClassifierNames {
		params := cfgSvc.GetClassifierParameters(name)
		clf, err := inference.NewOnnx(name, params.ModelPath, cfgSvc.GetOnnxRuntimeLibrary())
		if err != nil {
			if name == config.BreedClassifierName {
				lgr.Logger.Error("error loading breed classifier", slog.String("model", params.ModelPath), lgr.Err(err))
				panic("error loading breed classifier")
			}
			lgr.Logger.Warn("classifier not loaded", slog.String("classifier", name), lgr.Err(err))
			continue
		}
		defer clf.Close()

		lgr.Logger.Info("classifier loaded",
			slog.String("classifier", name),
			slog.Any("shape", clf.InputShape()),
		)
		*classifiers[name] = clf
	}
	defer inference.Shutdown()

	// Create mode processor result
	modeProcResult := make(chan error)

	// Start the mode processor
	go func() {
		modeProcResult <- modeProc(canxCtx, svcs)
	}()

	// Wait for cancellation or mode proc
	select {
	case <-canxCtx.Done():
		lgr.Logger.Info(
			"dogscan context cancelled",
		)

	case err := <-modeProcResult:
		if err != nil {
			lgr.Logger.Error(
				"dogscan mode processor exited",
				slog.String("mode", modeType),
				lgr.Err(err),
			)
		}
		canxFn()
		return
	}

	// The mode processor still owns the classifiers; give it up to
	// `waitOnShutdown` to drain before the deferred closes run.
	lgr.Logger.Info(
		"dogscan is waiting for the mode processor to exit",
	)

	timer := time.NewTimer(waitOnShutdown)
	defer timer.Stop()

	select {
	case <-timer.C:
		lgr.Logger.Info(
			"dogscan shutdown waiting period expired. Exiting now",
			slog.Duration("period", waitOnShutdown),
		)

	case err := <-modeProcResult:
		if err != nil {
			lgr.Logger.Error(
				"dogscan mode processor exited",
				lgr.Err(err),
			)
		}
	}
}
