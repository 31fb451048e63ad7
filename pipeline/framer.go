package pipeline

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/khaledhikmat/dogscan-go/model"
	"github.com/khaledhikmat/dogscan-go/service/lgr"
)

var scanExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".bmp":  true,
	".webp": true,
}

// FolderFramer walks folder in lexical order, decodes every supported image
// and routes it to each stream. The streams are closed once the folder is
// exhausted or the context is cancelled.
func FolderFramer(canxCtx context.Context, folder string, errorStream chan interface{}, statsStream chan interface{}, streamChannels []chan ScanJob) {
	go func() {
		defer func() {
			for _, streamChan := range streamChannels {
				close(streamChan)
			}
		}()

		var startTime = time.Now().Unix()
		var images = 0
		var skippedImages = 0
		var errors = 0

		defer func() {
			statsStream <- model.FramerStats{
				Name:          "folderFramer",
				Folder:        folder,
				Images:        images,
				SkippedImages: skippedImages,
				Errors:        errors,
				Uptime:        time.Now().Unix() - startTime,
			}
		}()

		lgr.Logger.Info("folder framer starting...", slog.String("folder", folder))

		err := filepath.WalkDir(folder, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}

			if d.IsDir() {
				return nil
			}

			if !scanExtensions[strings.ToLower(filepath.Ext(path))] {
				skippedImages++
				return nil
			}

			raw, err := os.ReadFile(path)
			if err != nil {
				errors++
				sendError(canxCtx, errorStream, model.GenError("folder_framer", err, map[string]interface{}{"path": path}, "error reading image"))
				return nil
			}

			img, err := DecodeImage(raw)
			if err != nil {
				errors++
				sendError(canxCtx, errorStream, model.GenError("folder_framer", err, map[string]interface{}{"path": path}, "error decoding image"))
				return nil
			}

			images++
			for _, streamChan := range streamChannels {
				// WARNING: stop routing as soon as the context is cancelled
				select {
				case <-canxCtx.Done():
					return canxCtx.Err()
				case streamChan <- ScanJob{Path: path, Image: img, Timestamp: time.Now()}:
				}
			}

			return nil
		})

		if err != nil && canxCtx.Err() == nil {
			errors++
			sendError(canxCtx, errorStream, model.GenError("folder_framer", err, map[string]interface{}{"folder": folder}, "error walking folder"))
			return
		}

		lgr.Logger.Info("folder framer done",
			slog.String("folder", folder),
			slog.Int("images", images),
			slog.Int("skipped", skippedImages),
		)
	}()
}

// sendError blocks until the error is consumed or the context is cancelled.
func sendError(canxCtx context.Context, errorStream chan interface{}, err interface{}) {
	select {
	case <-canxCtx.Done():
	case errorStream <- err:
	}
}
