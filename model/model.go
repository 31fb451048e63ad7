package model

import (
	"fmt"
	"runtime/debug"
	"time"
)

type CustomError struct {
	Processor  string                 `json:"processor"`
	Inner      error                  `json:"innerError"`
	Message    string                 `json:"message"`
	StackTrace string                 `json:"stackTrace"`
	Misc       map[string]interface{} `json:"misc"`
}

func (e CustomError) Error() string {
	if e.Inner == nil {
		return fmt.Sprintf("%s: %s", e.Processor, e.Message)
	}
	return fmt.Sprintf("%s: %s: %v", e.Processor, e.Message, e.Inner)
}

func (e CustomError) Unwrap() error {
	return e.Inner
}

func GenError(proc string, err error, misc map[string]interface{}, messagef string, args ...interface{}) CustomError {
	return CustomError{
		Processor:  proc,
		Inner:      err,
		Message:    fmt.Sprintf(messagef, args...),
		StackTrace: string(debug.Stack()),
		Misc:       misc,
	}
}

type ScanType string

const (
	ScanTypeBreed   ScanType = "breed"
	ScanTypeDisease ScanType = "disease"
)

// ScanRecord is one persisted scan in the scan history.
type ScanRecord struct {
	ID         string    `json:"id"`
	ScanType   ScanType  `json:"scanType"`
	Source     string    `json:"source"`    // Upload name or scanned file path
	ImagePath  string    `json:"imagePath"` // Where the image was stored, if at all
	TopResult  string    `json:"topResult"`
	Confidence float64   `json:"confidence"`
	ResultType string    `json:"resultType,omitempty"`
	Reasons    []string  `json:"reasons,omitempty"`
	Elapsed    float64   `json:"elapsed"` // Seconds spent in the pipeline
	CreatedAt  time.Time `json:"createdAt"`
}

type ScannerStats struct {
	Name        string  `json:"name"`
	Worker      int     `json:"worker"`
	Folder      string  `json:"folder"`
	Images      int     `json:"images"`
	Errors      int     `json:"errors"`
	Uptime      int64   `json:"uptime"`
	AvgProcTime float64 `json:"avgProcTime"`
	Timestamp   int64   `json:"timestamp"`
}

type FramerStats struct {
	Name          string `json:"name"`
	Folder        string `json:"folder"`
	Images        int    `json:"images"`
	SkippedImages int    `json:"skippedImages"`
	Errors        int    `json:"errors"`
	Uptime        int64  `json:"uptime"`
	Timestamp     int64  `json:"timestamp"`
}

type ServerStats struct {
	Address         string  `json:"address"`
	TotalScans      int64   `json:"totalScans"`
	TotalFailures   int64   `json:"totalFailures"`
	Uptime          int64   `json:"uptime"`
	AvgScansPerMin  float64 `json:"avgScansPerMin"`
	AvgPipelineTime float64 `json:"avgPipelineTime"`
	Timestamp       int64   `json:"timestamp"`
}
