package model

import (
	"fmt"

	"golang.org/x/xerrors"
)

var (
	// ErrImageDecode is returned when the source bytes are not a decodable image.
	// It is a client-input fault.
	ErrImageDecode = xerrors.New("image decode failed")

	// ErrMalformedLabelData is returned when label metadata is neither a
	// mapping nor a sequence. Fatal at startup.
	ErrMalformedLabelData = xerrors.New("malformed label data")

	// ErrClassifierFailure is returned when a classifier errors out or returns
	// output of an incompatible shape. Never retried by the pipeline.
	ErrClassifierFailure = xerrors.New("classifier failure")
)

// ClassifierError carries the failing classifier name. It matches
// ErrClassifierFailure with errors.Is.
type ClassifierError struct {
	Classifier string
	Reason     string
	Err        error
}

func NewClassifierError(classifier string, err error, reasonf string, args ...interface{}) *ClassifierError {
	return &ClassifierError{
		Classifier: classifier,
		Reason:     fmt.Sprintf(reasonf, args...),
		Err:        err,
	}
}

func (e *ClassifierError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s: %s", ErrClassifierFailure, e.Classifier, e.Reason)
	}
	return fmt.Sprintf("%s: %s: %s: %v", ErrClassifierFailure, e.Classifier, e.Reason, e.Err)
}

func (e *ClassifierError) Is(target error) bool {
	return target == ErrClassifierFailure
}

func (e *ClassifierError) Unwrap() error {
	return e.Err
}
