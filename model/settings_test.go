package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultInferenceSettings_VariantCount(t *testing.T) {
	s := DefaultInferenceSettings()
	assert.Equal(t, 10, s.VariantCount())

	s.Mirror = false
	assert.Equal(t, 5, s.VariantCount())
}
