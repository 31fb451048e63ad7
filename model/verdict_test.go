package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVerdict_HasReason(t *testing.T) {
	v := Verdict{Reasons: []string{ReasonLowConfidence, ReasonBlurry}}

	assert.True(t, v.HasReason(ReasonBlurry))
	assert.False(t, v.HasReason(ReasonHighEntropy))
	assert.False(t, Verdict{}.HasReason(ReasonBlurry))
}
