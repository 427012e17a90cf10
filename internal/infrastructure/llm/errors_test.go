package llm

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"z-book-agent/internal/domain/entity"
)

func TestIsRateLimited(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"status 429", &VendorError{Vendor: entity.VendorOpenAI, StatusCode: 429}, true},
		{"status 503", &VendorError{Vendor: entity.VendorOpenAI, StatusCode: 503}, true},
		{"message", errors.New("Rate limit reached for requests"), true},
		{"overloaded", fmt.Errorf("wrapped: %w", errors.New("model is overloaded")), true},
		{"auth", &VendorError{Vendor: entity.VendorOpenAI, StatusCode: 401, Body: "invalid api key"}, false},
		{"timeout", errors.New("context deadline exceeded"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRateLimited(tt.err))
		})
	}
}

func TestWrapErrorParsesStatus(t *testing.T) {
	err := wrapError(entity.VendorMistral, errors.New("error, status code: 502, status: 502 Bad Gateway"))

	var ve *VendorError
	assert.ErrorAs(t, err, &ve)
	assert.Equal(t, 502, ve.StatusCode)
	assert.Contains(t, err.Error(), "mistral: status 502")

	again := wrapError(entity.VendorGemini, err)
	assert.Same(t, err, again)
}

func TestIsResponseFormatUnsupported(t *testing.T) {
	assert.True(t, IsResponseFormatUnsupported(errors.New("response_format is not supported by this model")))
	assert.True(t, IsResponseFormatUnsupported(errors.New("json_object not supported")))
	assert.False(t, IsResponseFormatUnsupported(errors.New("status code: 500")))
	assert.False(t, IsResponseFormatUnsupported(nil))
}
