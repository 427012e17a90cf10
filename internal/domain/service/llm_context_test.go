package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"z-book-agent/internal/domain/service"
)

func TestStageVendorRoundTrip(t *testing.T) {
	ctx := service.WithStageVendor(context.Background(), " writer ", "mistral")

	assert.Equal(t, "writer", service.StageFromContext(ctx))
	assert.Equal(t, "mistral", service.VendorFromContext(ctx))
}

func TestMissingValuesAreUnknown(t *testing.T) {
	ctx := service.WithStage(context.Background(), "   ")

	assert.Equal(t, "unknown", service.StageFromContext(ctx))
	assert.Equal(t, "unknown", service.VendorFromContext(ctx))
}
