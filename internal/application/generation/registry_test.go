package generation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"z-book-agent/internal/domain/entity"
)

func TestRegistryRejectsDuplicates(t *testing.T) {
	r, err := NewRegistry(newFake(entity.VendorGemini))
	require.NoError(t, err)

	assert.Error(t, r.Register(newFake(entity.VendorGemini)))
	assert.Error(t, r.Register(nil))
	assert.Len(t, r.Providers(), 1)
}

func TestRegistryAvailableVendorsKeepsRegistrationOrder(t *testing.T) {
	r, err := NewRegistry(
		newFake(entity.VendorMistral),
		unconfigured(entity.VendorGemini),
		newFake(entity.VendorDoubao),
		newFake(entity.VendorOpenAI),
	)
	require.NoError(t, err)

	assert.Equal(t, []entity.VendorName{entity.VendorMistral, entity.VendorDoubao, entity.VendorOpenAI}, r.AvailableVendors())
	assert.Len(t, r.Vendors(), 4)

	p, ok := r.Get(entity.VendorGemini)
	require.True(t, ok)
	assert.False(t, p.IsConfigured())

	_, ok = r.Get(entity.VendorDeepSeek)
	assert.False(t, ok)
}
