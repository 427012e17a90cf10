package generation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"z-book-agent/internal/config"
	"z-book-agent/internal/domain/entity"
	"z-book-agent/internal/infrastructure/llm"
	apperrors "z-book-agent/pkg/errors"
)

func newTestFacade(t *testing.T, prefs map[string][]string, providers ...llm.Provider) (*Facade, *[]time.Duration) {
	t.Helper()
	reg, err := NewRegistry(providers...)
	require.NoError(t, err)
	f := NewFacade(reg, NewRouter(prefs), config.GenerationConfig{})
	sleeps := &[]time.Duration{}
	f.sleep = func(_ context.Context, d time.Duration) error {
		*sleeps = append(*sleeps, d)
		return nil
	}
	return f, sleeps
}

func writingRequest() GenerateRequest {
	return GenerateRequest{Prompt: entity.TextPrompt("write"), Category: entity.TaskWriting}
}

func TestGenerateWithoutVendorsFailsImmediately(t *testing.T) {
	gemini := unconfigured(entity.VendorGemini)
	f, _ := newTestFacade(t, nil, gemini)

	_, err := f.Generate(context.Background(), writingRequest())
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrNoVendorConfigured)
	assert.Zero(t, gemini.Calls())
}

func TestGenerateHonorsDeclaredOrderWhenTopPreferenceMissing(t *testing.T) {
	gemini := newFake(entity.VendorGemini, okResult("from gemini"))
	deepseek := newFake(entity.VendorDeepSeek, okResult("from deepseek"))
	mistral := unconfigured(entity.VendorMistral)
	f, _ := newTestFacade(t, map[string][]string{"writing": {"mistral", "deepseek", "gemini"}}, gemini, deepseek, mistral)

	res, err := f.Generate(context.Background(), writingRequest())
	require.NoError(t, err)
	assert.Equal(t, entity.VendorDeepSeek, res.Vendor)
	assert.Equal(t, "from deepseek", res.Text)
	assert.Equal(t, "deepseek-model", res.Model)
	assert.Equal(t, 1, res.Attempts)
	assert.Zero(t, gemini.Calls())
	assert.Zero(t, mistral.Calls())
}

func TestGenerateAttemptCount(t *testing.T) {
	// 前 k 个供应商全部失败，第 k+1 个在第 j 次成功时，总尝试次数为 2k+j
	tests := []struct {
		name     string
		failed   int
		succeeds int
	}{
		{"first vendor first try", 0, 1},
		{"first vendor retry", 0, 2},
		{"second vendor first try", 1, 1},
		{"third vendor retry", 2, 2},
	}
	order := []entity.VendorName{entity.VendorMistral, entity.VendorDeepSeek, entity.VendorGemini}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			providers := make([]llm.Provider, 0, len(order))
			for i, name := range order {
				switch {
				case i < tt.failed:
					providers = append(providers, newFake(name, errResult("boom")))
				case i == tt.failed && tt.succeeds == 2:
					providers = append(providers, newFake(name, errResult("flaky"), okResult("text")))
				default:
					providers = append(providers, newFake(name, okResult("text")))
				}
			}
			f, sleeps := newTestFacade(t, map[string][]string{"writing": {"mistral", "deepseek", "gemini"}}, providers...)

			res, err := f.Generate(context.Background(), writingRequest())
			require.NoError(t, err)
			assert.Equal(t, 2*tt.failed+tt.succeeds, res.Attempts)
			assert.Equal(t, order[tt.failed], res.Vendor)
			assert.Empty(t, *sleeps, "non rate-limit failures retry immediately")
		})
	}
}

func TestGenerateBacksOffOnRateLimit(t *testing.T) {
	mistral := newFake(entity.VendorMistral, rateLimited(entity.VendorMistral))
	deepseek := newFake(entity.VendorDeepSeek, rateLimited(entity.VendorDeepSeek), okResult("ok"))
	f, sleeps := newTestFacade(t, map[string][]string{"writing": {"mistral", "deepseek"}}, mistral, deepseek)

	res, err := f.Generate(context.Background(), writingRequest())
	require.NoError(t, err)
	assert.Equal(t, entity.VendorDeepSeek, res.Vendor)
	assert.Equal(t, 4, res.Attempts)
	assert.Equal(t, 2, mistral.Calls())
	assert.Equal(t, []time.Duration{time.Second, time.Second}, *sleeps)
}

func TestGenerateTreatsEmptyTextAsFailure(t *testing.T) {
	mistral := newFake(entity.VendorMistral, okResult("   "))
	gemini := newFake(entity.VendorGemini, okResult("real"))
	f, _ := newTestFacade(t, map[string][]string{"writing": {"mistral", "gemini"}}, mistral, gemini)

	res, err := f.Generate(context.Background(), writingRequest())
	require.NoError(t, err)
	assert.Equal(t, entity.VendorGemini, res.Vendor)
	assert.Equal(t, 2, mistral.Calls())
}

func TestGenerateReportsEveryVendorFailure(t *testing.T) {
	mistral := newFake(entity.VendorMistral, errResult("invalid api key"))
	gemini := newFake(entity.VendorGemini, errResult("status code: 500"))
	f, _ := newTestFacade(t, map[string][]string{"writing": {"mistral", "gemini"}}, mistral, gemini)

	_, err := f.Generate(context.Background(), writingRequest())
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrVendorsExhausted)
	assert.True(t, IsExhausted(err))

	var ex *ExhaustedError
	require.True(t, errors.As(err, &ex))
	assert.Equal(t, []VendorFailure{
		{Vendor: entity.VendorMistral, Reason: "invalid api key"},
		{Vendor: entity.VendorGemini, Reason: "status code: 500"},
	}, ex.Failures)
	assert.Contains(t, err.Error(), "mistral: invalid api key")
	assert.Equal(t, 2, mistral.Calls())
	assert.Equal(t, 2, gemini.Calls())
}

func TestGeneratePreferredVendorFirst(t *testing.T) {
	mistral := newFake(entity.VendorMistral, okResult("m"))
	openai := newFake(entity.VendorOpenAI, okResult("o"))
	f, _ := newTestFacade(t, nil, mistral, openai)

	req := writingRequest()
	req.PreferredVendor = entity.VendorOpenAI
	res, err := f.Generate(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, entity.VendorOpenAI, res.Vendor)
	assert.Zero(t, mistral.Calls())
}

func TestGenerateStopsOnCanceledContext(t *testing.T) {
	mistral := newFake(entity.VendorMistral, okResult("m"))
	f, _ := newTestFacade(t, nil, mistral)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := f.Generate(ctx, writingRequest())
	assert.ErrorIs(t, err, apperrors.ErrCanceled)
	assert.Zero(t, mistral.Calls())
}

func TestGenerateImageRequiresCapability(t *testing.T) {
	f, _ := newTestFacade(t, nil, newFake(entity.VendorMistral, okResult("m")))

	_, err := f.GenerateImage(context.Background(), "cover", "")
	assert.ErrorIs(t, err, apperrors.ErrUnsupported)

	img := &fakeImageProvider{fakeProvider: newFake(entity.VendorOpenAI), image: "aW1n"}
	f, _ = newTestFacade(t, nil, newFake(entity.VendorMistral, okResult("m")), img)
	res, err := f.GenerateImage(context.Background(), "cover", "")
	require.NoError(t, err)
	assert.Equal(t, entity.VendorOpenAI, res.Vendor)
	assert.Equal(t, "aW1n", res.Text)
}

func TestGenerateImageExhausted(t *testing.T) {
	img := &fakeImageProvider{fakeProvider: newFake(entity.VendorOpenAI), image: " "}
	f, _ := newTestFacade(t, nil, img)

	_, err := f.GenerateImage(context.Background(), "cover", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrImageFailed)
	assert.ErrorIs(t, err, apperrors.ErrVendorsExhausted)
	assert.Equal(t, apperrors.CodeImageFailed, apperrors.AsAppError(err).Code)
}

func TestEmbedWithoutCapability(t *testing.T) {
	f, _ := newTestFacade(t, nil, newFake(entity.VendorMistral))
	_, _, err := f.Embed(context.Background(), []string{"a"})
	assert.ErrorIs(t, err, apperrors.ErrUnsupported)
}

func TestProbeReportsEveryVendor(t *testing.T) {
	f, _ := newTestFacade(t, nil, newFake(entity.VendorMistral), unconfigured(entity.VendorGemini))
	vendors := f.Probe(context.Background())
	require.Len(t, vendors, 2)
	assert.Equal(t, entity.VendorMistral, vendors[0].Name)
	assert.False(t, vendors[1].Configured)
}
