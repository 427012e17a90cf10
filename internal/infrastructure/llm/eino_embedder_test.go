package llm_test

import (
	"context"
	"errors"
	"testing"

	"github.com/cloudwego/eino/components/embedding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"z-book-agent/internal/config"
	"z-book-agent/internal/domain/entity"
	"z-book-agent/internal/infrastructure/llm"
)

type fakeEmbedder struct {
	calls int
	err   error
	short bool
}

func (f *fakeEmbedder) EmbedStrings(_ context.Context, texts []string, _ ...embedding.Option) ([][]float64, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float64, len(texts))
	for i, t := range texts {
		out[i] = []float64{float64(len(t))}
	}
	if f.short {
		out = out[:len(out)-1]
	}
	return out, nil
}

func newEmbeddingProvider(apiKey string, emb *fakeEmbedder) *llm.EinoEmbeddingProvider {
	_, build := newScripted()
	base := llm.NewEinoProvider(entity.VendorMistral, apiKey, "mistral-large-latest", true, build)
	return llm.NewEinoEmbeddingProvider(base, func(context.Context) (embedding.Embedder, error) { return emb, nil })
}

func TestEinoEmbeddingProviderEmbed(t *testing.T) {
	emb := &fakeEmbedder{}
	p := newEmbeddingProvider("key", emb)

	vecs, err := p.Embed(context.Background(), []string{"a", "abc"})
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{1}, {3}}, vecs)

	_, err = p.Embed(context.Background(), []string{"again"})
	require.NoError(t, err)
	assert.Equal(t, 2, emb.calls)

	assert.True(t, p.Vendor().Has(entity.CapabilityEmbeddings))
	_, ok := llm.Capability[llm.Embedder](p)
	assert.True(t, ok)
}

func TestEinoEmbeddingProviderErrors(t *testing.T) {
	_, err := newEmbeddingProvider("", &fakeEmbedder{}).Embed(context.Background(), []string{"x"})
	var ve *llm.VendorError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, entity.VendorMistral, ve.Vendor)

	_, err = newEmbeddingProvider("key", &fakeEmbedder{err: errors.New("upstream down")}).Embed(context.Background(), []string{"x"})
	require.ErrorAs(t, err, &ve)

	_, err = newEmbeddingProvider("key", &fakeEmbedder{short: true}).Embed(context.Background(), []string{"x", "y"})
	require.ErrorAs(t, err, &ve)
}

func TestWithEinoEmbeddingsRequiresModel(t *testing.T) {
	base := llm.NewOpenAICompatibleProvider(entity.VendorGemini, config.VendorConfig{APIKey: "k", Model: "gemini-2.5-flash"})

	_, ok := llm.Capability[llm.Embedder](llm.WithEinoEmbeddings(base, config.VendorConfig{APIKey: "k"}))
	assert.False(t, ok)

	_, ok = llm.Capability[llm.Embedder](llm.WithEinoEmbeddings(base, config.VendorConfig{APIKey: "k", EmbedModel: "text-embedding-004"}))
	assert.True(t, ok)
}
