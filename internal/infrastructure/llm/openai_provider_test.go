package llm_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"z-book-agent/internal/config"
	"z-book-agent/internal/domain/entity"
	"z-book-agent/internal/infrastructure/llm"
)

const chatCompletionBody = `{
  "id": "chatcmpl-1",
  "object": "chat.completion",
  "created": 1,
  "model": "gpt-4o",
  "choices": [{"index": 0, "finish_reason": "stop", "message": {"role": "assistant", "content": "hello"}}],
  "usage": {"prompt_tokens": 3, "completion_tokens": 1, "total_tokens": 4}
}`

func newOpenAIServer(t *testing.T, handler http.HandlerFunc) (*llm.OpenAIProvider, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	p := llm.NewOpenAIProvider(config.VendorConfig{
		APIKey:     "test-key",
		BaseURL:    srv.URL + "/v1",
		Model:      "gpt-4o",
		ImageModel: "dall-e-3",
	})
	return p, srv
}

func TestOpenAIProviderSendsMultimodalJSONRequest(t *testing.T) {
	var body map[string]any
	p, _ := newOpenAIServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		raw, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(raw, &body))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, chatCompletionBody)
	})

	prompt := entity.PartsPrompt(
		entity.TextPart("summarize"),
		entity.InlinePart("image/png", []byte("png"), "cover.png"),
		entity.InlinePart("application/pdf", []byte("pdf"), "draft.pdf"),
	)
	out, err := p.GenerateText(context.Background(), prompt, entity.GenerateOptions{
		SystemInstruction: "sys",
		ResponseFormat:    entity.ResponseJSON,
	})
	require.NoError(t, err)
	assert.Equal(t, "hello", out)

	rf, _ := body["response_format"].(map[string]any)
	assert.Equal(t, "json_object", rf["type"])

	msgs, _ := body["messages"].([]any)
	require.Len(t, msgs, 2)
	user, _ := msgs[1].(map[string]any)
	parts, _ := user["content"].([]any)
	require.Len(t, parts, 3)
	types := make([]string, 0, len(parts))
	for _, part := range parts {
		types = append(types, part.(map[string]any)["type"].(string))
	}
	assert.Equal(t, []string{"text", "image_url", "file"}, types)
}

func TestOpenAIProviderMapsAPIErrors(t *testing.T) {
	p, _ := newOpenAIServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = io.WriteString(w, `{"error":{"message":"Rate limit reached","type":"requests","code":"rate_limit_exceeded"}}`)
	})

	_, err := p.GenerateText(context.Background(), entity.TextPrompt("x"), entity.GenerateOptions{})
	require.Error(t, err)

	var ve *llm.VendorError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, entity.VendorOpenAI, ve.Vendor)
	assert.Equal(t, http.StatusTooManyRequests, ve.StatusCode)
	assert.True(t, llm.IsRateLimited(err))
}

func TestOpenAIProviderImagesAndEmbeddings(t *testing.T) {
	p, _ := newOpenAIServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/v1/images/generations":
			_, _ = io.WriteString(w, `{"created": 1, "data": [{"b64_json": "aW1n"}]}`)
		case "/v1/embeddings":
			_, _ = io.WriteString(w, `{"object":"list","model":"text-embedding-3-small",
				"data":[{"object":"embedding","index":1,"embedding":[0.3]},{"object":"embedding","index":0,"embedding":[0.1,0.2]}],
				"usage":{"prompt_tokens":2,"total_tokens":2}}`)
		default:
			http.NotFound(w, r)
		}
	})

	gen, ok := llm.Capability[llm.ImageGenerator](p)
	require.True(t, ok)
	img, err := gen.GenerateImage(context.Background(), "a lighthouse")
	require.NoError(t, err)
	assert.Equal(t, "aW1n", img)

	emb, ok := llm.Capability[llm.Embedder](p)
	require.True(t, ok)
	vecs, err := emb.Embed(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{0.1, 0.2}, {0.3}}, vecs)
}
