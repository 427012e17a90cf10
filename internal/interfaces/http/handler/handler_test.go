package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"z-book-agent/internal/application/agent"
	"z-book-agent/internal/application/generation"
	"z-book-agent/internal/domain/entity"
	apperrors "z-book-agent/pkg/errors"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeGeneration struct {
	result    *entity.GenerationResult
	err       error
	lastReq   generation.GenerateRequest
	probed    bool
	vendors   []entity.Vendor
	available []entity.VendorName
}

func (f *fakeGeneration) Generate(_ context.Context, req generation.GenerateRequest) (*entity.GenerationResult, error) {
	f.lastReq = req
	return f.result, f.err
}

func (f *fakeGeneration) GenerateImage(_ context.Context, _ string, _ entity.VendorName) (*entity.GenerationResult, error) {
	return f.result, f.err
}

func (f *fakeGeneration) Embed(_ context.Context, texts []string) ([][]float64, entity.VendorName, error) {
	if f.err != nil {
		return nil, "", f.err
	}
	out := make([][]float64, len(texts))
	for i := range texts {
		out[i] = []float64{float64(i)}
	}
	return out, entity.VendorOpenAI, nil
}

func (f *fakeGeneration) Probe(context.Context) []entity.Vendor {
	f.probed = true
	return f.vendors
}

func (f *fakeGeneration) Vendors() []entity.Vendor { return f.vendors }

func (f *fakeGeneration) AvailableVendors() []entity.VendorName { return f.available }

type fakeRunner struct {
	logs   []string
	drafts []entity.ContentBlockDraft
	err    error
}

func (f *fakeRunner) Run(_ context.Context, in agent.RunInput, onLog agent.LogFunc) ([]entity.ContentBlockDraft, error) {
	for _, msg := range f.logs {
		onLog(entity.NewAgentLogEntry(in.RunID, entity.AgentOrchestrator, entity.LogWorking, msg))
	}
	return f.drafts, f.err
}

type fakePublisher struct {
	mu     sync.Mutex
	logs   []entity.AgentLogEntry
	drafts []entity.ContentBlockDraft
}

func (p *fakePublisher) Sink(_ context.Context, _ string) func(entity.AgentLogEntry) {
	return func(e entity.AgentLogEntry) {
		p.mu.Lock()
		defer p.mu.Unlock()
		p.logs = append(p.logs, e)
	}
}

func (p *fakePublisher) PublishDrafts(_ context.Context, _ string, drafts []entity.ContentBlockDraft) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.drafts = drafts
	return nil
}

func (p *fakePublisher) Replay(_ context.Context, _ string) ([]entity.AgentLogEntry, []entity.ContentBlockDraft, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.logs, p.drafts, nil
}

type fakeChecker struct{ err error }

func (f fakeChecker) HealthCheck(context.Context) error { return f.err }

func doJSON(t *testing.T, method, path string, body any, register func(*gin.Engine)) *httptest.ResponseRecorder {
	t.Helper()
	engine := gin.New()
	register(engine)

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestGenerate(t *testing.T) {
	svc := &fakeGeneration{result: &entity.GenerationResult{Text: "hello", Vendor: entity.VendorDeepSeek, Attempts: 1}}
	h := NewGenerationHandler(svc)
	register := func(e *gin.Engine) { e.POST("/v1/generate", h.Generate) }

	w := doJSON(t, http.MethodPost, "/v1/generate", gin.H{"prompt": "hi", "task": "editing", "vendor": "DeepSeek"}, register)
	require.Equal(t, http.StatusOK, w.Code)
	data := decodeBody(t, w)["data"].(map[string]any)
	assert.Equal(t, "hello", data["text"])
	assert.Equal(t, "deepseek", data["vendor"])
	assert.Equal(t, entity.TaskEditing, svc.lastReq.Category)
	assert.Equal(t, entity.VendorDeepSeek, svc.lastReq.PreferredVendor)
	assert.Equal(t, "hi", svc.lastReq.Prompt.Text)
}

func TestGenerateRejectsInvalidInput(t *testing.T) {
	h := NewGenerationHandler(&fakeGeneration{})
	register := func(e *gin.Engine) { e.POST("/v1/generate", h.Generate) }

	tests := []struct {
		name string
		body gin.H
	}{
		{"missing prompt", gin.H{"task": "writing"}},
		{"unknown task", gin.H{"prompt": "x", "task": "painting"}},
		{"unknown vendor", gin.H{"prompt": "x", "vendor": "acme"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, http.MethodPost, "/v1/generate", tt.body, register)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestGenerateMapsFacadeErrors(t *testing.T) {
	exhausted := &generation.ExhaustedError{
		Category: entity.TaskWriting,
		Failures: []generation.VendorFailure{{Vendor: entity.VendorMistral, Reason: "boom"}},
	}

	tests := []struct {
		name   string
		err    error
		status int
		code   apperrors.ErrorCode
	}{
		{"no vendor", apperrors.ErrNoVendorConfigured, http.StatusServiceUnavailable, apperrors.CodeNoVendorConfigured},
		{"exhausted", exhausted, http.StatusBadGateway, apperrors.CodeVendorsExhausted},
		{"unknown", errors.New("disk on fire"), http.StatusInternalServerError, apperrors.CodeUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewGenerationHandler(&fakeGeneration{err: tt.err})
			w := doJSON(t, http.MethodPost, "/v1/generate", gin.H{"prompt": "x"},
				func(e *gin.Engine) { e.POST("/v1/generate", h.Generate) })

			assert.Equal(t, tt.status, w.Code)
			detail := decodeBody(t, w)["error"].(map[string]any)
			assert.Equal(t, string(tt.code), detail["error_code"])
		})
	}

	h := NewGenerationHandler(&fakeGeneration{err: exhausted})
	w := doJSON(t, http.MethodPost, "/v1/generate", gin.H{"prompt": "x"},
		func(e *gin.Engine) { e.POST("/v1/generate", h.Generate) })
	detail := decodeBody(t, w)["error"].(map[string]any)
	failures := detail["failures"].([]any)
	require.Len(t, failures, 1)
	assert.Equal(t, "mistral", failures[0].(map[string]any)["vendor"])
	assert.Contains(t, detail["details"], "mistral: boom")
}

func TestEmbedAndImage(t *testing.T) {
	svc := &fakeGeneration{result: &entity.GenerationResult{Text: "aGk=", Vendor: entity.VendorOpenAI, Model: "gpt-image-1", Attempts: 1}}
	h := NewGenerationHandler(svc)
	register := func(e *gin.Engine) {
		e.POST("/v1/images", h.GenerateImage)
		e.POST("/v1/embeddings", h.Embed)
	}

	w := doJSON(t, http.MethodPost, "/v1/images", gin.H{"prompt": "a lighthouse"}, register)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "aGk=", decodeBody(t, w)["data"].(map[string]any)["image"])

	w = doJSON(t, http.MethodPost, "/v1/embeddings", gin.H{"texts": []string{"a", "b"}}, register)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeBody(t, w)["data"].(map[string]any)["embeddings"], 2)

	w = doJSON(t, http.MethodPost, "/v1/embeddings", gin.H{"texts": []string{}}, register)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListVendorsProbesOnlyWhenAsked(t *testing.T) {
	svc := &fakeGeneration{
		vendors:   []entity.Vendor{{Name: entity.VendorGemini, Configured: true}},
		available: []entity.VendorName{entity.VendorGemini},
	}
	h := NewGenerationHandler(svc)
	register := func(e *gin.Engine) { e.GET("/v1/vendors", h.ListVendors) }

	w := doJSON(t, http.MethodGet, "/v1/vendors", nil, register)
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, svc.probed)

	w = doJSON(t, http.MethodGet, "/v1/vendors?probe=true", nil, register)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, svc.probed)
	assert.Equal(t, []any{"gemini"}, decodeBody(t, w)["data"].(map[string]any)["available"])
}

func TestWorkflowStreamsLogsThenDrafts(t *testing.T) {
	runner := &fakeRunner{
		logs:   []string{"planning", "writing"},
		drafts: []entity.ContentBlockDraft{{Content: "Once upon a time", Kind: entity.BlockChapter, ChapterNumber: 1}},
	}
	pub := &fakePublisher{}
	h := NewWorkflowHandler(runner, pub)

	w := doJSON(t, http.MethodPost, "/v1/workflows", gin.H{"request": "write a book", "run_id": "run-1"},
		func(e *gin.Engine) { e.POST("/v1/workflows", h.Run) })

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.True(t, strings.HasPrefix(w.Header().Get("Content-Type"), "text/event-stream"))
	assert.Equal(t, "run-1", w.Header().Get("X-Run-ID"))
	assert.Equal(t, 2, strings.Count(body, "event:log"))
	assert.Contains(t, body, "event:drafts")
	assert.NotContains(t, body, "event:error")
	assert.Less(t, strings.LastIndex(body, "event:log"), strings.Index(body, "event:drafts"))

	assert.Len(t, pub.logs, 2)
	assert.Len(t, pub.drafts, 1)
}

func TestWorkflowStreamReportsAbortAfterPartialDrafts(t *testing.T) {
	runner := &fakeRunner{
		logs:   []string{"writing"},
		drafts: []entity.ContentBlockDraft{{Content: "chapter one", Kind: entity.BlockChapter, ChapterNumber: 1}},
		err:    apperrors.ErrWorkflowAborted.WithError(errors.New("vendors down")),
	}
	h := NewWorkflowHandler(runner, nil)

	w := doJSON(t, http.MethodPost, "/v1/workflows", gin.H{"request": "write"},
		func(e *gin.Engine) { e.POST("/v1/workflows", h.Run) })

	body := w.Body.String()
	assert.Contains(t, body, "event:drafts")
	assert.Contains(t, body, "event:error")
	assert.Contains(t, body, string(apperrors.CodeWorkflowAborted))
	assert.NotEmpty(t, w.Header().Get("X-Run-ID"))
}

func TestWorkflowBlocking(t *testing.T) {
	t.Run("planning failure", func(t *testing.T) {
		h := NewWorkflowHandler(&fakeRunner{err: apperrors.ErrPlanningFailed}, nil)
		w := doJSON(t, http.MethodPost, "/v1/workflows?stream=false", gin.H{"request": "write"},
			func(e *gin.Engine) { e.POST("/v1/workflows", h.Run) })

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		detail := decodeBody(t, w)["error"].(map[string]any)
		assert.Equal(t, string(apperrors.CodePlanningFailed), detail["error_code"])
	})

	t.Run("success", func(t *testing.T) {
		runner := &fakeRunner{
			logs:   []string{"a", "b", "c"},
			drafts: []entity.ContentBlockDraft{{Content: "x", Kind: entity.BlockSection}},
		}
		h := NewWorkflowHandler(runner, nil)
		w := doJSON(t, http.MethodPost, "/v1/workflows?stream=false", gin.H{"request": "write"},
			func(e *gin.Engine) { e.POST("/v1/workflows", h.Run) })

		require.Equal(t, http.StatusOK, w.Code)
		data := decodeBody(t, w)["data"].(map[string]any)
		assert.Len(t, data["logs"], 3)
		assert.Len(t, data["drafts"], 1)
		assert.NotEmpty(t, data["run_id"])
	})

	t.Run("missing request", func(t *testing.T) {
		h := NewWorkflowHandler(&fakeRunner{}, nil)
		w := doJSON(t, http.MethodPost, "/v1/workflows", gin.H{},
			func(e *gin.Engine) { e.POST("/v1/workflows", h.Run) })
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestWorkflowReplay(t *testing.T) {
	register := func(h *WorkflowHandler) func(*gin.Engine) {
		return func(e *gin.Engine) { e.GET("/v1/workflows/:id/replay", h.Replay) }
	}

	w := doJSON(t, http.MethodGet, "/v1/workflows/run-1/replay", nil, register(NewWorkflowHandler(&fakeRunner{}, nil)))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	pub := &fakePublisher{}
	w = doJSON(t, http.MethodGet, "/v1/workflows/run-1/replay", nil, register(NewWorkflowHandler(&fakeRunner{}, pub)))
	assert.Equal(t, http.StatusNotFound, w.Code)

	pub.Sink(context.Background(), "run-1")(entity.NewAgentLogEntry("run-1", entity.AgentPlanner, entity.LogSuccess, "done"))
	w = doJSON(t, http.MethodGet, "/v1/workflows/run-1/replay", nil, register(NewWorkflowHandler(&fakeRunner{}, pub)))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeBody(t, w)["data"].(map[string]any)["logs"], 1)
}

type staticSynth struct{}

func (staticSynth) Synthesize(_ context.Context, items []entity.InputItem) *entity.SynthesisOutline {
	out := entity.EmptyOutline()
	out.SourceCount = len(items)
	return out
}

func TestSynthesize(t *testing.T) {
	h := NewSynthesisHandler(staticSynth{})
	w := doJSON(t, http.MethodPost, "/v1/synthesis",
		gin.H{"items": []gin.H{{"type": "note", "name": "n", "content": "hello"}}},
		func(e *gin.Engine) { e.POST("/v1/synthesis", h.Synthesize) })

	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decodeBody(t, w)["data"].(map[string]any)["source_count"])
}

func TestReady(t *testing.T) {
	tests := []struct {
		name    string
		vendors []entity.VendorName
		redis   HealthChecker
		status  int
	}{
		{"no vendors", nil, nil, http.StatusServiceUnavailable},
		{"vendors only", []entity.VendorName{entity.VendorOpenAI}, nil, http.StatusOK},
		{"redis down", []entity.VendorName{entity.VendorOpenAI}, fakeChecker{err: errors.New("refused")}, http.StatusServiceUnavailable},
		{"redis up", []entity.VendorName{entity.VendorOpenAI}, fakeChecker{}, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHealthHandler(&fakeGeneration{available: tt.vendors}, tt.redis, "v0.1.0")
			w := doJSON(t, http.MethodGet, "/ready", nil, func(e *gin.Engine) { e.GET("/ready", h.Ready) })
			assert.Equal(t, tt.status, w.Code)
		})
	}
}
