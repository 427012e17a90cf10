package llm_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"z-book-agent/internal/domain/entity"
	"z-book-agent/internal/infrastructure/llm"
)

// scriptedChatModel 按顺序返回预设结果，并记录收到的消息
type scriptedChatModel struct {
	mu      sync.Mutex
	replies []reply
	calls   [][]*schema.Message
}

type reply struct {
	text string
	err  error
}

func (m *scriptedChatModel) Generate(_ context.Context, in []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, in)
	if len(m.replies) == 0 {
		return nil, errors.New("no scripted reply")
	}
	r := m.replies[0]
	m.replies = m.replies[1:]
	if r.err != nil {
		return nil, r.err
	}
	return schema.AssistantMessage(r.text, nil), nil
}

func (m *scriptedChatModel) Stream(context.Context, []*schema.Message, ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("stream not supported")
}

func newScripted(replies ...reply) (*scriptedChatModel, llm.ChatModelBuilder) {
	m := &scriptedChatModel{replies: replies}
	return m, func(context.Context) (model.BaseChatModel, error) { return m, nil }
}

func TestEinoProviderDropsBinaryParts(t *testing.T) {
	chat, build := newScripted(reply{text: "done"})
	p := llm.NewEinoProvider(entity.VendorMistral, "key", "mistral-large-latest", true, build)

	prompt := entity.PartsPrompt(
		entity.TextPart("describe"),
		entity.InlinePart("image/png", []byte{0x89, 0x50}, "a.png"),
		entity.TextPart("the scene"),
	)
	out, err := p.GenerateText(context.Background(), prompt, entity.GenerateOptions{SystemInstruction: "be brief"})
	require.NoError(t, err)
	assert.Equal(t, "done", out)

	require.Len(t, chat.calls, 1)
	msgs := chat.calls[0]
	require.Len(t, msgs, 2)
	assert.Equal(t, schema.System, msgs[0].Role)
	assert.Equal(t, "be brief", msgs[0].Content)
	assert.Equal(t, "describe\nthe scene", msgs[1].Content)
}

func TestEinoProviderFallsBackToPromptJSONWhenResponseFormatRejected(t *testing.T) {
	chat, build := newScripted(
		reply{err: errors.New("error, status code: 400, message: unknown parameter response_format")},
		reply{text: `{"ok":true}`},
	)
	p := llm.NewEinoProvider(entity.VendorDeepSeek, "key", "deepseek-chat", true, build)

	out, err := p.GenerateText(context.Background(), entity.TextPrompt("plan"), entity.GenerateOptions{ResponseFormat: entity.ResponseJSON})
	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, out)

	require.Len(t, chat.calls, 2)
	assert.Equal(t, schema.User, chat.calls[0][0].Role, "native JSON mode sends no extra system prompt")
	assert.Equal(t, schema.System, chat.calls[1][0].Role)
	assert.Contains(t, chat.calls[1][0].Content, "valid JSON")
}

func TestEinoProviderWithoutNativeJSONUsesPromptConstraint(t *testing.T) {
	chat, build := newScripted(reply{text: "{}"})
	p := llm.NewEinoProvider(entity.VendorDoubao, "key", "doubao", false, build)

	_, err := p.GenerateText(context.Background(), entity.TextPrompt("x"), entity.GenerateOptions{
		SystemInstruction: "You are a planner.",
		ResponseFormat:    entity.ResponseJSON,
	})
	require.NoError(t, err)
	require.Len(t, chat.calls, 1)
	assert.Contains(t, chat.calls[0][0].Content, "You are a planner.")
	assert.Contains(t, chat.calls[0][0].Content, "valid JSON")
}

func TestEinoProviderWrapsErrors(t *testing.T) {
	_, build := newScripted(reply{err: errors.New("error, status code: 429, status: 429 Too Many Requests")})
	p := llm.NewEinoProvider(entity.VendorMistral, "key", "m", true, build)

	_, err := p.GenerateText(context.Background(), entity.TextPrompt("x"), entity.GenerateOptions{})
	require.Error(t, err)

	var ve *llm.VendorError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, entity.VendorMistral, ve.Vendor)
	assert.Equal(t, 429, ve.StatusCode)
	assert.True(t, llm.IsRateLimited(err))
}

func TestEinoProviderUnconfigured(t *testing.T) {
	_, build := newScripted()
	p := llm.NewEinoProvider(entity.VendorGemini, "", "gemini-2.5-flash", true, build)

	assert.False(t, p.IsConfigured())
	for _, m := range p.Models() {
		assert.False(t, m.Available)
	}
	_, err := p.GenerateText(context.Background(), entity.TextPrompt("x"), entity.GenerateOptions{})
	assert.Error(t, err)
	assert.False(t, p.CheckAvailability(context.Background()))
	require.NotNil(t, p.Vendor().Healthy)
	assert.False(t, *p.Vendor().Healthy)
}

func TestCheckAvailabilitySwallowsErrors(t *testing.T) {
	_, build := newScripted(reply{err: errors.New("connection refused")}, reply{text: "ok"})
	p := llm.NewEinoProvider(entity.VendorDeepSeek, "key", "deepseek-chat", true, build)

	assert.False(t, p.CheckAvailability(context.Background()))
	assert.True(t, p.CheckAvailability(context.Background()))
	assert.True(t, *p.Vendor().Healthy)
	assert.True(t, p.IsConfigured(), "probe results never change configuration state")
}

func TestModelsIncludeConfiguredModelFirst(t *testing.T) {
	_, build := newScripted()
	p := llm.NewEinoProvider(entity.VendorMistral, "key", "open-mistral-nemo", true, build)

	models := p.Models()
	require.NotEmpty(t, models)
	assert.Equal(t, "open-mistral-nemo", models[0].ModelID)
	for _, m := range models {
		assert.True(t, m.Available)
		assert.Equal(t, entity.VendorMistral, m.Vendor)
	}
}
