package callback

import (
	"context"
	"time"

	einocb "github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components/embedding"
	"github.com/cloudwego/eino/components/model"
	cbtemplate "github.com/cloudwego/eino/utils/callbacks"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"z-book-agent/internal/domain/service"
	"z-book-agent/pkg/metrics"
)

var tracer = otel.Tracer("z-book-agent/eino")

// callState 一次组件调用在 ctx 中携带的状态
type callState struct {
	begin time.Time
	model string
}

type callStateKey struct{}

// start 记录开始时间并开启 span
func start(ctx context.Context, spanName, modelName string, info *einocb.RunInfo) context.Context {
	ctx = context.WithValue(ctx, callStateKey{}, &callState{begin: time.Now(), model: modelName})

	attrs := []attribute.KeyValue{
		attribute.String("llm.stage", service.StageFromContext(ctx)),
		attribute.String("llm.vendor", service.VendorFromContext(ctx)),
		attribute.String("llm.model", modelName),
	}
	if info != nil {
		attrs = append(attrs, attribute.String("eino.node", info.Name), attribute.String("eino.component", string(info.Component)))
	}
	ctx, _ = tracer.Start(ctx, spanName, trace.WithAttributes(attrs...))
	return ctx
}

// finish 记录调用结果，err 为 nil 表示成功
func finish(ctx context.Context, modelName string, promptTokens, completionTokens int, err error) {
	st, _ := ctx.Value(callStateKey{}).(*callState)
	if modelName == "" && st != nil {
		modelName = st.model
	}
	vendor := service.VendorFromContext(ctx)

	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.LLMCallTotal.WithLabelValues(vendor, modelName, status).Inc()
	if st != nil {
		metrics.LLMCallDuration.WithLabelValues(vendor, modelName).Observe(time.Since(st.begin).Seconds())
	}
	if promptTokens > 0 {
		metrics.LLMTokensUsed.WithLabelValues(vendor, modelName, "prompt").Add(float64(promptTokens))
	}
	if completionTokens > 0 {
		metrics.LLMTokensUsed.WithLabelValues(vendor, modelName, "completion").Add(float64(completionTokens))
	}

	span := trace.SpanFromContext(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetAttributes(
			attribute.Int("llm.prompt_tokens", promptTokens),
			attribute.Int("llm.completion_tokens", completionTokens),
		)
	}
	span.End()
}

func newChatModelHandler() *cbtemplate.ModelCallbackHandler {
	return &cbtemplate.ModelCallbackHandler{
		OnStart: func(ctx context.Context, info *einocb.RunInfo, in *model.CallbackInput) context.Context {
			var name string
			if in != nil && in.Config != nil {
				name = in.Config.Model
			}
			return start(ctx, "llm.chat", name, info)
		},
		OnEnd: func(ctx context.Context, _ *einocb.RunInfo, out *model.CallbackOutput) context.Context {
			var name string
			var prompt, completion int
			if out != nil {
				if out.Config != nil {
					name = out.Config.Model
				}
				if out.TokenUsage != nil {
					prompt, completion = out.TokenUsage.PromptTokens, out.TokenUsage.CompletionTokens
				}
			}
			finish(ctx, name, prompt, completion, nil)
			return ctx
		},
		OnError: func(ctx context.Context, _ *einocb.RunInfo, err error) context.Context {
			finish(ctx, "", 0, 0, err)
			return ctx
		},
	}
}

func newEmbeddingHandler() *cbtemplate.EmbeddingCallbackHandler {
	return &cbtemplate.EmbeddingCallbackHandler{
		OnStart: func(ctx context.Context, info *einocb.RunInfo, in *embedding.CallbackInput) context.Context {
			var name string
			if in != nil && in.Config != nil {
				name = in.Config.Model
			}
			ctx = start(ctx, "llm.embed", name, info)
			if in != nil {
				trace.SpanFromContext(ctx).SetAttributes(attribute.Int("llm.embed_inputs", len(in.Texts)))
			}
			return ctx
		},
		OnEnd: func(ctx context.Context, _ *einocb.RunInfo, out *embedding.CallbackOutput) context.Context {
			var name string
			var prompt int
			if out != nil {
				if out.Config != nil {
					name = out.Config.Model
				}
				if out.TokenUsage != nil {
					prompt = out.TokenUsage.PromptTokens
				}
			}
			finish(ctx, name, prompt, 0, nil)
			return ctx
		},
		OnError: func(ctx context.Context, _ *einocb.RunInfo, err error) context.Context {
			finish(ctx, "", 0, 0, err)
			return ctx
		},
	}
}
