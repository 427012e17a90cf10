package chain

import (
	"context"
	"fmt"
	"sync"

	"github.com/cloudwego/eino/compose"

	"z-book-agent/internal/application/generation"
	"z-book-agent/internal/domain/entity"
	llmctx "z-book-agent/internal/domain/service"
	wfnode "z-book-agent/internal/workflow/node"
	workflowport "z-book-agent/internal/workflow/port"
	workflowprompt "z-book-agent/internal/workflow/prompt"
)

// Result 单个阶段的解析结果与实际使用的供应商
type Result[O any] struct {
	Value  O
	Vendor entity.VendorName
	Raw    string
}

// stageSpec 描述一个模板化生成阶段
type stageSpec[I any, O any] struct {
	name     string
	prompt   workflowprompt.PromptID
	category entity.TaskCategory
	vars     func(in I) map[string]any
	options  func(in I) (entity.GenerateOptions, entity.VendorName)
	parse    func(raw string, in I) O
}

type stageState[I any] struct {
	In       I
	System   string
	User     string
	Text     string
	VendorID entity.VendorName
}

// StageChain 模板渲染、门面生成与输出解析组成的 Eino Chain
type StageChain[I any, O any] struct {
	gen     workflowport.Generator
	prompts *workflowprompt.Registry
	spec    stageSpec[I, O]

	chainOnce sync.Once
	chain     compose.Runnable[I, *Result[O]]
	chainErr  error
}

func newStageChain[I any, O any](gen workflowport.Generator, prompts *workflowprompt.Registry, spec stageSpec[I, O]) *StageChain[I, O] {
	if prompts == nil {
		prompts = defaultPromptRegistry
	}
	return &StageChain[I, O]{gen: gen, prompts: prompts, spec: spec}
}

func (c *StageChain[I, O]) Invoke(ctx context.Context, in I) (*Result[O], error) {
	if c == nil || c.gen == nil {
		return nil, fmt.Errorf("generator not configured")
	}

	chain, err := c.getChain()
	if err != nil {
		return nil, err
	}
	return chain.Invoke(ctx, in)
}

func (c *StageChain[I, O]) getChain() (compose.Runnable[I, *Result[O]], error) {
	c.chainOnce.Do(func() {
		c.chain, c.chainErr = c.buildChain(context.Background())
	})
	return c.chain, c.chainErr
}

func (c *StageChain[I, O]) buildChain(ctx context.Context) (compose.Runnable[I, *Result[O]], error) {
	name := c.spec.name
	chain := compose.NewChain[I, *Result[O]]()

	chain.AppendLambda(
		compose.InvokableLambda(func(_ context.Context, in I) (*stageState[I], error) {
			return &stageState[I]{In: in}, nil
		}),
		compose.WithNodeName(name+".init"),
	)

	chain.AppendLambda(
		compose.InvokableLambda(func(ctx context.Context, st *stageState[I]) (*stageState[I], error) {
			tpl, err := c.prompts.ChatTemplate(c.spec.prompt)
			if err != nil {
				return nil, err
			}
			msgs, err := tpl.Format(ctx, c.spec.vars(st.In))
			if err != nil {
				return nil, fmt.Errorf("format %s prompt: %w", name, err)
			}
			st.System, st.User = wfnode.SplitMessages(msgs)
			return st, nil
		}),
		compose.WithNodeName(name+".template"),
	)

	chain.AppendLambda(
		compose.InvokableLambda(func(ctx context.Context, st *stageState[I]) (*stageState[I], error) {
			opts, preferred := c.spec.options(st.In)
			opts.SystemInstruction = st.System

			ctx = llmctx.WithStage(ctx, name)
			res, err := c.gen.Generate(ctx, generation.GenerateRequest{
				Prompt:          entity.TextPrompt(st.User),
				Category:        c.spec.category,
				Options:         opts,
				PreferredVendor: preferred,
			})
			if err != nil {
				return nil, err
			}
			st.Text = res.Text
			st.VendorID = res.Vendor
			return st, nil
		}),
		compose.WithNodeName(name+".generate"),
	)

	chain.AppendLambda(
		compose.InvokableLambda(func(_ context.Context, st *stageState[I]) (*Result[O], error) {
			return &Result[O]{
				Value:  c.spec.parse(st.Text, st.In),
				Vendor: st.VendorID,
				Raw:    st.Text,
			}, nil
		}),
		compose.WithNodeName(name+".parse"),
	)

	return chain.Compile(ctx)
}

var defaultPromptRegistry = workflowprompt.NewRegistry()
