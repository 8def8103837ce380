//go:build cgo
// +build cgo

package embedding

import (
	"context"
	"fmt"
	"strings"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/hyperjump/omoide/pkg/utils"
)

// ONNXEmbedder runs a sentence-transformer ONNX model. It satisfies the same
// Embedder contract as HashEmbedder, so a real model can replace the hash
// fingerprint without touching ranking. Requires CGO and the onnxruntime
// shared library.
type ONNXEmbedder struct {
	session    *ort.AdvancedSession
	tensors    modelTensors
	tokenizer  Tokenizer
	cache      *FIFOCache
	dimensions int
	maxTokens  int

	// Tensor buffers are reused across calls, so inference is serialized.
	mu sync.Mutex
}

// modelTensors bundles the pre-allocated inference buffers. Input data is
// overwritten in place on every call.
type modelTensors struct {
	inputIDs      *ort.Tensor[int64]
	attentionMask *ort.Tensor[int64]
	tokenTypeIDs  *ort.Tensor[int64]
	output        *ort.Tensor[float32]
}

func (t *modelTensors) destroy() {
	if t.inputIDs != nil {
		_ = t.inputIDs.Destroy()
	}
	if t.attentionMask != nil {
		_ = t.attentionMask.Destroy()
	}
	if t.tokenTypeIDs != nil {
		_ = t.tokenTypeIDs.Destroy()
	}
	if t.output != nil {
		_ = t.output.Destroy()
	}
	*t = modelTensors{}
}

// NewONNXEmbedder loads the model at modelPath. InitializeEnvironment is
// called if not already done.
func NewONNXEmbedder(modelPath string, dimensions, maxTokens, cacheSize int) (*ONNXEmbedder, error) {
	if err := ort.InitializeEnvironment(); err != nil {
		return nil, fmt.Errorf("initializing onnxruntime: %w", err)
	}

	e := &ONNXEmbedder{
		tokenizer:  &SimpleTokenizer{},
		cache:      NewFIFOCache(cacheSize),
		dimensions: dimensions,
		maxTokens:  maxTokens,
	}
	if err := e.allocate(modelPath); err != nil {
		e.tensors.destroy()
		return nil, err
	}
	return e, nil
}

func (e *ONNXEmbedder) allocate(modelPath string) error {
	inputShape := ort.NewShape(1, int64(e.maxTokens))
	ids, mask, types := e.tokenizer.Tokenize("", e.maxTokens)

	var err error
	if e.tensors.inputIDs, err = ort.NewTensor(inputShape, ids); err != nil {
		return fmt.Errorf("allocating input_ids: %w", err)
	}
	if e.tensors.attentionMask, err = ort.NewTensor(inputShape, mask); err != nil {
		return fmt.Errorf("allocating attention_mask: %w", err)
	}
	if e.tensors.tokenTypeIDs, err = ort.NewTensor(inputShape, types); err != nil {
		return fmt.Errorf("allocating token_type_ids: %w", err)
	}
	outputShape := ort.NewShape(1, int64(e.dimensions))
	if e.tensors.output, err = ort.NewTensor(outputShape, make([]float32, e.dimensions)); err != nil {
		return fmt.Errorf("allocating output: %w", err)
	}

	e.session, err = ort.NewAdvancedSession(
		modelPath,
		[]string{"input_ids", "attention_mask", "token_type_ids"},
		[]string{"output"},
		[]ort.ArbitraryTensor{e.tensors.inputIDs, e.tensors.attentionMask, e.tensors.tokenTypeIDs},
		[]ort.ArbitraryTensor{e.tensors.output},
		nil,
	)
	if err != nil {
		return fmt.Errorf("creating session for %s: %w", modelPath, err)
	}
	return nil
}

// Embed returns the embedding for text, using the cache when possible.
func (e *ONNXEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	key := strings.ToLower(strings.TrimSpace(text))
	if cached, ok := e.cache.Get(key); ok {
		return cached, nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	ids, mask, types := e.tokenizer.Tokenize(text, e.maxTokens)
	copy(e.tensors.inputIDs.GetData(), ids)
	copy(e.tensors.attentionMask.GetData(), mask)
	copy(e.tensors.tokenTypeIDs.GetData(), types)

	if err := e.session.Run(); err != nil {
		return nil, fmt.Errorf("inference failed: %w", err)
	}

	out := make([]float32, e.dimensions)
	copy(out, e.tensors.output.GetData()[:e.dimensions])
	utils.NormalizeL2(out)
	e.cache.Set(key, out)
	return out, nil
}

// EmbedBatch calls Embed for each text.
func (e *ONNXEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		emb, err := e.Embed(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("embedding text %d: %w", i, err)
		}
		out[i] = emb
	}
	return out, nil
}

// Dimensions returns the embedding dimension.
func (e *ONNXEmbedder) Dimensions() int {
	return e.dimensions
}

// Close destroys the session and tensors.
func (e *ONNXEmbedder) Close() error {
	var err error
	if e.session != nil {
		err = e.session.Destroy()
		e.session = nil
	}
	e.tensors.destroy()
	return err
}
