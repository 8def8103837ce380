package embedding

import (
	"context"
	"math"
	"regexp"
	"strings"

	"github.com/hyperjump/omoide/pkg/utils"
)

var nonWordRe = regexp.MustCompile(`[^\w\s]`)

// HashEmbedder maps text to a fixed-length vector without any model or
// external call. The fingerprint combines per-character positional hashing,
// a curated semantic-bucket boost for domain-synonymous words, and a bigram
// pass over the whole phrase, then L2-normalizes. The same text always yields
// the same vector; empty or degenerate text yields the zero vector.
type HashEmbedder struct {
	dimensions int
	features   map[string][]int
	cache      *FIFOCache
}

// NewHashEmbedder returns a hash embedder with the given dimensions and cache
// capacity. Non-positive arguments fall back to 384 dimensions and 1000 entries.
func NewHashEmbedder(dimensions, cacheSize int) *HashEmbedder {
	if dimensions <= 0 {
		dimensions = 384
	}
	if cacheSize <= 0 {
		cacheSize = 1000
	}
	return &HashEmbedder{
		dimensions: dimensions,
		features:   semanticFeatures,
		cache:      NewFIFOCache(cacheSize),
	}
}

// WithFeatures replaces the semantic feature table; used by tests to isolate
// the positional hashing from the curated boosts.
func (e *HashEmbedder) WithFeatures(features map[string][]int) *HashEmbedder {
	e.features = features
	return e
}

// Embed returns the deterministic embedding for text. It never fails.
func (e *HashEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	key := strings.ToLower(strings.TrimSpace(text))
	if cached, ok := e.cache.Get(key); ok {
		return cached, nil
	}

	words := tokenizeForEmbedding(text)
	emb := make([]float32, e.dimensions)

	for i, word := range words {
		// Three hash variants per character position spread each word across
		// several buckets, making the fingerprint sensitive to both character
		// composition and word position.
		for variant := 0; variant < 3; variant++ {
			for j, r := range []rune(word) {
				code := int(r)
				idx := (code + i + j + variant*127) % e.dimensions
				emb[idx] += float32(math.Sin(float64(code+variant)*0.01) * 0.1)
			}
		}

		// Curated semantic buckets: domain-synonymous words ("trip", "travel")
		// collide deliberately so they land near each other in vector space.
		for _, feature := range e.features[word] {
			idx := feature % e.dimensions
			if idx < 0 {
				idx = -idx
			}
			emb[idx] += 0.15
		}
	}

	// Phrase-level bigrams improve multi-word matching.
	if len(words) > 1 {
		phrase := strings.Join(words, "")
		for i := 0; i+1 < len(phrase); i++ {
			idx := bigramHash(phrase[i : i+2]) % e.dimensions
			if idx < 0 {
				idx = -idx
			}
			emb[idx] += 0.1
		}
	}

	utils.NormalizeL2(emb)

	e.cache.Set(key, emb)
	return emb, nil
}

// EmbedBatch calls Embed for each text.
func (e *HashEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	embeddings := make([][]float32, len(texts))
	for i, text := range texts {
		emb, err := e.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		embeddings[i] = emb
	}
	return embeddings, nil
}

// Dimensions returns the embedding dimension.
func (e *HashEmbedder) Dimensions() int {
	return e.dimensions
}

// Close is a no-op for HashEmbedder.
func (e *HashEmbedder) Close() error {
	return nil
}

// tokenizeForEmbedding lowercases, strips non-word characters, and keeps
// tokens longer than one character.
func tokenizeForEmbedding(text string) []string {
	cleaned := nonWordRe.ReplaceAllString(strings.ToLower(text), " ")
	fields := strings.Fields(cleaned)
	words := fields[:0]
	for _, f := range fields {
		if len(f) > 1 {
			words = append(words, f)
		}
	}
	return words
}

// bigramHash is a polynomial rolling hash with 32-bit wraparound.
func bigramHash(bigram string) int {
	var h int32
	for i := 0; i < len(bigram); i++ {
		h = (h << 5) - h + int32(bigram[i])
	}
	n := int64(h)
	if n < 0 {
		n = -n
	}
	return int(n)
}
