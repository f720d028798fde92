package embedding

import "math"

// ONNXOptions configures the ONNX embedder.
type ONNXOptions struct {
	ModelPath   string
	LibraryPath string // onnxruntime shared library; empty uses the platform default
	OutputName  string // model output holding token embeddings; default "last_hidden_state"
	Dimensions  int
	MaxTokens   int
}

// meanPool averages the token rows of hidden (tokens x dims, row-major) whose mask is 1.
func meanPool(hidden []float32, mask []int64, dims int) []float32 {
	out := make([]float32, dims)
	var count float32
	for t, m := range mask {
		if m == 0 {
			continue
		}
		row := hidden[t*dims : (t+1)*dims]
		for i, v := range row {
			out[i] += v
		}
		count++
	}
	if count > 0 {
		for i := range out {
			out[i] /= count
		}
	}
	return out
}

// normalizeInPlace scales x to unit L2 norm. A zero vector is left unchanged.
func normalizeInPlace(x []float32) {
	var sum float64
	for _, v := range x {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return
	}
	norm := 1.0 / math.Sqrt(sum)
	for i := range x {
		x[i] = float32(float64(x[i]) * norm)
	}
}
