package vector

import (
	"encoding/binary"
	"fmt"
	"math"
)

const float32Size = 4

// EncodeEmbedding serializes vec as little-endian IEEE 754 float32 values
// with no length prefix. The round trip through DecodeEmbedding is exact.
func EncodeEmbedding(vec []float32) ([]byte, error) {
	if len(vec) == 0 {
		return nil, nil
	}
	buf := make([]byte, 0, len(vec)*float32Size)
	for _, v := range vec {
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(v))
	}
	return buf, nil
}

// DecodeEmbedding is the inverse of EncodeEmbedding. An empty BLOB decodes
// to nil; a BLOB whose length is not a multiple of 4 is an error.
func DecodeEmbedding(b []byte) ([]float32, error) {
	if len(b) == 0 {
		return nil, nil
	}
	if len(b)%float32Size != 0 {
		return nil, fmt.Errorf("vector: embedding blob of %d bytes is not a whole number of float32 values", len(b))
	}
	vec := make([]float32, len(b)/float32Size)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*float32Size:]))
	}
	return vec, nil
}

// DecodeEmbeddingDim decodes b and checks that it holds exactly dim values.
// A dim of 0 accepts any non-empty length.
func DecodeEmbeddingDim(b []byte, dim int) ([]float32, error) {
	vec, err := DecodeEmbedding(b)
	if err != nil {
		return nil, err
	}
	switch {
	case len(vec) == 0:
		return nil, fmt.Errorf("vector: empty embedding blob")
	case dim > 0 && len(vec) != dim:
		return nil, fmt.Errorf("vector: embedding has %d values, want %d", len(vec), dim)
	}
	return vec, nil
}
