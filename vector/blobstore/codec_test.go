package blobstore

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodec(t *testing.T) {
	vec := make([]float32, 304)
	for i := range vec {
		vec[i] = float32(i%7) / 7
	}
	vec[3] = float32(math.SmallestNonzeroFloat32)

	for _, c := range []Compression{CompressionNone, CompressionLZ4, CompressionZSTD} {
		t.Run(c.String(), func(t *testing.T) {
			data, err := Encode(vec, c)
			require.NoError(t, err)
			assert.Equal(t, "IVEC", string(data[:4]))
			got, err := Decode(data)
			require.NoError(t, err)
			assert.Equal(t, vec, got)
		})
	}
}

func TestDecode_Invalid(t *testing.T) {
	data, err := Encode([]float32{1, 2, 3}, CompressionNone)
	require.NoError(t, err)

	_, err = Decode(data[:5])
	assert.Error(t, err)

	bad := append([]byte(nil), data...)
	bad[0] = 'X'
	_, err = Decode(bad)
	assert.Error(t, err)

	_, err = Decode(data[:len(data)-2])
	assert.Error(t, err)

	bad = append([]byte(nil), data...)
	bad[5] = 9
	_, err = Decode(bad)
	assert.Error(t, err)
}

// forgeDim rewrites the dimension a blob header declares.
func forgeDim(data []byte, c Compression, dim uint32) []byte {
	out := append([]byte(nil), data...)
	out[5] = byte(c)
	binary.LittleEndian.PutUint32(out[6:10], dim)
	return out
}

func TestDecode_ForgedHeader(t *testing.T) {
	vec := []float32{1, 2, 3, 4}
	plain, err := Encode(vec, CompressionNone)
	require.NoError(t, err)
	packed, err := Encode(make([]float32, 256), CompressionZSTD)
	require.NoError(t, err)

	cases := []struct {
		name string
		data []byte
	}{
		{"none huge dim", forgeDim(plain, CompressionNone, math.MaxUint32)},
		{"lz4 huge dim", forgeDim(plain, CompressionLZ4, math.MaxUint32)},
		{"zstd huge dim", forgeDim(packed, CompressionZSTD, math.MaxUint32)},
		{"none dim above payload", forgeDim(plain, CompressionNone, 5)},
		{"none dim below payload", forgeDim(plain, CompressionNone, 3)},
		{"lz4 dim beyond max ratio", forgeDim(plain, CompressionLZ4, MaxDimension)},
		{"zstd dim disagrees with frame", forgeDim(packed, CompressionZSTD, 300)},
		{"zstd dim at cap", forgeDim(packed, CompressionZSTD, MaxDimension)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Decode(tc.data)
			assert.Error(t, err)
		})
	}
}

func TestParseCompression(t *testing.T) {
	c, err := ParseCompression("ZSTD")
	require.NoError(t, err)
	assert.Equal(t, CompressionZSTD, c)
	c, err = ParseCompression("")
	require.NoError(t, err)
	assert.Equal(t, CompressionNone, c)
	_, err = ParseCompression("gzip")
	assert.Error(t, err)
}
