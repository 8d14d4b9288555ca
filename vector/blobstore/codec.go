package blobstore

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/viant/imgvec/vector"
)

// Compression is the payload compression of a blob.
type Compression uint8

const (
	CompressionNone Compression = 0
	CompressionLZ4  Compression = 1
	CompressionZSTD Compression = 2
)

const (
	codecVersion = 1
	headerSize   = 10

	// MaxDimension bounds the vector length a blob header may declare.
	// Headers above it are treated as corrupt before anything is allocated.
	MaxDimension = 1 << 20

	// lz4MaxRatio is the largest expansion an LZ4 block can encode.
	lz4MaxRatio = 255
)

var magic = [4]byte{'I', 'V', 'E', 'C'}

// ParseCompression maps a configuration name to a Compression.
func ParseCompression(name string) (Compression, error) {
	switch strings.ToLower(name) {
	case "", "none":
		return CompressionNone, nil
	case "lz4":
		return CompressionLZ4, nil
	case "zstd":
		return CompressionZSTD, nil
	}
	return 0, fmt.Errorf("blobstore: unknown compression %q", name)
}

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZSTD:
		return "zstd"
	}
	return fmt.Sprintf("compression(%d)", uint8(c))
}

var (
	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func getZstdEncoder() *zstd.Encoder {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder)
	}
	enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	return enc
}

func getZstdDecoder() *zstd.Decoder {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder)
	}
	dec, _ := zstd.NewReader(nil, zstd.WithDecoderMaxMemory(MaxDimension*4))
	return dec
}

// Encode serializes embedding into a blob. Payloads that do not compress
// are stored uncompressed.
func Encode(embedding []float32, c Compression) ([]byte, error) {
	raw, err := vector.EncodeEmbedding(embedding)
	if err != nil {
		return nil, err
	}
	payload := raw
	switch c {
	case CompressionNone:
	case CompressionLZ4:
		buf := make([]byte, lz4.CompressBlockBound(len(raw)))
		n, err := lz4.CompressBlock(raw, buf, nil)
		if err != nil {
			return nil, fmt.Errorf("blobstore: lz4: %w", err)
		}
		if n == 0 || n >= len(raw) {
			c = CompressionNone
		} else {
			payload = buf[:n]
		}
	case CompressionZSTD:
		enc := getZstdEncoder()
		payload = enc.EncodeAll(raw, nil)
		zstdEncoderPool.Put(enc)
	default:
		return nil, fmt.Errorf("blobstore: unknown compression %d", uint8(c))
	}
	out := make([]byte, headerSize, headerSize+len(payload))
	copy(out, magic[:])
	out[4] = codecVersion
	out[5] = byte(c)
	binary.LittleEndian.PutUint32(out[6:], uint32(len(embedding)))
	return append(out, payload...), nil
}

// Decode parses a blob produced by Encode.
func Decode(data []byte) ([]float32, error) {
	if len(data) < headerSize {
		return nil, errors.New("blobstore: blob too small for header")
	}
	if [4]byte(data[:4]) != magic {
		return nil, errors.New("blobstore: bad magic")
	}
	if data[4] != codecVersion {
		return nil, fmt.Errorf("blobstore: unsupported version %d", data[4])
	}
	dim := int(binary.LittleEndian.Uint32(data[6:10]))
	if dim == 0 {
		return nil, errors.New("blobstore: zero dimension")
	}
	if dim > MaxDimension {
		return nil, fmt.Errorf("blobstore: dimension %d exceeds %d", dim, MaxDimension)
	}
	size := dim * 4
	payload := data[headerSize:]
	raw := payload
	switch Compression(data[5]) {
	case CompressionNone:
		if len(payload) != size {
			return nil, fmt.Errorf("blobstore: payload of %d bytes, header declares %d", len(payload), size)
		}
	case CompressionLZ4:
		if size > len(payload)*lz4MaxRatio {
			return nil, fmt.Errorf("blobstore: lz4 payload of %d bytes cannot expand to %d", len(payload), size)
		}
		raw = make([]byte, size)
		n, err := lz4.UncompressBlock(payload, raw)
		if err != nil {
			return nil, fmt.Errorf("blobstore: lz4: %w", err)
		}
		raw = raw[:n]
	case CompressionZSTD:
		var h zstd.Header
		if err := h.Decode(payload); err != nil {
			return nil, fmt.Errorf("blobstore: zstd: %w", err)
		}
		if h.HasFCS && h.FrameContentSize != uint64(size) {
			return nil, fmt.Errorf("blobstore: zstd frame of %d bytes, header declares %d", h.FrameContentSize, size)
		}
		dec := getZstdDecoder()
		out, err := dec.DecodeAll(payload, make([]byte, 0, size))
		zstdDecoderPool.Put(dec)
		if err != nil {
			return nil, fmt.Errorf("blobstore: zstd: %w", err)
		}
		raw = out
	default:
		return nil, fmt.Errorf("blobstore: unknown compression %d", data[5])
	}
	return vector.DecodeEmbeddingDim(raw, dim)
}
