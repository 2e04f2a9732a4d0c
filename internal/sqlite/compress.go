package sqlite

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression codec names stored alongside each blob.
const (
	CompressionNone = "none"
	CompressionZstd = "zstd"
	CompressionLZ4  = "lz4"
)

type compressor interface {
	compress(data []byte) ([]byte, error)
	decompress(data []byte) ([]byte, error)
}

var (
	zstdEncoder, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	zstdDecoder, _ = zstd.NewReader(nil)
)

var compressors = map[string]compressor{
	CompressionNone: noneCompressor{},
	CompressionZstd: zstdCompressor{},
	CompressionLZ4:  lz4Compressor{},
}

func compressorFor(name string) (compressor, error) {
	c, ok := compressors[name]
	if !ok {
		return nil, fmt.Errorf("unknown blob compression %q", name)
	}
	return c, nil
}

type noneCompressor struct{}

func (noneCompressor) compress(data []byte) ([]byte, error)   { return data, nil }
func (noneCompressor) decompress(data []byte) ([]byte, error) { return data, nil }

type zstdCompressor struct{}

func (zstdCompressor) compress(data []byte) ([]byte, error) {
	return zstdEncoder.EncodeAll(data, nil), nil
}

func (zstdCompressor) decompress(data []byte) ([]byte, error) {
	out, err := zstdDecoder.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("zstd: %w", err)
	}
	return out, nil
}

type lz4Compressor struct{}

func (lz4Compressor) compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := lz4.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		return nil, fmt.Errorf("lz4: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("lz4: %w", err)
	}
	return buf.Bytes(), nil
}

func (lz4Compressor) decompress(data []byte) ([]byte, error) {
	out, err := io.ReadAll(lz4.NewReader(bytes.NewReader(data)))
	if err != nil {
		return nil, fmt.Errorf("lz4: %w", err)
	}
	return out, nil
}
