package compress

import (
	"encoding/binary"
	"fmt"

	"github.com/pierrec/lz4"
)

// NoCompressor is a pass-through compressor.
type NoCompressor struct{}

func (c *NoCompressor) Name() string { return "none" }

func (c *NoCompressor) Compress(data []byte) ([]byte, error) {
	return append([]byte(nil), data...), nil
}

func (c *NoCompressor) Decompress(data []byte) ([]byte, error) {
	return append([]byte(nil), data...), nil
}

// LZ4Compressor compresses blocks with LZ4. The uncompressed length is
// framed as a 4-byte prefix so decompression can size its buffer.
type LZ4Compressor struct{}

func (c *LZ4Compressor) Name() string { return "lz4" }

func (c *LZ4Compressor) Compress(data []byte) ([]byte, error) {
	out := make([]byte, 4+lz4.CompressBlockBound(len(data)))
	binary.BigEndian.PutUint32(out[:4], uint32(len(data)))

	// CompressBlock emits a nonempty block even for empty input, which
	// would collide with the stored-raw marker below. Frame it as an
	// empty raw payload instead.
	if len(data) == 0 {
		return out[:4], nil
	}

	n, err := lz4.CompressBlock(data, out[4:], nil)
	if err != nil {
		return nil, fmt.Errorf("lz4 compression failed: %w", err)
	}
	if n == 0 {
		// Incompressible input is stored raw.
		out = append(out[:4], data...)
		binary.BigEndian.PutUint32(out[:4], 0)
		return out, nil
	}
	return out[:4+n], nil
}

func (c *LZ4Compressor) Decompress(data []byte) ([]byte, error) {
	if len(data) < 4 {
		return nil, fmt.Errorf("lz4 block too short: %d bytes", len(data))
	}
	size := binary.BigEndian.Uint32(data[:4])
	if size == 0 {
		return append([]byte(nil), data[4:]...), nil
	}

	out := make([]byte, size)
	n, err := lz4.UncompressBlock(data[4:], out)
	if err != nil {
		return nil, fmt.Errorf("lz4 decompression failed: %w", err)
	}
	return out[:n], nil
}
