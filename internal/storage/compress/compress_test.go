package compress

import (
	"bytes"
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegistry(t *testing.T) {
	names := Available()
	require.Contains(t, names, "none")
	require.Contains(t, names, "lz4")

	_, err := Get("zstd")
	require.Error(t, err)

	c, err := Get("lz4")
	require.NoError(t, err)
	require.Equal(t, "lz4", c.Name())
}

func TestNoCompressorRoundTrip(t *testing.T) {
	c := &NoCompressor{}
	data := []byte("hello marketplace")

	compressed, err := c.Compress(data)
	require.NoError(t, err)
	decompressed, err := c.Decompress(compressed)
	require.NoError(t, err)
	require.Equal(t, data, decompressed)
}

func TestLZ4RoundTrip(t *testing.T) {
	c := &LZ4Compressor{}

	// Repetitive data compresses well.
	data := bytes.Repeat([]byte("ledger state entry "), 500)
	compressed, err := c.Compress(data)
	require.NoError(t, err)
	require.Less(t, len(compressed), len(data))

	decompressed, err := c.Decompress(compressed)
	require.NoError(t, err)
	require.Equal(t, data, decompressed)
}

func TestLZ4IncompressibleData(t *testing.T) {
	c := &LZ4Compressor{}

	data := make([]byte, 4096)
	_, err := rand.Read(data)
	require.NoError(t, err)

	compressed, err := c.Compress(data)
	require.NoError(t, err)

	decompressed, err := c.Decompress(compressed)
	require.NoError(t, err)
	require.Equal(t, data, decompressed)
}

func TestLZ4EmptyInput(t *testing.T) {
	c := &LZ4Compressor{}

	compressed, err := c.Compress(nil)
	require.NoError(t, err)
	decompressed, err := c.Decompress(compressed)
	require.NoError(t, err)
	require.Empty(t, decompressed)
}

func TestLZ4RejectsTruncatedInput(t *testing.T) {
	c := &LZ4Compressor{}
	_, err := c.Decompress([]byte{0x01, 0x02})
	require.Error(t, err)
}
