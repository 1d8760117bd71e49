// Package sle defines the serialized ledger entries owned by the
// marketplace daemon and their binary encoding. Entries are encoded as
// canonical CBOR so the same logical entry always produces the same
// bytes, which the state hash depends on.
package sle

import (
	"bytes"
	"fmt"

	"github.com/ugorji/go/codec"
)

var cborHandle codec.CborHandle

func init() {
	// Canonical mode sorts map keys during encode; required for stable
	// state hashes and signing digests.
	cborHandle.Canonical = true
}

// Encode serializes a ledger entry (or any value) to canonical CBOR.
func Encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := codec.NewEncoder(&buf, &cborHandle)
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("encode entry: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode deserializes canonical CBOR into v.
func Decode(data []byte, v any) error {
	dec := codec.NewDecoder(bytes.NewReader(data), &cborHandle)
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decode entry: %w", err)
	}
	return nil
}
