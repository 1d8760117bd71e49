// Package addresscodec encodes 20-byte account IDs as human-readable
// base58check addresses. The version byte is chosen so every marketd
// address starts with 'M'.
package addresscodec

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"math/big"
)

const (
	// AccountAddressPrefix is the version byte prepended to account IDs
	// before base58check encoding.
	AccountAddressPrefix = 0x32

	// AccountIDLength is the length of a raw account ID in bytes.
	AccountIDLength = 20

	checksumLength = 4
)

const alphabet = "123456789ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz"

var (
	ErrInvalidAddress  = errors.New("invalid address")
	ErrInvalidChecksum = errors.New("invalid address checksum")
)

var decodeTable [256]int8

func init() {
	for i := range decodeTable {
		decodeTable[i] = -1
	}
	for i, c := range alphabet {
		decodeTable[c] = int8(i)
	}
}

// Encode encodes a 20-byte account ID to its address form.
func Encode(accountID [AccountIDLength]byte) string {
	payload := make([]byte, 0, 1+AccountIDLength+checksumLength)
	payload = append(payload, AccountAddressPrefix)
	payload = append(payload, accountID[:]...)
	payload = append(payload, checksum(payload)...)
	return base58Encode(payload)
}

// Decode decodes an address back to the raw 20-byte account ID,
// verifying the version byte and checksum.
func Decode(address string) ([AccountIDLength]byte, error) {
	var accountID [AccountIDLength]byte

	payload, err := base58Decode(address)
	if err != nil {
		return accountID, err
	}
	if len(payload) != 1+AccountIDLength+checksumLength {
		return accountID, ErrInvalidAddress
	}
	if payload[0] != AccountAddressPrefix {
		return accountID, ErrInvalidAddress
	}

	body := payload[:len(payload)-checksumLength]
	if !bytes.Equal(checksum(body), payload[len(payload)-checksumLength:]) {
		return accountID, ErrInvalidChecksum
	}

	copy(accountID[:], payload[1:1+AccountIDLength])
	return accountID, nil
}

// IsValid reports whether the string is a well-formed account address.
func IsValid(address string) bool {
	_, err := Decode(address)
	return err == nil
}

// checksum returns the first 4 bytes of a double SHA-256 over data.
func checksum(data []byte) []byte {
	first := sha256.Sum256(data)
	second := sha256.Sum256(first[:])
	return second[:checksumLength]
}

func base58Encode(input []byte) string {
	x := new(big.Int).SetBytes(input)
	base := big.NewInt(58)
	mod := new(big.Int)

	var out []byte
	for x.Sign() > 0 {
		x.DivMod(x, base, mod)
		out = append(out, alphabet[mod.Int64()])
	}

	// Preserve leading zero bytes.
	for _, b := range input {
		if b != 0 {
			break
		}
		out = append(out, alphabet[0])
	}

	// Reverse.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return string(out)
}

func base58Decode(input string) ([]byte, error) {
	if input == "" {
		return nil, ErrInvalidAddress
	}

	x := big.NewInt(0)
	base := big.NewInt(58)
	for i := 0; i < len(input); i++ {
		v := decodeTable[input[i]]
		if v < 0 {
			return nil, ErrInvalidAddress
		}
		x.Mul(x, base)
		x.Add(x, big.NewInt(int64(v)))
	}

	decoded := x.Bytes()

	// Restore leading zero bytes.
	leading := 0
	for i := 0; i < len(input) && input[i] == alphabet[0]; i++ {
		leading++
	}
	out := make([]byte, leading+len(decoded))
	copy(out[leading:], decoded)
	return out, nil
}
