package embeddings

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// ErrInvalidBlob is returned when a BLOB length is not a multiple of four bytes.
var ErrInvalidBlob = errors.New("embeddings: invalid vector blob")

// EncodeBlob packs a vector as little-endian IEEE 754 float32 values with no length prefix.
// A nil or empty vector encodes to nil so it can be stored as SQL NULL.
func EncodeBlob(vector []float32) []byte {
	if len(vector) == 0 {
		return nil
	}

	b := make([]byte, len(vector)*4)
	for i, v := range vector {
		binary.LittleEndian.PutUint32(b[i*4:], math.Float32bits(v))
	}

	return b
}

// DecodeBlob reverses EncodeBlob. An empty blob decodes to nil.
func DecodeBlob(b []byte) ([]float32, error) {
	if len(b) == 0 {
		return nil, nil
	}

	if len(b)%4 != 0 {
		return nil, fmt.Errorf("%w: length %d", ErrInvalidBlob, len(b))
	}

	vector := make([]float32, len(b)/4)
	for i := range vector {
		vector[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}

	return vector, nil
}
