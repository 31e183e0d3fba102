package embedding

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
)

// Store is a persistent token-to-vector cache shared across runs or processes.
type Store interface {
	// Get returns the stored vector and whether it was found.
	Get(ctx context.Context, key string) ([]float32, bool, error)
	Set(ctx context.Context, key string, vec []float32) error
	Close() error
}

// NoOpStore never stores anything; every Get is a miss.
type NoOpStore struct{}

func (NoOpStore) Get(context.Context, string) ([]float32, bool, error) { return nil, false, nil }

func (NoOpStore) Set(context.Context, string, []float32) error { return nil }

func (NoOpStore) Close() error { return nil }

// encodeVector writes vec as little-endian float32 values.
func encodeVector(vec []float32) []byte {
	out := make([]byte, len(vec)*4)
	for i, v := range vec {
		binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(v))
	}
	return out
}

func decodeVector(b []byte) ([]float32, error) {
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("corrupt vector: %d bytes", len(b))
	}
	out := make([]float32, len(b)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return out, nil
}
