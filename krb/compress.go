package krb

import (
	"sync"

	"github.com/klauspost/compress/zstd"

	"github.com/kryonlabs/kryon-sub009/errors"
)

// Codec compresses and decompresses bundle payloads. Additional codecs
// are pluggable via RegisterCodec; decode fails with an unsupported
// error when a bundle declares a codec that is not registered.
type Codec interface {
	Compress(data []byte) ([]byte, error)
	// Decompress expands data. uncompressedSize is the header's declared
	// size, used for allocation; the result must match it exactly.
	Decompress(data []byte, uncompressedSize int) ([]byte, error)
}

var (
	codecMu sync.RWMutex
	codecs  = map[CompressionType]Codec{
		CompressionZstd: zstdCodec{},
	}
)

// RegisterCodec installs a codec for the given compression type.
// CompressionNone cannot be overridden.
func RegisterCodec(t CompressionType, c Codec) {
	codecMu.Lock()
	defer codecMu.Unlock()
	codecs[t] = c
}

// SupportsCompression reports whether t can be decoded.
func SupportsCompression(t CompressionType) bool {
	if t == CompressionNone {
		return true
	}
	codecMu.RLock()
	defer codecMu.RUnlock()
	_, ok := codecs[t]
	return ok
}

func codecFor(t CompressionType) (Codec, error) {
	codecMu.RLock()
	defer codecMu.RUnlock()
	c, ok := codecs[t]
	if !ok {
		return nil, errors.Unsupported(errors.PhaseDecode, "compression codec "+t.String())
	}
	return c, nil
}

type zstdCodec struct{}

func (zstdCodec) Compress(data []byte) ([]byte, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, err
	}
	out := enc.EncodeAll(data, nil)
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return out, nil
}

func (zstdCodec) Decompress(data []byte, uncompressedSize int) ([]byte, error) {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	out, err := dec.DecodeAll(data, make([]byte, 0, uncompressedSize))
	if err != nil {
		return nil, err
	}
	if len(out) != uncompressedSize {
		return nil, errors.SizeMismatch(errors.PhaseDecode, "uncompressed bytes", uncompressedSize, len(out))
	}
	return out, nil
}
