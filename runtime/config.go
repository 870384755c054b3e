package runtime

import (
	"go.uber.org/zap"

	"github.com/kryonlabs/kryon-sub009/krb"
	"github.com/kryonlabs/kryon-sub009/mempool"
)

// Mode selects the runtime's operating profile.
type Mode uint8

const (
	ModeDefault Mode = iota
	ModeDevelopment
	ModeProduction
)

func (m Mode) String() string {
	switch m {
	case ModeDevelopment:
		return "development"
	case ModeProduction:
		return "production"
	default:
		return "default"
	}
}

// Config controls runtime construction.
type Config struct {
	Mode Mode

	// QueueCapacity bounds the event queue.
	QueueCapacity int

	// BundleCacheSize is the number of decoded bundles kept by path.
	BundleCacheSize int

	// Decode overrides bundle decode limits and tag policy.
	Decode *krb.DecodeOptions

	// Allocator configures the transient-buffer pool.
	Allocator *mempool.Config

	// SnapshotFile, when set, restores state on Start and persists it
	// on Stop.
	SnapshotFile string

	// ErrorLogSize bounds the in-memory error log.
	ErrorLogSize int

	// Logger is distributed to every package. Nil keeps logging off.
	Logger *zap.Logger
}

// DefaultConfig returns the standard profile: permissive decoding and
// moderate limits.
func DefaultConfig() *Config {
	return &Config{
		Mode:            ModeDefault,
		QueueCapacity:   256,
		BundleCacheSize: 16,
		Decode:          krb.DefaultDecodeOptions(),
		Allocator:       mempool.DefaultConfig(),
		ErrorLogSize:    64,
	}
}

// DevConfig returns the development profile: strict decoding so
// malformed bundles fail loudly, and a deep error log.
func DevConfig() *Config {
	cfg := DefaultConfig()
	cfg.Mode = ModeDevelopment
	cfg.Decode.Strict = true
	cfg.ErrorLogSize = 256
	return cfg
}

// ProdConfig returns the production profile: permissive decoding,
// a larger bundle cache, and a shallow error log.
func ProdConfig() *Config {
	cfg := DefaultConfig()
	cfg.Mode = ModeProduction
	cfg.BundleCacheSize = 64
	cfg.ErrorLogSize = 16
	return cfg
}
