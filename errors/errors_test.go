package errors_test

import (
	stderrors "errors"
	"strings"
	"testing"

	"github.com/kryonlabs/kryon-sub009/errors"
)

func TestErrorString(t *testing.T) {
	err := errors.New(errors.PhaseDecode, errors.KindChecksum).
		Detail("computed 0x1, header says 0x2").
		Build()

	got := err.Error()
	if !strings.Contains(got, "[decode]") {
		t.Errorf("missing phase in %q", got)
	}
	if !strings.Contains(got, "checksum") {
		t.Errorf("missing kind in %q", got)
	}
	if !strings.Contains(got, "0x1") {
		t.Errorf("missing detail in %q", got)
	}
}

func TestErrorPath(t *testing.T) {
	err := errors.New(errors.PhaseState, errors.KindNotFound).
		Path("user", "name").
		Build()

	if !strings.Contains(err.Error(), "at user.name") {
		t.Errorf("missing path in %q", err.Error())
	}
}

func TestErrorIsMatchesPhaseAndKind(t *testing.T) {
	err := errors.Checksum(1, 2)
	target := &errors.Error{Phase: errors.PhaseDecode, Kind: errors.KindChecksum}

	if !stderrors.Is(err, target) {
		t.Error("expected Is match on same phase+kind")
	}

	other := &errors.Error{Phase: errors.PhaseDecode, Kind: errors.KindBadMagic}
	if stderrors.Is(err, other) {
		t.Error("unexpected Is match on different kind")
	}
}

func TestErrorUnwrap(t *testing.T) {
	cause := stderrors.New("io failure")
	err := errors.Load("read bundle", cause)

	if !stderrors.Is(err, cause) {
		t.Error("expected wrapped cause to match")
	}
}

func TestConstructors(t *testing.T) {
	tests := []struct {
		name string
		err  *errors.Error
		kind errors.Kind
	}{
		{"bad magic", errors.BadMagic(0xDEAD, 0x4B52594E), errors.KindBadMagic},
		{"version", errors.VersionMismatch("2.0.0", "1.0.0"), errors.KindVersionMismatch},
		{"size limit", errors.SizeLimit("element", 100000, 65536), errors.KindSizeLimit},
		{"unknown tag", errors.UnknownTag("property", 0x7F), errors.KindUnknownTag},
		{"queue full", errors.QueueFull(64), errors.KindQueueFull},
		{"oom", errors.OutOfMemory("pool exhausted at %d chunks", 4096), errors.KindOutOfMemory},
		{"leak", errors.Leak(3, 192), errors.KindLeak},
		{"double free", errors.DoubleFree(42), errors.KindDoubleFree},
		{"reentrant", errors.ReentrantWrite("a.b"), errors.KindReentrantWrite},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Kind != tt.kind {
				t.Errorf("kind: got %s, want %s", tt.err.Kind, tt.kind)
			}
			if tt.err.Error() == "" {
				t.Error("empty error string")
			}
		})
	}
}
