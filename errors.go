package mixengine

import "mixengine/internal/mxerr"

// ErrorKind re-exports the engine's error taxonomy (spec.md §7) so callers
// outside this module never need to import the internal package directly.
type ErrorKind = mxerr.Kind

const (
	ConfigInvalid     = mxerr.ConfigInvalid
	DeviceUnavailable = mxerr.DeviceUnavailable
	DeviceBusy        = mxerr.DeviceBusy
	DevicePermission  = mxerr.DevicePermission
	DeviceFormat      = mxerr.DeviceFormat
	DeviceFatal       = mxerr.DeviceFatal
	Underrun          = mxerr.Underrun
	Overflow          = mxerr.Overflow
	Dropout           = mxerr.Dropout
	SourceRead        = mxerr.SourceRead
	EffectProcess     = mxerr.EffectProcess
	DecoderOpen       = mxerr.DecoderOpen
	DecoderIO         = mxerr.DecoderIO
	DecoderSeek       = mxerr.DecoderSeek
	RecordingIO       = mxerr.RecordingIO
	LimitExceeded     = mxerr.LimitExceeded
	Disposed          = mxerr.Disposed
)

// EngineError is the concrete error type every engine-originated error uses.
type EngineError = mxerr.Error

// IsErrorKind reports whether err is an EngineError of the given kind.
func IsErrorKind(err error, kind ErrorKind) bool { return mxerr.Is(err, kind) }

func newErr(kind ErrorKind, msg string) *EngineError { return mxerr.New(kind, msg) }

func wrapErr(kind ErrorKind, msg string, cause error) *EngineError {
	return mxerr.Wrap(kind, msg, cause)
}
