package lift

import "fmt"

// ErrorCode categorizes decode and lift failures.
type ErrorCode string

const (
	// ErrCodeDecodeFailed indicates the byte sequence is not a valid
	// instruction in 64-bit mode.
	ErrCodeDecodeFailed ErrorCode = "DECODE_FAILED"

	// ErrCodeNoSemantics indicates no override-point global exists for the
	// instruction's selector.
	ErrCodeNoSemantics ErrorCode = "NO_SEMANTICS"

	// ErrCodeBadSelector indicates the override-point global exists but does
	// not resolve to a usable semantic function.
	ErrCodeBadSelector ErrorCode = "BAD_SELECTOR"

	// ErrCodeUnsupportedOperand indicates an operand kind the lifter cannot
	// materialize (memory operands, segment registers, and so on).
	ErrCodeUnsupportedOperand ErrorCode = "UNSUPPORTED_OPERAND"
)

// Error is a decode or lift failure with structured context. Both are fatal
// to the run that hit them; there is no partial-lift fallback.
type Error struct {
	Code     ErrorCode
	Addr     uint64
	Selector string
	Message  string
	Err      error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s (addr=%#x)", e.Code, e.Message, e.Addr)
	if e.Selector != "" {
		msg = fmt.Sprintf("%s: %s (addr=%#x, selector=%s)", e.Code, e.Message, e.Addr, e.Selector)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}
