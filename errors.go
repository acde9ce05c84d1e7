package roughtime

import "fmt"

// Kind is a closed sum of the named error categories spec.md §7 requires.
type Kind int

const (
	KindTruncated Kind = iota
	KindBadMagic
	KindBadLength
	KindBadTLV
	KindBadTag
	KindInvalidRequest
	KindInvalidResponse
	KindBadNonce
	KindBadRoot
	KindBadDele
	KindBadSrep
	KindExpiredDele
	KindInputValidation
)

func (k Kind) String() string {
	switch k {
	case KindTruncated:
		return "Truncated"
	case KindBadMagic:
		return "BadMagic"
	case KindBadLength:
		return "BadLength"
	case KindBadTLV:
		return "BadTLV"
	case KindBadTag:
		return "BadTag"
	case KindInvalidRequest:
		return "InvalidRequest"
	case KindInvalidResponse:
		return "InvalidResponse"
	case KindBadNonce:
		return "BadNonce"
	case KindBadRoot:
		return "BadRoot"
	case KindBadDele:
		return "BadDele"
	case KindBadSrep:
		return "BadSrep"
	case KindExpiredDele:
		return "ExpiredDele"
	case KindInputValidation:
		return "InputValidation"
	default:
		return "Unknown"
	}
}

// Error is the diagnostic type returned by every validation path in this
// package: a closed error Kind plus, where it helps debugging, the
// offending bytes.
type Error struct {
	Kind    Kind
	Message string
	Bytes   []byte
	Err     error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("roughtime: %v: %s", e.Kind, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("roughtime: %v: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("roughtime: %v", e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

func newError(k Kind, msg string) *Error {
	return &Error{Kind: k, Message: msg}
}

func wrapError(k Kind, err error) *Error {
	return &Error{Kind: k, Err: err}
}

func newErrorBytes(k Kind, msg string, b []byte) *Error {
	return &Error{Kind: k, Message: msg, Bytes: b}
}

// Is lets errors.Is(err, roughtime.ErrBadNonce) (etc.) match any *Error
// of the same Kind, regardless of its Message/Bytes/Err payload.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && e.Kind == t.Kind
}

// Sentinels for errors.Is comparisons against each closed error Kind.
var (
	ErrTruncated       = &Error{Kind: KindTruncated}
	ErrBadMagic        = &Error{Kind: KindBadMagic}
	ErrBadLength       = &Error{Kind: KindBadLength}
	ErrBadTLV          = &Error{Kind: KindBadTLV}
	ErrBadTag          = &Error{Kind: KindBadTag}
	ErrInvalidRequest  = &Error{Kind: KindInvalidRequest}
	ErrInvalidResponse = &Error{Kind: KindInvalidResponse}
	ErrBadNonce        = &Error{Kind: KindBadNonce}
	ErrBadRoot         = &Error{Kind: KindBadRoot}
	ErrBadDele         = &Error{Kind: KindBadDele}
	ErrBadSrep         = &Error{Kind: KindBadSrep}
	ErrExpiredDele     = &Error{Kind: KindExpiredDele}
	ErrInputValidation = &Error{Kind: KindInputValidation}
)
