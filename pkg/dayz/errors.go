package dayz

import "errors"

// Kind classifies the failures the monitor recovers from at the tick boundary.
type Kind int

const (
	KindTransport Kind = iota + 1
	KindKeywordsMissing
	KindMessageSend
	KindMessageEdit
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindKeywordsMissing:
		return "keywords_missing"
	case KindMessageSend:
		return "message_send"
	case KindMessageEdit:
		return "message_edit"
	default:
		return "unknown"
	}
}

// Error carries a Kind and the underlying cause, if any.
type Error struct {
	Kind Kind
	Err  error
}

// Sentinels for errors.Is; they match any *Error of the same Kind.
var (
	ErrTransport       = &Error{Kind: KindTransport}
	ErrKeywordsMissing = &Error{Kind: KindKeywordsMissing}
	ErrMessageSend     = &Error{Kind: KindMessageSend}
	ErrMessageEdit     = &Error{Kind: KindMessageEdit}
)

func (e *Error) Error() string {
	switch e.Kind {
	case KindTransport:
		if e.Err != nil {
			return "server query failed: " + e.Err.Error()
		}
		return "server query failed"
	case KindKeywordsMissing:
		return "failed to extract server keywords from A2S response (keywords missing)"
	case KindMessageSend:
		if e.Err != nil {
			return "failed to send status message: " + e.Err.Error()
		}
		return "failed to send status message"
	case KindMessageEdit:
		if e.Err != nil {
			return "failed to edit status message: " + e.Err.Error()
		}
		return "failed to edit status message"
	}
	if e.Err != nil {
		return e.Kind.String() + ": " + e.Err.Error()
	}
	return e.Kind.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// KindOf returns the Kind of the first *Error in err's chain, or 0.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}
