package apperr

import "errors"

// Response pairs the original error with the message shown to API callers.
type Response struct {
	Err     error  `json:"-"`
	Kind    Kind   `json:"-"`
	Message string `json:"message"`
}

func Translate(err error) Response {
	if err == nil {
		return Response{}
	}
	var e *Error
	if errors.As(err, &e) {
		switch e.Kind {
		case KindNoRoute:
			return Response{Err: err, Kind: e.Kind, Message: MsgTokenPairNotSupported}
		case KindInsufficientBalance:
			return Response{Err: err, Kind: e.Kind, Message: MsgInsufficientBalance}
		}
	}
	kind := KindOf(err)
	switch err.Error() {
	case MsgInvariantAddresses, MsgQuoteOfNull, MsgNullRoute:
		return Response{Err: err, Kind: KindNoRoute, Message: MsgTokenPairNotSupported}
	case MsgInsufficientBalance:
		return Response{Err: err, Kind: KindInsufficientBalance, Message: MsgInsufficientBalance}
	}
	return Response{Err: err, Kind: kind, Message: err.Error()}
}
