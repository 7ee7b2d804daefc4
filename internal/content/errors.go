package content

import "errors"

var (
	// ErrDecode is returned when a disguised image payload yields no usable feed
	ErrDecode = errors.New("decode error")

	// ErrParse is returned when neither UTF-8 nor GBK text parses as a feed document
	ErrParse = errors.New("parse error")
)
