package scan

import "errors"

var (
	ErrInvalidRange     = errors.New("invalid seed range")
	ErrInvalidTarget    = errors.New("invalid target")
	ErrInvalidPlayCount = errors.New("invalid play count")
	ErrInvalidCategory  = errors.New("unknown hand category")
	ErrUnknownJoker     = errors.New("unknown joker")
)
