package model

import "errors"

// Error kinds returned by the fetch and analytics layers. Callers match them with errors.Is;
// the concrete error carries the detail.
var (
	ErrInvalidArgument  = errors.New("invalid argument")
	ErrInvalidTicker    = errors.New("invalid ticker")
	ErrUpstream         = errors.New("upstream failure")
	ErrInvalidData      = errors.New("invalid data from upstream")
	ErrInsufficientData = errors.New("insufficient data")
)
