package spi

import "errors"

// Sentinel kinds for SPI transform errors.
var (
	ErrInvalidDistribution = errors.New("invalid gamma distribution")
	ErrInvalidThresholds   = errors.New("invalid threshold range")
)
