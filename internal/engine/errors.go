package engine

import (
	"errors"

	"github.com/songzhibin97/tokensim/internal/utils/numeric"
)

var (
	ErrMissingName       = errors.New("missing simulation name")
	ErrMissingToken      = errors.New("missing token")
	ErrMissingOptions    = errors.New("missing simulation options")
	ErrMissingTotalUsers = errors.New("missing total users")
	ErrAlreadyRun        = errors.New("simulation already run")

	// ErrInvalidDecimal is returned when a float option or an intermediate
	// trade value has no fixed-point representation.
	ErrInvalidDecimal = numeric.ErrInvalidDecimal
)
