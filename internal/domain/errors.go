package domain

import "errors"

// Simulation errors. Wrap with fmt.Errorf("%w: ...") and test with errors.Is.
var (
	// ErrDomain is returned when an input violates a documented domain constraint.
	ErrDomain = errors.New("domain error")

	// ErrDivisionDegenerate is returned when a per-step computation would divide by zero.
	ErrDivisionDegenerate = errors.New("division degenerate")

	// ErrUnknownModel is returned for a model tag outside the closed enumeration.
	ErrUnknownModel = errors.New("unknown model")

	// ErrMissingParams is returned when the parameter block for the selected model is absent.
	ErrMissingParams = errors.New("missing model parameters")
)
