package core

import "errors"

var (
	// ErrInvalidItem indicates an analysis item failed validation.
	ErrInvalidItem = errors.New("invalid analysis item")

	// ErrEmptyQuestion indicates the question text is empty.
	ErrEmptyQuestion = errors.New("question text is required")

	// ErrEmptyResponse indicates the response text is empty.
	ErrEmptyResponse = errors.New("response text is required")

	// ErrResponseTooShort indicates the response is below the minimum length.
	ErrResponseTooShort = errors.New("response too short")

	// ErrResponseTooLong indicates the response exceeds the maximum length.
	ErrResponseTooLong = errors.New("response too long")

	// ErrNonSubstantive indicates the response is a placeholder answer.
	ErrNonSubstantive = errors.New("non-substantive response detected")

	// ErrInvalidMetrics indicates a computed ratio fell outside [0, 1].
	ErrInvalidMetrics = errors.New("invalid metrics computed")
)
