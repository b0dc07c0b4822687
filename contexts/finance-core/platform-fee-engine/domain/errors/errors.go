package errors

import "errors"

var (
	ErrInvalidInput         = errors.New("platform fee input is invalid")
	ErrEventPayloadConflict = errors.New("event id already recorded with different payload")
	ErrAlreadyRecorded      = errors.New("royalty fee already recorded")
	ErrNotFound             = errors.New("platform fee record not found")
)
