package domain

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrDuplicateReference = errors.New("duplicate reference")
	ErrGenerationFailed   = errors.New("catalog generation failed")
	ErrReferenceNotFound  = errors.New("reference expired or unknown")
	ErrUploadFailed       = errors.New("durable upload failed")
	ErrEnqueueFailed      = errors.New("delivery enqueue failed")
)
