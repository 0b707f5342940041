package biz

import "errors"

// Sentinel errors returned by repositories. Use cases translate these
// into coded application errors per entity.
var (
	ErrNotFound      = errors.New("record not found")
	ErrDuplicateName = errors.New("duplicate name")
)
