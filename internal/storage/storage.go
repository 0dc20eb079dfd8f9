package storage

import "errors"

var (
	ErrUserExists   = errors.New("user already exists")
	ErrUserNotFound = errors.New("user not found")
	ErrNotFound     = errors.New("entity not found")
	ErrInternal     = errors.New("internal storage error")
)
