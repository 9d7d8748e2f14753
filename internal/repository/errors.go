package repository

import "errors"

var (
	ErrNotFound     = errors.New("gallery item not found")
	ErrUserNotFound = errors.New("user not found")
	ErrInvalidInput = errors.New("invalid input")
)
