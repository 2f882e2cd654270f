package store

import "errors"

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrBookNotFound    = errors.New("book not found")
	ErrDuplicateReview = errors.New("user already reviewed this book")
)
