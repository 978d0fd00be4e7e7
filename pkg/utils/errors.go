package utils

import "errors"

var (
	// ErrCursorStalled - сервер повторил уже использованный курсор
	ErrCursorStalled = errors.New("pagination cursor did not advance")
	// ErrPageLimitExceeded - превышено максимальное число страниц
	ErrPageLimitExceeded = errors.New("pagination page limit exceeded")
)
