package utils

import "errors"

// ----------------- storage ------------------
var (
	ErrStorageEmptyHostName       = errors.New("host name is empty")
	ErrStorageInvalidPortNumber   = errors.New("port number is invalid")
	ErrStorageEmptyUsername       = errors.New("username is empty")
	ErrStorageEmptyPassword       = errors.New("password is empty")
	ErrStorageInvalidDatabaseName = errors.New("database name is empty")
	ErrStorageInvalidSslMode      = errors.New("SSL mode is invalid")
	ErrStorageInvalidPoolSize     = errors.New("pool size is invalid")
	ErrStorageInvalidTimeout      = errors.New("timeout is invalid")
)

// ----------------- ozon client ------------------
var (
	// ErrRequestExhausted - исчерпаны попытки при временных ошибках (429/5xx)
	ErrRequestExhausted = errors.New("request exhausted")
	// ErrRequestFailed - постоянная ошибка API, повтор не выполняется
	ErrRequestFailed = errors.New("request failed")
)

// ----------------- harvest ------------------
var (
	ErrExtractionFailed     = errors.New("no record list found in response")
	ErrReconciliationFailed = errors.New("reconciliation failed")
	ErrRunInProgress        = errors.New("harvest run already in progress")
	ErrRunNotFound          = errors.New("harvest run not found")
)
