package utils

import (
	"strconv"
	"strings"
	"time"
)

// ConnectionOptions параметры подключения к PostgreSQL для пула pgx
type ConnectionOptions struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
	PoolSize int
	Timeout  time.Duration
}

// GenerateConnectionString собирает DSN в формате key=value.
// PoolSize > 0 передается пулу pgx через pool_max_conns.
func GenerateConnectionString(opts ConnectionOptions) (string, error) {
	var conStr strings.Builder

	if opts.Host == "" {
		return "", ErrStorageEmptyHostName
	}
	if opts.Port <= 0 || opts.Port > 65535 {
		return "", ErrStorageInvalidPortNumber
	}
	if opts.User == "" {
		return "", ErrStorageEmptyUsername
	}
	if opts.Password == "" {
		return "", ErrStorageEmptyPassword
	}
	if opts.DBName == "" {
		return "", ErrStorageInvalidDatabaseName
	}
	switch opts.SSLMode {
	case "disable", "allow", "prefer", "require", "verify-ca", "verify-full":
	default:
		return "", ErrStorageInvalidSslMode
	}
	if opts.Timeout < 0 {
		return "", ErrStorageInvalidTimeout
	}
	if opts.PoolSize < 0 {
		return "", ErrStorageInvalidPoolSize
	}

	conStr.WriteString("host=")
	conStr.WriteString(opts.Host)
	conStr.WriteString(" port=")
	conStr.WriteString(strconv.Itoa(opts.Port))
	conStr.WriteString(" user=")
	conStr.WriteString(opts.User)
	conStr.WriteString(" password=")
	conStr.WriteString(opts.Password)
	conStr.WriteString(" dbname=")
	conStr.WriteString(opts.DBName)
	conStr.WriteString(" sslmode=")
	conStr.WriteString(opts.SSLMode)

	if opts.Timeout > 0 {
		conStr.WriteString(" connect_timeout=")
		conStr.WriteString(strconv.Itoa(int(opts.Timeout.Seconds())))
	}
	if opts.PoolSize > 0 {
		conStr.WriteString(" pool_max_conns=")
		conStr.WriteString(strconv.Itoa(opts.PoolSize))
	}

	return conStr.String(), nil
}
