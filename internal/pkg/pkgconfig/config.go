package pkgconfig

import (
	"io"
	"time"
)

// Config is the read-only view of configuration the application depends on.
type Config interface {
	GetInt(key string) int64
	GetBool(key string) bool
	GetFloat(key string) float64
	GetString(key string) string
	GetBinary(key string) []byte
	GetArray(key string) []string
	GetMap(key string) map[string]string
	GetDuration(key string) time.Duration
	io.Closer
}

var _ Config = (*Viper)(nil)
