package logger

import (
	"time"

	"go.uber.org/zap"
)

// Field is a single structured logging field
type Field = zap.Field

func String(key string, val string) Field {
	return zap.String(key, val)
}

func Strings(key string, val []string) Field {
	return zap.Strings(key, val)
}

func Int(key string, val int) Field {
	return zap.Int(key, val)
}

func Int64(key string, val int64) Field {
	return zap.Int64(key, val)
}

func Float64(key string, val float64) Field {
	return zap.Float64(key, val)
}

func Bool(key string, val bool) Field {
	return zap.Bool(key, val)
}

func Duration(key string, val time.Duration) Field {
	return zap.Duration(key, val)
}

// Any takes a key and an arbitrary value and chooses the best way to represent them as a field
func Any(key string, val interface{}) Field {
	return zap.Any(key, val)
}

// Error is shorthand for the common idiom Any("error", err)
func Error(err error) Field {
	return zap.Error(err)
}
