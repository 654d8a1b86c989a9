package sl

import (
	"log/slog"
)

// Err returns slog attribute for an error.
func Err(err error) slog.Attr {
	return slog.Attr{
		Key:   "error",
		Value: slog.StringValue(err.Error()),
	}
}
