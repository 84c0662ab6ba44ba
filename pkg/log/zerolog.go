package log

import (
	"io"

	mlerrors "github.com/YuminosukeSato/fraudflow/pkg/errors"
	"github.com/rs/zerolog"
)

// EnableZerologWarnings routes errors.Warn through a zerolog logger writing
// JSON lines to w. Warnings implementing zerolog.LogObjectMarshaler have
// their structured fields embedded in the event.
func EnableZerologWarnings(w io.Writer) zerolog.Logger {
	zl := zerolog.New(w).With().Timestamp().Str(ComponentKey, "warnings").Logger()
	mlerrors.SetZerologWarnFunc(func(warning error) {
		ev := zl.Warn()
		if obj, ok := warning.(zerolog.LogObjectMarshaler); ok {
			ev = ev.EmbedObject(obj)
		}
		ev.Msg(warning.Error())
	})
	return zl
}

// DisableZerologWarnings restores the plain warning handler.
func DisableZerologWarnings() {
	mlerrors.SetZerologWarnFunc(nil)
}
