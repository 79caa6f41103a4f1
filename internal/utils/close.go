package utils

import (
	"io"

	"github.com/MrSnakeDoc/seatwatch/internal/logger"
)

// maxDrain bounds how much of an unread response body is discarded before closing.
const maxDrain = 64 << 10

// DrainClose discards what is left of an HTTP response body, up to maxDrain
// bytes, and closes it so the transport can reuse the connection.
func DrainClose(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, io.LimitReader(body, maxDrain))
	_ = body.Close()
}

// MustClose closes c and logs any error against component ("redis", ...).
func MustClose(c io.Closer, component string, log logger.Logger) {
	if err := c.Close(); err != nil {
		log.Warn("failed to close", logger.String("component", component), logger.Error(err))
	}
}
