package messaging

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"duetrack/internal/bootstrap/logging"
	"duetrack/internal/errs"
)

// Connect dials the broker with reconnects enabled. Disconnects after the
// first successful dial are logged and retried by the client.
func Connect(ctx context.Context, url string, clientName string) (*nats.Conn, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, errors.New("nats url is required")
	}

	logCtx := logging.WithComponent(ctx, "messaging.nats")
	conn, err := nats.Connect(url,
		nats.Name(clientName),
		nats.Timeout(5*time.Second),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logging.Warn(logCtx, "nats disconnected", slog.Any("err", errs.Loggable(err)))
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logging.Info(logCtx, "nats reconnected", slog.String("url", c.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, errs.Wrapf(err, "connect nats %s", url)
	}

	logging.Info(logCtx, "nats connected", slog.String("url", conn.ConnectedUrl()))
	return conn, nil
}
