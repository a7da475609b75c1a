package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/yigit/photoshare/internal/app/models/dto"
)

// Subscriber receives push events from the server's websocket endpoint
type Subscriber struct {
	url    string
	header http.Header
	dialer *websocket.Dialer
	logger zerolog.Logger
}

// NewSubscriber creates a Subscriber for url. token may be empty for an
// anonymous subscription.
func NewSubscriber(url, token string, logger zerolog.Logger) *Subscriber {
	header := http.Header{}
	if token != "" {
		header.Set("Authorization", "Bearer "+token)
	}
	return &Subscriber{
		url:    url,
		header: header,
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: 10 * time.Second,
		},
		logger: logger,
	}
}

// Events dials the server and streams decoded events. The channel is closed
// when the connection ends or ctx is done; reconnecting is up to the caller.
func (s *Subscriber) Events(ctx context.Context) (<-chan dto.Event, error) {
	conn, _, err := s.dialer.DialContext(ctx, s.url, s.header)
	if err != nil {
		return nil, err
	}

	out := make(chan dto.Event, 64)
	stop := make(chan struct{})

	go func() {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second))
			conn.Close()
		case <-stop:
		}
	}()

	go func() {
		defer close(out)
		defer close(stop)
		defer conn.Close()
		for {
			_, r, err := conn.NextReader()
			if err != nil {
				if ctx.Err() == nil && !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					s.logger.Warn().Err(err).Msg("Event stream closed")
				}
				return
			}
			// The server batches queued events into one frame, newline separated.
			dec := json.NewDecoder(r)
			for {
				var ev dto.Event
				if err := dec.Decode(&ev); err != nil {
					if !errors.Is(err, io.EOF) {
						s.logger.Warn().Err(err).Msg("Dropping undecodable frame")
					}
					break
				}
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}
