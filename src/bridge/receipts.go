package bridge

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	logger "github.com/sirupsen/logrus"
)

const receiptReconnectDelay = 5 * time.Second

// ReceiptHandler consumes one delivery receipt. Implemented by the engine
// to move dispatch ids from the pending ring into the completed or failed
// ring.
type ReceiptHandler func(Receipt)

// ReceiptListener keeps a websocket subscription to the router's delivery
// receipt stream and forwards each receipt to the handler. Reconnects with
// a fixed delay until the context is cancelled.
type ReceiptListener struct {
	url     string
	handler ReceiptHandler
	dialer  *websocket.Dialer
}

func NewReceiptListener(url string, handler ReceiptHandler) *ReceiptListener {
	return &ReceiptListener{
		url:     url,
		handler: handler,
		dialer:  websocket.DefaultDialer,
	}
}

// Run blocks until ctx is cancelled.
func (l *ReceiptListener) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}

		if err := l.readLoop(ctx); err != nil {
			logger.WithFields(map[string]interface{}{
				"component": "ReceiptListener",
				"url":       l.url,
			}).WithError(err).Warn("Receipt stream dropped, will reconnect")
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(receiptReconnectDelay):
		}
	}
}

func (l *ReceiptListener) readLoop(ctx context.Context) error {
	conn, _, err := l.dialer.DialContext(ctx, l.url, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	logger.WithField("url", l.url).Info("Receipt stream connected")

	// Unblock ReadMessage when the context ends.
	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		var receipt Receipt
		if err := json.Unmarshal(raw, &receipt); err != nil {
			logger.WithError(err).Warn("Skipping malformed receipt frame")
			continue
		}

		if receipt.DispatchID == "" {
			continue
		}

		l.handler(receipt)
	}
}
