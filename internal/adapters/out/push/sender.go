// Package push implements the NotificationSender port over an HTTP push
// gateway (an FCM-style endpoint). Delivery is best effort: the dispatch
// state machine never depends on a push arriving.
package push

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"dispatch/internal/core/domain/model/courier"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/ports"
)

const defaultHTTPTimeout = 5 * time.Second

// Sender posts push messages to a gateway endpoint. Couriers are addressed
// by their registered push token; customers by their id, which the gateway
// resolves to the customer's devices.
type Sender struct {
	gatewayURL string
	apiKey     string
	client     *http.Client
	logger     *slog.Logger
}

// NewSender creates a push sender against the given gateway URL.
func NewSender(gatewayURL, apiKey string, logger *slog.Logger) *Sender {
	return &Sender{
		gatewayURL: gatewayURL,
		apiKey:     apiKey,
		client:     &http.Client{Timeout: defaultHTTPTimeout},
		logger:     logger.With("component", "push_sender"),
	}
}

type pushMessage struct {
	To   string         `json:"to"`
	Type string         `json:"type"`
	Data map[string]any `json:"data"`
}

// NotifyCourierOffer pushes a new-order offer to the courier's device.
// Couriers without a push token are skipped; they poll for offers instead.
func (s *Sender) NotifyCourierOffer(ctx context.Context, c *courier.Courier, summary ports.OrderSummary) error {
	if c.PushToken() == "" {
		s.logger.DebugContext(ctx, "courier has no push token, skipping offer push",
			"courier_id", c.ID().String())
		return nil
	}

	return s.post(ctx, pushMessage{
		To:   c.PushToken(),
		Type: "NEW_ORDER_OFFER",
		Data: map[string]any{
			"orderId":    summary.OrderID.String(),
			"distanceKm": summary.DistanceKm,
			"etaMinutes": summary.EtaMinutes,
			"earnings":   summary.Earnings.String(),
		},
	})
}

// NotifyCourierOfferExpired tells the courier their offer window elapsed.
func (s *Sender) NotifyCourierOfferExpired(ctx context.Context, c *courier.Courier, orderID kernel.UUID) error {
	if c.PushToken() == "" {
		return nil
	}

	return s.post(ctx, pushMessage{
		To:   c.PushToken(),
		Type: "ORDER_OFFER_EXPIRED",
		Data: map[string]any{
			"orderId": orderID.String(),
		},
	})
}

// NotifyCustomer pushes an order event to the customer's devices.
func (s *Sender) NotifyCustomer(ctx context.Context, customerID kernel.UUID, event ports.CustomerEvent) error {
	return s.post(ctx, pushMessage{
		To:   customerID.String(),
		Type: event.Kind,
		Data: map[string]any{
			"orderId": event.OrderID.String(),
			"status":  event.Status.String(),
		},
	})
}

func (s *Sender) post(ctx context.Context, message pushMessage) error {
	payload, err := json.Marshal(message)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.gatewayURL, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("push gateway request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("push gateway returned status %d", resp.StatusCode)
	}

	return nil
}
