package fulfillment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log"
	"strings"

	"github.com/workstaion27-png/EliteDrops-Ecommerce-Platform-sub002/internal/apperr"
	"github.com/workstaion27-png/EliteDrops-Ecommerce-Platform-sub002/internal/order"
	"github.com/workstaion27-png/EliteDrops-Ecommerce-Platform-sub002/internal/provider"
)

const (
	CodeBadSignature      = "INVALID_SIGNATURE"
	CodeReferenceMismatch = "REFERENCE_MISMATCH"
)

var signatureHeaders = map[string]string{
	provider.CJ:        "X-CJ-Signature",
	provider.Zendrop:   "X-Zendrop-Signature",
	provider.AppScenic: "X-AppScenic-Signature",
}

// SignatureHeader is the request header a provider signs its pushes in.
func SignatureHeader(providerName string) string {
	if h, ok := signatureHeaders[strings.ToLower(providerName)]; ok {
		return h
	}
	return "X-Signature"
}

// Sign returns the hex HMAC-SHA256 of payload, the form providers send.
func Sign(secret string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// eventStatus maps push event names onto order statuses. order.updated
// carries the status in its payload instead.
var eventStatus = map[string]order.Status{
	"order.created":    order.StatusProcessing,
	"order.processing": order.StatusProcessing,
	"order.shipped":    order.StatusShipped,
	"order.delivered":  order.StatusDelivered,
	"order.cancelled":  order.StatusCancelled,
	"order.canceled":   order.StatusCancelled,
}

// pushEvent covers both payload shapes: CJ sends type + cj_order_id,
// Zendrop and AppScenic send event + a numeric order_id.
type pushEvent struct {
	Type  string `json:"type"`
	Event string `json:"event"`
	Data  struct {
		CJOrderID      json.RawMessage `json:"cj_order_id"`
		OrderID        json.RawMessage `json:"order_id"`
		OrderNumber    string          `json:"order_number"`
		Status         string          `json:"status"`
		TrackingNumber string          `json:"tracking_number"`
		Carrier        string          `json:"carrier"`
	} `json:"data"`
}

func (e *pushEvent) name() string {
	if e.Type != "" {
		return strings.ToLower(e.Type)
	}
	return strings.ToLower(e.Event)
}

func (e *pushEvent) providerOrderID() string {
	if id := rawID(e.Data.CJOrderID); id != "" {
		return id
	}
	return rawID(e.Data.OrderID)
}

// rawID accepts ids sent either as JSON strings or numbers.
func rawID(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return strings.TrimSpace(s)
	}
	var n json.Number
	if json.Unmarshal(raw, &n) == nil {
		return n.String()
	}
	return ""
}

// PushResult reports what a provider push did to the local order.
type PushResult struct {
	Provider string `json:"provider"`
	Event    string `json:"event"`
	// Handled is false for events that do not concern orders.
	Handled bool `json:"handled"`
	*StatusSync
}

// Pushes applies order events providers push to us.
type Pushes struct {
	svc     *Service
	secrets map[string]string
}

// NewPushes verifies each provider's pushes with its shared secret. A
// provider without a secret has its pushes rejected.
func NewPushes(svc *Service, secrets map[string]string) *Pushes {
	norm := make(map[string]string, len(secrets))
	for k, v := range secrets {
		norm[strings.ToLower(k)] = v
	}
	return &Pushes{svc: svc, secrets: norm}
}

func (h *Pushes) verify(providerName string, payload []byte, signature string) error {
	secret := h.secrets[providerName]
	if secret == "" {
		return apperr.Validation("webhook secret for %s is not configured", providerName)
	}
	sig := strings.TrimPrefix(strings.TrimSpace(signature), "sha256=")
	got, err := hex.DecodeString(sig)
	if err != nil || sig == "" {
		return apperr.ValidationCode(CodeBadSignature, "invalid %s webhook signature", providerName)
	}
	want, _ := hex.DecodeString(Sign(secret, payload))
	if !hmac.Equal(got, want) {
		return apperr.ValidationCode(CodeBadSignature, "invalid %s webhook signature", providerName)
	}
	return nil
}

// Handle verifies a push from providerName and advances the matching order.
// The order is found by provider order id, falling back to our order number.
// A status the order cannot reach is recorded as unchanged, not an error.
func (h *Pushes) Handle(ctx context.Context, providerName string, payload []byte, signature string) (*PushResult, error) {
	p, err := h.svc.providers.Get(providerName)
	if err != nil {
		return nil, err
	}
	name := p.Name()
	if err := h.verify(name, payload, signature); err != nil {
		return nil, err
	}

	var ev pushEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		return nil, apperr.Validation("decode %s webhook: %v", name, err)
	}
	res := &PushResult{Provider: name, Event: ev.name()}

	st := &provider.OrderStatus{Raw: ev.Data.Status, TrackingNumber: ev.Data.TrackingNumber, Carrier: ev.Data.Carrier}
	if s, ok := eventStatus[res.Event]; ok {
		st.Status = s
		if st.Raw == "" {
			st.Raw = res.Event
		}
	} else if res.Event == "order.updated" {
		st.Status, _ = provider.MapStatus(ev.Data.Status)
	} else {
		log.Printf("[fulfillment] %s webhook %s ignored", name, res.Event)
		return res, nil
	}

	ref := ev.providerOrderID()
	o, err := h.find(ctx, name, ref, ev.Data.OrderNumber)
	if err != nil {
		return nil, err
	}

	sync, err := h.svc.reconcile(ctx, o, st, name, ref)
	if err != nil {
		return nil, err
	}
	res.Handled, res.StatusSync = true, sync
	log.Printf("[fulfillment] %s webhook %s for order %s: %s -> %s (changed=%t)",
		name, res.Event, o.OrderNumber, sync.Previous, sync.Order.Status, sync.Changed)
	return res, nil
}

func (h *Pushes) find(ctx context.Context, providerName, ref, orderNumber string) (*order.Order, error) {
	if ref == "" && orderNumber == "" {
		return nil, apperr.Validation("%s webhook carries no order reference", providerName)
	}
	if ref != "" {
		o, err := h.svc.orders.GetByProviderOrder(ctx, providerName, ref)
		if err == nil || !errors.Is(err, apperr.ErrNotFound) || orderNumber == "" {
			return o, err
		}
	}
	o, err := h.svc.orders.GetByNumber(ctx, orderNumber)
	if err != nil {
		return nil, err
	}
	if o.Linked() && (o.Provider != providerName || (ref != "" && o.ProviderOrderID != ref)) {
		return nil, apperr.ValidationCode(CodeReferenceMismatch,
			"order %s is linked to %s order %s", o.OrderNumber, o.Provider, o.ProviderOrderID)
	}
	return o, nil
}
