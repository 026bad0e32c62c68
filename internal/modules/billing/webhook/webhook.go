// Package webhook normalizes purchase notifications from the payment provider. Two payload
// shapes are accepted: the flat v1 body and the nested v2 body with a "data" object.
package webhook

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const (
	VersionV1 = "v1"
	VersionV2 = "v2"
)

var ErrMissingFields = errors.New("product id and buyer email are required")

// Event is the provider-independent view of a purchase notification.
type Event struct {
	Version           string
	ProductExternalID string
	ProductName       string
	Email             string
	Name              string
	Status            string
	TransactionID     string
	Raw               json.RawMessage
}

// Validate reports ErrMissingFields when the event cannot be mapped to a user and product.
func (e Event) Validate() error {
	if e.ProductExternalID == "" || e.Email == "" {
		return ErrMissingFields
	}
	return nil
}

// DedupKey identifies one delivery of a purchase. Without a transaction id the
// (product, email) pair is used.
func (e Event) DedupKey() string {
	if e.TransactionID != "" {
		return "txn:" + e.TransactionID
	}
	return "pair:" + e.ProductExternalID + ":" + e.Email
}

var approvedStatuses = map[string]struct{}{
	"approved":           {},
	"complete":           {},
	"completed":          {},
	"paid":               {},
	"purchase_approved":  {},
	"purchase_complete":  {},
	"purchase_completed": {},
}

func IsApproved(status string) bool {
	_, ok := approvedStatuses[strings.ToLower(strings.TrimSpace(status))]
	return ok
}

// flexString decodes JSON strings and numbers alike; null and other kinds decode to "".
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	switch b[0] {
	case '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		var n json.Number
		if err := json.Unmarshal(b, &n); err != nil {
			return err
		}
		if i, err := strconv.ParseInt(n.String(), 10, 64); err == nil {
			*f = flexString(strconv.FormatInt(i, 10))
		} else {
			*f = flexString(n.String())
		}
	default:
		*f = ""
	}
	return nil
}

func (f flexString) String() string { return strings.TrimSpace(string(f)) }

type v1Payload struct {
	ProductID     flexString `json:"product_id"`
	Prod          flexString `json:"prod"`
	Email         flexString `json:"email"`
	BuyerEmail    flexString `json:"buyer_email"`
	Name          flexString `json:"name"`
	Status        flexString `json:"status"`
	Transaction   flexString `json:"transaction"`
	TransactionID flexString `json:"transaction_id"`
}

type v2Payload struct {
	Event flexString `json:"event"`
	Data  *struct {
		Product struct {
			ID   flexString `json:"id"`
			Name flexString `json:"name"`
		} `json:"product"`
		Buyer struct {
			Email flexString `json:"email"`
			Name  flexString `json:"name"`
		} `json:"buyer"`
		Purchase struct {
			Status      flexString `json:"status"`
			Transaction flexString `json:"transaction"`
		} `json:"purchase"`
	} `json:"data"`
}

// Normalize parses raw into an Event. It fails only on malformed JSON; missing fields are
// reported by Validate.
func Normalize(raw []byte) (Event, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '{' {
		return Event{}, fmt.Errorf("webhook body must be a JSON object")
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return Event{}, fmt.Errorf("decode webhook body: %w", err)
	}

	if data, ok := envelope["data"]; ok && isObject(data) {
		var p v2Payload
		if err := json.Unmarshal(raw, &p); err != nil {
			return Event{}, fmt.Errorf("decode v2 webhook: %w", err)
		}
		status := p.Data.Purchase.Status.String()
		if status == "" {
			status = p.Event.String()
		}
		return Event{
			Version:           VersionV2,
			ProductExternalID: p.Data.Product.ID.String(),
			ProductName:       p.Data.Product.Name.String(),
			Email:             normalizeEmail(p.Data.Buyer.Email.String()),
			Name:              p.Data.Buyer.Name.String(),
			Status:            strings.ToLower(status),
			TransactionID:     p.Data.Purchase.Transaction.String(),
			Raw:               json.RawMessage(raw),
		}, nil
	}

	var p v1Payload
	if err := json.Unmarshal(raw, &p); err != nil {
		return Event{}, fmt.Errorf("decode v1 webhook: %w", err)
	}
	return Event{
		Version:           VersionV1,
		ProductExternalID: firstNonEmpty(p.ProductID.String(), p.Prod.String()),
		Email:             normalizeEmail(firstNonEmpty(p.Email.String(), p.BuyerEmail.String())),
		Name:              p.Name.String(),
		Status:            strings.ToLower(p.Status.String()),
		TransactionID:     firstNonEmpty(p.Transaction.String(), p.TransactionID.String()),
		Raw:               json.RawMessage(raw),
	}, nil
}

func isObject(b json.RawMessage) bool {
	b = bytes.TrimSpace(b)
	return len(b) > 0 && b[0] == '{'
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
