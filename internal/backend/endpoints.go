package backend

import (
	"context"
	"net/http"

	"github.com/odyssey-erp/receiving/internal/inward"
	"github.com/odyssey-erp/receiving/internal/pricing"
	"github.com/odyssey-erp/receiving/internal/receiving"
)

// LoadRules fetches the round-off rule records. It satisfies
// pricing.RuleSource.
func (c *Client) LoadRules(ctx context.Context) ([]pricing.RuleRecord, error) {
	return call[[]pricing.RuleRecord](ctx, c, request{
		op:       "load round-off rules",
		method:   http.MethodGet,
		path:     []string{"settings", "round-off"},
		fallback: "Failed to load round-off settings",
	})
}

// Labels fetches one master attribute list.
func (c *Client) Labels(ctx context.Context, kind receiving.LabelKind) ([]receiving.Label, error) {
	return call[[]receiving.Label](ctx, c, request{
		op:       "load " + string(kind),
		method:   http.MethodGet,
		path:     []string{"masters", string(kind)},
		fallback: "Failed to load " + string(kind),
	})
}

// SaveGRN creates a goods receipt note.
func (c *Client) SaveGRN(ctx context.Context, payload receiving.SavePayload, idempotencyKey string) (receiving.SaveResult, error) {
	return call[receiving.SaveResult](ctx, c, request{
		op:             "save grn",
		method:         http.MethodPost,
		path:           []string{"grn"},
		body:           payload,
		idempotencyKey: idempotencyKey,
		fallback:       "Failed to save GRN",
	})
}

// SaveBundleInward records bills received against a purchase order.
func (c *Client) SaveBundleInward(ctx context.Context, payload inward.SavePayload, idempotencyKey string) (inward.SaveResult, error) {
	return call[inward.SaveResult](ctx, c, request{
		op:             "save bundle inward",
		method:         http.MethodPost,
		path:           []string{"bundle-inward"},
		body:           payload,
		idempotencyKey: idempotencyKey,
		fallback:       "Failed to save bundle inward",
	})
}
