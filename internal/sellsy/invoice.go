package sellsy

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/billhive/subsync/internal/domain/invoice"
	ierr "github.com/billhive/subsync/internal/errors"
)

type invoiceLine struct {
	Type       string `json:"type"`
	Label      string `json:"label"`
	UnitAmount string `json:"unit_amount"`
	Quantity   int    `json:"quantity"`
	TaxID      int64  `json:"tax_id"`
	Unit       string `json:"unit,omitempty"`
	ItemID     int64  `json:"item_id,omitempty"`
}

type createInvoiceRequest struct {
	CompanyID        int64         `json:"company_id"`
	Currency         string        `json:"currency"`
	Subject          string        `json:"subject"`
	Reference        string        `json:"reference,omitempty"`
	Note             string        `json:"note,omitempty"`
	PaymentMethodIDs []int64       `json:"payment_method_ids,omitempty"`
	Lines            []invoiceLine `json:"lines"`
}

// CreateInvoice submits a draft invoice: one item line per subscription plus
// a negative amount discount line for each discounted item. The group's
// idempotency reference is sent both as the document reference and as an
// idempotency header so platform side retries deduplicate.
func (c *Client) CreateInvoice(ctx context.Context, draft *invoice.Draft) (string, error) {
	companyID, err := strconv.ParseInt(draft.ClientID, 10, 64)
	if err != nil {
		return "", ierr.WithError(err).
			WithHintf("Client id %q is not a valid billing platform company id", draft.ClientID).
			Mark(ierr.ErrValidation)
	}

	taxID, err := c.TaxRateID(ctx)
	if err != nil {
		return "", err
	}

	paymentMethodID, err := c.PaymentMethodID(ctx)
	if err != nil {
		return "", err
	}

	lines := make([]invoiceLine, 0, 2*len(draft.Lines))
	for _, li := range draft.Lines {
		itemID, err := strconv.ParseInt(li.ItemID, 10, 64)
		if err != nil {
			return "", ierr.WithError(err).
				WithHintf("Item id %q is not a valid billing platform item id", li.ItemID).
				Mark(ierr.ErrValidation)
		}

		lines = append(lines, invoiceLine{
			Type:       "standard",
			Label:      li.Label,
			UnitAmount: li.UnitAmount.StringFixed(2),
			Quantity:   li.Quantity,
			TaxID:      taxID,
			Unit:       li.Unit,
			ItemID:     itemID,
		})

		if li.HasDiscount() {
			lines = append(lines, invoiceLine{
				Type:       "standard",
				Label:      li.DiscountLabel,
				UnitAmount: li.DiscountAmount.Neg().StringFixed(2),
				Quantity:   1,
				TaxID:      taxID,
			})
		}
	}

	req := createInvoiceRequest{
		CompanyID: companyID,
		Currency:  "EUR",
		Subject:   draft.Subject,
		Reference: draft.Reference,
		Note:      "Facture générée automatiquement",
		Lines:     lines,
	}
	if paymentMethodID != 0 {
		req.PaymentMethodIDs = []int64{paymentMethodID}
	}

	headers := map[string]string{
		"X-Idempotency-Key": draft.Reference,
	}

	var result struct {
		ID json.Number `json:"id"`
	}
	if err := c.request(ctx, http.MethodPost, "/invoices", req, headers, &result); err != nil {
		return "", err
	}

	if result.ID.String() == "" {
		return "", ierr.NewError("invoice creation returned no id").
			Mark(ierr.ErrHTTPClient)
	}
	return result.ID.String(), nil
}

// FinalizeInvoice validates a draft invoice with an explicit document date,
// making it billable.
func (c *Client) FinalizeInvoice(ctx context.Context, invoiceID string, date time.Time) error {
	body := map[string]string{
		"date": date.Format("2006-01-02"),
	}
	return c.request(ctx, http.MethodPost, invoicePath(invoiceID)+"/validate", body, nil, nil)
}

// SendInvoiceEmail asks the platform to email the invoice to the client
func (c *Client) SendInvoiceEmail(ctx context.Context, invoiceID string) error {
	return c.request(ctx, http.MethodPost, invoicePath(invoiceID)+"/send", struct{}{}, nil, nil)
}
