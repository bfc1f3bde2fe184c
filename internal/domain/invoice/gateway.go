package invoice

import (
	"context"
	"time"
)

// Gateway is the billing platform surface used by the sync driver
type Gateway interface {
	// CreateInvoice submits a draft invoice and returns the server assigned id
	CreateInvoice(ctx context.Context, draft *Draft) (string, error)

	// FinalizeInvoice transitions a draft invoice to a validated, billable
	// state with an explicit document date
	FinalizeInvoice(ctx context.Context, invoiceID string, date time.Time) error

	// SendInvoiceEmail asks the platform to email the invoice to the client
	SendInvoiceEmail(ctx context.Context, invoiceID string) error
}
