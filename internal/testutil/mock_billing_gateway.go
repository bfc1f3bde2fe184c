package testutil

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/billhive/subsync/internal/domain/invoice"
)

// MockBillingGateway implements invoice.Gateway, recording every call and
// returning scripted failures.
type MockBillingGateway struct {
	mu sync.Mutex

	Created   []*invoice.Draft
	Finalized []string
	Emailed   []string

	// CreateErrFor fails invoice creation for the given client ids
	CreateErrFor map[string]error
	// FinalizeErr, when set, fails every finalize call
	FinalizeErr error
	// SendErr, when set, fails every email send call
	SendErr error

	nextID int
}

// NewMockBillingGateway creates a new scripted gateway
func NewMockBillingGateway() *MockBillingGateway {
	return &MockBillingGateway{
		CreateErrFor: make(map[string]error),
	}
}

// CreateInvoice records the draft and returns a server style id
func (g *MockBillingGateway) CreateInvoice(_ context.Context, draft *invoice.Draft) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err, ok := g.CreateErrFor[draft.ClientID]; ok {
		return "", err
	}

	g.nextID++
	g.Created = append(g.Created, draft)
	return fmt.Sprintf("inv_%d", g.nextID), nil
}

// FinalizeInvoice records the finalize call
func (g *MockBillingGateway) FinalizeInvoice(_ context.Context, invoiceID string, _ time.Time) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.FinalizeErr != nil {
		return g.FinalizeErr
	}
	g.Finalized = append(g.Finalized, invoiceID)
	return nil
}

// SendInvoiceEmail records the email call
func (g *MockBillingGateway) SendInvoiceEmail(_ context.Context, invoiceID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.SendErr != nil {
		return g.SendErr
	}
	g.Emailed = append(g.Emailed, invoiceID)
	return nil
}

// Clear resets all recorded calls and scripted failures
func (g *MockBillingGateway) Clear() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Created = nil
	g.Finalized = nil
	g.Emailed = nil
	g.CreateErrFor = make(map[string]error)
	g.FinalizeErr = nil
	g.SendErr = nil
	g.nextID = 0
}
