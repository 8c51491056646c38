// Package payments abstracts the external payment gateway. The marketplace
// charges a provider's stored payment method at purchase time and refunds
// when a charge succeeds but the purchase loses the admission race.
package payments

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

var (
	// ErrPaymentDeclined is returned when the gateway rejects a charge
	ErrPaymentDeclined = errors.New("payment declined")

	// ErrNotImplemented is returned by the stub gateway
	ErrNotImplemented = errors.New("payment processing not yet implemented")
)

// Gateway defines the interface for the payment collaborator.
type Gateway interface {
	// Charge bills the provider and returns a gateway reference on success.
	Charge(ctx context.Context, providerID string, amountCents int64, method string) (string, error)
	// Refund reverses a prior charge by reference.
	Refund(ctx context.Context, ref string) error
}

// StubGateway rejects everything; it stands in until the real processor
// client lands. It holds the provider API key so a deployment missing the
// key fails with a configuration error rather than a generic one.
type StubGateway struct {
	apiKey string
}

// NewStubGateway creates a gateway that declines all charges.
func NewStubGateway(apiKey string) *StubGateway {
	return &StubGateway{apiKey: apiKey}
}

// Charge always fails.
func (s *StubGateway) Charge(ctx context.Context, providerID string, amountCents int64, method string) (string, error) {
	if s.apiKey == "" {
		return "", fmt.Errorf("%w: payment provider key not configured", ErrNotImplemented)
	}
	return "", ErrNotImplemented
}

// Refund always fails.
func (s *StubGateway) Refund(ctx context.Context, ref string) error {
	if s.apiKey == "" {
		return fmt.Errorf("%w: payment provider key not configured", ErrNotImplemented)
	}
	return ErrNotImplemented
}

// ChargeRecord is one call the fake gateway observed.
type ChargeRecord struct {
	ProviderID  string
	AmountCents int64
	Method      string
	Ref         string
}

// FakeGateway approves charges by default and records everything. Tests and
// demo mode drive failure behavior via DeclineAll or per-provider declines.
type FakeGateway struct {
	mu         sync.Mutex
	DeclineAll bool
	declines   map[string]bool
	charges    []ChargeRecord
	refunds    []string
}

// NewFakeGateway creates an approving fake gateway.
func NewFakeGateway() *FakeGateway {
	return &FakeGateway{declines: make(map[string]bool)}
}

// DeclineFor makes every charge from the given provider fail.
func (g *FakeGateway) DeclineFor(providerID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.declines[providerID] = true
}

// Charge approves unless configured to decline, and records the call.
func (g *FakeGateway) Charge(ctx context.Context, providerID string, amountCents int64, method string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("payments: charge aborted: %w", err)
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.DeclineAll || g.declines[providerID] {
		return "", ErrPaymentDeclined
	}
	ref := "fake-" + uuid.NewString()
	g.charges = append(g.charges, ChargeRecord{
		ProviderID:  providerID,
		AmountCents: amountCents,
		Method:      method,
		Ref:         ref,
	})
	return ref, nil
}

// Refund records the reversal.
func (g *FakeGateway) Refund(ctx context.Context, ref string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.refunds = append(g.refunds, ref)
	return nil
}

// Charges returns a copy of the recorded charges.
func (g *FakeGateway) Charges() []ChargeRecord {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]ChargeRecord(nil), g.charges...)
}

// Refunds returns a copy of the recorded refund references.
func (g *FakeGateway) Refunds() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.refunds...)
}
