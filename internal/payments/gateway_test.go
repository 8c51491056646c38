package payments

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestFakeGatewayApprovesAndRecords(t *testing.T) {
	g := NewFakeGateway()
	ref, err := g.Charge(context.Background(), "prov-1", 5400, "card")
	if err != nil {
		t.Fatalf("Charge: %v", err)
	}
	if ref == "" {
		t.Error("approved charge must return a reference")
	}

	charges := g.Charges()
	if len(charges) != 1 || charges[0].AmountCents != 5400 || charges[0].Method != "card" {
		t.Errorf("recorded charges = %+v", charges)
	}
}

func TestFakeGatewayDeclines(t *testing.T) {
	g := NewFakeGateway()
	g.DeclineFor("deadbeat")

	if _, err := g.Charge(context.Background(), "deadbeat", 100, "card"); err != ErrPaymentDeclined {
		t.Errorf("err = %v, want ErrPaymentDeclined", err)
	}
	if len(g.Charges()) != 0 {
		t.Error("declined charge must not be recorded")
	}

	g.DeclineAll = true
	if _, err := g.Charge(context.Background(), "prov-1", 100, "card"); err != ErrPaymentDeclined {
		t.Errorf("err = %v, want ErrPaymentDeclined", err)
	}
}

func TestFakeGatewayRefund(t *testing.T) {
	g := NewFakeGateway()
	ref, _ := g.Charge(context.Background(), "prov-1", 100, "card")
	if err := g.Refund(context.Background(), ref); err != nil {
		t.Fatalf("Refund: %v", err)
	}
	if refunds := g.Refunds(); len(refunds) != 1 || refunds[0] != ref {
		t.Errorf("refunds = %v", refunds)
	}
}

func TestFakeGatewayHonorsContext(t *testing.T) {
	g := NewFakeGateway()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := g.Charge(ctx, "prov-1", 100, "card"); err == nil {
		t.Error("cancelled context must abort the charge")
	}
}

func TestStubGateway(t *testing.T) {
	s := NewStubGateway("sk_test_123")
	if _, err := s.Charge(context.Background(), "p", 1, "card"); err != ErrNotImplemented {
		t.Errorf("err = %v, want ErrNotImplemented", err)
	}
	if err := s.Refund(context.Background(), "ref"); err != ErrNotImplemented {
		t.Errorf("err = %v, want ErrNotImplemented", err)
	}
}

func TestStubGatewayMissingKey(t *testing.T) {
	s := NewStubGateway("")
	_, err := s.Charge(context.Background(), "p", 1, "card")
	if !errors.Is(err, ErrNotImplemented) {
		t.Fatalf("err = %v, want ErrNotImplemented", err)
	}
	if !strings.Contains(err.Error(), "not configured") {
		t.Errorf("err = %v, want a configuration message", err)
	}
}
