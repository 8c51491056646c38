package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/voicebridge/lead-marketplace/pkg/logging"
)

// ParentContactNotice tells a family that a provider has picked up their
// lead and will be reaching out.
type ParentContactNotice struct {
	LeadID        string `json:"lead_id"`
	PurchaseID    string `json:"purchase_id"`
	ParentEmail   string `json:"parent_email"`
	ParentName    string `json:"parent_name"`
	ChildAge      int    `json:"child_age"`
	ProviderName  string `json:"provider_name"`
	ProviderEmail string `json:"provider_email"`
}

// Publisher enqueues parent-contact notices for asynchronous delivery.
type Publisher struct {
	queue  Queue
	logger *logging.Logger
}

func NewPublisher(queue Queue, logger *logging.Logger) *Publisher {
	if queue == nil {
		panic("notify: queue cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Publisher{queue: queue, logger: logger}
}

// PublishParentContact serializes the notice onto the queue. Delivery is
// best effort: callers treat failures as non-fatal.
func (p *Publisher) PublishParentContact(ctx context.Context, notice ParentContactNotice) error {
	body, err := json.Marshal(notice)
	if err != nil {
		return fmt.Errorf("notify: failed to marshal parent contact notice: %w", err)
	}

	if err := p.queue.Send(ctx, string(body)); err != nil {
		return err
	}

	p.logger.Info("queued parent contact notice",
		"lead_id", notice.LeadID,
		"purchase_id", notice.PurchaseID,
	)
	return nil
}
