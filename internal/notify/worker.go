package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/voicebridge/lead-marketplace/pkg/logging"
)

const (
	defaultMaxMessages = 10
	defaultWaitSeconds = 20
)

// Worker drains the notification queue and emails families whose leads
// were purchased.
type Worker struct {
	queue       Queue
	sender      EmailSender
	logger      *logging.Logger
	maxMessages int
	waitSeconds int
}

func NewWorker(queue Queue, sender EmailSender, logger *logging.Logger) *Worker {
	if queue == nil {
		panic("notify: queue cannot be nil")
	}
	if sender == nil {
		panic("notify: email sender cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Worker{
		queue:       queue,
		sender:      sender,
		logger:      logger,
		maxMessages: defaultMaxMessages,
		waitSeconds: defaultWaitSeconds,
	}
}

// Run polls the queue until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	w.logger.Info("notification worker started")
	for {
		if err := ctx.Err(); err != nil {
			w.logger.Info("notification worker stopping")
			return nil
		}

		messages, err := w.queue.Receive(ctx, w.maxMessages, w.waitSeconds)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				continue
			}
			w.logger.Error("failed to receive notifications", "error", err)
			continue
		}

		for _, msg := range messages {
			if err := w.handle(ctx, msg); err != nil {
				// Leave the message on the queue for redelivery.
				w.logger.Error("failed to handle notification",
					"message_id", msg.ID,
					"error", err,
				)
				continue
			}
			if err := w.queue.Delete(ctx, msg.ReceiptHandle); err != nil {
				w.logger.Error("failed to delete notification", "message_id", msg.ID, "error", err)
			}
		}
	}
}

// Drain handles whatever is already queued without waiting, then returns.
// Used by tests and by the memory-queue deployment mode on shutdown.
func (w *Worker) Drain(ctx context.Context) error {
	messages, err := w.queue.Receive(ctx, w.maxMessages, 0)
	if err != nil {
		return err
	}
	for _, msg := range messages {
		if err := w.handle(ctx, msg); err != nil {
			return err
		}
		if err := w.queue.Delete(ctx, msg.ReceiptHandle); err != nil {
			return err
		}
	}
	return nil
}

func (w *Worker) handle(ctx context.Context, msg queueMessage) error {
	var notice ParentContactNotice
	if err := json.Unmarshal([]byte(msg.Body), &notice); err != nil {
		return fmt.Errorf("notify: failed to decode parent contact notice: %w", err)
	}
	if notice.ParentEmail == "" {
		w.logger.Warn("dropping notice without parent email", "lead_id", notice.LeadID)
		return nil
	}

	email := composeParentContact(notice)
	if err := w.sender.Send(ctx, email); err != nil {
		return fmt.Errorf("notify: failed to email parent: %w", err)
	}

	w.logger.Info("sent parent contact email",
		"lead_id", notice.LeadID,
		"purchase_id", notice.PurchaseID,
	)
	return nil
}

func composeParentContact(notice ParentContactNotice) EmailMessage {
	name := notice.ParentName
	if name == "" {
		name = "there"
	}
	body := fmt.Sprintf(
		"Hi %s,\n\n"+
			"Good news: %s, a speech-language provider on VoiceBridge, has reviewed "+
			"your child's communication profile and will be reaching out shortly to "+
			"talk about next steps.\n\n"+
			"You don't need to do anything right now. If you'd rather not be "+
			"contacted, just reply to this email and we'll take care of it.\n\n"+
			"The VoiceBridge Team",
		name, notice.ProviderName,
	)
	return EmailMessage{
		To:      notice.ParentEmail,
		ToName:  notice.ParentName,
		Subject: "A speech therapy provider wants to connect with you",
		Body:    body,
	}
}
