package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"github.com/voicebridge/lead-marketplace/cmd/mainconfig"
	"github.com/voicebridge/lead-marketplace/internal/config"
	"github.com/voicebridge/lead-marketplace/internal/notify"
	"github.com/voicebridge/lead-marketplace/pkg/logging"
)

func main() {
	cfg := config.Load()
	logger := logging.New(cfg.LogLevel)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.NotificationQueueURL == "" {
		logger.Error("notify worker requires NOTIFICATION_QUEUE_URL")
		os.Exit(1)
	}

	awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
	if err != nil {
		logger.Error("failed to load AWS config", "error", err)
		os.Exit(1)
	}

	queue := notify.NewSQSQueue(sqs.NewFromConfig(awsCfg), cfg.NotificationQueueURL)

	var sender notify.EmailSender
	switch cfg.EmailProvider {
	case "sendgrid":
		sg := notify.NewSendGridSender(notify.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.EmailFromAddress,
			FromName:  cfg.EmailFromName,
		}, logger)
		if sg == nil {
			logger.Error("sendgrid sender requires SENDGRID_API_KEY")
			os.Exit(1)
		}
		sender = sg
	case "ses":
		ses := notify.NewSESSender(sesv2.NewFromConfig(awsCfg), notify.SESConfig{
			FromEmail: cfg.EmailFromAddress,
			FromName:  cfg.EmailFromName,
		}, logger)
		if ses == nil {
			logger.Error("ses sender misconfigured")
			os.Exit(1)
		}
		sender = ses
	default:
		sender = notify.NewStubEmailSender(logger)
	}

	workers := cfg.WorkerCount
	if workers <= 0 {
		workers = 1
	}

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			worker := notify.NewWorker(queue, sender, logger)
			if err := worker.Run(ctx); err != nil {
				logger.Error("worker exited", "error", err)
			}
		}()
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	logger.Info("notify worker shutting down")
	cancel()
	wg.Wait()
}
