package consumer

import (
	"context"
	"encoding/json"

	"github.com/mozhdeveloper/NexHRMS-sub002/internal/events"
	"github.com/mozhdeveloper/NexHRMS-sub002/internal/payslip"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

func ConsumePayslipDocumentRequested(
	ctx context.Context,
	reader *kafkago.Reader,
	payslipService payslip.Service,
	logger *zap.Logger,
) {
	log := logger.Named("kafka.consumer.payslip_document")
	log.Info("payslip document consumer started")

	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Info("payslip document consumer stopped")
				return
			}
			log.Error("fetch payslip document message failed", zap.Error(err))
			continue
		}

		var event events.PayslipDocumentRequestedEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			log.Error("decode payslip document event failed", zap.Error(err))
			_ = reader.CommitMessages(ctx, msg)
			continue
		}

		// GenerateDocument is idempotent, so a redelivered message after a
		// failed commit below does no extra work.
		_, err = payslipService.GenerateDocument(ctx, event.PayslipID)
		if err != nil {
			log.Error("generate payslip document failed",
				zap.String("payslip_id", event.PayslipID),
				zap.Error(err),
			)
			continue
		}

		if err := reader.CommitMessages(ctx, msg); err != nil {
			log.Error("commit payslip document message failed", zap.Error(err))
			continue
		}

		log.Info("payslip document generated",
			zap.String("payslip_id", event.PayslipID),
		)
	}
}
