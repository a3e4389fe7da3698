package notify

import (
	"context"
	"encoding/json"

	"github.com/IBM/sarama"
	"go.uber.org/zap"

	"github.com/libraworks/library-api/internal/model"
)

type sendMail func(ctx context.Context, message string, recipients []string) error

// Consumer drains the notification topic and hands each notice to the mailer.
type Consumer struct {
	sendMailHandler sendMail
	log             *zap.Logger
}

func NewConsumer(sendMail sendMail, log *zap.Logger) *Consumer {
	return &Consumer{
		sendMailHandler: sendMail,
		log:             log.Named("consumer"),
	}
}

// Setup runs at the beginning of every session. The group client re-enters it
// after each rebalance, so it must be safe to call repeatedly.
func (consumer *Consumer) Setup(sarama.ConsumerGroupSession) error {
	return nil
}

// Cleanup is run at the end of a session, once all ConsumeClaim goroutines have exited.
func (consumer *Consumer) Cleanup(sarama.ConsumerGroupSession) error {
	return nil
}

func (consumer *Consumer) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case message, ok := <-claim.Messages():
			if !ok {
				consumer.log.Warn("message channel was closed")
				return nil
			}
			var notice model.OverdueNotice
			if err := json.Unmarshal(message.Value, &notice); err != nil {
				consumer.log.Error("", zap.Error(err))
				session.MarkMessage(message, "")
				continue
			}

			if err := consumer.sendMailHandler(context.Background(), notice.Message, notice.Recipients); err != nil {
				consumer.log.Error("consumer.sendMailHandler", zap.Error(err))
				continue
			}

			consumer.log.Debug("Message claimed:", zap.String("value", string(message.Value)), zap.Time("timestamp", message.Timestamp), zap.String("topic", message.Topic))
			session.MarkMessage(message, "")
		case <-session.Context().Done():
			return nil
		}
	}
}
