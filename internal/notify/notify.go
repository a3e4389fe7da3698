package notify

import (
	"context"
	"encoding/json"

	"github.com/IBM/sarama"

	"github.com/libraworks/library-api/internal/model"
)

// Sender delivers one message body to a set of recipients in a single call.
type Sender interface {
	Send(ctx context.Context, message string, recipients []string) error
}

// NewKafkaSender publishes batched notices to the notification topic. The
// mail worker on the other side of the topic does the actual delivery.
func NewKafkaSender(producer sarama.SyncProducer, topic string) Sender {
	return &kafkaSender{
		producer: producer,
		topic:    topic,
	}
}

type kafkaSender struct {
	producer sarama.SyncProducer
	topic    string
}

func (s *kafkaSender) Send(_ context.Context, message string, recipients []string) error {
	data, err := json.Marshal(model.OverdueNotice{
		Message:    message,
		Recipients: recipients,
	})
	if err != nil {
		return err
	}
	msg := &sarama.ProducerMessage{Topic: s.topic, Value: sarama.StringEncoder(data)}
	if _, _, err = s.producer.SendMessage(msg); err != nil {
		return err
	}
	return nil
}
