package kafka

import (
	"context"

	"github.com/IBM/sarama"
)

const (
	NotifyTopic         = "loan-notify"
	NotifyConsumerGroup = "notify-group"
)

type Config struct {
	Addrs []string `yaml:"addrs" envconfig:"KAFKA_ADDRS" default:"localhost:9092"`
}

func NewProducer(cfg Config) (sarama.SyncProducer, error) {
	defaultCfg := sarama.NewConfig()

	defaultCfg.Producer.RequiredAcks = sarama.WaitForAll
	defaultCfg.Producer.Return.Successes = true

	return sarama.NewSyncProducer(cfg.Addrs, defaultCfg)
}

func NewConsumer(cfg Config, group string) (sarama.ConsumerGroup, error) {
	defaultCfg := sarama.NewConfig()

	defaultCfg.Consumer.Offsets.Initial = sarama.OffsetOldest
	defaultCfg.Consumer.Return.Errors = true

	return sarama.NewConsumerGroup(cfg.Addrs, group, defaultCfg)
}

// Consume runs the handler against the topic until ctx is canceled.
func Consume(ctx context.Context, consumer sarama.ConsumerGroup, handler sarama.ConsumerGroupHandler, topic string) {
	for {
		if err := consumer.Consume(ctx, []string{topic}, handler); err != nil {
			return
		}
		if ctx.Err() != nil {
			return
		}
	}
}
