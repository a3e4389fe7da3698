package notify

import (
	"context"
	"testing"

	"github.com/IBM/sarama"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeSession struct {
	ctx    context.Context
	marked []*sarama.ConsumerMessage
}

func (s *fakeSession) Claims() map[string][]int32                { return nil }
func (s *fakeSession) MemberID() string                          { return "library" }
func (s *fakeSession) GenerationID() int32                       { return 1 }
func (s *fakeSession) MarkOffset(string, int32, int64, string)   {}
func (s *fakeSession) Commit()                                   {}
func (s *fakeSession) ResetOffset(string, int32, int64, string)  {}
func (s *fakeSession) Context() context.Context                  { return s.ctx }
func (s *fakeSession) MarkMessage(msg *sarama.ConsumerMessage, _ string) {
	s.marked = append(s.marked, msg)
}

type fakeClaim struct {
	msgs chan *sarama.ConsumerMessage
}

func (c *fakeClaim) Topic() string                            { return "loan-notify" }
func (c *fakeClaim) Partition() int32                         { return 0 }
func (c *fakeClaim) InitialOffset() int64                     { return 0 }
func (c *fakeClaim) HighWaterMarkOffset() int64               { return 0 }
func (c *fakeClaim) Messages() <-chan *sarama.ConsumerMessage { return c.msgs }

func TestConsumer_SetupEverySession(t *testing.T) {
	t.Parallel()
	consumer := NewConsumer(nil, zap.NewNop())

	// the group client re-enters Setup after every rebalance
	for i := 0; i < 3; i++ {
		require.NoError(t, consumer.Setup(nil))
		require.NoError(t, consumer.Cleanup(nil))
	}
}

func TestConsumer_ConsumeClaim(t *testing.T) {
	t.Parallel()

	var (
		gotMessage    string
		gotRecipients []string
	)
	consumer := NewConsumer(func(_ context.Context, message string, recipients []string) error {
		gotMessage = message
		gotRecipients = recipients
		return nil
	}, zap.NewNop())

	msgs := make(chan *sarama.ConsumerMessage, 2)
	msgs <- &sarama.ConsumerMessage{Value: []byte(`not json`)}
	msgs <- &sarama.ConsumerMessage{Value: []byte(`{"message":"please return your book","recipients":["reader@example.com"]}`)}
	close(msgs)

	session := &fakeSession{ctx: context.Background()}
	require.NoError(t, consumer.ConsumeClaim(session, &fakeClaim{msgs: msgs}))

	require.Equal(t, "please return your book", gotMessage)
	require.Equal(t, []string{"reader@example.com"}, gotRecipients)
	require.Len(t, session.marked, 2)
}
