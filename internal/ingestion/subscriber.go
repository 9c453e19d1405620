package ingestion

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

const (
	CommandSubject = "router.commands"
	CommandStream  = "ROUTER_COMMANDS"
	ResultStream   = "ROUTER_RESULTS"
	consumerName   = "router-ledger"
)

// Subscriber pulls command payloads off NATS JetStream and feeds them to
// the command loop. JetStream is the primary async ingestion surface; the
// HTTP execute endpoint covers synchronous callers.
type Subscriber struct {
	js          jetstream.JetStream
	commandChan chan<- RawCommand
	consumer    jetstream.ConsumeContext
}

// RawCommand is an unparsed command payload plus its ack handles.
type RawCommand struct {
	Subject  string
	Data     []byte
	Received time.Time
	AckFunc  func() // settle after apply or final rejection
	NakFunc  func() // redeliver after a transient failure
}

func NewSubscriber(js jetstream.JetStream, commandChan chan<- RawCommand) *Subscriber {
	return &Subscriber{
		js:          js,
		commandChan: commandChan,
	}
}

// Subscribe creates the durable JetStream consumer on the command subject.
// Explicit ACK, max_deliver=5, ack_wait=30s.
func (s *Subscriber) Subscribe(ctx context.Context) error {
	consumer, err := s.js.CreateOrUpdateConsumer(ctx, CommandStream, jetstream.ConsumerConfig{
		Durable:       consumerName,
		FilterSubject: CommandSubject,
		AckPolicy:     jetstream.AckExplicitPolicy,
		AckWait:       30 * time.Second,
		MaxDeliver:    5,
		DeliverPolicy: jetstream.DeliverAllPolicy,
	})
	if err != nil {
		return fmt.Errorf("create consumer %s: %w", consumerName, err)
	}

	consumerContext, err := consumer.Consume(func(msg jetstream.Msg) {
		raw := RawCommand{
			Subject:  msg.Subject(),
			Data:     msg.Data(),
			Received: time.Now(),
			AckFunc:  func() { msg.Ack() },
			NakFunc:  func() { msg.Nak() },
		}

		select {
		case s.commandChan <- raw:
		case <-ctx.Done():
			msg.Nak()
		}
	})
	if err != nil {
		return fmt.Errorf("consume %s: %w", consumerName, err)
	}

	s.consumer = consumerContext
	log.Printf("INFO: subscribed to %s (consumer=%s)", CommandSubject, consumerName)
	return nil
}

// Stop gracefully stops the consumer.
func (s *Subscriber) Stop() {
	if s.consumer != nil {
		s.consumer.Stop()
	}
	log.Println("INFO: NATS subscriber stopped")
}

// EnsureStreams creates the required JetStream streams if they don't exist.
// FileStorage, retention=Limits, max_age=72h.
func EnsureStreams(ctx context.Context, js jetstream.JetStream) error {
	streams := []jetstream.StreamConfig{
		{
			Name:      CommandStream,
			Subjects:  []string{"router.commands"},
			Storage:   jetstream.FileStorage,
			Retention: jetstream.LimitsPolicy,
			MaxAge:    72 * time.Hour,
			Replicas:  1,
		},
		{
			Name:      ResultStream,
			Subjects:  []string{"router.results.>", "router.rejections"},
			Storage:   jetstream.FileStorage,
			Retention: jetstream.LimitsPolicy,
			MaxAge:    72 * time.Hour,
			Replicas:  1,
		},
	}

	for _, cfg := range streams {
		if _, err := js.CreateOrUpdateStream(ctx, cfg); err != nil {
			return fmt.Errorf("create stream %s: %w", cfg.Name, err)
		}
		log.Printf("INFO: ensured stream %s", cfg.Name)
	}

	return nil
}

// ConnectNATS establishes a NATS connection and returns a JetStream context.
func ConnectNATS(url string) (*nats.Conn, jetstream.JetStream, error) {
	nc, err := nats.Connect(url,
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Printf("WARN: NATS disconnected: %v", err)
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			log.Println("INFO: NATS reconnected")
		}),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, nil, fmt.Errorf("jetstream: %w", err)
	}

	return nc, js, nil
}
