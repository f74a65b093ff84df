/*
 * Copyright 2025 The Scadaflow Authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package consumer

import (
	"context"
	"errors"
	"time"

	"github.com/IBM/sarama"

	"github.com/scadaflow/scadaflow/api/types"
)

// KafkaSourceConfig configures the event bus subscription.
type KafkaSourceConfig struct {
	// Brokers are the bootstrap broker addresses.
	Brokers []string
	// Topics are the trigger topics to subscribe to.
	Topics []string
	// GroupId is the consumer group id.
	GroupId string
}

// KafkaSource consumes raw trigger envelopes from Kafka topics through a
// consumer group and hands each record value to the handler. Offsets are
// committed by the group session; dropped envelopes are committed too,
// they will never become valid.
type KafkaSource struct {
	config  KafkaSourceConfig
	logger  types.Logger
	handler func(raw []byte)

	consumer sarama.ConsumerGroup
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewKafkaSource creates a Kafka trigger source. handler is called once
// per consumed record, in partition order.
func NewKafkaSource(config KafkaSourceConfig, logger types.Logger, handler func(raw []byte)) *KafkaSource {
	return &KafkaSource{
		config:  config,
		logger:  types.NewLogger(logger),
		handler: handler,
	}
}

// Start connects the consumer group and consumes until Stop or ctx
// cancellation.
func (s *KafkaSource) Start(ctx context.Context) error {
	if len(s.config.Brokers) == 0 {
		return errors.New("kafka brokers can not be empty")
	}
	if len(s.config.Topics) == 0 {
		return errors.New("kafka topics can not be empty")
	}
	config := sarama.NewConfig()
	config.Version = sarama.V2_6_0_0
	config.Consumer.Group.Session.Timeout = 10 * time.Second
	config.Consumer.Group.Heartbeat.Interval = 3 * time.Second
	config.Consumer.Offsets.Initial = sarama.OffsetNewest
	config.Consumer.Return.Errors = true

	consumer, err := sarama.NewConsumerGroup(s.config.Brokers, s.config.GroupId, config)
	if err != nil {
		return err
	}
	s.consumer = consumer

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})

	go func() {
		defer close(s.done)
		handler := &consumerGroupHandler{source: s}
		for {
			select {
			case <-runCtx.Done():
				return
			default:
			}
			// Consume returns on every rebalance; loop to rejoin
			if err := consumer.Consume(runCtx, s.config.Topics, handler); err != nil {
				s.logger.Printf("E! kafka consume failed: %v", err)
				select {
				case <-runCtx.Done():
					return
				case <-time.After(5 * time.Second):
				}
			}
		}
	}()
	go func() {
		for {
			select {
			case err, ok := <-consumer.Errors():
				if !ok {
					return
				}
				s.logger.Printf("E! kafka consumer group error: %v", err)
			case <-runCtx.Done():
				return
			}
		}
	}()
	s.logger.Printf("kafka source started, topics=%v groupId=%s", s.config.Topics, s.config.GroupId)
	return nil
}

// Stop cancels consumption and closes the group connection.
func (s *KafkaSource) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	if s.done != nil {
		<-s.done
	}
	if s.consumer != nil {
		if err := s.consumer.Close(); err != nil {
			s.logger.Printf("E! kafka consumer close failed: %v", err)
		}
		s.consumer = nil
	}
}

// consumerGroupHandler adapts the source to sarama's group session
// callbacks.
type consumerGroupHandler struct {
	source *KafkaSource
}

func (h *consumerGroupHandler) Setup(sarama.ConsumerGroupSession) error {
	return nil
}

func (h *consumerGroupHandler) Cleanup(sarama.ConsumerGroupSession) error {
	return nil
}

func (h *consumerGroupHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case message, ok := <-claim.Messages():
			if !ok {
				return nil
			}
			h.source.handler(message.Value)
			session.MarkMessage(message, "")
		case <-session.Context().Done():
			return nil
		}
	}
}
