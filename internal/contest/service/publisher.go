// Package service implements the submission lifecycle: intake, dispatch to
// the execution engine, callback handling, and score aggregation.
package service

import (
	"context"
	"encoding/json"
	"time"

	"coderena/internal/common/mq"
	"coderena/internal/contest/model"
	appErr "coderena/pkg/errors"
	"coderena/pkg/utils/logger"

	"go.uber.org/zap"
)

// ResultPublisher emits an event for every terminal transition so
// downstream consumers stay current without polling the database.
type ResultPublisher interface {
	PublishTerminal(ctx context.Context, event model.ResultEvent) error
}

const defaultResultTopic = "contest.results"

// MQResultPublisher publishes result events to the message broker.
type MQResultPublisher struct {
	publisher mq.Publisher
	topic     string
}

// NewMQResultPublisher creates a broker-backed publisher.
func NewMQResultPublisher(publisher mq.Publisher, topic string) *MQResultPublisher {
	if topic == "" {
		topic = defaultResultTopic
	}
	return &MQResultPublisher{publisher: publisher, topic: topic}
}

// PublishTerminal publishes the terminal event, keyed by token so
// per-submission ordering holds under partitioning.
func (p *MQResultPublisher) PublishTerminal(ctx context.Context, event model.ResultEvent) error {
	if p.publisher == nil {
		return appErr.New(appErr.EventPublishLost).WithMessage("result publisher is not configured")
	}
	event.Type = model.ResultEventTerminal
	if event.CreatedAt == 0 {
		event.CreatedAt = time.Now().Unix()
	}
	body, err := json.Marshal(event)
	if err != nil {
		return appErr.Wrapf(err, appErr.EventPublishLost, "encode result event failed")
	}
	message := mq.NewMessage(body)
	message.ID = event.Token
	message.SetHeader("x-event-type", string(event.Type))
	if err := p.publisher.Publish(ctx, p.topic, message); err != nil {
		logger.Error(ctx, "publish result event failed",
			zap.String("token", event.Token), zap.Error(err))
		return appErr.Wrapf(err, appErr.EventPublishLost, "publish result event failed")
	}
	return nil
}

var _ ResultPublisher = (*MQResultPublisher)(nil)
