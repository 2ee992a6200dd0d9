package rabbitmq

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/streadway/amqp"

	"gitlab.com/transcodeuz/video-compressor/config"
	"gitlab.com/transcodeuz/video-compressor/models"
	"gitlab.com/transcodeuz/video-compressor/pkg/logger"
)

// RabbitMQ - publishes job status events to the write queue
type RabbitMQ struct {
	Queue   amqp.Queue
	Channel *amqp.Channel
	Logger  logger.Logger
	Cfg     config.Config

	conn *amqp.Connection
	mu   sync.Mutex
}

// New - returns new RabbitMQ queue and channel
func New(cfg *config.Config, log logger.Logger) (*RabbitMQ, error) {
	log.Info(
		"Dialing to rabbitmq host with",
		logger.String("host", cfg.RabbitMqHost),
		logger.String("user", cfg.RabbitMqUser),
	)

	r := &RabbitMQ{
		Logger: log,
		Cfg:    *cfg,
	}
	if err := r.connect(); err != nil {
		return nil, err
	}

	return r, nil
}

func (r *RabbitMQ) url() string {
	return fmt.Sprintf(
		"amqp://%s:%s@%s:%s/",
		r.Cfg.RabbitMqUser,
		r.Cfg.RabbitMqPassword,
		r.Cfg.RabbitMqHost,
		r.Cfg.RabbitMqPort,
	)
}

// connect dials, opens a channel and declares the write queue; callers hold r.mu or own r exclusively
func (r *RabbitMQ) connect() error {
	conn, err := amqp.Dial(r.url())
	if err != nil {
		r.Logger.Error("Error while connecting to rabbitmq", logger.Error(err))
		return err
	}

	r.Logger.Info("RabbitMQ connection is created...")

	channel, err := conn.Channel()
	if err != nil {
		r.Logger.Error("Error while connecting to channel", logger.Error(err))
		conn.Close()
		return err
	}

	r.Logger.Info("RabbitMQ channel is created...")

	write, err := channel.QueueDeclare(
		r.Cfg.WriteQueue,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		r.Logger.Error("Error while declaring queue", logger.Error(err))
		conn.Close()
		return err
	}

	r.conn = conn
	r.Channel = channel
	r.Queue = write
	return nil
}

// PublishJobStatus publishes req to the write queue, reconnecting once if the channel was closed
func (r *RabbitMQ) PublishJobStatus(req *models.JobStatus) error {
	msg, err := statusPublishing(req)
	if err != nil {
		r.Logger.Error("Error while encoding job status", logger.Error(err))
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	err = r.Channel.Publish("", r.Queue.Name, false, false, msg)
	if err == amqp.ErrClosed {
		r.Logger.Warn("RabbitMQ channel is closed, reconnecting")
		if err = r.connect(); err == nil {
			err = r.Channel.Publish("", r.Queue.Name, false, false, msg)
		}
	}
	if err != nil {
		r.Logger.Error("Error while publishing the message", logger.Error(err))
		return err
	}

	return nil
}

func (r *RabbitMQ) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.Channel != nil {
		_ = r.Channel.Close()
	}
	if r.conn != nil {
		return r.conn.Close()
	}
	return nil
}

func statusPublishing(req *models.JobStatus) (amqp.Publishing, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return amqp.Publishing{}, err
	}

	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    req.Id,
		Type:         req.Stage + "." + req.Status,
		Body:         body,
	}, nil
}
