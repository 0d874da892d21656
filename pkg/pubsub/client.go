package pubsub

import (
	"context"
	"errors"
	"fmt"

	pubsub "cloud.google.com/go/pubsub/v2"
	"cloud.google.com/go/pubsub/v2/apiv1/pubsubpb"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/qrgenpro/qrgen-backend/pkg/config"
	"github.com/qrgenpro/qrgen-backend/pkg/gcp"
	"github.com/qrgenpro/qrgen-backend/pkg/logger"
)

// Mode says which side of the events topic a process uses. The API publishes,
// the analytics worker subscribes; each only verifies what it touches.
type Mode uint8

const (
	ModePublish Mode = 1 << iota
	ModeSubscribe
)

var (
	errNoMode             = errors.New("pubsub mode is required")
	errTopicRequired      = errors.New("pubsub events topic is required")
	errSubscriptionNeeded = errors.New("pubsub events subscription is required")
	errNotInitialized     = errors.New("pubsub client not initialized")
)

type Client struct {
	client       *pubsub.Client
	mode         Mode
	topic        string
	subscription string
}

// NewClient dials Pub/Sub and verifies the events topic and/or subscription for mode exist.
func NewClient(ctx context.Context, gcpCfg config.GCPConfig, cfg config.PubSubConfig, mode Mode, logg *logger.Logger) (*Client, error) {
	projectID, err := gcp.ProjectID(gcpCfg)
	if err != nil {
		return nil, err
	}
	c, err := newUnconnected(projectID, cfg, mode)
	if err != nil {
		return nil, err
	}

	raw, err := pubsub.NewClient(ctx, projectID, gcp.ClientOptions(gcpCfg)...)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}
	c.client = raw
	if err := c.Ping(ctx); err != nil {
		_ = raw.Close()
		return nil, err
	}

	if logg != nil {
		logg.Info(logg.WithFields(ctx, map[string]any{
			"topic":        c.topic,
			"subscription": c.subscription,
		}), "pubsub client initialized")
	}
	return c, nil
}

// newUnconnected resolves resource names for mode without touching the network.
func newUnconnected(projectID string, cfg config.PubSubConfig, mode Mode) (*Client, error) {
	if mode == 0 {
		return nil, errNoMode
	}
	c := &Client{mode: mode}
	if mode&ModePublish != 0 {
		if c.topic = gcp.ResourceName(projectID, "topics", cfg.EventsTopic); c.topic == "" {
			return nil, errTopicRequired
		}
	}
	if mode&ModeSubscribe != 0 {
		if c.subscription = gcp.ResourceName(projectID, "subscriptions", cfg.EventsSubscription); c.subscription == "" {
			return nil, errSubscriptionNeeded
		}
	}
	return c, nil
}

// Ping confirms the resources this client was opened for still exist.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.client == nil {
		return errNotInitialized
	}
	if c.topic != "" {
		_, err := c.client.TopicAdminClient.GetTopic(ctx, &pubsubpb.GetTopicRequest{Topic: c.topic})
		if err != nil {
			return describeLookup("topic", c.topic, err)
		}
	}
	if c.subscription != "" {
		_, err := c.client.SubscriptionAdminClient.GetSubscription(ctx, &pubsubpb.GetSubscriptionRequest{Subscription: c.subscription})
		if err != nil {
			return describeLookup("subscription", c.subscription, err)
		}
	}
	return nil
}

// EventsPublisher returns nil unless the client was opened with ModePublish.
func (c *Client) EventsPublisher() *pubsub.Publisher {
	if c == nil || c.client == nil || c.topic == "" {
		return nil
	}
	return c.client.Publisher(c.topic)
}

// EventsSubscription returns nil unless the client was opened with ModeSubscribe.
func (c *Client) EventsSubscription() *pubsub.Subscriber {
	if c == nil || c.client == nil || c.subscription == "" {
		return nil
	}
	return c.client.Subscriber(c.subscription)
}

func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

func describeLookup(kind, name string, err error) error {
	if status.Code(err) == codes.NotFound {
		return fmt.Errorf("%s %q does not exist", kind, name)
	}
	return fmt.Errorf("checking %s %q: %w", kind, name, err)
}
