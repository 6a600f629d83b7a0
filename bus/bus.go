// Package bus carries the detector's inbound state updates and its outbound
// stop-waypoint publications over an in-process Pub/Sub, keeping the topic
// names of the vehicle platform. Payloads travel as JSON.
package bus

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// Topic names, as published by the vehicle platform.
const (
	TopicCurrentPose     = "current_pose"
	TopicBaseWaypoints   = "base_waypoints"
	TopicTrafficLights   = "vehicle/traffic_lights"
	TopicImageColor      = "image_color"
	TopicTrafficWaypoint = "traffic_waypoint"
)

// Bus is a thin wrapper around a gochannel Pub/Sub. Subscribers registered
// after a publish do not see earlier messages; state topics are therefore
// re-published by their producers rather than persisted here.
type Bus struct {
	pubSub *gochannel.GoChannel
}

// New creates an in-process bus logging through the default slog logger.
func New() *Bus {
	return &Bus{
		pubSub: gochannel.NewGoChannel(
			gochannel.Config{OutputChannelBuffer: 16},
			watermill.NewSlogLogger(slog.Default()),
		),
	}
}

func (b *Bus) publish(topic string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("can't encode payload for topic %s: %w", topic, err)
	}
	return b.pubSub.Publish(topic, message.NewMessage(watermill.NewUUID(), data))
}

// PublishPose announces the vehicle's current pose.
func (b *Bus) PublishPose(e PoseEvent) error {
	return b.publish(TopicCurrentPose, e)
}

// PublishPath announces the fixed route. The platform sends it once at
// startup; late subscribers rely on the producer repeating it.
func (b *Bus) PublishPath(e PathEvent) error {
	return b.publish(TopicBaseWaypoints, e)
}

// PublishLights announces the known traffic lights with their simulator
// ground-truth states.
func (b *Bus) PublishLights(e LightsEvent) error {
	return b.publish(TopicTrafficLights, e)
}

// PublishImage announces a camera frame.
func (b *Bus) PublishImage(e ImageEvent) error {
	return b.publish(TopicImageColor, e)
}

// PublishStopWaypoint announces the index to stop at, -1 when none.
func (b *Bus) PublishStopWaypoint(index int) error {
	return b.publish(TopicTrafficWaypoint, StopWaypointEvent{Index: index})
}

// Subscribe returns the message stream for a topic. The stream closes when
// ctx is cancelled or the bus is closed.
func (b *Bus) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	return b.pubSub.Subscribe(ctx, topic)
}

// Close shuts down the Pub/Sub and closes all subscriber channels.
func (b *Bus) Close() error {
	return b.pubSub.Close()
}
