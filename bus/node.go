package bus

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/fido2478/udacity-sdc-nd/detector"
	"github.com/fido2478/udacity-sdc-nd/util"
)

// Node connects a detector to the bus. Pose, route and light messages become
// constant-time state updates; every image message drives one full pipeline
// pass whose result is published to TopicTrafficWaypoint. A malformed
// payload is logged and dropped, the next message is processed normally.
type Node struct {
	bus      *Bus
	det      *detector.Detector
	outcomes *util.AtomicEvent[detector.Outcome]
}

// NewNode wires a detector to the bus. outcomes receives every pipeline
// pass; the platforms read it to drive their display surface.
func NewNode(bus *Bus, det *detector.Detector, outcomes *util.AtomicEvent[detector.Outcome]) *Node {
	return &Node{
		bus:      bus,
		det:      det,
		outcomes: outcomes,
	}
}

// Outcomes exposes the latest pipeline outcome for display surfaces. The
// mailbox coalesces, a slow reader only ever sees the most recent pass.
func (n *Node) Outcomes() *util.AtomicEvent[detector.Outcome] {
	return n.outcomes
}

// Run consumes the inbound topics until ctx is cancelled or the bus closes.
// Messages are handled sequentially, so per-topic ordering is preserved and
// every image message observes all state updates that arrived before it.
func (n *Node) Run(ctx context.Context) error {
	poses, err := n.bus.Subscribe(ctx, TopicCurrentPose)
	if err != nil {
		return fmt.Errorf("can't subscribe to %s: %w", TopicCurrentPose, err)
	}
	paths, err := n.bus.Subscribe(ctx, TopicBaseWaypoints)
	if err != nil {
		return fmt.Errorf("can't subscribe to %s: %w", TopicBaseWaypoints, err)
	}
	lights, err := n.bus.Subscribe(ctx, TopicTrafficLights)
	if err != nil {
		return fmt.Errorf("can't subscribe to %s: %w", TopicTrafficLights, err)
	}
	images, err := n.bus.Subscribe(ctx, TopicImageColor)
	if err != nil {
		return fmt.Errorf("can't subscribe to %s: %w", TopicImageColor, err)
	}

	slog.Info("Detector node running", "topics", []string{
		TopicCurrentPose, TopicBaseWaypoints, TopicTrafficLights, TopicImageColor})

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-poses:
			if !ok {
				return nil
			}
			n.handlePose(msg)
		case msg, ok := <-paths:
			if !ok {
				return nil
			}
			n.handlePath(msg)
		case msg, ok := <-lights:
			if !ok {
				return nil
			}
			n.handleLights(msg)
		case msg, ok := <-images:
			if !ok {
				return nil
			}
			n.handleImage(ctx, msg)
		}
	}
}

func (n *Node) handlePose(msg *message.Message) {
	defer msg.Ack()
	var ev PoseEvent
	if err := json.Unmarshal(msg.Payload, &ev); err != nil {
		slog.Error("Dropping malformed pose message", "error", err)
		return
	}
	n.det.UpdatePose(ev.Pose())
}

func (n *Node) handlePath(msg *message.Message) {
	defer msg.Ack()
	var ev PathEvent
	if err := json.Unmarshal(msg.Payload, &ev); err != nil {
		slog.Error("Dropping malformed route message", "error", err)
		return
	}
	path := ev.Path()
	n.det.UpdatePath(path)
	slog.Info("Route received", "waypoints", len(path))
}

func (n *Node) handleLights(msg *message.Message) {
	defer msg.Ack()
	var ev LightsEvent
	if err := json.Unmarshal(msg.Payload, &ev); err != nil {
		slog.Error("Dropping malformed traffic light message", "error", err)
		return
	}
	n.det.UpdateLights(ev.TrafficLights())
}

func (n *Node) handleImage(ctx context.Context, msg *message.Message) {
	defer msg.Ack()
	var ev ImageEvent
	if err := json.Unmarshal(msg.Payload, &ev); err != nil {
		slog.Error("Dropping malformed image message", "error", err)
		return
	}

	outcome := n.det.ProcessFrame(ctx, ev.Frame())
	n.outcomes.Send(outcome)

	if err := n.bus.PublishStopWaypoint(outcome.Published); err != nil {
		slog.Error("Failed to publish stop waypoint", "error", err)
		return
	}
	slog.Debug("Processed camera frame",
		"vehicle", outcome.VehicleIndex,
		"raw", outcome.Raw,
		"published", outcome.Published)
}
