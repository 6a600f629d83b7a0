package util

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewAtomicEvent(t *testing.T) {
	ae := NewAtomicEvent[int]()
	assert.NotNil(t, ae, "NewAtomicEvent should not return nil")
	assert.NotNil(t, ae.notify, "notify channel should be initialized")
	assert.Equal(t, 0, ae.Value(), "empty mailbox should hold the zero value")
}

func TestSendAndValue(t *testing.T) {
	aeInt := NewAtomicEvent[int]()
	aeInt.Send(148)
	assert.Equal(t, 148, aeInt.Value(), "Value should be 148")

	type pose struct {
		X, Y float64
	}
	aePose := NewAtomicEvent[pose]()
	aePose.Send(pose{X: 50, Y: 1})
	aePose.Send(pose{X: 51, Y: 1})
	assert.Equal(t, pose{X: 51, Y: 1}, aePose.Value(), "only the latest pose should be retained")
}

func TestNotificationCoalescing(t *testing.T) {
	ae := NewAtomicEvent[string]()

	ae.Send("frame1")
	select {
	case <-ae.Channel():
	default:
		t.Fatal("should have received a notification")
	}

	select {
	case <-ae.Channel():
		t.Fatal("channel should be empty after consuming the notification")
	default:
	}

	// Multiple sends collapse into a single pending notification.
	ae.Send("frame2")
	ae.Send("frame3")
	assert.True(t, ae.HasPending())
	select {
	case <-ae.Channel():
	default:
		t.Fatal("should have received a notification")
	}
	select {
	case <-ae.Channel():
		t.Fatal("only one notification should be pending")
	default:
	}

	assert.Equal(t, "frame3", ae.Value(), "Value should be the last event sent")
}

func TestConcurrentSenders(t *testing.T) {
	ae := NewAtomicEvent[string]()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			ae.Send(fmt.Sprintf("event-%d", n))
		}(i)
	}
	wg.Wait()

	// We cannot know which send won, only that one of them did and that the
	// mailbox is internally consistent.
	assert.Contains(t, ae.Value(), "event-")
	assert.True(t, ae.HasPending())
}
