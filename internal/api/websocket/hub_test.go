package websocket

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

// Stalled clients must be evicted exactly once even when the hub loop and
// the pubsub subscriber broadcast to them at the same time.
func TestHubEvictsStalledClientsUnderConcurrentBroadcasts(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	projectID := uuid.New()
	executionID := uuid.New()

	// unbuffered Send with no reader makes every delivery stall
	for i := 0; i < 50; i++ {
		client := &Client{Hub: hub, Send: make(chan []byte)}
		hub.Register(client)
		hub.SubscribeToProject(client, projectID)
		hub.SubscribeToExecution(client, executionID)
	}
	assert.Eventually(t, func() bool {
		return hub.GetConnectionCount() == 50
	}, time.Second, 5*time.Millisecond)

	event := NewEvent(EventExecutionProgress, map[string]interface{}{"progress": 50.0})

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 25; j++ {
				hub.Broadcast([]byte(`{"type":"execution.progress"}`))
				hub.BroadcastToExecution(executionID, event)
				hub.BroadcastToProject(projectID, event)
			}
		}()
	}
	wg.Wait()

	assert.Eventually(t, func() bool {
		return hub.GetConnectionCount() == 0
	}, time.Second, 5*time.Millisecond)
}

func TestHubHealthyClientKeepsReceiving(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	executionID := uuid.New()
	client := &Client{Hub: hub, Send: make(chan []byte, 16)}
	hub.Register(client)
	hub.SubscribeToExecution(client, executionID)
	assert.Eventually(t, func() bool {
		return hub.GetConnectionCount() == 1
	}, time.Second, 5*time.Millisecond)

	hub.BroadcastToExecution(executionID, NewEvent(EventExecutionStarted, nil))
	hub.BroadcastToExecution(executionID, NewEvent(EventExecutionCompleted, nil))

	for i := 0; i < 2; i++ {
		select {
		case <-client.Send:
		case <-time.After(time.Second):
			t.Fatal("expected event was not delivered")
		}
	}
	assert.Equal(t, 1, hub.GetConnectionCount())

	hub.Unregister(client)
	assert.Eventually(t, func() bool {
		return hub.GetConnectionCount() == 0
	}, time.Second, 5*time.Millisecond)
}
