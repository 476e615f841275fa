package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/leif888/qamanage/internal/worker/events"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Subscriber relays execution events from Redis pubsub to connected
// WebSocket clients.
type Subscriber struct {
	redisClient *redis.Client
	hub         *Hub
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
}

func NewSubscriber(redisClient *redis.Client, hub *Hub) *Subscriber {
	ctx, cancel := context.WithCancel(context.Background())
	return &Subscriber{
		redisClient: redisClient,
		hub:         hub,
		ctx:         ctx,
		cancel:      cancel,
	}
}

func (s *Subscriber) Start() {
	s.wg.Add(1)
	go s.subscribeToEvents()
}

func (s *Subscriber) Stop() {
	s.cancel()
	s.wg.Wait()
}

func (s *Subscriber) subscribeToEvents() {
	defer s.wg.Done()

	pubsub := s.redisClient.Subscribe(s.ctx, events.Channel)
	defer pubsub.Close()

	ch := pubsub.Channel()

	log.Info().Str("channel", events.Channel).Msg("WebSocket subscriber started")

	for {
		select {
		case <-s.ctx.Done():
			log.Info().Msg("WebSocket subscriber stopped")
			return
		case msg := <-ch:
			s.handleMessage(msg)
		}
	}
}

func (s *Subscriber) handleMessage(msg *redis.Message) {
	var workerEvent events.Event
	if err := json.Unmarshal([]byte(msg.Payload), &workerEvent); err != nil {
		log.Error().Err(err).Msg("Failed to unmarshal execution event")
		return
	}

	data := workerEvent.Data
	if data == nil {
		data = map[string]interface{}{}
	}
	data["execution_id"] = workerEvent.ExecutionID.String()
	data["project_id"] = workerEvent.ProjectID.String()

	event := &Event{
		Type:      EventType(workerEvent.Type),
		Timestamp: workerEvent.Timestamp,
		Data:      data,
	}

	s.hub.BroadcastToExecution(workerEvent.ExecutionID, event)
	s.hub.BroadcastToProject(workerEvent.ProjectID, event)

	if isTerminalEvent(event.Type) {
		s.hub.CleanupExecutionSubscriptions(workerEvent.ExecutionID)
	}
}

func isTerminalEvent(t EventType) bool {
	switch t {
	case EventExecutionCompleted, EventExecutionFailed, EventExecutionCancelled:
		return true
	}
	return false
}
