package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jwebster45206/alley-cats/pkg/state"
	"github.com/redis/go-redis/v9"
)

// EventType represents the type of event being broadcast
type EventType string

const (
	EventTypeActionCommitted EventType = "action.committed"
	EventTypeInterruptPlayed EventType = "interrupt.played"
	EventTypeTurnEnded       EventType = "turn.ended"
	EventTypeGameOver        EventType = "game.over"
)

// Event is one message on a game's channel.
type Event struct {
	Type      EventType        `json:"type"`
	GameID    string           `json:"game_id"`
	Seq       int              `json:"seq,omitempty"`
	Committed *state.Committed `json:"committed,omitempty"`
	Data      map[string]any   `json:"data,omitempty"`
}

// Broadcaster publishes committed actions to Redis Pub/Sub so spectators
// can follow a game. It is registered on the engine as an observer.
type Broadcaster struct {
	redisClient *redis.Client
	logger      *slog.Logger
}

func NewBroadcaster(redisClient *redis.Client, logger *slog.Logger) *Broadcaster {
	return &Broadcaster{
		redisClient: redisClient,
		logger:      logger,
	}
}

// Channel is the Pub/Sub channel of a game.
func Channel(gameID uuid.UUID) string {
	return fmt.Sprintf("game-events:%s", gameID.String())
}

// OnCommit publishes every commit. Redirected actions are tagged so
// listeners can show the interrupt. Failures are logged; the game goes on.
func (b *Broadcaster) OnCommit(ctx context.Context, gameID uuid.UUID, c state.Committed) {
	event := Event{
		Type:      EventTypeActionCommitted,
		GameID:    gameID.String(),
		Seq:       c.Seq,
		Committed: &c,
	}
	switch {
	case c.Redirected():
		event.Type = EventTypeInterruptPlayed
	case c.Action.Kind == state.ActEndTurn:
		event.Type = EventTypeTurnEnded
		event.Data = map[string]any{"next": c.Action.Target, "turn": c.Turn + 1}
	}
	_ = b.publishToGame(ctx, gameID, event)
}

// PublishGameOver announces the winner.
func (b *Broadcaster) PublishGameOver(ctx context.Context, gs *state.GameState) error {
	event := Event{
		Type:   EventTypeGameOver,
		GameID: gs.ID.String(),
		Seq:    gs.Seq,
		Data: map[string]any{
			"winner": gs.Winner,
			"turn":   gs.Turn,
		},
	}
	return b.publishToGame(ctx, gs.ID, event)
}

// Subscribe listens to a game's channel until ctx is done. The returned
// channel is closed when the subscription ends.
func (b *Broadcaster) Subscribe(ctx context.Context, gameID uuid.UUID) (<-chan Event, error) {
	sub := b.redisClient.Subscribe(ctx, Channel(gameID))
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("failed to subscribe: %w", err)
	}

	out := make(chan Event)
	go func() {
		defer close(out)
		defer sub.Close()
		msgs := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var ev Event
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					b.logger.Warn("Dropping malformed event", "channel", msg.Channel, "error", err)
					continue
				}
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

// publishToGame publishes an event to the game-specific channel
func (b *Broadcaster) publishToGame(ctx context.Context, gameID uuid.UUID, event Event) error {
	channel := Channel(gameID)

	data, err := json.Marshal(event)
	if err != nil {
		b.logger.Error("Failed to marshal event", "error", err, "event_type", event.Type)
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := b.redisClient.Publish(ctx, channel, data).Err(); err != nil {
		b.logger.Error("Failed to publish event", "error", err, "channel", channel)
		return fmt.Errorf("failed to publish event: %w", err)
	}

	b.logger.Debug("Event published",
		"channel", channel,
		"event_type", event.Type,
		"seq", event.Seq,
	)

	return nil
}
