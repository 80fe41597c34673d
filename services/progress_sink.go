// services/progress_sink.go
package services

import (
	"fmt"
	"time"

	"github.com/DeividasMat/firegeo/internal/models"
)

// logSink prints progress events. Used when no consumer is attached.
type logSink struct{}

func NewLogSink() ProgressSink {
	return &logSink{}
}

func (s *logSink) Emit(event models.ProgressEvent) {
	fmt.Printf("[Progress] %s stage=%s data=%v\n", event.Type, event.Stage, event.Data)
}

// ChannelSink forwards events to a buffered channel for a streaming
// consumer. Emit never blocks: when the consumer falls behind, events are
// dropped rather than stalling the analysis.
type ChannelSink struct {
	events chan models.ProgressEvent
}

func NewChannelSink(buffer int) *ChannelSink {
	return &ChannelSink{events: make(chan models.ProgressEvent, buffer)}
}

func (s *ChannelSink) Emit(event models.ProgressEvent) {
	select {
	case s.events <- event:
	default:
	}
}

// Events exposes the receive side for the consumer
func (s *ChannelSink) Events() <-chan models.ProgressEvent {
	return s.events
}

// Close releases the channel once no more events will be emitted
func (s *ChannelSink) Close() {
	close(s.events)
}

func newProgressEvent(eventType, stage string, data map[string]interface{}) models.ProgressEvent {
	return models.ProgressEvent{
		Type:      eventType,
		Stage:     stage,
		Data:      data,
		Timestamp: time.Now(),
	}
}
