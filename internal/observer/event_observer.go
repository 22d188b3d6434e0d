package observer

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// InspectionEvent describes one step of an inspection
type InspectionEvent struct {
	EventType      EventType              `json:"event_type"`
	Timestamp      time.Time              `json:"timestamp"`
	InspectionID   string                 `json:"inspection_id"`
	Source         string                 `json:"source"`
	ProcessingTime time.Duration          `json:"processing_time"`
	Conforming     bool                   `json:"conforming"`
	ErrorMessage   string                 `json:"error_message,omitempty"`
	Metadata       map[string]interface{} `json:"metadata,omitempty"`
}

// EventType represents the type of inspection event
type EventType string

const (
	InspectionStarted   EventType = "inspection_started"
	InspectionCompleted EventType = "inspection_completed"
	InspectionFailed    EventType = "inspection_failed"
	ImageFetched        EventType = "image_fetched"
	ImageFetchFailed    EventType = "image_fetch_failed"
)

// Observer defines the interface for event observers
type Observer interface {
	OnEvent(ctx context.Context, event InspectionEvent)
	GetObserverName() string
}

// Subject defines the interface for event publishers
type Subject interface {
	Subscribe(observer Observer)
	Unsubscribe(observer Observer)
	NotifyObservers(ctx context.Context, event InspectionEvent)
}

// LoggingObserver logs inspection events
type LoggingObserver struct {
	logger *logrus.Logger
}

func NewLoggingObserver(logger *logrus.Logger) *LoggingObserver {
	return &LoggingObserver{
		logger: logger,
	}
}

func (o *LoggingObserver) OnEvent(ctx context.Context, event InspectionEvent) {
	fields := logrus.Fields{
		"event_type":    event.EventType,
		"inspection_id": event.InspectionID,
		"source":        event.Source,
	}
	if event.ProcessingTime > 0 {
		fields["processing_time_ms"] = event.ProcessingTime.Milliseconds()
	}
	if event.EventType == InspectionCompleted {
		fields["conforming"] = event.Conforming
	}
	if event.ErrorMessage != "" {
		fields["error"] = event.ErrorMessage
	}
	for k, v := range event.Metadata {
		fields[k] = v
	}

	entry := o.logger.WithFields(fields)
	switch event.EventType {
	case InspectionStarted:
		entry.Info("Flag inspection started")
	case InspectionCompleted:
		entry.Info("Flag inspection completed")
	case InspectionFailed:
		entry.Error("Flag inspection failed")
	case ImageFetched:
		entry.Debug("Image fetched successfully")
	case ImageFetchFailed:
		entry.Warn("Image fetch failed")
	default:
		entry.Info("Inspection event occurred")
	}
}

func (o *LoggingObserver) GetObserverName() string {
	return "logging_observer"
}

// Stats is a snapshot of the metrics observer's counters
type Stats struct {
	TotalInspections     int64   `json:"total_inspections"`
	CompletedInspections int64   `json:"completed_inspections"`
	FailedInspections    int64   `json:"failed_inspections"`
	ConformingFlags      int64   `json:"conforming_flags"`
	NonConformingFlags   int64   `json:"non_conforming_flags"`
	FetchFailures        int64   `json:"fetch_failures"`
	AvgProcessingTimeMs  float64 `json:"avg_processing_time_ms"`
}

// MetricsObserver counts inspection outcomes
type MetricsObserver struct {
	mu                  sync.RWMutex
	stats               Stats
	totalProcessingTime time.Duration
}

func NewMetricsObserver() *MetricsObserver {
	return &MetricsObserver{}
}

func (o *MetricsObserver) OnEvent(ctx context.Context, event InspectionEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()

	switch event.EventType {
	case InspectionStarted:
		o.stats.TotalInspections++
	case InspectionCompleted:
		o.stats.CompletedInspections++
		o.totalProcessingTime += event.ProcessingTime
		if event.Conforming {
			o.stats.ConformingFlags++
		} else {
			o.stats.NonConformingFlags++
		}
	case InspectionFailed:
		o.stats.FailedInspections++
	case ImageFetchFailed:
		o.stats.FetchFailures++
	}
}

func (o *MetricsObserver) GetObserverName() string {
	return "metrics_observer"
}

// GetStats returns a copy of the current counters
func (o *MetricsObserver) GetStats() Stats {
	o.mu.RLock()
	defer o.mu.RUnlock()

	stats := o.stats
	if stats.CompletedInspections > 0 {
		avg := o.totalProcessingTime / time.Duration(stats.CompletedInspections)
		stats.AvgProcessingTimeMs = float64(avg.Microseconds()) / 1000
	}
	return stats
}

// EventPublisher fans events out to observers on their own goroutines
type EventPublisher struct {
	mu        sync.RWMutex
	observers []Observer
	inflight  sync.WaitGroup
}

func NewEventPublisher() *EventPublisher {
	return &EventPublisher{
		observers: make([]Observer, 0),
	}
}

func (p *EventPublisher) Subscribe(observer Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.observers = append(p.observers, observer)
}

// Unsubscribe removes the first observer with the same name
func (p *EventPublisher) Unsubscribe(observer Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i, obs := range p.observers {
		if obs.GetObserverName() == observer.GetObserverName() {
			p.observers = append(p.observers[:i], p.observers[i+1:]...)
			break
		}
	}
}

// NotifyObservers does not wait for observers; a panicking observer is logged and dropped
func (p *EventPublisher) NotifyObservers(ctx context.Context, event InspectionEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	p.mu.RLock()
	observers := make([]Observer, len(p.observers))
	copy(observers, p.observers)
	p.mu.RUnlock()

	for _, observer := range observers {
		p.inflight.Add(1)
		go func(obs Observer) {
			defer p.inflight.Done()
			defer func() {
				if r := recover(); r != nil {
					logrus.WithField("observer", obs.GetObserverName()).
						WithField("panic", r).
						Error("Observer panicked while handling event")
				}
			}()
			obs.OnEvent(ctx, event)
		}(observer)
	}
}

// Wait blocks until every notification sent so far has been handled
func (p *EventPublisher) Wait() {
	p.inflight.Wait()
}
