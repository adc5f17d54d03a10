package listview

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/asaidimu/go-tableview/core/query"
	"github.com/google/uuid"
)

// EventType names an event emitted by a ListView.
type EventType string

const (
	ViewRebuilt       EventType = "view:rebuilt"
	ViewRebuildFailed EventType = "view:rebuild:failed"
	PageChanged       EventType = "page:changed"
	SelectionChanged  EventType = "selection:changed"
)

// Event is the payload delivered to subscribers.
type Event struct {
	Type       EventType             `json:"type"`
	Timestamp  int64                 `json:"timestamp"`           // Unix milliseconds.
	Operation  string                `json:"operation"`           // e.g. "next", "search", "sort".
	Page       int                   `json:"page"`                // Current page after the operation.
	PageCount  int                   `json:"pageCount"`
	Total      int                   `json:"total"`               // Records left after filtering and searching.
	Parameters *query.ViewParameters `json:"parameters,omitempty"`
	Selected   []string              `json:"selected,omitempty"`
	Error      *string               `json:"error,omitempty"`
	Duration   *int64                `json:"duration,omitempty"` // Milliseconds.
}

// EventCallbackFunction handles an emitted event.
type EventCallbackFunction func(ctx context.Context, event Event) error

// SubscriptionInfo describes a registered subscription.
type SubscriptionInfo struct {
	ID          string    `json:"id"`
	Event       EventType `json:"event"`
	Label       *string   `json:"label,omitempty"`
	Description *string   `json:"description,omitempty"`
	Unsubscribe func()    `json:"-"`
}

// RegisterSubscriptionOptions defines a subscription to register.
type RegisterSubscriptionOptions struct {
	Event       EventType `json:"event"`
	Label       *string   `json:"label,omitempty"`
	Description *string   `json:"description,omitempty"`
	Callback    EventCallbackFunction
}

// state is the part of the controller an event reports on.
type state struct {
	page      int
	pageCount int
	total     int
	params    query.ViewParameters
	selected  []string
}

func createEvent(eventType EventType, operation string, s state, err error, startTime time.Time) Event {
	var duration *int64
	if !startTime.IsZero() {
		d := time.Since(startTime).Milliseconds()
		duration = &d
	}

	var errStr *string
	if err != nil {
		msg := err.Error()
		errStr = &msg
	}

	params := s.params.Clone()
	return Event{
		Type:       eventType,
		Timestamp:  time.Now().UnixMilli(),
		Operation:  operation,
		Page:       s.page,
		PageCount:  s.pageCount,
		Total:      s.total,
		Parameters: &params,
		Selected:   s.selected,
		Error:      errStr,
		Duration:   duration,
	}
}

// emitEvent publishes event on the bus. Must be called without holding lv.mu,
// so callbacks are free to call back into the ListView.
func (lv *ListView) emitEvent(event Event) {
	if lv.bus != nil {
		lv.bus.Emit(string(event.Type), event)
	}
}

// RegisterSubscription subscribes a callback to one event type and returns the
// subscription id.
func (lv *ListView) RegisterSubscription(options RegisterSubscriptionOptions) (string, error) {
	if options.Callback == nil {
		return "", fmt.Errorf("subscription to %q has no callback", options.Event)
	}
	lv.subMu.Lock()
	defer lv.subMu.Unlock()

	unsubscribe := lv.bus.Subscribe(string(options.Event), options.Callback)
	id := uuid.New().String()
	lv.subscriptions[id] = &SubscriptionInfo{
		ID:          id,
		Event:       options.Event,
		Label:       options.Label,
		Description: options.Description,
		Unsubscribe: unsubscribe,
	}
	lv.logger.Debug("Registered subscription", zapSubscription(id, options.Event)...)
	return id, nil
}

// UnregisterSubscription removes a subscription. Unknown ids are ignored.
func (lv *ListView) UnregisterSubscription(id string) {
	lv.subMu.Lock()
	defer lv.subMu.Unlock()
	info := lv.subscriptions[id]
	if info != nil {
		info.Unsubscribe()
		delete(lv.subscriptions, id)
		lv.logger.Debug("Unregistered subscription", zapSubscription(id, info.Event)...)
	}
}

// Subscriptions lists the registered subscriptions.
func (lv *ListView) Subscriptions() []SubscriptionInfo {
	lv.subMu.RLock()
	defer lv.subMu.RUnlock()
	out := make([]SubscriptionInfo, 0, len(lv.subscriptions))
	for _, info := range lv.subscriptions {
		out = append(out, *info)
	}
	slices.SortFunc(out, func(a, b SubscriptionInfo) int {
		return strings.Compare(a.ID, b.ID)
	})
	return out
}
