// Package router adds topic-filter dispatch on top of
// mqttclient.Client.ReadSubscriptions. Register handlers per topic
// filter, then run Pull in its own goroutine to have Route invoked for
// each inbound PUBLISH as it arrives.
package router

import (
	"context"
	"strings"
	"sync"

	"github.com/go-mqttcore/mqttclient"
)

// MessageHandler is invoked by a Router when a delivered PUBLISH
// matches one of its registered topic filters.
type MessageHandler func(*mqttclient.ReadResult)

// Router dispatches delivered PUBLISH messages to MessageHandlers
// registered against topic filters (which may use the + and #
// wildcards).
type Router interface {
	RegisterHandler(topicFilter string, h MessageHandler)
	UnregisterHandler(topicFilter string)
	Route(r *mqttclient.ReadResult)
}

// StandardRouter supports unique and multiple handlers per topic
// filter, matched with full +/# wildcard semantics.
type StandardRouter struct {
	mu            sync.RWMutex
	subscriptions map[string][]MessageHandler
}

// NewStandardRouter returns an empty StandardRouter.
func NewStandardRouter() *StandardRouter {
	return &StandardRouter{subscriptions: make(map[string][]MessageHandler)}
}

func (r *StandardRouter) RegisterHandler(topicFilter string, h MessageHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subscriptions[topicFilter] = append(r.subscriptions[topicFilter], h)
}

func (r *StandardRouter) UnregisterHandler(topicFilter string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.subscriptions, topicFilter)
}

func (r *StandardRouter) Route(result *mqttclient.ReadResult) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for filter, handlers := range r.subscriptions {
		if match(filter, result.Topic) {
			for _, h := range handlers {
				h(result)
			}
		}
	}
}

// SingleHandlerRouter invokes one handler for every delivered PUBLISH,
// regardless of topic. Useful when the caller does its own dispatch.
type SingleHandlerRouter struct {
	mu      sync.Mutex
	handler MessageHandler
}

// NewSingleHandlerRouter returns a SingleHandlerRouter calling h for
// every delivered PUBLISH.
func NewSingleHandlerRouter(h MessageHandler) *SingleHandlerRouter {
	return &SingleHandlerRouter{handler: h}
}

func (s *SingleHandlerRouter) RegisterHandler(_ string, h MessageHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handler = h
}

func (s *SingleHandlerRouter) UnregisterHandler(_ string) {}

func (s *SingleHandlerRouter) Route(result *mqttclient.ReadResult) {
	s.mu.Lock()
	h := s.handler
	s.mu.Unlock()
	if h != nil {
		h(result)
	}
}

// Pull reads from c.ReadSubscriptions in a loop, calling r.Route for
// each delivered PUBLISH, until ctx is done or the connection is
// lost. It is meant to run in its own goroutine.
func Pull(ctx context.Context, c *mqttclient.Client, r Router) error {
	for {
		result, err := c.ReadSubscriptions(ctx)
		if err != nil {
			return err
		}
		r.Route(result)
	}
}

func match(filter, topic string) bool {
	return filter == topic || matchDeep(filterSplit(filter), topicSplit(topic))
}

func matchDeep(filter, topic []string) bool {
	if len(filter) == 0 {
		return len(topic) == 0
	}
	if len(topic) == 0 {
		return filter[0] == "#"
	}
	if filter[0] == "#" {
		return true
	}
	if filter[0] == "+" || filter[0] == topic[0] {
		return matchDeep(filter[1:], topic[1:])
	}
	return false
}

func filterSplit(filter string) []string {
	if len(filter) == 0 {
		return nil
	}
	return strings.Split(filter, "/")
}

func topicSplit(topic string) []string {
	if len(topic) == 0 {
		return nil
	}
	return strings.Split(topic, "/")
}
