package events

import "time"

// Event is a message addressed to an exchange with a routing key.
type Event struct {
	ID         string    `json:"id"`
	Exchange   string    `json:"exchange"`
	RoutingKey string    `json:"routing_key"`
	Timestamp  time.Time `json:"timestamp"`
	Body       []byte    `json:"body"`
}

// Route identifies a subscription.
type Route struct {
	Exchange   string
	RoutingKey string
}

func (e Event) route() Route {
	return Route{Exchange: e.Exchange, RoutingKey: e.RoutingKey}
}
