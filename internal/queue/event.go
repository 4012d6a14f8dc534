// Package queue defines the domain events exchanged over the message broker
// together with the AMQP publisher and the audit consumer.
package queue

import "time"

// QueueName is the durable queue all resource events are routed to.
const QueueName = "resource.events"

// EventType names what happened to a resource.
type EventType string

const (
	AccountRegistered EventType = "account.registered"
	ResourceCreated   EventType = "resource.created"
	ResourceUpdated   EventType = "resource.updated"
	ResourceDeleted   EventType = "resource.deleted"
)

// Event is published after a successful write. It carries enough
// information for downstream consumers to audit or react without querying
// the store.
type Event struct {
	Type       EventType `json:"type"`
	Collection string    `json:"collection"`
	ID         string    `json:"id"`
	// Actor is the authenticated account that caused the event, if any.
	Actor string    `json:"actor,omitempty"`
	At    time.Time `json:"at"`
}
