// Package types contains the wire types shared between the dispatcher,
// the connector bus, and the stores.
package types

import "github.com/oklog/ulid/v2"

// Session events carried on user messages.
const (
	SessionNew    = "new"
	SessionResume = "resume"
	SessionClose  = "close"
)

// DefaultEndpoint is the endpoint a message is addressed to when no
// routing endpoint has been set explicitly.
const DefaultEndpoint = "default"

// Message is a transport user message moving between a transport
// connector and an application connector. Content is a pointer because
// session-start messages legitimately carry no text.
type Message struct {
	MessageID       string         `json:"message_id"`
	FromAddr        string         `json:"from_addr"`
	ToAddr          string         `json:"to_addr"`
	Content         *string        `json:"content"`
	SessionEvent    string         `json:"session_event,omitempty"`
	TransportName   string         `json:"transport_name,omitempty"`
	TransportType   string         `json:"transport_type,omitempty"`
	InReplyTo       string         `json:"in_reply_to,omitempty"`
	RoutingEndpoint string         `json:"routing_endpoint,omitempty"`
	HelperMetadata  map[string]any `json:"helper_metadata,omitempty"`
}

// Event is an asynchronous delivery event (ack, nack, delivery report)
// referring back to a previously sent outbound message.
type Event struct {
	EventID         string `json:"event_id"`
	EventType       string `json:"event_type"`
	UserMessageID   string `json:"user_message_id"`
	TransportName   string `json:"transport_name,omitempty"`
	RoutingEndpoint string `json:"routing_endpoint,omitempty"`
}

// NewMessageID returns a fresh message identifier.
func NewMessageID() string {
	return ulid.Make().String()
}

// ContentText returns the message content as a plain string, empty when
// the content is absent.
func (m *Message) ContentText() string {
	if m.Content == nil {
		return ""
	}
	return *m.Content
}

// EndpointOrDefault returns the message's routing endpoint, falling back
// to the default endpoint name.
func (m *Message) EndpointOrDefault() string {
	if m.RoutingEndpoint == "" {
		return DefaultEndpoint
	}
	return m.RoutingEndpoint
}

// Reply builds a response to this message addressed back to its sender.
// The reply gets a fresh message id and references the original via
// in_reply_to. When continueSession is false the reply closes the
// user's transport session.
func (m *Message) Reply(content string, continueSession bool) *Message {
	event := SessionResume
	if !continueSession {
		event = SessionClose
	}
	return &Message{
		MessageID:      NewMessageID(),
		FromAddr:       m.ToAddr,
		ToAddr:         m.FromAddr,
		Content:        &content,
		SessionEvent:   event,
		TransportName:  m.TransportName,
		TransportType:  m.TransportType,
		InReplyTo:      m.MessageID,
		HelperMetadata: map[string]any{},
	}
}

// Copy returns a field-for-field copy of the message, message id
// included. Helper metadata is copied shallowly so decoration of the
// copy does not leak into the original.
func (m *Message) Copy() *Message {
	c := *m
	if m.Content != nil {
		content := *m.Content
		c.Content = &content
	}
	if m.HelperMetadata != nil {
		c.HelperMetadata = make(map[string]any, len(m.HelperMetadata))
		for k, v := range m.HelperMetadata {
			c.HelperMetadata[k] = v
		}
	}
	return &c
}

// Forwarded returns a copy of the message carrying a synthetic session
// start: no content, session_event "new". Used when handing a user over
// to the application they selected.
func (m *Message) Forwarded() *Message {
	c := m.Copy()
	c.Content = nil
	c.SessionEvent = SessionNew
	return c
}
