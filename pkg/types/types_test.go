package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strptr(s string) *string { return &s }

func TestMessage_Reply(t *testing.T) {
	msg := &Message{
		MessageID:     "mid-1",
		FromAddr:      "+27831234567",
		ToAddr:        "*120*1#",
		Content:       strptr("hello"),
		SessionEvent:  SessionResume,
		TransportName: "transport",
		TransportType: "ussd",
	}

	reply := msg.Reply("the menu", true)

	assert.Equal(t, "*120*1#", reply.FromAddr)
	assert.Equal(t, "+27831234567", reply.ToAddr)
	assert.Equal(t, "the menu", *reply.Content)
	assert.Equal(t, SessionResume, reply.SessionEvent)
	assert.Equal(t, "mid-1", reply.InReplyTo)
	assert.Equal(t, "transport", reply.TransportName)
	assert.NotEmpty(t, reply.MessageID)
	assert.NotEqual(t, msg.MessageID, reply.MessageID)
}

func TestMessage_ReplyClosesSession(t *testing.T) {
	msg := &Message{MessageID: "mid-1", FromAddr: "u", ToAddr: "line"}
	reply := msg.Reply("bye", false)
	assert.Equal(t, SessionClose, reply.SessionEvent)
}

func TestMessage_Forwarded(t *testing.T) {
	msg := &Message{
		MessageID:    "mid-2",
		FromAddr:     "u",
		ToAddr:       "line",
		Content:      strptr("1"),
		SessionEvent: SessionResume,
	}

	fwd := msg.Forwarded()

	assert.Nil(t, fwd.Content)
	assert.Equal(t, SessionNew, fwd.SessionEvent)
	// The forwarded copy keeps the original message id.
	assert.Equal(t, "mid-2", fwd.MessageID)
	// The original is untouched.
	assert.Equal(t, "1", *msg.Content)
	assert.Equal(t, SessionResume, msg.SessionEvent)
}

func TestMessage_CopyMetadataIsolation(t *testing.T) {
	msg := &Message{MessageID: "m", HelperMetadata: map[string]any{"a": 1}}
	c := msg.Copy()
	c.HelperMetadata["b"] = 2
	_, ok := msg.HelperMetadata["b"]
	assert.False(t, ok)
}

func TestMessage_EndpointOrDefault(t *testing.T) {
	msg := &Message{}
	assert.Equal(t, DefaultEndpoint, msg.EndpointOrDefault())
	msg.RoutingEndpoint = "flappy-bird"
	assert.Equal(t, "flappy-bird", msg.EndpointOrDefault())
}

func TestSession_EndpointsRoundTrip(t *testing.T) {
	encoded, err := EncodeEndpoints([]string{"flappy-bird", "mama"})
	require.NoError(t, err)

	sess := Session{FieldEndpoints: encoded}
	endpoints, err := sess.Endpoints()
	require.NoError(t, err)
	assert.Equal(t, []string{"flappy-bird", "mama"}, endpoints)
}

func TestSession_EndpointsAbsent(t *testing.T) {
	sess := Session{}
	endpoints, err := sess.Endpoints()
	require.NoError(t, err)
	assert.Nil(t, endpoints)
}

func TestSession_Merge(t *testing.T) {
	sess := Session{FieldState: "select"}
	sess.Merge(map[string]string{FieldActiveEndpoint: "flappy-bird"})
	assert.Equal(t, "select", sess.State())
	assert.Equal(t, "flappy-bird", sess.ActiveEndpoint())
}

func TestConfig_TargetEndpoints(t *testing.T) {
	cfg := &Config{Entries: []MenuEntry{
		{Label: "Flappy Bird", Endpoint: "flappy-bird"},
		{Label: "Mama", Endpoint: "mama"},
	}}

	targets := cfg.TargetEndpoints()
	assert.Contains(t, targets, "flappy-bird")
	assert.Contains(t, targets, "mama")
	assert.Len(t, targets, 2)
	assert.Equal(t, []string{"flappy-bird", "mama"}, cfg.EndpointNames())
}
