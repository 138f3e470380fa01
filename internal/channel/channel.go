// Package channel provides per-channel reply decoration. The base
// adapter produces plain text; richer channels may add template
// payloads to helper metadata without changing the text.
package channel

import (
	"strconv"

	"github.com/appswitch-io/appswitch/internal/menu"
	"github.com/appswitch-io/appswitch/pkg/types"
)

// Adapter builds the two router-originated replies. Implementations
// must preserve the base text and the reply identity; they may only add
// helper metadata.
type Adapter interface {
	// FirstReply builds the menu reply presented at session start.
	FirstReply(cfg *types.Config, sess types.Session, msg *types.Message) *types.Message
	// InvalidInputReply builds the reply to a choice that did not parse.
	InvalidInputReply(cfg *types.Config, sess types.Session, msg *types.Message) *types.Message
}

// ForName returns the adapter for a configured channel name. Unknown
// names fall back to plain text.
func ForName(name string) Adapter {
	switch name {
	case "messenger":
		return Messenger{}
	default:
		return Text{}
	}
}

// Text is the plain-text adapter used by line-oriented channels such as
// USSD.
type Text struct{}

// FirstReply replies with the rendered menu.
func (Text) FirstReply(cfg *types.Config, sess types.Session, msg *types.Message) *types.Message {
	return msg.Reply(menu.Render(cfg), true)
}

// InvalidInputReply replies with the invalid-input prompt followed by
// the single try-again option.
func (Text) InvalidInputReply(cfg *types.Config, sess types.Session, msg *types.Message) *types.Message {
	return msg.Reply(cfg.InvalidInputMessage+"\n\n1. "+cfg.TryAgainMessage, true)
}

// Messenger decorates replies with a generic template payload so
// channels with rich rendering can show buttons instead of a numbered
// list. The text reply is kept intact underneath.
type Messenger struct{}

// FirstReply renders the menu as buttons when it is small enough for a
// template card.
func (Messenger) FirstReply(cfg *types.Config, sess types.Session, msg *types.Message) *types.Message {
	reply := Text{}.FirstReply(cfg, sess, msg)
	if len(cfg.Entries) > 3 {
		return reply
	}

	buttons := make([]map[string]any, len(cfg.Entries))
	for i, entry := range cfg.Entries {
		buttons[i] = map[string]any{
			"title": entry.Label,
			"payload": map[string]any{
				"content":     strconv.Itoa(i + 1),
				"in_reply_to": reply.MessageID,
			},
		}
	}
	reply.HelperMetadata["messenger"] = map[string]any{
		"template_type": "generic",
		"title":         cfg.MenuTitle,
		"subtitle":      cfg.SubTitle,
		"image_url":     cfg.ImageURL,
		"buttons":       buttons,
	}
	return reply
}

// InvalidInputReply always offers a single try-again button.
func (Messenger) InvalidInputReply(cfg *types.Config, sess types.Session, msg *types.Message) *types.Message {
	reply := Text{}.InvalidInputReply(cfg, sess, msg)
	reply.HelperMetadata["messenger"] = map[string]any{
		"template_type": "generic",
		"title":         cfg.MenuTitle,
		"subtitle":      cfg.InvalidInputMessage,
		"image_url":     cfg.ImageURL,
		"buttons": []map[string]any{{
			"title": cfg.TryAgainMessage,
			"payload": map[string]any{
				"content":     "1",
				"in_reply_to": reply.MessageID,
			},
		}},
	}
	return reply
}
