// Package bot exposes the roster as the owner-only "patrons" chat command.
package bot

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Sternrassler/patreon-roster/pkg/roster"
)

const (
	// CommandPatrons lists the creator's patrons.
	CommandPatrons = "patrons"

	// argRefresh drops a cached roster before listing.
	argRefresh = "refresh"

	// DefaultPrefix starts every command.
	DefaultPrefix = "!"

	// EmptyRosterReply is sent when the campaign has no pledges.
	EmptyRosterReply = "No patrons found."

	// FailureReply is sent when the roster could not be built.
	FailureReply = "Could not fetch the patron list, check the logs."
)

// Message is an incoming chat message.
type Message struct {
	AuthorID  int64
	ChannelID string
	Content   string
}

// Replier sends a message to a channel.
type Replier interface {
	Reply(ctx context.Context, channelID, content string) error
}

// Invalidator is implemented by roster sources that cache.
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

// Config configures a Handler.
type Config struct {
	// OwnerID is the only user allowed to run commands. Zero denies everyone
	// until SetOwner is called.
	OwnerID int64

	// Prefix starts every command (default DefaultPrefix).
	Prefix string
}

// Handler dispatches chat messages to the roster.
type Handler struct {
	source roster.Source
	prefix string
	logger zerolog.Logger

	mu      sync.RWMutex
	ownerID int64
}

// NewHandler creates a command handler backed by source.
func NewHandler(source roster.Source, cfg Config) *Handler {
	prefix := cfg.Prefix
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Handler{
		source:  source,
		prefix:  prefix,
		ownerID: cfg.OwnerID,
		logger:  log.With().Str("component", "bot").Logger(),
	}
}

// SetOwner sets the user allowed to run commands.
func (h *Handler) SetOwner(id int64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.ownerID = id
}

// Owner returns the user allowed to run commands, 0 if unknown.
func (h *Handler) Owner() int64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.ownerID
}

// Handle runs the command in msg, if any. It reports whether msg was a
// command this handler owns. Invocations by anyone but the owner are dropped
// without a reply. The returned error is a failure to reply; roster failures
// are answered in the channel.
func (h *Handler) Handle(ctx context.Context, msg Message, reply Replier) (bool, error) {
	name, args, ok := h.parse(msg.Content)
	if !ok || name != CommandPatrons {
		return false, nil
	}

	owner := h.Owner()
	if owner == 0 || msg.AuthorID != owner {
		h.logger.Warn().
			Int64("author_id", msg.AuthorID).
			Str("channel_id", msg.ChannelID).
			Str("command", name).
			Msg("Ignoring command from non-owner")
		return true, nil
	}

	if len(args) > 0 && args[0] == argRefresh {
		h.invalidate(ctx)
	}

	patrons, err := h.source.Patrons(ctx)
	if err != nil {
		h.logger.Error().
			Err(err).
			Str("channel_id", msg.ChannelID).
			Msg("Failed to build roster")
		return true, h.send(ctx, reply, msg.ChannelID, []string{FailureReply})
	}

	if len(patrons) == 0 {
		return true, h.send(ctx, reply, msg.ChannelID, []string{EmptyRosterReply})
	}

	return true, h.send(ctx, reply, msg.ChannelID, FormatRoster(patrons))
}

func (h *Handler) parse(content string) (string, []string, bool) {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, h.prefix) {
		return "", nil, false
	}

	fields := strings.Fields(strings.TrimPrefix(content, h.prefix))
	if len(fields) == 0 {
		return "", nil, false
	}
	return fields[0], fields[1:], true
}

func (h *Handler) invalidate(ctx context.Context) {
	inv, ok := h.source.(Invalidator)
	if !ok {
		return
	}
	if err := inv.Invalidate(ctx); err != nil {
		h.logger.Warn().Err(err).Msg("Failed to invalidate cached roster")
		return
	}
	h.logger.Debug().Msg("Cached roster invalidated")
}

func (h *Handler) send(ctx context.Context, reply Replier, channelID string, chunks []string) error {
	for i, chunk := range chunks {
		if err := reply.Reply(ctx, channelID, chunk); err != nil {
			h.logger.Error().
				Err(err).
				Str("channel_id", channelID).
				Int("chunk", i+1).
				Int("chunks", len(chunks)).
				Msg("Failed to send reply")
			return fmt.Errorf("reply %d/%d: %w", i+1, len(chunks), err)
		}
	}
	return nil
}
