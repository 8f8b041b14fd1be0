package bot

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// CommandTimeout bounds a single command, including every page request.
const CommandTimeout = 2 * time.Minute

// gateway is the connection lifecycle of a session.
type gateway interface {
	Open() error
	Close() error
}

// Discord connects a Handler to a Discord gateway session.
type Discord struct {
	session     *discordgo.Session
	gateway     gateway
	ownerLookup func() (int64, error)
	handler     *Handler
	logger      zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc
}

// NewDiscord creates a bot session for token. The session is not connected
// until Open.
func NewDiscord(token string, handler *Handler) (*Discord, error) {
	if token == "" {
		return nil, fmt.Errorf("discord token is required")
	}

	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentGuildMessages |
		discordgo.IntentDirectMessages |
		discordgo.IntentMessageContent

	ctx, cancel := context.WithCancel(context.Background())
	d := &Discord{
		session: session,
		gateway: session,
		handler: handler,
		logger:  log.With().Str("component", "discord").Logger(),
		ctx:     ctx,
		cancel:  cancel,
	}
	d.ownerLookup = d.applicationOwner
	session.AddHandler(d.onMessageCreate)

	return d, nil
}

// Open connects to the gateway. Without a configured owner the owner of the
// bot application is looked up; if that fails the session is closed again.
func (d *Discord) Open() error {
	if err := d.gateway.Open(); err != nil {
		return fmt.Errorf("open discord session: %w", err)
	}

	if d.handler.Owner() == 0 {
		owner, err := d.ownerLookup()
		if err != nil {
			if closeErr := d.gateway.Close(); closeErr != nil {
				d.logger.Warn().Err(closeErr).Msg("Failed to close discord session")
			}
			return err
		}
		d.handler.SetOwner(owner)
	}

	d.logger.Info().
		Int64("owner_id", d.handler.Owner()).
		Msg("Discord session open")
	return nil
}

// Close cancels running commands and disconnects.
func (d *Discord) Close() error {
	d.cancel()
	return d.gateway.Close()
}

func (d *Discord) applicationOwner() (int64, error) {
	app, err := d.session.Application("@me")
	if err != nil {
		return 0, fmt.Errorf("look up bot application: %w", err)
	}
	if app.Owner == nil {
		return 0, fmt.Errorf("bot application has no owner")
	}
	id, err := strconv.ParseInt(app.Owner.ID, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse owner id %q: %w", app.Owner.ID, err)
	}
	return id, nil
}

func (d *Discord) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	msg, ok := toMessage(m.Message)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(d.ctx, CommandTimeout)
	defer cancel()

	if _, err := d.handler.Handle(ctx, msg, sessionReplier{s}); err != nil {
		d.logger.Error().Err(err).Str("channel_id", msg.ChannelID).Msg("Command failed")
	}
}

// toMessage converts a gateway message. Messages from bots and from
// authors with unparseable ids are skipped.
func toMessage(m *discordgo.Message) (Message, bool) {
	if m == nil || m.Author == nil || m.Author.Bot {
		return Message{}, false
	}
	authorID, err := strconv.ParseInt(m.Author.ID, 10, 64)
	if err != nil {
		return Message{}, false
	}
	return Message{
		AuthorID:  authorID,
		ChannelID: m.ChannelID,
		Content:   m.Content,
	}, true
}

type sessionReplier struct {
	session *discordgo.Session
}

func (r sessionReplier) Reply(ctx context.Context, channelID, content string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := r.session.ChannelMessageSend(channelID, content)
	return err
}
