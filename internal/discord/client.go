package discord

import (
	"context"
	"log/slog"

	"nexus-bot/internal/metrics"

	"github.com/bwmarrin/discordgo"
	"github.com/cockroachdb/errors"
)

// Intents requested at login. Message content and guild members are privileged and must be
// enabled for the application.
const Intents = discordgo.IntentsGuilds |
	discordgo.IntentsGuildMessages |
	discordgo.IntentsMessageContent |
	discordgo.IntentsDirectMessages |
	discordgo.IntentsGuildMembers

// Config holds configuration to initialise the Discord client.
type Config struct {
	Token   string
	Metrics *metrics.Metrics
}

// EventProcessor handles inbound gateway events.
type EventProcessor interface {
	OnReady(ctx context.Context, evt *discordgo.Ready)
	OnMessage(ctx context.Context, evt *discordgo.MessageCreate)
	OnInteraction(ctx context.Context, evt *discordgo.InteractionCreate)
	OnMemberAdd(ctx context.Context, evt *discordgo.GuildMemberAdd)
	OnMemberRemove(ctx context.Context, evt *discordgo.GuildMemberRemove)
}

// Client wraps the discordgo session. It is the single chat handle shared by every
// component; the embedded session provides the REST calls.
type Client struct {
	*discordgo.Session

	logger    *slog.Logger
	metrics   *metrics.Metrics
	processor EventProcessor
	ctx       context.Context
}

// New creates a Discord client. The gateway connection is opened by Start.
func New(cfg Config, logger *slog.Logger) (*Client, error) {
	if cfg.Token == "" {
		return nil, errors.New("discord token is required")
	}
	session, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, errors.Wrap(err, "create discord session")
	}
	session.Identify.Intents = Intents
	session.StateEnabled = true

	dc := &Client{
		Session: session,
		logger:  logger.With("component", "discord"),
		metrics: cfg.Metrics,
		ctx:     context.Background(),
	}
	session.AddHandler(dc.handleEvent)
	return dc, nil
}

// SetEventProcessor registers the event processor callback.
func (c *Client) SetEventProcessor(processor EventProcessor) {
	c.processor = processor
}

// Start logs in and opens the gateway. Handlers receive ctx, so cancelling it stops
// in-flight store calls on shutdown.
func (c *Client) Start(ctx context.Context) error {
	c.ctx = ctx
	if err := c.Session.Open(); err != nil {
		return errors.Wrap(err, "open discord gateway")
	}
	c.logger.Info("discord client connected")
	return nil
}

// Close disconnects from the gateway.
func (c *Client) Close() {
	if c.Session == nil {
		return
	}
	if err := c.Session.Close(); err != nil {
		c.logger.Warn("failed closing discord session", "error", err)
	}
}

// Channel resolves a channel from the state cache, falling back to the REST API.
func (c *Client) Channel(channelID string, options ...discordgo.RequestOption) (*discordgo.Channel, error) {
	if c.State != nil {
		if ch, err := c.State.Channel(channelID); err == nil {
			return ch, nil
		}
	}
	return c.Session.Channel(channelID, options...)
}

// GuildMemberCount returns the cached member count of a guild, or 0 when unknown.
func (c *Client) GuildMemberCount(guildID string) int {
	if c.State == nil {
		return 0
	}
	guild, err := c.State.Guild(guildID)
	if err != nil {
		return 0
	}
	return guild.MemberCount
}

func (c *Client) handleEvent(_ *discordgo.Session, evt interface{}) {
	switch v := evt.(type) {
	case *discordgo.Ready:
		c.logger.Info("logged in", "user", v.User.String(), "guilds", len(v.Guilds))
		c.dispatch("ready", func(p EventProcessor) { p.OnReady(c.ctx, v) })
	case *discordgo.MessageCreate:
		if v.Author != nil && !v.Author.Bot {
			c.logger.Debug("received message", "from", v.Author.String(), "channel", v.ChannelID)
		}
		c.dispatch("message", func(p EventProcessor) { p.OnMessage(c.ctx, v) })
	case *discordgo.InteractionCreate:
		c.dispatch("interaction", func(p EventProcessor) { p.OnInteraction(c.ctx, v) })
	case *discordgo.GuildMemberAdd:
		c.dispatch("member_add", func(p EventProcessor) { p.OnMemberAdd(c.ctx, v) })
	case *discordgo.GuildMemberRemove:
		c.dispatch("member_remove", func(p EventProcessor) { p.OnMemberRemove(c.ctx, v) })
	case *discordgo.Disconnect:
		c.logger.Warn("gateway disconnected")
	case *discordgo.Resumed:
		c.logger.Info("gateway resumed")
	}
}

// dispatch runs on discordgo's per-event goroutine, so processors may block.
func (c *Client) dispatch(kind string, fn func(EventProcessor)) {
	c.metrics.Incoming(kind)
	if c.processor == nil {
		return
	}
	fn(c.processor)
}
