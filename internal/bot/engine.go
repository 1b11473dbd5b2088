// Package bot routes Discord events to the ticketing handlers: code redemption, the order
// lifecycle commands and buttons, transcripts, announcements and member greetings.
package bot

import (
	"context"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"nexus-bot/internal/metrics"
	"nexus-bot/internal/repo"

	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"
)

// Session is the part of the Discord API the handlers call.
type Session interface {
	Channel(channelID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	ChannelMessageSend(channelID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageSendReply(channelID, content string, reference *discordgo.MessageReference, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageDelete(channelID, messageID string, options ...discordgo.RequestOption) error
	ChannelMessages(channelID string, limit int, beforeID, afterID, aroundID string, options ...discordgo.RequestOption) ([]*discordgo.Message, error)
	ChannelDelete(channelID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	GuildChannelCreateComplex(guildID string, data discordgo.GuildChannelCreateData, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	UserChannelCreate(recipientID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error
	InteractionResponseEdit(interaction *discordgo.Interaction, newresp *discordgo.WebhookEdit, options ...discordgo.RequestOption) (*discordgo.Message, error)
	FollowupMessageCreate(interaction *discordgo.Interaction, wait bool, data *discordgo.WebhookParams, options ...discordgo.RequestOption) (*discordgo.Message, error)
	GuildMemberCount(guildID string) int
}

// Store is the part of the store gateway the handlers call.
type Store interface {
	GetOrderByCode(ctx context.Context, code string) (*repo.Order, error)
	FindOrderByOrderID(ctx context.Context, orderID string) (*repo.Order, error)
	TransitionOrderByID(ctx context.Context, id string, to repo.OrderStatus, actor *string) (*repo.Order, error)
	TransitionOrderByOrderID(ctx context.Context, orderID string, to repo.OrderStatus, actor *string) (*repo.Order, error)
	LinkOrderCustomer(ctx context.Context, orderID, discordUserID string) error
	AwardXP(ctx context.Context, discordUserID string, amount int64, reason string) error

	FindActiveTicket(ctx context.Context, orderID string) (*repo.Ticket, error)
	CreateTicket(ctx context.Context, ticket repo.Ticket) (*repo.Ticket, error)
	SetTicketChannel(ctx context.Context, ticketID uuid.UUID, channelID string) error
	CloseTicket(ctx context.Context, ticketID uuid.UUID, closedAt time.Time) error
	InsertTicketMessage(ctx context.Context, msg repo.TicketMessage) error

	UpsertAnnouncement(ctx context.Context, ann repo.Announcement) error
	GetAnnouncement(ctx context.Context, id string) (*repo.Announcement, error)
	DeleteAnnouncement(ctx context.Context, id string) error
}

// RedemptionLocker serialises redemptions of the same order across processes.
type RedemptionLocker interface {
	AcquireRedemption(ctx context.Context, orderID string) (func(context.Context), error)
}

// Config carries the guild-specific settings of the engine.
type Config struct {
	Admin                 AdminPolicy
	VerificationChannelID string
	TicketCategoryID      string
	AnnouncementChannelID string
	RulesChannelID        string
	LinksChannelID        string
	EntryChannelID        string
	ExitChannelID         string
	CloseDelay            time.Duration
	Location              *time.Location
	StoreURL              string
	BlikPhone             string
}

// Engine handles Discord events for the ticketing workflow.
type Engine struct {
	session Session
	store   Store
	locker  RedemptionLocker
	cfg     Config
	logger  *slog.Logger
	metrics *metrics.Metrics

	self      atomic.Pointer[discordgo.User]
	now       func() time.Time
	afterFunc func(time.Duration, func())
}

// New constructs the engine. locker may be nil when Redis is not configured.
func New(session Session, store Store, locker RedemptionLocker, m *metrics.Metrics, logger *slog.Logger, cfg Config) *Engine {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &Engine{
		session: session,
		store:   store,
		locker:  locker,
		cfg:     cfg,
		logger:  logger.With("component", "bot"),
		metrics: m,
		now:     time.Now,
		afterFunc: func(d time.Duration, fn func()) {
			time.AfterFunc(d, fn)
		},
	}
}

// OnReady remembers the bot's own user.
func (e *Engine) OnReady(_ context.Context, evt *discordgo.Ready) {
	if evt.User != nil {
		e.self.Store(evt.User)
	}
}

// OnMessage logs ticket channel traffic and dispatches commands and redemption codes.
func (e *Engine) OnMessage(ctx context.Context, evt *discordgo.MessageCreate) {
	m := evt.Message
	if m == nil || m.Author == nil {
		return
	}
	if m.GuildID != "" {
		e.logTicketMessage(ctx, m)
	}
	if m.Author.Bot {
		return
	}

	switch cmd := commandOf(m.Content); cmd {
	case cmdPayment:
		e.handlePayment(ctx, m)
	case cmdSuccess:
		e.handleMarkOutcome(ctx, m, true)
	case cmdFailure:
		e.handleMarkOutcome(ctx, m, false)
	case cmdBackup:
		e.handleBackup(ctx, m)
	case cmdSummon:
		e.handleSummon(ctx, m)
	case cmdClose:
		e.handleClose(ctx, m)
	case cmdAnnounce:
		e.handleAnnouncement(ctx, m)
	case cmdSetup:
		e.handleSetup(ctx, m)
	default:
		e.handleRedemption(ctx, m)
	}
}

const (
	cmdPayment  = "!platnosc"
	cmdSuccess  = "!pomyslnie"
	cmdFailure  = "!niepomyslnie"
	cmdBackup   = "!backup"
	cmdSummon   = "!wezwij"
	cmdClose    = "!close"
	cmdAnnounce = "!ogloszenie"
	cmdSetup    = "!setup"
)

// commandOf matches the content prefix. Outcome commands are case-insensitive, the rest
// are matched as typed.
func commandOf(content string) string {
	lower := strings.ToLower(content)
	switch {
	case strings.HasPrefix(lower, cmdSuccess):
		return cmdSuccess
	case strings.HasPrefix(lower, cmdFailure):
		return cmdFailure
	}
	for _, cmd := range []string{cmdPayment, cmdBackup, cmdSummon, cmdClose, cmdAnnounce, cmdSetup} {
		if strings.HasPrefix(content, cmd) {
			return cmd
		}
	}
	return ""
}

func (e *Engine) selfUser() *discordgo.User {
	return e.self.Load()
}

func (e *Engine) reply(m *discordgo.Message, content string) {
	if _, err := e.session.ChannelMessageSendReply(m.ChannelID, content, m.Reference()); err != nil {
		e.logger.Warn("failed to send reply", "channel_id", m.ChannelID, "error", err)
		return
	}
	e.metrics.Outgoing("reply")
}

func (e *Engine) send(channelID, content string) {
	if _, err := e.session.ChannelMessageSend(channelID, content); err != nil {
		e.logger.Warn("failed to send message", "channel_id", channelID, "error", err)
		return
	}
	e.metrics.Outgoing("text")
}

func (e *Engine) sendEmbed(channelID string, embed *discordgo.MessageEmbed) (*discordgo.Message, error) {
	msg, err := e.session.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{embed},
	})
	if err != nil {
		return nil, err
	}
	e.metrics.Outgoing("embed")
	return msg, nil
}

// deleteMessage removes a message and swallows failures.
func (e *Engine) deleteMessage(channelID, messageID string) {
	if err := e.session.ChannelMessageDelete(channelID, messageID); err != nil {
		e.logger.Debug("failed to delete message", "channel_id", channelID, "message_id", messageID, "error", err)
	}
}

func (e *Engine) fail(command string, err error, attrs ...any) {
	e.metrics.Command(command, "error")
	e.metrics.Error("bot")
	e.logger.Error("command failed", append([]any{"command", command, "error", err}, attrs...)...)
}
