package bot

import (
	"context"

	"nexus-bot/internal/repo"

	"github.com/bwmarrin/discordgo"
)

const (
	contentEmbedOnly  = "[Widżet Embed]"
	contentAttachment = "[Załącznik]"
)

// logTicketMessage appends every message seen in a ticket channel to ticket_messages.
func (e *Engine) logTicketMessage(ctx context.Context, m *discordgo.Message) {
	ch, err := e.session.Channel(m.ChannelID)
	if err != nil {
		e.logger.Debug("cannot resolve channel for message log", "channel_id", m.ChannelID, "error", err)
		return
	}
	if !IsTicketChannel(ch) || ch.Topic == "" {
		return
	}
	topic, err := ParseTopic(ch.Topic)
	if err != nil {
		e.logger.Warn("skipping ticket message log", "channel_id", ch.ID, "error", err)
		return
	}

	entry := repo.TicketMessage{
		TicketID:   topic.TicketID,
		AuthorName: displayName(m.Member, m.Author),
		AuthorTag:  m.Author.String(),
		Content:    messageLogContent(m),
		IsBot:      m.Author.Bot,
	}
	if err := e.store.InsertTicketMessage(ctx, entry); err != nil {
		e.metrics.Error("msglog")
		e.logger.Error("failed to log ticket message", "ticket_id", topic.TicketID, "error", err)
	}
}

func messageLogContent(m *discordgo.Message) string {
	switch {
	case m.Content != "":
		return m.Content
	case len(m.Embeds) > 0:
		return contentEmbedOnly
	default:
		return contentAttachment
	}
}
