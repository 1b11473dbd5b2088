package bot

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"nexus-bot/internal/cache"
	"nexus-bot/internal/repo"

	"github.com/bwmarrin/discordgo"
	"github.com/cockroachdb/errors"
)

var codePattern = regexp.MustCompile(`(?i)NXS-[A-Z0-9]{4}-[A-Z0-9]{4}`)

// ExtractCode returns the first redemption code in text, uppercased.
func ExtractCode(text string) (string, bool) {
	match := codePattern.FindString(text)
	if match == "" {
		return "", false
	}
	return strings.ToUpper(match), true
}

var errRedemptionLocked = errors.New("redemption locked")

func (e *Engine) handleRedemption(ctx context.Context, m *discordgo.Message) {
	if e.cfg.VerificationChannelID != "" && m.ChannelID != e.cfg.VerificationChannelID {
		return
	}
	code, ok := ExtractCode(m.Content)
	if !ok {
		return
	}
	e.logger.Info("redemption code received", "code", code, "author_id", m.Author.ID)

	if err := e.redeem(ctx, m, code); err != nil {
		e.fail("redeem", err, "code", code)
		e.reply(m, msgRedemptionFailed)
		return
	}
}

// redeem provisions a ticket for code. Replies for expected refusals are sent here; a
// returned error means an unexpected failure. Partial side effects are not rolled back.
func (e *Engine) redeem(ctx context.Context, m *discordgo.Message, code string) error {
	order, err := e.store.GetOrderByCode(ctx, code)
	if errors.Is(err, repo.ErrNotFound) {
		e.metrics.Command("redeem", "not_found")
		e.reply(m, fmt.Sprintf(msgOrderNotFound, code))
		return nil
	}
	if err != nil {
		return errors.Wrap(err, "lookup order")
	}

	switch order.Status {
	case repo.OrderVerified:
		e.metrics.Command("redeem", "verified")
		e.reply(m, fmt.Sprintf(msgOrderVerified, code))
		return nil
	case repo.OrderRejected:
		e.metrics.Command("redeem", "rejected")
		e.reply(m, fmt.Sprintf(msgOrderRejected, code))
		return nil
	}

	release, err := e.lockRedemption(ctx, order.OrderID)
	if errors.Is(err, errRedemptionLocked) {
		e.metrics.Command("redeem", "in_progress")
		e.reply(m, msgOrderInProgress)
		return nil
	}
	defer release(context.WithoutCancel(ctx))

	if _, err := e.store.FindActiveTicket(ctx, order.OrderID); err == nil {
		e.metrics.Command("redeem", "in_progress")
		e.reply(m, msgOrderInProgress)
		return nil
	} else if !errors.Is(err, repo.ErrNotFound) {
		return errors.Wrap(err, "check active ticket")
	}

	ticket, err := e.store.CreateTicket(ctx, repo.Ticket{
		OrderID:     order.OrderID,
		CustomerID:  m.Author.ID,
		CustomerTag: m.Author.String(),
		Status:      repo.TicketActive,
	})
	if err != nil {
		return errors.Wrap(err, "create ticket")
	}

	topic := TicketTopic{CustomerID: m.Author.ID, TicketID: ticket.ID}
	channel, err := e.session.GuildChannelCreateComplex(m.GuildID, discordgo.GuildChannelCreateData{
		Name:                 TicketChannelName(order.OrderID),
		Type:                 discordgo.ChannelTypeGuildText,
		Topic:                topic.String(),
		ParentID:             e.cfg.TicketCategoryID,
		PermissionOverwrites: e.ticketOverwrites(m.GuildID, m.Author.ID),
	})
	if err != nil {
		return errors.Wrapf(err, "create channel for ticket %s", ticket.ID)
	}

	if err := e.store.SetTicketChannel(ctx, ticket.ID, channel.ID); err != nil {
		return errors.Wrap(err, "set ticket channel")
	}
	if err := e.store.LinkOrderCustomer(ctx, order.OrderID, m.Author.ID); err != nil {
		return errors.Wrap(err, "link order customer")
	}

	_, err = e.session.ChannelMessageSendComplex(channel.ID, &discordgo.MessageSend{
		Content:    fmt.Sprintf("%s | %s", m.Author.Mention(), e.cfg.Admin.Mention()),
		Embeds:     []*discordgo.MessageEmbed{summaryEmbed(order, m.Author, e.now())},
		Components: summaryButtons(order.ID),
	})
	if err != nil {
		return errors.Wrap(err, "post order summary")
	}
	e.metrics.Outgoing("embed")

	e.deleteMessage(m.ChannelID, m.ID)
	e.metrics.Command("redeem", "ok")
	e.logger.Info("ticket created", "order_id", order.OrderID, "ticket_id", ticket.ID, "channel_id", channel.ID)
	return nil
}

// lockRedemption takes the Redis lock when configured. Lock errors other than contention
// are logged and the redemption continues unlocked.
func (e *Engine) lockRedemption(ctx context.Context, orderID string) (func(context.Context), error) {
	noop := func(context.Context) {}
	if e.locker == nil {
		return noop, nil
	}
	release, err := e.locker.AcquireRedemption(ctx, orderID)
	switch {
	case err == nil:
		return release, nil
	case errors.Is(err, cache.ErrLocked):
		return noop, errRedemptionLocked
	default:
		e.logger.Warn("redemption lock unavailable, continuing without it", "order_id", orderID, "error", err)
		return noop, nil
	}
}

// ticketOverwrites hides the channel from @everyone and opens it to the requester and
// the administrator role.
func (e *Engine) ticketOverwrites(guildID, requesterID string) []*discordgo.PermissionOverwrite {
	const allow = discordgo.PermissionViewChannel | discordgo.PermissionSendMessages | discordgo.PermissionReadMessageHistory
	overwrites := []*discordgo.PermissionOverwrite{
		{ID: guildID, Type: discordgo.PermissionOverwriteTypeRole, Deny: discordgo.PermissionViewChannel},
		{ID: requesterID, Type: discordgo.PermissionOverwriteTypeMember, Allow: allow},
	}
	if e.cfg.Admin.Enforced() {
		overwrites = append(overwrites, &discordgo.PermissionOverwrite{
			ID: e.cfg.Admin.RoleID(), Type: discordgo.PermissionOverwriteTypeRole, Allow: allow,
		})
	}
	return overwrites
}
