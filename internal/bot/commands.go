package bot

import (
	"context"
	"fmt"
	"strings"

	"nexus-bot/internal/repo"

	"github.com/bwmarrin/discordgo"
	"github.com/cockroachdb/errors"
)

// paymentHistoryLimit bounds the search for the order summary posted by the bot.
const paymentHistoryLimit = 20

type paymentDetails struct {
	OrderID  string
	Total    string
	Currency string
}

// paymentFromSummary reads the order id and amount from the bot's own summary embed.
func paymentFromSummary(messages []*discordgo.Message, selfID string) (paymentDetails, bool) {
	for _, msg := range messages {
		if msg.Author == nil || msg.Author.ID != selfID || len(msg.Embeds) == 0 || msg.Embeds[0].Title != summaryTitle {
			continue
		}
		var amount, orderID string
		for _, f := range msg.Embeds[0].Fields {
			switch f.Name {
			case fieldAmount:
				amount = f.Value
			case fieldOrderID:
				orderID = f.Value
			}
		}
		if amount == "" || orderID == "" {
			continue
		}
		total, currency, _ := strings.Cut(strings.ReplaceAll(amount, "*", ""), " ")
		return paymentDetails{
			OrderID:  strings.ReplaceAll(orderID, "`", ""),
			Total:    total,
			Currency: currency,
		}, true
	}
	return paymentDetails{}, false
}

// handlePayment posts BLIK payment instructions for the ticket's order.
func (e *Engine) handlePayment(ctx context.Context, m *discordgo.Message) {
	if !e.cfg.Admin.Allows(m.Member) {
		e.metrics.Command("payment", "denied")
		e.reply(m, msgAdminOnly)
		return
	}
	ch, err := e.ticketChannel(m.ChannelID)
	if err != nil {
		e.metrics.Command("payment", "denied")
		e.reply(m, msgTicketOnly)
		return
	}

	details, found, err := e.paymentDetails(ctx, ch)
	if err != nil {
		e.fail("payment", err, "channel_id", ch.ID)
		e.reply(m, msgPaymentFailed)
		return
	}
	if !found {
		e.metrics.Command("payment", "not_found")
		e.reply(m, msgPaymentDataMissing)
		return
	}

	e.deleteMessage(m.ChannelID, m.ID)
	if _, err := e.sendEmbed(ch.ID, paymentEmbed(details, e.cfg.BlikPhone, e.selfUser(), e.now())); err != nil {
		e.fail("payment", errors.Wrap(err, "post payment embed"), "channel_id", ch.ID)
		return
	}
	e.metrics.Command("payment", "ok")
}

// paymentDetails prefers the summary embed and falls back to the store.
func (e *Engine) paymentDetails(ctx context.Context, ch *discordgo.Channel) (paymentDetails, bool, error) {
	if self := e.selfUser(); self != nil {
		messages, err := e.session.ChannelMessages(ch.ID, paymentHistoryLimit, "", "", "")
		if err != nil {
			return paymentDetails{}, false, errors.Wrap(err, "fetch channel history")
		}
		if details, ok := paymentFromSummary(messages, self.ID); ok {
			return details, true, nil
		}
	}

	order, err := e.store.FindOrderByOrderID(ctx, OrderRefFromChannel(ch.Name))
	if errors.Is(err, repo.ErrNotFound) {
		return paymentDetails{}, false, nil
	}
	if err != nil {
		return paymentDetails{}, false, errors.Wrap(err, "lookup order")
	}
	return paymentDetails{OrderID: order.OrderID, Total: order.Total.String(), Currency: order.Currency}, true, nil
}

// displayName is the guild nickname, then the global display name, then the username.
func displayName(member *discordgo.Member, user *discordgo.User) string {
	if member != nil && member.Nick != "" {
		return member.Nick
	}
	if user == nil {
		return ""
	}
	if user.GlobalName != "" {
		return user.GlobalName
	}
	return user.Username
}

// handleSummon DMs the ticket's customer on behalf of an administrator.
func (e *Engine) handleSummon(_ context.Context, m *discordgo.Message) {
	if !e.cfg.Admin.Allows(m.Member) {
		e.metrics.Command("summon", "denied")
		e.reply(m, msgAdminOnly)
		return
	}
	ch, err := e.ticketChannel(m.ChannelID)
	if err != nil {
		e.metrics.Command("summon", "denied")
		e.reply(m, msgTicketOnly)
		return
	}
	customerID, err := CustomerFromTopic(ch.Topic)
	if err != nil {
		e.logger.Warn("summon without customer", "channel_id", ch.ID, "error", err)
		e.reply(m, msgCustomerMissing)
		return
	}

	content := fmt.Sprintf(msgSummonDM, displayName(m.Member, m.Author))
	if err := e.sendDirect(customerID, &discordgo.MessageSend{Content: content}); err != nil {
		e.logger.Warn("could not summon customer", "customer_id", customerID, "error", err)
		e.metrics.Command("summon", "blocked")
		e.send(ch.ID, msgSummonBlocked)
		return
	}
	e.metrics.Command("summon", "ok")
	e.send(ch.ID, msgSummonSent)
}

// handleSetup posts the static rules or links embed. Non-administrators are ignored.
func (e *Engine) handleSetup(_ context.Context, m *discordgo.Message) {
	if !e.cfg.Admin.Allows(m.Member) {
		return
	}
	args := strings.Split(m.Content, " ")
	if len(args) < 2 {
		return
	}

	var (
		channelID, unset, posted string
		embed                    *discordgo.MessageEmbed
	)
	switch args[1] {
	case "rules":
		channelID, unset, posted = e.cfg.RulesChannelID, msgRulesChannelUnset, msgRulesPosted
		embed = rulesEmbed(e.now())
	case "links":
		channelID, unset, posted = e.cfg.LinksChannelID, msgLinksChannelUnset, msgLinksPosted
		embed = linksEmbed(e.cfg.StoreURL, e.selfUser())
	default:
		return
	}

	if channelID == "" {
		e.reply(m, unset)
		return
	}
	if _, err := e.sendEmbed(channelID, embed); err != nil {
		e.fail("setup", errors.Wrapf(err, "post %s embed", args[1]), "channel_id", channelID)
		return
	}
	e.metrics.Command("setup", "ok")
	e.reply(m, posted)
}
