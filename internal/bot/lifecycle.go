package bot

import (
	"context"
	"fmt"
	"strings"

	"nexus-bot/internal/repo"

	"github.com/bwmarrin/discordgo"
	"github.com/cockroachdb/errors"
	"github.com/shopspring/decimal"
)

const (
	actionClaim  = "claim"
	actionReject = "reject"
)

// ParseCustomID splits a button id of the form <action>_<orderInternalId>.
func ParseCustomID(customID string) (action, orderID string, ok bool) {
	action, orderID, ok = strings.Cut(customID, "_")
	if !ok || action == "" || orderID == "" {
		return "", "", false
	}
	return action, orderID, true
}

// XPAward is floor(total*10); non-positive totals earn nothing.
func XPAward(total decimal.Decimal) int64 {
	if !total.IsPositive() {
		return 0
	}
	return total.Mul(decimal.NewFromInt(10)).Floor().IntPart()
}

// OnInteraction handles the claim and reject buttons of order summaries.
func (e *Engine) OnInteraction(ctx context.Context, evt *discordgo.InteractionCreate) {
	i := evt.Interaction
	if i == nil || i.Type != discordgo.InteractionMessageComponent {
		return
	}
	action, orderID, ok := ParseCustomID(i.MessageComponentData().CustomID)
	if !ok || (action != actionClaim && action != actionReject) {
		return
	}

	if !e.cfg.Admin.Allows(i.Member) {
		e.metrics.Command(action, "denied")
		e.respondEphemeral(i, msgButtonAdminOnly)
		return
	}

	if err := e.session.InteractionRespond(i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredMessageUpdate,
	}); err != nil {
		e.fail(action, errors.Wrap(err, "defer interaction"), "order_id", orderID)
		return
	}

	var err error
	switch action {
	case actionClaim:
		err = e.claim(ctx, i, orderID)
	case actionReject:
		err = e.reject(ctx, i, orderID)
	}
	if err != nil {
		e.fail(action, err, "order_id", orderID)
		e.followupEphemeral(i, msgInteractionFailed)
	}
}

func (e *Engine) claim(ctx context.Context, i *discordgo.Interaction, orderID string) error {
	admin := interactionUser(i)
	tag := admin.String()
	if _, err := e.store.TransitionOrderByID(ctx, orderID, repo.OrderAccepted, &tag); err != nil {
		return e.refuseTransition(i, actionClaim, err)
	}

	e.send(i.ChannelID, fmt.Sprintf(msgClaimed, admin.Mention()))

	embeds := []*discordgo.MessageEmbed{claimedEmbed(i.Message, admin, e.now().In(e.cfg.Location))}
	components := processedButtons("PRZYJĘTE", "processed_claim", discordgo.SuccessButton)
	if _, err := e.session.InteractionResponseEdit(i, &discordgo.WebhookEdit{Embeds: &embeds, Components: &components}); err != nil {
		return errors.Wrap(err, "edit order summary")
	}
	e.metrics.Command(actionClaim, "ok")
	e.logger.Info("order claimed", "order_id", orderID, "admin", tag)
	return nil
}

func (e *Engine) reject(ctx context.Context, i *discordgo.Interaction, orderID string) error {
	admin := interactionUser(i)
	if _, err := e.store.TransitionOrderByID(ctx, orderID, repo.OrderRejected, nil); err != nil {
		return e.refuseTransition(i, actionReject, err)
	}

	embeds := []*discordgo.MessageEmbed{rejectedEmbed(i.Message, admin)}
	components := processedButtons("ODRZUCONE", "processed_reject", discordgo.DangerButton)
	if _, err := e.session.InteractionResponseEdit(i, &discordgo.WebhookEdit{Embeds: &embeds, Components: &components}); err != nil {
		return errors.Wrap(err, "edit order summary")
	}

	e.send(i.ChannelID, fmt.Sprintf(msgRejected, admin.Mention()))
	e.metrics.Command(actionReject, "ok")
	e.logger.Info("order rejected", "order_id", orderID, "admin", admin.String())
	return nil
}

// refuseTransition answers a refused status change. Only unexpected failures are
// returned to the caller.
func (e *Engine) refuseTransition(i *discordgo.Interaction, action string, err error) error {
	var te *repo.TransitionError
	if errors.As(err, &te) {
		e.metrics.Command(action, "already_processed")
		e.followupEphemeral(i, fmt.Sprintf(msgAlreadyProcessed, te.Current))
		return nil
	}
	return errors.Wrapf(err, "%s order", action)
}

func (e *Engine) respondEphemeral(i *discordgo.Interaction, content string) {
	err := e.session.InteractionRespond(i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Content: content, Flags: discordgo.MessageFlagsEphemeral},
	})
	if err != nil {
		e.logger.Warn("failed to respond to interaction", "error", err)
	}
}

func (e *Engine) followupEphemeral(i *discordgo.Interaction, content string) {
	_, err := e.session.FollowupMessageCreate(i, false, &discordgo.WebhookParams{
		Content: content,
		Flags:   discordgo.MessageFlagsEphemeral,
	})
	if err != nil {
		e.logger.Warn("failed to send interaction followup", "error", err)
	}
}

func interactionUser(i *discordgo.Interaction) *discordgo.User {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User
	}
	if i.User != nil {
		return i.User
	}
	return &discordgo.User{}
}

// handleMarkOutcome implements !pomyslnie and !niepomyslnie.
func (e *Engine) handleMarkOutcome(ctx context.Context, m *discordgo.Message, success bool) {
	command, target := "mark_failure", repo.OrderFailed
	if success {
		command, target = "mark_success", repo.OrderCompleted
	}

	if !e.cfg.Admin.Allows(m.Member) {
		e.metrics.Command(command, "denied")
		e.reply(m, msgAdminOnly)
		return
	}
	ch, err := e.ticketChannel(m.ChannelID)
	if err != nil || ch.Topic == "" {
		e.metrics.Command(command, "denied")
		e.reply(m, msgTicketOnlyOutcome)
		return
	}

	orderRef := OrderRefFromChannel(ch.Name)
	tag := m.Author.String()
	order, err := e.store.TransitionOrderByOrderID(ctx, orderRef, target, &tag)
	var te *repo.TransitionError
	switch {
	case errors.Is(err, repo.ErrNotFound):
		e.metrics.Command(command, "not_found")
		e.reply(m, fmt.Sprintf(msgOutcomeNotFound, orderRef))
		return
	case errors.As(err, &te):
		e.metrics.Command(command, "already_processed")
		e.reply(m, fmt.Sprintf(msgAlreadyProcessed, te.Current))
		return
	case err != nil:
		e.fail(command, err, "order_ref", orderRef)
		e.reply(m, msgOutcomeFailed)
		return
	}

	if _, err := e.sendEmbed(m.ChannelID, outcomeEmbed(success, m.Author, e.now())); err != nil {
		e.logger.Warn("failed to post outcome", "order_id", order.OrderID, "error", err)
	}
	e.metrics.Command(command, "ok")

	if !success {
		e.send(m.ChannelID, msgFailureFollowup)
		return
	}
	e.send(m.ChannelID, msgSuccessFollowup)
	e.awardPurchaseXP(ctx, m.ChannelID, order)
}

// awardPurchaseXP grants XP to the linked requester. Failures are logged only and the
// announcement is skipped.
func (e *Engine) awardPurchaseXP(ctx context.Context, channelID string, order *repo.Order) {
	if order.DiscordUserID == nil || *order.DiscordUserID == "" {
		return
	}
	amount := XPAward(order.Total)
	if amount <= 0 {
		return
	}
	reason := fmt.Sprintf("Zakup zamówienia #%s", order.OrderID)
	if err := e.store.AwardXP(ctx, *order.DiscordUserID, amount, reason); err != nil {
		e.metrics.Error("bot")
		e.logger.Error("failed to award xp", "order_id", order.OrderID, "user_id", *order.DiscordUserID, "amount", amount, "error", err)
		return
	}
	e.send(channelID, fmt.Sprintf(msgXPAwarded, amount))
}

// handleClose marks the ticket closed and deletes the channel after the close delay.
func (e *Engine) handleClose(ctx context.Context, m *discordgo.Message) {
	if !e.cfg.Admin.Allows(m.Member) {
		e.metrics.Command("close", "denied")
		e.reply(m, msgAdminOnly)
		return
	}
	ch, err := e.ticketChannel(m.ChannelID)
	if err != nil {
		e.metrics.Command("close", "denied")
		e.reply(m, msgTicketOnly)
		return
	}

	if ch.Topic != "" {
		topic, err := ParseTopic(ch.Topic)
		if err != nil {
			e.logger.Warn("cannot mark ticket closed", "channel_id", ch.ID, "error", err)
		} else if err := e.store.CloseTicket(ctx, topic.TicketID, e.now()); err != nil {
			e.metrics.Error("bot")
			e.logger.Error("failed to close ticket", "ticket_id", topic.TicketID, "error", err)
		}
	}

	e.send(ch.ID, msgClosing)
	e.metrics.Command("close", "ok")
	channelID := ch.ID
	e.afterFunc(e.cfg.CloseDelay, func() {
		if _, err := e.session.ChannelDelete(channelID); err != nil {
			e.logger.Debug("failed to delete ticket channel", "channel_id", channelID, "error", err)
		}
	})
}
