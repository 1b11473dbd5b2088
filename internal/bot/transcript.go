package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/cockroachdb/errors"
)

// transcriptLimit is the Discord page size; older history is not exported.
const transcriptLimit = 100

const transcriptTimeLayout = "2.01.2006, 15:04:05"

// RenderTranscript renders messages, given newest first as Discord returns them, as a
// plain-text transcript in chronological order.
func RenderTranscript(channelName string, messages []*discordgo.Message, generatedAt time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	var b strings.Builder
	fmt.Fprintf(&b, "TRANSKRYPCJA ZAMÓWIENIA: %s\n", strings.ToUpper(channelName))
	fmt.Fprintf(&b, "Wygenerowano: %s\n", generatedAt.In(loc).Format(transcriptTimeLayout))
	b.WriteString(strings.Repeat("=", 52) + "\n\n")

	for i := len(messages) - 1; i >= 0; i-- {
		msg := messages[i]
		author := ""
		if msg.Author != nil {
			author = msg.Author.String()
		}
		fmt.Fprintf(&b, "[%s] %s: %s\n", msg.Timestamp.In(loc).Format(transcriptTimeLayout), author, msg.Content)
		if len(msg.Embeds) > 0 {
			title := "No Title"
			if msg.Embeds[0] != nil && msg.Embeds[0].Title != "" {
				title = msg.Embeds[0].Title
			}
			fmt.Fprintf(&b, "[Embed] %s\n", title)
		}
	}
	return b.String()
}

// handleBackup exports the channel transcript to the customer, falling back to the
// ticket channel when the DM cannot be delivered.
func (e *Engine) handleBackup(_ context.Context, m *discordgo.Message) {
	if !e.cfg.Admin.Allows(m.Member) {
		e.metrics.Command("backup", "denied")
		e.reply(m, msgAdminOnly)
		return
	}
	ch, err := e.ticketChannel(m.ChannelID)
	if err != nil {
		e.metrics.Command("backup", "denied")
		e.reply(m, msgTicketOnly)
		return
	}
	customerID, err := CustomerFromTopic(ch.Topic)
	if err != nil {
		e.logger.Warn("backup without customer", "channel_id", ch.ID, "error", err)
		e.reply(m, msgCustomerMissing)
		return
	}

	if err := e.exportTranscript(ch, customerID); err != nil {
		e.fail("backup", err, "channel_id", ch.ID)
		e.reply(m, msgBackupFailed)
	}
}

func (e *Engine) exportTranscript(ch *discordgo.Channel, customerID string) error {
	e.send(ch.ID, msgBackupStarted)

	messages, err := e.session.ChannelMessages(ch.ID, transcriptLimit, "", "", "")
	if err != nil {
		return errors.Wrap(err, "fetch channel history")
	}
	transcript := RenderTranscript(ch.Name, messages, e.now(), e.cfg.Location)
	fileName := fmt.Sprintf("backup-%s.txt", ch.Name)
	file := func() *discordgo.File {
		return &discordgo.File{Name: fileName, ContentType: "text/plain; charset=utf-8", Reader: strings.NewReader(transcript)}
	}

	if err := e.sendDirect(customerID, &discordgo.MessageSend{
		Content: fmt.Sprintf(msgBackupDM, ch.Name),
		Files:   []*discordgo.File{file()},
	}); err != nil {
		e.logger.Warn("could not send backup to customer", "customer_id", customerID, "error", err)
		if _, err := e.session.ChannelMessageSendComplex(ch.ID, &discordgo.MessageSend{
			Content: msgBackupFallback,
			Files:   []*discordgo.File{file()},
		}); err != nil {
			return errors.Wrap(err, "post backup fallback")
		}
		e.metrics.Command("backup", "fallback")
		return nil
	}

	e.send(ch.ID, msgBackupSent)
	e.metrics.Command("backup", "ok")
	return nil
}

// sendDirect opens a DM channel with userID and posts data into it.
func (e *Engine) sendDirect(userID string, data *discordgo.MessageSend) error {
	dm, err := e.session.UserChannelCreate(userID)
	if err != nil {
		return errors.Wrapf(err, "open dm with %s", userID)
	}
	if _, err := e.session.ChannelMessageSendComplex(dm.ID, data); err != nil {
		return errors.Wrapf(err, "send dm to %s", userID)
	}
	e.metrics.Outgoing("dm")
	return nil
}
