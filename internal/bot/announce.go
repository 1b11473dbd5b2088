package bot

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"nexus-bot/internal/repo"

	"github.com/bwmarrin/discordgo"
	"github.com/cockroachdb/errors"
)

var announcePattern = regexp.MustCompile(`(?s)^!ogloszenie\s+(.+)\s+(\S+)$`)

// ParseAnnouncement splits "!ogloszenie <text> <id>"; the id is the last word.
func ParseAnnouncement(content string) (text, id string, ok bool) {
	match := announcePattern.FindStringSubmatch(content)
	if match == nil {
		return "", "", false
	}
	return match[1], match[2], true
}

// handleAnnouncement creates an announcement, or deletes one with "usun <id>".
func (e *Engine) handleAnnouncement(ctx context.Context, m *discordgo.Message) {
	if !e.cfg.Admin.Allows(m.Member) {
		e.metrics.Command("announce", "denied")
		e.reply(m, msgNoPermission)
		return
	}

	args := strings.Split(m.Content, " ")
	if len(args) > 1 && args[1] == "usun" {
		if len(args) < 3 || args[2] == "" {
			e.reply(m, msgAnnDeleteUsage)
			return
		}
		e.deleteAnnouncement(ctx, m, args[2])
		return
	}

	text, id, ok := ParseAnnouncement(m.Content)
	if !ok {
		e.reply(m, msgAnnUsage)
		return
	}
	if e.cfg.AnnouncementChannelID == "" {
		e.reply(m, msgAnnChannelMissing)
		return
	}

	posted, err := e.sendEmbed(e.cfg.AnnouncementChannelID, announcementEmbed(text, e.selfUser(), e.now()))
	if err != nil {
		e.fail("announce", errors.Wrap(err, "post announcement"), "announcement_id", id)
		e.reply(m, msgAnnFailed)
		return
	}
	if err := e.store.UpsertAnnouncement(ctx, repo.Announcement{ID: id, DiscordMessageID: posted.ID}); err != nil {
		e.fail("announce", err, "announcement_id", id)
		e.reply(m, msgAnnFailed)
		return
	}
	e.metrics.Command("announce", "ok")
	e.reply(m, fmt.Sprintf(msgAnnPosted, id))
}

func (e *Engine) deleteAnnouncement(ctx context.Context, m *discordgo.Message, id string) {
	ann, err := e.store.GetAnnouncement(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		e.metrics.Command("announce_delete", "not_found")
		e.reply(m, fmt.Sprintf(msgAnnNotFound, id))
		return
	}
	if err != nil {
		e.fail("announce_delete", err, "announcement_id", id)
		e.reply(m, msgAnnDeleteFailed)
		return
	}

	if e.cfg.AnnouncementChannelID != "" {
		e.deleteMessage(e.cfg.AnnouncementChannelID, ann.DiscordMessageID)
	}
	if err := e.store.DeleteAnnouncement(ctx, id); err != nil {
		e.fail("announce_delete", err, "announcement_id", id)
		e.reply(m, msgAnnDeleteFailed)
		return
	}
	e.metrics.Command("announce_delete", "ok")
	e.reply(m, fmt.Sprintf(msgAnnDeleted, id))
}
