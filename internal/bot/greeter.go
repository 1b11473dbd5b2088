package bot

import (
	"context"

	"github.com/bwmarrin/discordgo"
)

// OnMemberAdd posts the welcome embed in the entry channel.
func (e *Engine) OnMemberAdd(_ context.Context, evt *discordgo.GuildMemberAdd) {
	if e.cfg.EntryChannelID == "" || evt.Member == nil || evt.Member.User == nil {
		return
	}
	count := e.session.GuildMemberCount(evt.GuildID)
	if _, err := e.sendEmbed(e.cfg.EntryChannelID, welcomeEmbed(evt.Member, count, e.now())); err != nil {
		e.metrics.Error("greeter")
		e.logger.Error("failed to post welcome", "user_id", evt.User.ID, "error", err)
	}
}

// OnMemberRemove posts the goodbye embed in the exit channel.
func (e *Engine) OnMemberRemove(_ context.Context, evt *discordgo.GuildMemberRemove) {
	if e.cfg.ExitChannelID == "" || evt.Member == nil || evt.Member.User == nil {
		return
	}
	if _, err := e.sendEmbed(e.cfg.ExitChannelID, goodbyeEmbed(evt.Member, e.now())); err != nil {
		e.metrics.Error("greeter")
		e.logger.Error("failed to post goodbye", "user_id", evt.User.ID, "error", err)
	}
}
