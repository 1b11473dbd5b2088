package bot

import (
	"context"
	"fmt"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandOf(t *testing.T) {
	cases := map[string]string{
		"!platnosc":          cmdPayment,
		"!POMYSLNIE teraz":   cmdSuccess,
		"!NiePomyslnie":      cmdFailure,
		"!backup":            cmdBackup,
		"!wezwij":            cmdSummon,
		"!close":             cmdClose,
		"!ogloszenie a b":    cmdAnnounce,
		"!setup rules":       cmdSetup,
		"!CLOSE":             "",
		"NXS-AB12-CD34":      "",
		"please !close this": "",
	}
	for content, want := range cases {
		assert.Equal(t, want, commandOf(content), content)
	}
}

func TestPaymentFromSummaryEmbed(t *testing.T) {
	env := newTestEnv(t, defaultConfig())
	env.addTicketChannel(t, "ticket-1", "ORD-1001", "user-42")
	summary := summaryEmbed(pendingOrder(), testUser("user-42", "kupiec"), testNow)
	env.session.history["ticket-1"] = []*discordgo.Message{
		{Author: testUser("user-42", "kupiec"), Content: "zapłacę blikiem"},
		{Author: &discordgo.User{ID: "bot-self"}, Embeds: []*discordgo.MessageEmbed{summary}},
	}

	msg := newMessage("ticket-1", "!platnosc", testUser("admin-1", "szef"), adminMember())
	env.engine.OnMessage(context.Background(), msg)

	assert.Equal(t, []string{"ticket-1/trigger-1"}, env.session.deletedMessages)
	sent := env.session.sentTo("ticket-1")
	require.Len(t, sent, 1)
	embed := sent[0].Embeds[0]
	assert.Equal(t, "💳 Instrukcja Płatności BLIK", embed.Title)
	assert.Equal(t, "`575 374 776`", fieldNamed(t, embed, "📱 Numer Telefonu (BLIK)").Value)
	assert.Equal(t, "**12.5 PLN**", fieldNamed(t, embed, "💰 Kwota do zapłaty").Value)
	assert.Equal(t, "`Order ORD-1001`", fieldNamed(t, embed, "🆔 Tytuł Przelewu").Value)
}

func TestPaymentFallsBackToStore(t *testing.T) {
	env := newTestEnv(t, defaultConfig())
	order := pendingOrder()
	env.store.addOrder(order)
	env.addTicketChannel(t, "ticket-1", order.OrderID, "user-42")

	env.engine.OnMessage(context.Background(), newMessage("ticket-1", "!platnosc", testUser("admin-1", "szef"), adminMember()))

	sent := env.session.sentTo("ticket-1")
	require.Len(t, sent, 1)
	assert.Equal(t, "`Order ORD-1001`", fieldNamed(t, sent[0].Embeds[0], "🆔 Tytuł Przelewu").Value)
}

func TestPaymentWithoutOrderData(t *testing.T) {
	env := newTestEnv(t, defaultConfig())
	env.addTicketChannel(t, "ticket-1", "ORD-404", "user-42")

	env.engine.OnMessage(context.Background(), newMessage("ticket-1", "!platnosc", testUser("admin-1", "szef"), adminMember()))

	assert.Equal(t, []string{msgPaymentDataMissing}, env.session.contents("ticket-1"))
	assert.Empty(t, env.session.deletedMessages)
}

func TestSummonCustomer(t *testing.T) {
	env := newTestEnv(t, defaultConfig())
	env.addTicketChannel(t, "ticket-1", "ORD-1001", "user-42")
	member := adminMember()
	member.Nick = "Szefu"

	env.engine.OnMessage(context.Background(), newMessage("ticket-1", "!wezwij", testUser("admin-1", "szef"), member))

	assert.Equal(t, []string{fmt.Sprintf(msgSummonDM, "Szefu")}, env.session.contents("dm-user-42"))
	assert.Equal(t, []string{msgSummonSent}, env.session.contents("ticket-1"))
}

func TestSummonBlockedDM(t *testing.T) {
	env := newTestEnv(t, defaultConfig())
	env.addTicketChannel(t, "ticket-1", "ORD-1001", "user-42")
	env.session.dmErr = errors.New("cannot send messages to this user")

	env.engine.OnMessage(context.Background(), newMessage("ticket-1", "!wezwij", testUser("admin-1", "szef"), adminMember()))

	assert.Equal(t, []string{msgSummonBlocked}, env.session.contents("ticket-1"))
}

func TestSetup(t *testing.T) {
	env := newTestEnv(t, defaultConfig())
	env.session.addChannel(&discordgo.Channel{ID: "admin-chat", Name: "admin-chat"})

	env.engine.OnMessage(context.Background(), newMessage("admin-chat", "!setup rules", testUser("admin-1", "szef"), adminMember()))
	env.engine.OnMessage(context.Background(), newMessage("admin-chat", "!setup links", testUser("admin-1", "szef"), adminMember()))

	require.Len(t, env.session.sentTo("rules-1"), 1)
	assert.Equal(t, "📜 NEXUS STORE RULES", env.session.sentTo("rules-1")[0].Embeds[0].Title)
	links := env.session.sentTo("links-1")
	require.Len(t, links, 1)
	assert.Equal(t, "[myweb-psi-three.vercel.app](https://myweb-psi-three.vercel.app)", links[0].Embeds[0].Fields[0].Value)
	assert.Equal(t, []string{msgRulesPosted, msgLinksPosted}, env.session.contents("admin-chat"))
}

func TestSetupIgnoresNonAdmins(t *testing.T) {
	env := newTestEnv(t, defaultConfig())

	env.engine.OnMessage(context.Background(), newMessage("general", "!setup rules", testUser("u1", "kupiec"), customerMember()))

	assert.Empty(t, env.session.sent)
}

func TestSetupChannelUnset(t *testing.T) {
	cfg := defaultConfig()
	cfg.RulesChannelID = ""
	env := newTestEnv(t, cfg)

	env.engine.OnMessage(context.Background(), newMessage("general", "!setup rules", testUser("admin-1", "szef"), adminMember()))

	assert.Equal(t, []string{msgRulesChannelUnset}, env.session.contents("general"))
}
