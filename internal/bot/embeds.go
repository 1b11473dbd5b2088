package bot

import (
	"fmt"
	"strings"
	"time"

	"nexus-bot/internal/repo"

	"github.com/bwmarrin/discordgo"
)

const (
	colorBlue  = 0x3b82f6
	colorGreen = 0x22c55e
	colorRed   = 0xef4444
	colorRose  = 0xe11d48
	colorWhite = 0xffffff
)

const (
	summaryTitle       = "🎫 Nowe Zgłoszenie Zamówienia"
	fieldOrderID       = "ID Zamówienia"
	fieldAmount        = "Kwota"
	bundleTitle        = "FiveM Bundle"
	blikLogoURL        = "https://upload.wikimedia.org/wikipedia/commons/thumb/c/c5/Blik_logo.svg/1200px-Blik_logo.svg.png"
	emptyFieldValue    = "-"
	claimButtonPrefix  = "claim_"
	rejectButtonPrefix = "reject_"
)

// FormatItems renders one "• name xQty" line per item. Bundles and untitled items are
// shown by variant name only.
func FormatItems(items []repo.OrderItem) string {
	lines := make([]string, 0, len(items))
	for _, item := range items {
		name := item.VariantName
		if item.Title != "" && item.Title != bundleTitle {
			name = fmt.Sprintf("%s (%s)", item.Title, item.VariantName)
		}
		lines = append(lines, fmt.Sprintf("• %s x%d", name, item.Qty))
	}
	return strings.Join(lines, "\n")
}

// fieldValue substitutes a placeholder for empty values, which Discord rejects.
func fieldValue(v string) string {
	if strings.TrimSpace(v) == "" {
		return emptyFieldValue
	}
	return v
}

func formatAmount(total, currency string) string {
	return fmt.Sprintf("**%s %s**", total, currency)
}

func summaryEmbed(order *repo.Order, requester *discordgo.User, now time.Time) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       summaryTitle,
		Description: fmt.Sprintf("Witaj %s! Oczekiwanie na weryfikację przez administratora.", requester.Mention()),
		Color:       colorBlue,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Kod Nexus", Value: "`" + order.NexusCode + "`", Inline: true},
			{Name: fieldOrderID, Value: "`" + order.OrderID + "`", Inline: true},
			{Name: "Klient", Value: fmt.Sprintf("%s (%s)", requester.Mention(), requester.String())},
			{Name: "Email", Value: fieldValue(order.Email), Inline: true},
			{Name: fieldAmount, Value: formatAmount(order.Total.String(), order.Currency), Inline: true},
			{Name: "Produkty", Value: fieldValue(FormatItems(order.Items))},
		},
		Timestamp: now.Format(time.RFC3339),
		Footer:    &discordgo.MessageEmbedFooter{Text: "NexusStore Ticketing System"},
	}
}

func summaryButtons(orderID string) []discordgo.MessageComponent {
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.Button{Label: "🙋‍♂️ Przejmij (Akceptuj)", Style: discordgo.SuccessButton, CustomID: claimButtonPrefix + orderID},
			discordgo.Button{Label: "⛔ Odrzuć", Style: discordgo.DangerButton, CustomID: rejectButtonPrefix + orderID},
		}},
	}
}

func processedButtons(label, customID string, style discordgo.ButtonStyle) []discordgo.MessageComponent {
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.Button{Label: label, Style: style, CustomID: customID, Disabled: true},
		}},
	}
}

// copyEmbed clones the first embed of msg so edits do not alias the cached message.
func copyEmbed(msg *discordgo.Message) *discordgo.MessageEmbed {
	if msg == nil || len(msg.Embeds) == 0 || msg.Embeds[0] == nil {
		return &discordgo.MessageEmbed{Title: summaryTitle}
	}
	cp := *msg.Embeds[0]
	cp.Fields = append([]*discordgo.MessageEmbedField(nil), msg.Embeds[0].Fields...)
	return &cp
}

func claimedEmbed(msg *discordgo.Message, admin *discordgo.User, at time.Time) *discordgo.MessageEmbed {
	embed := copyEmbed(msg)
	embed.Color = colorGreen
	embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
		Name:  "🔒 Status",
		Value: "Zgłoszenie przyjęte przez: " + admin.Mention(),
	})
	embed.Footer = &discordgo.MessageEmbedFooter{Text: "Zaakceptowano: " + at.Format("15:04:05")}
	return embed
}

func rejectedEmbed(msg *discordgo.Message, admin *discordgo.User) *discordgo.MessageEmbed {
	embed := copyEmbed(msg)
	embed.Color = colorRed
	embed.Description = "**Status: ODRZUCONE**\nPrzez: " + admin.Mention()
	return embed
}

func outcomeEmbed(success bool, admin *discordgo.User, now time.Time) *discordgo.MessageEmbed {
	label, color := "NIEPOMYŚLNE", colorRed
	if success {
		label, color = "POMYŚLNE", colorGreen
	}
	return &discordgo.MessageEmbed{
		Title:       "Status Zamówienia: " + label,
		Description: fmt.Sprintf("Administrator %s zmienił status zamówienia na **%s**.", admin.Mention(), label),
		Color:       color,
		Timestamp:   now.Format(time.RFC3339),
	}
}

func paymentEmbed(p paymentDetails, phone string, self *discordgo.User, now time.Time) *discordgo.MessageEmbed {
	footer := &discordgo.MessageEmbedFooter{Text: "NexusStore Payment System"}
	if self != nil {
		footer.IconURL = self.AvatarURL("")
	}
	return &discordgo.MessageEmbed{
		Title:       "💳 Instrukcja Płatności BLIK",
		Description: "Prosimy o dokonanie przelewu na telefon BLIK zgodnie z poniższymi danymi. Po wykonaniu płatności wyślij potwierdzenie na tym kanale.",
		Color:       colorRose,
		Thumbnail:   &discordgo.MessageEmbedThumbnail{URL: blikLogoURL},
		Fields: []*discordgo.MessageEmbedField{
			{Name: "📱 Numer Telefonu (BLIK)", Value: "`" + phone + "`"},
			{Name: "💰 Kwota do zapłaty", Value: formatAmount(p.Total, p.Currency), Inline: true},
			{Name: "🆔 Tytuł Przelewu", Value: "`Order " + p.OrderID + "`", Inline: true},
			{Name: "⚠️ Ważne", Value: "Upewnij się, że przesyłasz dokładną kwotę. Zamówienie zostanie zrealizowane natychmiast po zaksięgowaniu wpłaty."},
		},
		Timestamp: now.Format(time.RFC3339),
		Footer:    footer,
	}
}

func announcementEmbed(content string, self *discordgo.User, now time.Time) *discordgo.MessageEmbed {
	footer := &discordgo.MessageEmbedFooter{Text: "NexusStore Announcements"}
	if self != nil {
		footer.IconURL = self.AvatarURL("")
	}
	return &discordgo.MessageEmbed{
		Title:       "📢 ANNOUNCEMENT",
		Description: content,
		Color:       colorBlue,
		Timestamp:   now.Format(time.RFC3339),
		Footer:      footer,
	}
}

func rulesEmbed(now time.Time) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "📜 NEXUS STORE RULES",
		Color:       colorWhite,
		Description: "By staying on this server, you agree to the following rules:",
		Fields: []*discordgo.MessageEmbedField{
			{Name: "1️⃣ Respect", Value: "Be respectful to all members and staff. Hate speech is strictly prohibited."},
			{Name: "2️⃣ No Spam", Value: "Do not spam messages, emojis, or links."},
			{Name: "3️⃣ Legit Products", Value: "All transactions should be handled via established channels. No scamming."},
			{Name: "4️⃣ Support", Value: "Use the ticket system for any purchase issues."},
		},
		Timestamp: now.Format(time.RFC3339),
		Footer:    &discordgo.MessageEmbedFooter{Text: "NexusStore Official Rules"},
	}
}

func linksEmbed(storeURL string, self *discordgo.User) *discordgo.MessageEmbed {
	host := strings.TrimPrefix(strings.TrimPrefix(storeURL, "https://"), "http://")
	embed := &discordgo.MessageEmbed{
		Title:       "🔗 OFFICIAL LINKS",
		Description: "Check out our official store and social media!",
		Color:       colorBlue,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "🛒 Website", Value: fmt.Sprintf("[%s](%s)", host, storeURL), Inline: true},
		},
	}
	if self != nil {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: self.AvatarURL("")}
	}
	return embed
}

func welcomeEmbed(member *discordgo.Member, memberCount int, now time.Time) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "👋 WELCOME TO THE NEXUS!",
		Description: fmt.Sprintf("Hello %s! We are glad to have you here.\n\nEnjoy your stay and check out our products!", member.User.Mention()),
		Color:       colorGreen,
		Thumbnail:   &discordgo.MessageEmbedThumbnail{URL: member.User.AvatarURL("")},
		Fields: []*discordgo.MessageEmbedField{
			{Name: "👤 Username", Value: "`" + member.User.String() + "`", Inline: true},
			{Name: "📊 Member Count", Value: fmt.Sprintf("`%d`", memberCount), Inline: true},
		},
		Timestamp: now.Format(time.RFC3339),
		Footer:    &discordgo.MessageEmbedFooter{Text: "NexusStore Gateway"},
	}
}

func goodbyeEmbed(member *discordgo.Member, now time.Time) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "👋 THANK YOU FOR VISITING!",
		Description: fmt.Sprintf("Goodbye %s! We hope to see you again soon.\n\nTake care!", member.User.String()),
		Color:       colorRed,
		Thumbnail:   &discordgo.MessageEmbedThumbnail{URL: member.User.AvatarURL("")},
		Timestamp:   now.Format(time.RFC3339),
		Footer:      &discordgo.MessageEmbedFooter{Text: "NexusStore Gateway"},
	}
}
