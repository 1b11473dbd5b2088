package bot

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"nexus-bot/internal/logging"
	"nexus-bot/internal/repo"

	"github.com/bwmarrin/discordgo"
	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

const (
	testGuildID   = "guild-1"
	testVerifyID  = "verify-1"
	testAdminRole = "role-admin"
)

var testNow = time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC)

type sentMessage struct {
	ChannelID  string
	Content    string
	ReplyTo    string
	Embeds     []*discordgo.MessageEmbed
	Components []discordgo.MessageComponent
	Files      map[string]string
}

type fakeSession struct {
	mu sync.Mutex

	channels        map[string]*discordgo.Channel
	history         map[string][]*discordgo.Message
	sent            []sentMessage
	deletedMessages []string
	deletedChannels []string
	created         []discordgo.GuildChannelCreateData
	responses       []*discordgo.InteractionResponse
	edits           []*discordgo.WebhookEdit
	followups       []*discordgo.WebhookParams
	memberCount     int
	seq             int

	createErr error
	dmErr     error
	sendErr   map[string]error
}

func newFakeSession() *fakeSession {
	return &fakeSession{
		channels: map[string]*discordgo.Channel{},
		history:  map[string][]*discordgo.Message{},
		sendErr:  map[string]error{},
	}
}

func (f *fakeSession) nextID(prefix string) string {
	f.seq++
	return fmt.Sprintf("%s-%d", prefix, f.seq)
}

func (f *fakeSession) addChannel(ch *discordgo.Channel) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.channels[ch.ID] = ch
}

func (f *fakeSession) record(msg sentMessage) (*discordgo.Message, error) {
	if err := f.sendErr[msg.ChannelID]; err != nil {
		return nil, err
	}
	f.sent = append(f.sent, msg)
	return &discordgo.Message{ID: f.nextID("msg"), ChannelID: msg.ChannelID}, nil
}

func (f *fakeSession) Channel(channelID string, _ ...discordgo.RequestOption) (*discordgo.Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch, ok := f.channels[channelID]
	if !ok {
		return nil, errors.Newf("unknown channel %s", channelID)
	}
	return ch, nil
}

func (f *fakeSession) ChannelMessageSend(channelID, content string, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.record(sentMessage{ChannelID: channelID, Content: content})
}

func (f *fakeSession) ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	msg := sentMessage{ChannelID: channelID, Content: data.Content, Embeds: data.Embeds, Components: data.Components}
	if len(data.Files) > 0 {
		msg.Files = map[string]string{}
		for _, file := range data.Files {
			body, err := io.ReadAll(file.Reader)
			if err != nil {
				return nil, err
			}
			msg.Files[file.Name] = string(body)
		}
	}
	return f.record(msg)
}

func (f *fakeSession) ChannelMessageSendReply(channelID, content string, ref *discordgo.MessageReference, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	msg := sentMessage{ChannelID: channelID, Content: content}
	if ref != nil {
		msg.ReplyTo = ref.MessageID
	}
	return f.record(msg)
}

func (f *fakeSession) ChannelMessageDelete(channelID, messageID string, _ ...discordgo.RequestOption) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletedMessages = append(f.deletedMessages, channelID+"/"+messageID)
	return nil
}

func (f *fakeSession) ChannelMessages(channelID string, limit int, _, _, _ string, _ ...discordgo.RequestOption) ([]*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	msgs := f.history[channelID]
	if len(msgs) > limit {
		msgs = msgs[:limit]
	}
	return msgs, nil
}

func (f *fakeSession) ChannelDelete(channelID string, _ ...discordgo.RequestOption) (*discordgo.Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletedChannels = append(f.deletedChannels, channelID)
	return &discordgo.Channel{ID: channelID}, nil
}

func (f *fakeSession) GuildChannelCreateComplex(guildID string, data discordgo.GuildChannelCreateData, _ ...discordgo.RequestOption) (*discordgo.Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created = append(f.created, data)
	ch := &discordgo.Channel{ID: f.nextID("chan"), GuildID: guildID, Name: data.Name, Topic: data.Topic, ParentID: data.ParentID}
	f.channels[ch.ID] = ch
	return ch, nil
}

func (f *fakeSession) UserChannelCreate(recipientID string, _ ...discordgo.RequestOption) (*discordgo.Channel, error) {
	if f.dmErr != nil {
		return nil, f.dmErr
	}
	return &discordgo.Channel{ID: "dm-" + recipientID}, nil
}

func (f *fakeSession) InteractionRespond(_ *discordgo.Interaction, resp *discordgo.InteractionResponse, _ ...discordgo.RequestOption) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses = append(f.responses, resp)
	return nil
}

func (f *fakeSession) InteractionResponseEdit(_ *discordgo.Interaction, edit *discordgo.WebhookEdit, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.edits = append(f.edits, edit)
	return &discordgo.Message{}, nil
}

func (f *fakeSession) FollowupMessageCreate(_ *discordgo.Interaction, _ bool, data *discordgo.WebhookParams, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.followups = append(f.followups, data)
	return &discordgo.Message{}, nil
}

func (f *fakeSession) GuildMemberCount(string) int {
	return f.memberCount
}

// sentTo returns the messages posted to channelID.
func (f *fakeSession) sentTo(channelID string) []sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []sentMessage
	for _, msg := range f.sent {
		if msg.ChannelID == channelID {
			out = append(out, msg)
		}
	}
	return out
}

func (f *fakeSession) contents(channelID string) []string {
	var out []string
	for _, msg := range f.sentTo(channelID) {
		out = append(out, msg.Content)
	}
	return out
}

type xpCall struct {
	UserID string
	Amount int64
	Reason string
}

type fakeStore struct {
	mu sync.Mutex

	orders        map[string]*repo.Order
	tickets       []*repo.Ticket
	messages      []repo.TicketMessage
	announcements map[string]string
	links         map[string]string
	xp            []xpCall

	errGetOrder     error
	errCreateTicket error
	errAwardXP      error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		orders:        map[string]*repo.Order{},
		announcements: map[string]string{},
		links:         map[string]string{},
	}
}

func (s *fakeStore) addOrder(o *repo.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders[o.ID] = o
}

func (s *fakeStore) order(id string) repo.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.orders[id]
}

func (s *fakeStore) GetOrderByCode(_ context.Context, code string) (*repo.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.errGetOrder != nil {
		return nil, s.errGetOrder
	}
	for _, o := range s.orders {
		if o.NexusCode == code {
			cp := *o
			return &cp, nil
		}
	}
	return nil, errors.Wrap(repo.ErrNotFound, "get order by code")
}

func (s *fakeStore) findByRef(orderID string) *repo.Order {
	for _, o := range s.orders {
		if strings.EqualFold(o.OrderID, orderID) {
			return o
		}
	}
	return nil
}

func (s *fakeStore) FindOrderByOrderID(_ context.Context, orderID string) (*repo.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if o := s.findByRef(orderID); o != nil {
		cp := *o
		return &cp, nil
	}
	return nil, errors.Wrap(repo.ErrNotFound, "find order")
}

func (s *fakeStore) transition(o *repo.Order, to repo.OrderStatus, actor *string) (*repo.Order, error) {
	if o == nil {
		return nil, errors.Wrap(repo.ErrNotFound, "transition")
	}
	if !o.Status.CanTransitionTo(to) {
		return nil, &repo.TransitionError{OrderRef: o.OrderID, Current: o.Status, Target: to}
	}
	o.Status = to
	if actor != nil {
		o.DiscordUser = actor
	}
	cp := *o
	return &cp, nil
}

func (s *fakeStore) TransitionOrderByID(_ context.Context, id string, to repo.OrderStatus, actor *string) (*repo.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transition(s.orders[id], to, actor)
}

func (s *fakeStore) TransitionOrderByOrderID(_ context.Context, orderID string, to repo.OrderStatus, actor *string) (*repo.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transition(s.findByRef(orderID), to, actor)
}

func (s *fakeStore) LinkOrderCustomer(_ context.Context, orderID, discordUserID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.links[orderID] = discordUserID
	if o := s.findByRef(orderID); o != nil {
		o.DiscordUserID = &discordUserID
	}
	return nil
}

func (s *fakeStore) AwardXP(_ context.Context, discordUserID string, amount int64, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.errAwardXP != nil {
		return s.errAwardXP
	}
	s.xp = append(s.xp, xpCall{UserID: discordUserID, Amount: amount, Reason: reason})
	return nil
}

func (s *fakeStore) FindActiveTicket(_ context.Context, orderID string) (*repo.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.tickets {
		if t.OrderID == orderID && t.Status == repo.TicketActive {
			cp := *t
			return &cp, nil
		}
	}
	return nil, errors.Wrap(repo.ErrNotFound, "find active ticket")
}

func (s *fakeStore) CreateTicket(_ context.Context, ticket repo.Ticket) (*repo.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.errCreateTicket != nil {
		return nil, s.errCreateTicket
	}
	ticket.ID = uuid.New()
	s.tickets = append(s.tickets, &ticket)
	cp := ticket
	return &cp, nil
}

func (s *fakeStore) ticketByID(id uuid.UUID) *repo.Ticket {
	for _, t := range s.tickets {
		if t.ID == id {
			return t
		}
	}
	return nil
}

func (s *fakeStore) SetTicketChannel(_ context.Context, ticketID uuid.UUID, channelID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.ticketByID(ticketID)
	if t == nil {
		return repo.ErrNotFound
	}
	t.ChannelID = &channelID
	return nil
}

func (s *fakeStore) CloseTicket(_ context.Context, ticketID uuid.UUID, closedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.ticketByID(ticketID)
	if t == nil {
		return repo.ErrNotFound
	}
	t.Status = repo.TicketClosed
	t.ClosedAt = &closedAt
	return nil
}

func (s *fakeStore) InsertTicketMessage(_ context.Context, msg repo.TicketMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, msg)
	return nil
}

func (s *fakeStore) UpsertAnnouncement(_ context.Context, ann repo.Announcement) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.announcements[ann.ID] = ann.DiscordMessageID
	return nil
}

func (s *fakeStore) GetAnnouncement(_ context.Context, id string) (*repo.Announcement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	msgID, ok := s.announcements[id]
	if !ok {
		return nil, errors.Wrap(repo.ErrNotFound, "get announcement")
	}
	return &repo.Announcement{ID: id, DiscordMessageID: msgID}, nil
}

func (s *fakeStore) DeleteAnnouncement(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.announcements, id)
	return nil
}

type fakeLocker struct {
	err      error
	acquired []string
	released []string
}

func (l *fakeLocker) AcquireRedemption(_ context.Context, orderID string) (func(context.Context), error) {
	if l.err != nil {
		return nil, l.err
	}
	l.acquired = append(l.acquired, orderID)
	return func(context.Context) { l.released = append(l.released, orderID) }, nil
}

type delayedCall struct {
	Delay time.Duration
}

type testEnv struct {
	engine  *Engine
	session *fakeSession
	store   *fakeStore
	delays  []delayedCall
}

func newTestEnv(t *testing.T, cfg Config) *testEnv {
	t.Helper()
	env := &testEnv{session: newFakeSession(), store: newFakeStore()}
	env.engine = New(env.session, env.store, nil, nil, logging.Discard(), cfg)
	env.engine.now = func() time.Time { return testNow }
	env.engine.afterFunc = func(d time.Duration, fn func()) {
		env.delays = append(env.delays, delayedCall{Delay: d})
		fn()
	}
	env.engine.OnReady(context.Background(), &discordgo.Ready{User: &discordgo.User{ID: "bot-self", Username: "NexusBot", Discriminator: "0", Bot: true}})
	return env
}

func defaultConfig() Config {
	return Config{
		Admin:                 EnforceRole(testAdminRole),
		VerificationChannelID: testVerifyID,
		TicketCategoryID:      "category-1",
		AnnouncementChannelID: "ann-1",
		RulesChannelID:        "rules-1",
		LinksChannelID:        "links-1",
		EntryChannelID:        "entry-1",
		ExitChannelID:         "exit-1",
		CloseDelay:            2 * time.Second,
		Location:              time.UTC,
		StoreURL:              "https://myweb-psi-three.vercel.app",
		BlikPhone:             "575 374 776",
	}
}

func testUser(id, name string) *discordgo.User {
	return &discordgo.User{ID: id, Username: name, Discriminator: "0"}
}

func adminMember() *discordgo.Member {
	return &discordgo.Member{Roles: []string{testAdminRole}}
}

func customerMember() *discordgo.Member {
	return &discordgo.Member{Roles: []string{"role-customer"}}
}

func newMessage(channelID, content string, author *discordgo.User, member *discordgo.Member) *discordgo.MessageCreate {
	return &discordgo.MessageCreate{Message: &discordgo.Message{
		ID:        "trigger-1",
		ChannelID: channelID,
		GuildID:   testGuildID,
		Content:   content,
		Author:    author,
		Member:    member,
	}}
}

func pendingOrder() *repo.Order {
	return &repo.Order{
		ID:        "7b0c6f5e-internal",
		OrderID:   "ORD-1001",
		NexusCode: "NXS-AB12-CD34",
		Status:    repo.OrderPending,
		Email:     "klient@example.com",
		Total:     decimal.RequireFromString("12.50"),
		Currency:  "PLN",
		Items: []repo.OrderItem{
			{Title: "FiveM Bundle", VariantName: "Starter", Qty: 1},
			{Title: "Pakiet VIP", VariantName: "30 dni", Qty: 2},
		},
	}
}

// addTicketChannel registers a provisioned ticket channel for orderRef.
func (env *testEnv) addTicketChannel(t *testing.T, channelID, orderRef, customerID string) uuid.UUID {
	t.Helper()
	ticket, err := env.store.CreateTicket(context.Background(), repo.Ticket{OrderID: orderRef, CustomerID: customerID, Status: repo.TicketActive})
	require.NoError(t, err)
	env.session.addChannel(&discordgo.Channel{
		ID:      channelID,
		GuildID: testGuildID,
		Name:    TicketChannelName(strings.ToLower(orderRef)),
		Topic:   TicketTopic{CustomerID: customerID, TicketID: ticket.ID}.String(),
	})
	return ticket.ID
}
