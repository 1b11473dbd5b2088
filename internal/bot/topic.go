package bot

import (
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
)

// TicketChannelPrefix starts the name of every ticket channel: order-<orderId>.
const TicketChannelPrefix = "order-"

var (
	// ErrNotTicketChannel is returned for channels that do not follow the ticket naming.
	ErrNotTicketChannel = errors.New("not a ticket channel")
	// ErrMalformedTopic is returned when a ticket channel topic is not <customerId>:<ticketUUID>.
	ErrMalformedTopic = errors.New("malformed ticket channel topic")
)

// TicketTopic is the metadata stored in a ticket channel topic.
type TicketTopic struct {
	CustomerID string
	TicketID   uuid.UUID
}

// String renders the topic as stored on the channel.
func (t TicketTopic) String() string {
	return t.CustomerID + ":" + t.TicketID.String()
}

// TicketChannelName returns the channel name for an order.
func TicketChannelName(orderID string) string {
	return TicketChannelPrefix + orderID
}

// IsTicketChannel reports whether ch is named like a ticket channel.
func IsTicketChannel(ch *discordgo.Channel) bool {
	return ch != nil && strings.HasPrefix(ch.Name, TicketChannelPrefix)
}

// OrderRefFromChannel extracts the order id from a ticket channel name. Discord lowercases
// channel names, so callers must compare case-insensitively.
func OrderRefFromChannel(name string) string {
	return strings.TrimPrefix(name, TicketChannelPrefix)
}

// ParseTopic decodes <customerId>:<ticketUUID>.
func ParseTopic(topic string) (TicketTopic, error) {
	customer, ticket, ok := strings.Cut(strings.TrimSpace(topic), ":")
	if !ok || customer == "" {
		return TicketTopic{}, errors.Wrapf(ErrMalformedTopic, "topic %q", topic)
	}
	// Anything after a further colon is ignored.
	ticket, _, _ = strings.Cut(ticket, ":")
	id, err := uuid.Parse(ticket)
	if err != nil {
		return TicketTopic{}, errors.Wrapf(ErrMalformedTopic, "topic %q: ticket id", topic)
	}
	return TicketTopic{CustomerID: customer, TicketID: id}, nil
}

// CustomerFromTopic returns the customer id, the part before the first colon. It is
// enough for commands that only need to reach the customer.
func CustomerFromTopic(topic string) (string, error) {
	customer, _, _ := strings.Cut(strings.TrimSpace(topic), ":")
	if customer == "" {
		return "", errors.Wrapf(ErrMalformedTopic, "topic %q", topic)
	}
	return customer, nil
}

// ticketChannel resolves channelID and checks it is a ticket channel.
func (e *Engine) ticketChannel(channelID string) (*discordgo.Channel, error) {
	ch, err := e.session.Channel(channelID)
	if err != nil {
		return nil, errors.Wrapf(err, "resolve channel %s", channelID)
	}
	if !IsTicketChannel(ch) {
		return nil, errors.Wrapf(ErrNotTicketChannel, "channel %s", channelID)
	}
	return ch, nil
}
