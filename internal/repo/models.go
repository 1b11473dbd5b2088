package repo

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderAccepted  OrderStatus = "accepted"
	OrderVerified  OrderStatus = "verified"
	OrderRejected  OrderStatus = "rejected"
	OrderCompleted OrderStatus = "completed"
	OrderFailed    OrderStatus = "failed"
)

// orderTransitions lists the legal next states. Terminal states have no entry.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderPending:  {OrderAccepted, OrderVerified, OrderRejected},
	OrderAccepted: {OrderCompleted, OrderFailed},
	OrderVerified: {OrderCompleted, OrderFailed},
}

// CanTransitionTo reports whether an order in status s may move to next.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, candidate := range orderTransitions[s] {
		if candidate == next {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transition is possible.
func (s OrderStatus) Terminal() bool {
	return s == OrderCompleted || s == OrderFailed || s == OrderRejected
}

// Predecessors returns every status from which target is reachable in one step.
func Predecessors(target OrderStatus) []string {
	var from []string
	for status, nexts := range orderTransitions {
		for _, next := range nexts {
			if next == target {
				from = append(from, string(status))
			}
		}
	}
	return from
}

// OrderItem is one line of the order's item list.
type OrderItem struct {
	Title       string `json:"title"`
	VariantName string `json:"variantName"`
	Qty         int    `json:"qty"`
}

// Order represents a row in orders table.
type Order struct {
	ID            string
	OrderID       string
	NexusCode     string
	Status        OrderStatus
	Email         string
	Total         decimal.Decimal
	Currency      string
	Items         []OrderItem
	DiscordUserID *string
	DiscordUser   *string
}

// TicketStatus is the lifecycle state of a ticket.
type TicketStatus string

const (
	TicketActive TicketStatus = "active"
	TicketClosed TicketStatus = "closed"
)

// Ticket represents a row in tickets table.
type Ticket struct {
	ID          uuid.UUID
	OrderID     string
	CustomerID  string
	CustomerTag string
	ChannelID   *string
	Status      TicketStatus
	ClosedAt    *time.Time
}

// TicketMessage is an append-only log entry of a ticket channel.
type TicketMessage struct {
	TicketID   uuid.UUID
	AuthorName string
	AuthorTag  string
	Content    string
	IsBot      bool
}

// Announcement tracks a broadcast post by an admin-chosen key.
type Announcement struct {
	ID               string
	DiscordMessageID string
}

// ProductVariant is a purchasable variant of a product.
type ProductVariant struct {
	Name  string      `json:"name"`
	Price json.Number `json:"price"`
}

// Product is the payload carried by product insert notifications.
type Product struct {
	Title       string           `json:"title"`
	Description string           `json:"description"`
	ImageURL    string           `json:"image_url"`
	Variants    []ProductVariant `json:"variants"`
}
