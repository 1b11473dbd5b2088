package repo

import (
	"context"
	"io/fs"
	"time"

	"github.com/google/uuid"
)

// Repository defines the store gateway used by the bot.
type Repository interface {
	// Lifecycle
	Close()
	Ping(ctx context.Context) error
	RunMigrations(ctx context.Context, filesystem fs.FS) error

	// Orders
	GetOrderByCode(ctx context.Context, code string) (*Order, error)
	GetOrderByID(ctx context.Context, id string) (*Order, error)
	FindOrderByOrderID(ctx context.Context, orderID string) (*Order, error)
	TransitionOrderByID(ctx context.Context, id string, to OrderStatus, actor *string) (*Order, error)
	TransitionOrderByOrderID(ctx context.Context, orderID string, to OrderStatus, actor *string) (*Order, error)
	LinkOrderCustomer(ctx context.Context, orderID, discordUserID string) error
	CountOrdersByStatus(ctx context.Context, status OrderStatus) (int64, error)
	AwardXP(ctx context.Context, discordUserID string, amount int64, reason string) error

	// Tickets
	FindActiveTicket(ctx context.Context, orderID string) (*Ticket, error)
	CreateTicket(ctx context.Context, ticket Ticket) (*Ticket, error)
	SetTicketChannel(ctx context.Context, ticketID uuid.UUID, channelID string) error
	CloseTicket(ctx context.Context, ticketID uuid.UUID, closedAt time.Time) error
	InsertTicketMessage(ctx context.Context, msg TicketMessage) error

	// Announcements
	UpsertAnnouncement(ctx context.Context, ann Announcement) error
	GetAnnouncement(ctx context.Context, id string) (*Announcement, error)
	DeleteAnnouncement(ctx context.Context, id string) error

	// Notifications
	Listen(ctx context.Context, channel string) (Subscription, error)
}

// Subscription delivers notification payloads from a LISTEN channel.
type Subscription interface {
	// Next blocks until a payload arrives or ctx is done.
	Next(ctx context.Context) (string, error)
	Close(ctx context.Context) error
}

var (
	_ Repository = (*PostgresRepository)(nil)
	_ Repository = (*SQLiteRepository)(nil)
)
