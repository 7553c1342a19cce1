// Package notification provides the in-app notification sink: events emitted
// by the scheduling core are persisted asynchronously and served back to users
// over Echo HTTP handlers.
package notification

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/carebridge/carebridge/internal/platform/auth"
)

// Category classifies a notification for filtering and display.
type Category string

const (
	CategoryAppointment Category = "appointment"
	CategoryReport      Category = "report"
	CategoryProfile     Category = "profile"
	CategorySystem      Category = "system"
	CategorySupport     Category = "support"
)

// ErrNotFound is returned when a notification does not exist or belongs to
// another recipient.
var ErrNotFound = errors.New("notification not found")

// Notification is a stored in-app notification.
type Notification struct {
	ID        uuid.UUID `json:"id"`
	Recipient string    `json:"recipient"`
	Message   string    `json:"message"`
	Category  Category  `json:"category"`
	Link      string    `json:"link,omitempty"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

// Event is the payload emitted by the core when something notable happens.
type Event struct {
	Recipient string
	Message   string
	Category  Category
	Link      string
}

// Store persists notifications. All recipient-scoped methods treat a missing
// row and a row owned by someone else identically (ErrNotFound).
type Store interface {
	Create(ctx context.Context, n *Notification) error
	ListByRecipient(ctx context.Context, recipient string, limit int) ([]Notification, error)
	UnreadCount(ctx context.Context, recipient string) (int, error)
	MarkRead(ctx context.Context, recipient string, id uuid.UUID) error
	MarkAllRead(ctx context.Context, recipient string) error
	Delete(ctx context.Context, recipient string, id uuid.UUID) error
	Clear(ctx context.Context, recipient string) error
}

// ---------------------------------------------------------------------------
// In-memory store
// ---------------------------------------------------------------------------

// MemoryStore is a mutex-guarded Store used in tests and development.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[uuid.UUID]*Notification
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[uuid.UUID]*Notification)}
}

func (s *MemoryStore) Create(_ context.Context, n *Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *n
	s.items[n.ID] = &cp
	return nil
}

func (s *MemoryStore) ListByRecipient(_ context.Context, recipient string, limit int) ([]Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []Notification
	for _, n := range s.items {
		if n.Recipient == recipient {
			result = append(result, *n)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (s *MemoryStore) UnreadCount(_ context.Context, recipient string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, n := range s.items {
		if n.Recipient == recipient && !n.IsRead {
			count++
		}
	}
	return count, nil
}

func (s *MemoryStore) MarkRead(_ context.Context, recipient string, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.items[id]
	if !ok || n.Recipient != recipient {
		return ErrNotFound
	}
	n.IsRead = true
	return nil
}

func (s *MemoryStore) MarkAllRead(_ context.Context, recipient string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, n := range s.items {
		if n.Recipient == recipient {
			n.IsRead = true
		}
	}
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, recipient string, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.items[id]
	if !ok || n.Recipient != recipient {
		return ErrNotFound
	}
	delete(s.items, id)
	return nil
}

func (s *MemoryStore) Clear(_ context.Context, recipient string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, n := range s.items {
		if n.Recipient == recipient {
			delete(s.items, id)
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Dispatcher
// ---------------------------------------------------------------------------

// Publisher is the narrow interface the scheduling core depends on.
type Publisher interface {
	Publish(e Event)
}

// Dispatcher decouples notification persistence from the operations that emit
// events. Publish never blocks the caller: events go into a buffered channel
// and a worker goroutine persists them, logging (not propagating) failures.
type Dispatcher struct {
	store  Store
	logger zerolog.Logger
	events chan Event
	wg     sync.WaitGroup
}

// NewDispatcher creates a Dispatcher with the given channel buffer size.
func NewDispatcher(store Store, logger zerolog.Logger, buffer int) *Dispatcher {
	if buffer <= 0 {
		buffer = 256
	}
	return &Dispatcher{
		store:  store,
		logger: logger,
		events: make(chan Event, buffer),
	}
}

// Start launches the worker goroutine. It runs until Close is called or ctx
// is cancelled; on cancellation the remaining buffered events are drained.
func (d *Dispatcher) Start(ctx context.Context) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		for {
			select {
			case e, ok := <-d.events:
				if !ok {
					return
				}
				d.persist(e)
			case <-ctx.Done():
				for {
					select {
					case e, ok := <-d.events:
						if !ok {
							return
						}
						d.persist(e)
					default:
						return
					}
				}
			}
		}
	}()
}

// Publish enqueues an event without blocking. If the buffer is full the event
// is dropped and logged; a slow notification store must never stall bookings.
func (d *Dispatcher) Publish(e Event) {
	select {
	case d.events <- e:
	default:
		d.logger.Warn().
			Str("recipient", e.Recipient).
			Str("category", string(e.Category)).
			Msg("notification buffer full, event dropped")
	}
}

// Close stops accepting events and waits for the worker to drain the buffer.
func (d *Dispatcher) Close() {
	close(d.events)
	d.wg.Wait()
}

func (d *Dispatcher) persist(e Event) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	n := &Notification{
		ID:        uuid.New(),
		Recipient: e.Recipient,
		Message:   e.Message,
		Category:  e.Category,
		Link:      e.Link,
		CreatedAt: time.Now().UTC(),
	}
	if err := d.store.Create(ctx, n); err != nil {
		d.logger.Error().Err(err).
			Str("recipient", e.Recipient).
			Str("category", string(e.Category)).
			Msg("failed to persist notification")
	}
}

// ---------------------------------------------------------------------------
// HTTP Handler
// ---------------------------------------------------------------------------

// Handler exposes a user's own notifications over HTTP.
type Handler struct {
	store Store
}

func NewHandler(store Store) *Handler {
	return &Handler{store: store}
}

// RegisterRoutes registers all notification routes on the given Echo group.
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/notifications", h.HandleList)
	g.GET("/notifications/unread-count", h.HandleUnreadCount)
	g.POST("/notifications/:id/read", h.HandleMarkRead)
	g.POST("/notifications/read-all", h.HandleMarkAllRead)
	g.DELETE("/notifications/:id", h.HandleDelete)
	g.DELETE("/notifications", h.HandleClear)
}

func (h *Handler) HandleList(c echo.Context) error {
	recipient := auth.UserIDFromContext(c.Request().Context())
	if recipient == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}

	limit := 50
	if raw := c.QueryParam("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 && v <= 200 {
			limit = v
		}
	}

	list, err := h.store.ListByRecipient(c.Request().Context(), recipient, limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list notifications")
	}
	if list == nil {
		list = []Notification{}
	}
	return c.JSON(http.StatusOK, list)
}

func (h *Handler) HandleUnreadCount(c echo.Context) error {
	recipient := auth.UserIDFromContext(c.Request().Context())
	if recipient == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}

	count, err := h.store.UnreadCount(c.Request().Context(), recipient)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to count notifications")
	}
	return c.JSON(http.StatusOK, map[string]int{"unread": count})
}

func (h *Handler) HandleMarkRead(c echo.Context) error {
	recipient := auth.UserIDFromContext(c.Request().Context())
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid notification id")
	}

	if err := h.store.MarkRead(c.Request().Context(), recipient, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "notification not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to mark notification read")
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) HandleMarkAllRead(c echo.Context) error {
	recipient := auth.UserIDFromContext(c.Request().Context())
	if err := h.store.MarkAllRead(c.Request().Context(), recipient); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to mark notifications read")
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) HandleDelete(c echo.Context) error {
	recipient := auth.UserIDFromContext(c.Request().Context())
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid notification id")
	}

	if err := h.store.Delete(c.Request().Context(), recipient, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "notification not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to delete notification")
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) HandleClear(c echo.Context) error {
	recipient := auth.UserIDFromContext(c.Request().Context())
	if err := h.store.Clear(c.Request().Context(), recipient); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to clear notifications")
	}
	return c.NoContent(http.StatusNoContent)
}
