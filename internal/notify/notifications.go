// Package notify holds the in-memory notification and feedback subsystems.
// Both follow the log-plus-fallback policy: every operation returns a typed
// value, never an error the HTTP layer would have to surface.
package notify

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Channel names a delivery channel for notifications.
type Channel string

const (
	ChannelInApp Channel = "in_app"
	ChannelEmail Channel = "email"
)

// Preferences holds a user's notification settings.
type Preferences struct {
	UserID    string    `json:"userId"`
	Channels  []Channel `json:"channels"`
	Muted     bool      `json:"muted"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Notification is one delivered message.
type Notification struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"createdAt"`
}

// System stores preferences and notification records per user, guarded by a
// mutex since requests run concurrently.
type System struct {
	mu            sync.RWMutex
	preferences   map[string]Preferences
	notifications map[string][]Notification
	logger        zerolog.Logger
}

// NewSystem returns an empty notification system.
func NewSystem(logger zerolog.Logger) *System {
	return &System{
		preferences:   make(map[string]Preferences),
		notifications: make(map[string][]Notification),
		logger:        logger.With().Str("component", "notify").Logger(),
	}
}

// defaultPreferences is the fallback returned for users who never saved
// settings.
func defaultPreferences(userID string) Preferences {
	return Preferences{
		UserID:   userID,
		Channels: []Channel{ChannelInApp},
	}
}

// GetPreferences returns the stored preferences or the default set.
func (s *System) GetPreferences(userID string) Preferences {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if p, ok := s.preferences[userID]; ok {
		return p
	}
	return defaultPreferences(userID)
}

// SetPreferences stores a user's settings.
func (s *System) SetPreferences(p Preferences) Preferences {
	p.UpdatedAt = time.Now()
	if len(p.Channels) == 0 {
		p.Channels = []Channel{ChannelInApp}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.preferences[p.UserID] = p
	return p
}

// Notify records a notification for a user unless they are muted. The
// returned record has its ID and timestamp filled in.
func (s *System) Notify(userID, title, body string) Notification {
	n := Notification{
		ID:        uuid.New().String(),
		UserID:    userID,
		Title:     title,
		Body:      body,
		CreatedAt: time.Now(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if p, ok := s.preferences[userID]; ok && p.Muted {
		s.logger.Debug().Str("user_id", userID).Msg("user muted, dropping notification")
		return n
	}

	s.notifications[userID] = append(s.notifications[userID], n)
	s.logger.Debug().Str("user_id", userID).Str("title", title).Msg("notification recorded")
	return n
}

// List returns a copy of a user's notifications, newest last.
func (s *System) List(userID string) []Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Notification, len(s.notifications[userID]))
	copy(out, s.notifications[userID])
	return out
}

// MarkRead flags one notification as read. Unknown IDs are ignored.
func (s *System) MarkRead(userID, notificationID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.notifications[userID]
	for i := range list {
		if list[i].ID == notificationID {
			list[i].Read = true
			return
		}
	}
}
