package users

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"hirely/internal/domain/shared/daterange"
	"hirely/internal/domain/shared/fault"
)

var (
	ErrIDRequired    = fmt.Errorf("users: id is required: %w", fault.ErrValidation)
	ErrEmailRequired = fmt.Errorf("users: email is required: %w", fault.ErrValidation)
	ErrNameRequired  = fmt.Errorf("users: name is required: %w", fault.ErrValidation)
	ErrNotFound      = fmt.Errorf("users: not found: %w", fault.ErrNotFound)
	ErrAlreadyExists = fmt.Errorf("users: already exists: %w", fault.ErrConflict)
)

type ID string

type User struct {
	ID               ID
	Email            string
	Name             string
	BlockedDates     []string
	IdentityVerified bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

type Repository interface {
	ByID(ctx context.Context, id ID) (*User, error)
	Save(ctx context.Context, user *User) error
}

type CreateParams struct {
	ID        ID
	Email     string
	Name      string
	CreatedAt time.Time
}

func NewUser(params CreateParams) (*User, error) {
	id := strings.TrimSpace(string(params.ID))
	if id == "" {
		return nil, ErrIDRequired
	}
	email := normalizeEmail(params.Email)
	if email == "" {
		return nil, ErrEmailRequired
	}
	name := strings.TrimSpace(params.Name)
	if name == "" {
		return nil, ErrNameRequired
	}
	now := params.CreatedAt
	if now.IsZero() {
		now = time.Now()
	}
	now = now.UTC()
	return &User{
		ID:        ID(id),
		Email:     email,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// BlockDates adds YYYY-MM-DD days to the owner's unavailable set.
func (u *User) BlockDates(dates []string, now time.Time) error {
	set := make(map[string]struct{}, len(u.BlockedDates)+len(dates))
	for _, d := range u.BlockedDates {
		set[d] = struct{}{}
	}
	for _, raw := range dates {
		day, err := daterange.ParseDay(strings.TrimSpace(raw))
		if err != nil {
			return err
		}
		set[daterange.FormatDay(day)] = struct{}{}
	}
	u.BlockedDates = sortedKeys(set)
	u.UpdatedAt = now.UTC()
	return nil
}

// UnblockDates removes days from the blocked set; unknown days are ignored.
func (u *User) UnblockDates(dates []string, now time.Time) error {
	set := make(map[string]struct{}, len(u.BlockedDates))
	for _, d := range u.BlockedDates {
		set[d] = struct{}{}
	}
	for _, raw := range dates {
		day, err := daterange.ParseDay(strings.TrimSpace(raw))
		if err != nil {
			return err
		}
		delete(set, daterange.FormatDay(day))
	}
	u.BlockedDates = sortedKeys(set)
	u.UpdatedAt = now.UTC()
	return nil
}

// MarkIdentityVerified only sets the flag; document checks happen elsewhere.
func (u *User) MarkIdentityVerified(now time.Time) {
	u.IdentityVerified = true
	u.UpdatedAt = now.UTC()
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
