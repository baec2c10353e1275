package dto

import (
	"time"

	domainusers "hirely/internal/domain/users"
)

type User struct {
	ID               string    `json:"id"`
	Email            string    `json:"email"`
	Name             string    `json:"name"`
	BlockedDates     []string  `json:"blocked_dates"`
	IdentityVerified bool      `json:"identity_verified"`
	CreatedAt        time.Time `json:"created_at"`
}

func MapUser(u *domainusers.User) User {
	blocked := append([]string{}, u.BlockedDates...)
	return User{
		ID:               string(u.ID),
		Email:            u.Email,
		Name:             u.Name,
		BlockedDates:     blocked,
		IdentityVerified: u.IdentityVerified,
		CreatedAt:        u.CreatedAt,
	}
}
