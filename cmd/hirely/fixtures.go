package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"hirely/internal/app/commands"
	"hirely/internal/app/dto"
	productsapp "hirely/internal/app/handlers/products"
	usersapp "hirely/internal/app/handlers/users"
	"hirely/internal/domain/shared/fault"
)

type fixtures struct {
	Users    []userFixture    `json:"users"`
	Products []productFixture `json:"products"`
}

type userFixture struct {
	ID           string   `json:"id"`
	Email        string   `json:"email"`
	Name         string   `json:"name"`
	BlockedDates []string `json:"blocked_dates"`
}

type productFixture struct {
	ID          string `json:"id"`
	OwnerID     string `json:"owner_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Quantity    int    `json:"quantity"`
	OneDay      int64  `json:"one_day"`
	ThreeDay    *int64 `json:"three_day"`
	SevenDay    *int64 `json:"seven_day"`
}

// loadFixtures seeds users and products through the command bus. Entries that
// already exist are skipped so restarts against a persistent store are safe.
func (a application) loadFixtures(ctx context.Context, path string, logger *slog.Logger) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Info("fixtures file not found, skipping", "path", path)
			return nil
		}
		return fmt.Errorf("read fixtures: %w", err)
	}
	var fx fixtures
	if err := json.Unmarshal(data, &fx); err != nil {
		return fmt.Errorf("decode fixtures: %w", err)
	}

	for _, u := range fx.Users {
		_, err := commands.Dispatch[usersapp.RegisterUserCommand, *dto.User](ctx, a.commands, usersapp.RegisterUserCommand{
			UserID: u.ID,
			Email:  u.Email,
			Name:   u.Name,
		})
		if err != nil && !errors.Is(err, fault.ErrConflict) {
			logger.Error("fixture user invalid", "user_id", u.ID, "error", err)
			continue
		}
		if len(u.BlockedDates) > 0 {
			cmd := usersapp.BlockDatesCommand{UserID: u.ID, Dates: u.BlockedDates}
			if _, err := commands.Dispatch[usersapp.BlockDatesCommand, *dto.User](ctx, a.commands, cmd); err != nil {
				logger.Error("fixture blocked dates failed", "user_id", u.ID, "error", err)
			}
		}
	}
	for _, p := range fx.Products {
		cmd := productsapp.CreateProductCommand{
			ProductID:   p.ID,
			OwnerID:     p.OwnerID,
			Title:       p.Title,
			Description: p.Description,
			Quantity:    p.Quantity,
			Tiers:       productsapp.TierInput{OneDay: p.OneDay, ThreeDay: p.ThreeDay, SevenDay: p.SevenDay},
		}
		product, err := commands.Dispatch[productsapp.CreateProductCommand, *dto.Product](ctx, a.commands, cmd)
		if err != nil {
			if errors.Is(err, fault.ErrConflict) || errors.Is(err, fault.ErrConcurrencyConflict) {
				continue
			}
			logger.Error("fixture product invalid", "product_id", p.ID, "error", err)
			continue
		}
		logger.Info("product fixture imported", "product_id", product.ID)
	}
	return nil
}
