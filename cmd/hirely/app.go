package main

import (
	"log/slog"

	"hirely/internal/app/authz"
	"hirely/internal/app/commands"
	availabilityapp "hirely/internal/app/handlers/availability"
	bookingapp "hirely/internal/app/handlers/booking"
	messagesapp "hirely/internal/app/handlers/messages"
	productsapp "hirely/internal/app/handlers/products"
	reviewsapp "hirely/internal/app/handlers/reviews"
	usersapp "hirely/internal/app/handlers/users"
	walletapp "hirely/internal/app/handlers/wallet"
	"hirely/internal/app/middleware"
	"hirely/internal/app/outbox"
	"hirely/internal/app/queries"
	"hirely/internal/app/validation"
	"hirely/internal/domain/pricing"
	"hirely/internal/infra/config"
	ginserver "hirely/internal/infra/http/gin"
	"hirely/internal/infra/security"
)

type application struct {
	commands commands.Bus
	queries  queries.Bus
	handlers ginserver.Handlers
}

func buildApplication(cfg *config.Config, store storage, flusher outbox.Flusher, logger *slog.Logger) application {
	factory := store.factory
	currency := cfg.Platform.Currency
	rates := cfg.Rates()
	encoder := outbox.JSONEventEncoder{}

	commandBus := commands.NewInMemoryBus()
	commands.RegisterHandler(commandBus, &bookingapp.CreateBookingHandler{
		UoWFactory:          factory,
		Pricing:             pricing.NewEngine(rates),
		EnforceAvailability: cfg.Booking.EnforceAvailability,
		Encoder:             encoder,
		Logger:              logger,
	})
	commands.RegisterHandler(commandBus, &bookingapp.TransitionBookingHandler{UoWFactory: factory, Encoder: encoder, Logger: logger})
	commands.RegisterHandler(commandBus, &bookingapp.CancelBookingHandler{UoWFactory: factory, Encoder: encoder, Logger: logger})
	commands.RegisterHandler(commandBus, &walletapp.RequestPayoutHandler{UoWFactory: factory, Currency: currency, Encoder: encoder, Logger: logger})
	commands.RegisterHandler(commandBus, &messagesapp.PostMessageHandler{UoWFactory: factory, Logger: logger})
	commands.RegisterHandler(commandBus, &reviewsapp.SubmitReviewHandler{UoWFactory: factory, Encoder: encoder, Logger: logger})
	commands.RegisterHandler(commandBus, &productsapp.CreateProductHandler{UoWFactory: factory, Currency: currency, Encoder: encoder, Logger: logger})
	commands.RegisterHandler(commandBus, &productsapp.UpdateProductPricingHandler{UoWFactory: factory, Currency: currency, Encoder: encoder, Logger: logger})
	commands.RegisterHandler(commandBus, &productsapp.DeleteProductHandler{UoWFactory: factory, Encoder: encoder, Logger: logger})
	commands.RegisterHandler(commandBus, &usersapp.RegisterUserHandler{UoWFactory: factory, Logger: logger})
	commands.RegisterHandler(commandBus, &usersapp.BlockDatesHandler{UoWFactory: factory, Logger: logger})
	commands.RegisterHandler(commandBus, &usersapp.UnblockDatesHandler{UoWFactory: factory, Logger: logger})
	commands.RegisterHandler(commandBus, &usersapp.MarkIdentityVerifiedHandler{UoWFactory: factory, Logger: logger})

	queryBus := queries.NewInMemoryBus()
	queries.RegisterHandler(queryBus, &bookingapp.GetBookingHandler{UoWFactory: factory})
	queries.RegisterHandler(queryBus, &bookingapp.ListBookingsHandler{UoWFactory: factory, Logger: logger})
	queries.RegisterHandler(queryBus, &walletapp.GetBalanceHandler{UoWFactory: factory, Currency: currency})
	queries.RegisterHandler(queryBus, &walletapp.ListTransactionsHandler{UoWFactory: factory})
	queries.RegisterHandler(queryBus, &messagesapp.ListMessagesHandler{UoWFactory: factory})
	queries.RegisterHandler(queryBus, &reviewsapp.ListProductReviewsHandler{UoWFactory: factory, Logger: logger})
	queries.RegisterHandler(queryBus, &availabilityapp.UnavailableDatesHandler{UoWFactory: factory})
	queries.RegisterHandler(queryBus, &productsapp.GetProductHandler{UoWFactory: factory})
	queries.RegisterHandler(queryBus, &productsapp.ListOwnerProductsHandler{UoWFactory: factory})
	queries.RegisterHandler(queryBus, &productsapp.PreviewPriceHandler{UoWFactory: factory, Policy: rates.Preview, Logger: logger})
	queries.RegisterHandler(queryBus, &usersapp.GetUserHandler{UoWFactory: factory})

	logger.Debug("buses wired", "commands", commandBus.Keys(), "queries", queryBus.Keys())

	validator := validation.New()
	authorizer := authz.PrincipalAuthorizer{}
	commandBusWithMiddleware := middleware.ChainCommands(
		commandBus,
		middleware.CommandLogging(logger),
		middleware.Validation(validator),
		middleware.Authorization(authorizer),
		middleware.OutboxFlush(flusher, logger),
		middleware.Idempotency(store.idempotency, nil),
		middleware.Transaction(factory, nil),
	)
	queryBusWithMiddleware := middleware.ChainQueries(
		queryBus,
		middleware.QueryLogging(logger),
		middleware.QueryValidation(validator),
		middleware.QueryAuthorization(authorizer),
		middleware.ReadOnlyTransaction(factory),
	)

	tokens := security.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, cfg.Auth.TokenTTL)
	return application{
		commands: commandBusWithMiddleware,
		queries:  queryBusWithMiddleware,
		handlers: ginserver.Handlers{
			Booking:        ginserver.BookingHandler{Commands: commandBusWithMiddleware, Queries: queryBusWithMiddleware, Logger: logger},
			Wallet:         ginserver.WalletHandler{Commands: commandBusWithMiddleware, Queries: queryBusWithMiddleware, Logger: logger},
			Availability:   ginserver.AvailabilityHandler{Queries: queryBusWithMiddleware, Logger: logger},
			Messages:       ginserver.MessageHandler{Commands: commandBusWithMiddleware, Queries: queryBusWithMiddleware, Logger: logger},
			Reviews:        ginserver.ReviewsHandler{Commands: commandBusWithMiddleware, Queries: queryBusWithMiddleware, Logger: logger},
			Products:       ginserver.ProductHandler{Commands: commandBusWithMiddleware, Queries: queryBusWithMiddleware, Logger: logger},
			Auth:           ginserver.AuthHandler{Commands: commandBusWithMiddleware, Tokens: tokens, Logger: logger},
			Me:             ginserver.MeHandler{Commands: commandBusWithMiddleware, Queries: queryBusWithMiddleware, Logger: logger},
			Admin:          ginserver.AdminHandler{Commands: commandBusWithMiddleware, Logger: logger},
			AuthMiddleware: ginserver.AuthMiddleware{Tokens: tokens, Logger: logger}.Handle,
		},
	}
}
