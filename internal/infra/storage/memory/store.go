package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	appoutbox "hirely/internal/app/outbox"
	"hirely/internal/app/uow"
	domainbooking "hirely/internal/domain/booking"
	domainledger "hirely/internal/domain/ledger"
	domainmessaging "hirely/internal/domain/messaging"
	domainproducts "hirely/internal/domain/products"
	domainreviews "hirely/internal/domain/reviews"
	"hirely/internal/domain/shared/events"
	domainusers "hirely/internal/domain/users"
	infraoutbox "hirely/internal/infra/outbox"
)

var (
	ErrUnitClosed   = errors.New("memory: unit of work already finished")
	ErrReadOnlyUnit = errors.New("memory: unit of work is read-only")
)

// Store keeps every aggregate in process memory. Units stage their writes and
// apply them under one lock at commit, after checking versions, review
// uniqueness and locked ledger accounts.
type Store struct {
	mu       sync.RWMutex
	products map[domainproducts.ProductID]*domainproducts.Product
	users    map[domainusers.ID]*domainusers.User
	emails   map[string]domainusers.ID
	bookings map[domainbooking.BookingID]*domainbooking.Booking
	messages map[string][]*domainmessaging.Message
	ledger   []*domainledger.Transaction
	reviews  map[domainbooking.BookingID]*domainreviews.Review
	outbox   []*infraoutbox.Record
}

func NewStore() *Store {
	return &Store{
		products: make(map[domainproducts.ProductID]*domainproducts.Product),
		users:    make(map[domainusers.ID]*domainusers.User),
		emails:   make(map[string]domainusers.ID),
		bookings: make(map[domainbooking.BookingID]*domainbooking.Booking),
		messages: make(map[string][]*domainmessaging.Message),
		reviews:  make(map[domainbooking.BookingID]*domainreviews.Review),
	}
}

// Begin implements uow.UoWFactory.
func (s *Store) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return newUnit(s, opts.ReadOnly), nil
}

func (s *Store) Ping(context.Context) error {
	return nil
}

func (s *Store) commit(u *Unit) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, staged := range u.products {
		if current, ok := s.products[id]; ok {
			if current.Version != staged.expected {
				return domainproducts.ErrConcurrentUpdate
			}
		} else if staged.expected != 0 {
			return domainproducts.ErrConcurrentUpdate
		}
	}
	for id, staged := range u.bookings {
		if current, ok := s.bookings[id]; ok {
			if current.Version != staged.expected {
				return domainbooking.ErrConcurrentUpdate
			}
		} else if staged.expected != 0 {
			return domainbooking.ErrConcurrentUpdate
		}
	}
	for id, user := range u.users {
		if owner, ok := s.emails[user.Email]; ok && owner != id {
			return domainusers.ErrAlreadyExists
		}
	}
	for id := range u.reviews {
		if _, ok := s.reviews[id]; ok {
			return domainreviews.ErrAlreadyReviewed
		}
	}
	for userID, seen := range u.locks {
		if s.ledgerCountLocked(userID) != seen {
			return domainledger.ErrAccountContended
		}
	}
	for id := range u.settled {
		current := s.ledgerEntryLocked(id)
		if current == nil {
			return domainledger.ErrNotFound
		}
		if current.Status != domainledger.StatusPending {
			return domainledger.ErrAlreadySettled
		}
	}

	for id, staged := range u.products {
		s.products[id] = staged.product
	}
	for id, staged := range u.bookings {
		s.bookings[id] = staged.booking
	}
	for id, user := range u.users {
		if previous, ok := s.users[id]; ok && previous.Email != user.Email {
			delete(s.emails, previous.Email)
		}
		s.users[id] = user
		s.emails[user.Email] = id
	}
	for _, msg := range u.messages {
		s.messages[msg.BookingID] = append(s.messages[msg.BookingID], msg)
	}
	for id, tx := range u.settled {
		current := s.ledgerEntryLocked(id)
		current.Status = tx.Status
		current.SettledAt = tx.SettledAt
	}
	s.ledger = append(s.ledger, u.ledger...)
	for id, review := range u.reviews {
		s.reviews[id] = review
	}
	now := time.Now().UTC()
	for _, rec := range u.outbox {
		s.outbox = append(s.outbox, newOutboxRecord(rec, now))
	}
	return nil
}

func (s *Store) ledgerCountLocked(userID string) int {
	n := 0
	for _, tx := range s.ledger {
		if tx.UserID == userID {
			n++
		}
	}
	return n
}

func (s *Store) ledgerEntryLocked(id domainledger.TransactionID) *domainledger.Transaction {
	for _, tx := range s.ledger {
		if tx.ID == id {
			return tx
		}
	}
	return nil
}

func newOutboxRecord(rec appoutbox.EventRecord, now time.Time) *infraoutbox.Record {
	headers := make(map[string]string, len(rec.Headers))
	for k, v := range rec.Headers {
		headers[k] = v
	}
	return &infraoutbox.Record{
		ID:          rec.ID,
		Name:        rec.Name,
		Payload:     append([]byte(nil), rec.Payload...),
		OccurredAt:  rec.OccurredAt,
		Aggregate:   rec.Aggregate,
		Headers:     headers,
		State:       infraoutbox.StateNew,
		NextAttempt: now,
	}
}

func cloneProduct(p *domainproducts.Product) *domainproducts.Product {
	cp := *p
	cp.EventRecorder = events.EventRecorder{}
	return &cp
}

func cloneUser(u *domainusers.User) *domainusers.User {
	cp := *u
	cp.BlockedDates = append([]string(nil), u.BlockedDates...)
	return &cp
}

func cloneBooking(b *domainbooking.Booking) *domainbooking.Booking {
	cp := *b
	cp.EventRecorder = events.EventRecorder{}
	return &cp
}

func cloneMessage(m *domainmessaging.Message) *domainmessaging.Message {
	cp := *m
	return &cp
}

func cloneTransaction(tx *domainledger.Transaction) *domainledger.Transaction {
	cp := *tx
	if tx.SettledAt != nil {
		at := *tx.SettledAt
		cp.SettledAt = &at
	}
	return &cp
}

func cloneReview(r *domainreviews.Review) *domainreviews.Review {
	cp := *r
	cp.EventRecorder = events.EventRecorder{}
	return &cp
}

func sortBookingsNewest(items []*domainbooking.Booking) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].ID > items[j].ID
		}
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
}

var _ uow.UoWFactory = (*Store)(nil)
