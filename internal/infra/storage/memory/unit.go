package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	appoutbox "hirely/internal/app/outbox"
	domainbooking "hirely/internal/domain/booking"
	domainledger "hirely/internal/domain/ledger"
	domainmessaging "hirely/internal/domain/messaging"
	domainproducts "hirely/internal/domain/products"
	domainreviews "hirely/internal/domain/reviews"
	domainusers "hirely/internal/domain/users"
)

type stagedProduct struct {
	product  *domainproducts.Product
	expected int64
}

type stagedBooking struct {
	booking  *domainbooking.Booking
	expected int64
}

// Unit buffers writes until Commit. Reads see the unit's own staged writes
// layered over the committed state.
type Unit struct {
	store    *Store
	readOnly bool

	mu       sync.Mutex
	done     bool
	products map[domainproducts.ProductID]*stagedProduct
	users    map[domainusers.ID]*domainusers.User
	bookings map[domainbooking.BookingID]*stagedBooking
	messages []*domainmessaging.Message
	ledger   []*domainledger.Transaction
	settled  map[domainledger.TransactionID]*domainledger.Transaction
	locks    map[string]int
	reviews  map[domainbooking.BookingID]*domainreviews.Review
	outbox   []appoutbox.EventRecord
}

func newUnit(store *Store, readOnly bool) *Unit {
	return &Unit{
		store:    store,
		readOnly: readOnly,
		products: make(map[domainproducts.ProductID]*stagedProduct),
		users:    make(map[domainusers.ID]*domainusers.User),
		bookings: make(map[domainbooking.BookingID]*stagedBooking),
		settled:  make(map[domainledger.TransactionID]*domainledger.Transaction),
		locks:    make(map[string]int),
		reviews:  make(map[domainbooking.BookingID]*domainreviews.Review),
	}
}

func (u *Unit) Products() domainproducts.Repository { return productRepo{u} }

func (u *Unit) Users() domainusers.Repository { return userRepo{u} }

func (u *Unit) Bookings() domainbooking.Repository { return bookingRepo{u} }

func (u *Unit) Messages() domainmessaging.Repository { return messageRepo{u} }

func (u *Unit) Ledger() domainledger.Repository { return ledgerRepo{u} }

func (u *Unit) Reviews() domainreviews.Repository { return reviewRepo{u} }

func (u *Unit) Outbox() appoutbox.Outbox { return outboxWriter{u} }

func (u *Unit) Commit(ctx context.Context) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.done {
		return ErrUnitClosed
	}
	u.done = true
	if u.readOnly {
		return nil
	}
	return u.store.commit(u)
}

func (u *Unit) Rollback(ctx context.Context) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.done = true
	return nil
}

// begin guards every repository call. Callers must unlock u.mu.
func (u *Unit) begin(write bool) error {
	u.mu.Lock()
	if u.done {
		u.mu.Unlock()
		return ErrUnitClosed
	}
	if write && u.readOnly {
		u.mu.Unlock()
		return ErrReadOnlyUnit
	}
	return nil
}

type productRepo struct{ u *Unit }

func (r productRepo) ByID(ctx context.Context, id domainproducts.ProductID) (*domainproducts.Product, error) {
	if err := r.u.begin(false); err != nil {
		return nil, err
	}
	defer r.u.mu.Unlock()
	if staged, ok := r.u.products[id]; ok {
		return cloneProduct(staged.product), nil
	}
	r.u.store.mu.RLock()
	defer r.u.store.mu.RUnlock()
	if p, ok := r.u.store.products[id]; ok {
		return cloneProduct(p), nil
	}
	return nil, domainproducts.ErrNotFound
}

func (r productRepo) Save(ctx context.Context, p *domainproducts.Product) error {
	if err := r.u.begin(true); err != nil {
		return err
	}
	defer r.u.mu.Unlock()
	staged, ok := r.u.products[p.ID]
	if ok {
		if staged.product.Version != p.Version {
			return domainproducts.ErrConcurrentUpdate
		}
	} else {
		staged = &stagedProduct{expected: p.Version}
		r.u.products[p.ID] = staged
	}
	p.Version++
	staged.product = cloneProduct(p)
	return nil
}

func (r productRepo) ListByOwner(ctx context.Context, ownerID string) ([]*domainproducts.Product, error) {
	if err := r.u.begin(false); err != nil {
		return nil, err
	}
	defer r.u.mu.Unlock()
	seen := make(map[domainproducts.ProductID]struct{})
	var out []*domainproducts.Product
	for id, staged := range r.u.products {
		seen[id] = struct{}{}
		if staged.product.OwnerID == ownerID {
			out = append(out, cloneProduct(staged.product))
		}
	}
	r.u.store.mu.RLock()
	for id, p := range r.u.store.products {
		if _, ok := seen[id]; ok || p.OwnerID != ownerID {
			continue
		}
		out = append(out, cloneProduct(p))
	}
	r.u.store.mu.RUnlock()
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

type userRepo struct{ u *Unit }

func (r userRepo) ByID(ctx context.Context, id domainusers.ID) (*domainusers.User, error) {
	if err := r.u.begin(false); err != nil {
		return nil, err
	}
	defer r.u.mu.Unlock()
	if user, ok := r.u.users[id]; ok {
		return cloneUser(user), nil
	}
	r.u.store.mu.RLock()
	defer r.u.store.mu.RUnlock()
	if user, ok := r.u.store.users[id]; ok {
		return cloneUser(user), nil
	}
	return nil, domainusers.ErrNotFound
}

func (r userRepo) Save(ctx context.Context, user *domainusers.User) error {
	if user == nil || strings.TrimSpace(string(user.ID)) == "" {
		return domainusers.ErrIDRequired
	}
	if strings.TrimSpace(user.Email) == "" {
		return domainusers.ErrEmailRequired
	}
	if err := r.u.begin(true); err != nil {
		return err
	}
	defer r.u.mu.Unlock()
	r.u.users[user.ID] = cloneUser(user)
	return nil
}

type bookingRepo struct{ u *Unit }

func (r bookingRepo) ByID(ctx context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	if err := r.u.begin(false); err != nil {
		return nil, err
	}
	defer r.u.mu.Unlock()
	if staged, ok := r.u.bookings[id]; ok {
		return cloneBooking(staged.booking), nil
	}
	r.u.store.mu.RLock()
	defer r.u.store.mu.RUnlock()
	if b, ok := r.u.store.bookings[id]; ok {
		return cloneBooking(b), nil
	}
	return nil, domainbooking.ErrBookingNotFound
}

// Save stages b and bumps its version. Commit fails when another unit has
// saved the same booking since it was read.
func (r bookingRepo) Save(ctx context.Context, b *domainbooking.Booking) error {
	if err := r.u.begin(true); err != nil {
		return err
	}
	defer r.u.mu.Unlock()
	staged, ok := r.u.bookings[b.ID]
	if ok {
		if staged.booking.Version != b.Version {
			return domainbooking.ErrConcurrentUpdate
		}
	} else {
		staged = &stagedBooking{expected: b.Version}
		r.u.bookings[b.ID] = staged
	}
	b.Version++
	staged.booking = cloneBooking(b)
	return nil
}

func (r bookingRepo) ListByProduct(ctx context.Context, productID domainproducts.ProductID) ([]*domainbooking.Booking, error) {
	return r.list(func(b *domainbooking.Booking) bool { return b.ProductID == productID })
}

func (r bookingRepo) ListByHirer(ctx context.Context, hirerID string) ([]*domainbooking.Booking, error) {
	return r.list(func(b *domainbooking.Booking) bool { return b.HirerID == hirerID })
}

func (r bookingRepo) ListByLister(ctx context.Context, listerID string) ([]*domainbooking.Booking, error) {
	return r.list(func(b *domainbooking.Booking) bool { return b.ListerID == listerID })
}

func (r bookingRepo) list(match func(*domainbooking.Booking) bool) ([]*domainbooking.Booking, error) {
	if err := r.u.begin(false); err != nil {
		return nil, err
	}
	defer r.u.mu.Unlock()
	seen := make(map[domainbooking.BookingID]struct{})
	var out []*domainbooking.Booking
	for id, staged := range r.u.bookings {
		seen[id] = struct{}{}
		if match(staged.booking) {
			out = append(out, cloneBooking(staged.booking))
		}
	}
	r.u.store.mu.RLock()
	for id, b := range r.u.store.bookings {
		if _, ok := seen[id]; ok || !match(b) {
			continue
		}
		out = append(out, cloneBooking(b))
	}
	r.u.store.mu.RUnlock()
	sortBookingsNewest(out)
	return out, nil
}

type messageRepo struct{ u *Unit }

func (r messageRepo) Append(ctx context.Context, msg *domainmessaging.Message) error {
	if err := r.u.begin(true); err != nil {
		return err
	}
	defer r.u.mu.Unlock()
	r.u.messages = append(r.u.messages, cloneMessage(msg))
	return nil
}

func (r messageRepo) ListByBooking(ctx context.Context, bookingID string) ([]*domainmessaging.Message, error) {
	if err := r.u.begin(false); err != nil {
		return nil, err
	}
	defer r.u.mu.Unlock()
	r.u.store.mu.RLock()
	committed := r.u.store.messages[bookingID]
	out := make([]*domainmessaging.Message, 0, len(committed))
	for _, m := range committed {
		out = append(out, cloneMessage(m))
	}
	r.u.store.mu.RUnlock()
	for _, m := range r.u.messages {
		if m.BookingID == bookingID {
			out = append(out, cloneMessage(m))
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return domainmessaging.Less(out[i], out[j]) })
	return out, nil
}

type ledgerRepo struct{ u *Unit }

func (r ledgerRepo) Append(ctx context.Context, tx *domainledger.Transaction) error {
	if err := r.u.begin(true); err != nil {
		return err
	}
	defer r.u.mu.Unlock()
	r.u.ledger = append(r.u.ledger, cloneTransaction(tx))
	return nil
}

func (r ledgerRepo) ListByUser(ctx context.Context, userID string) ([]*domainledger.Transaction, error) {
	return r.list(func(tx *domainledger.Transaction) bool { return tx.UserID == userID })
}

func (r ledgerRepo) ListByBooking(ctx context.Context, bookingID string) ([]*domainledger.Transaction, error) {
	return r.list(func(tx *domainledger.Transaction) bool { return tx.BookingID == bookingID })
}

func (r ledgerRepo) list(match func(*domainledger.Transaction) bool) ([]*domainledger.Transaction, error) {
	if err := r.u.begin(false); err != nil {
		return nil, err
	}
	defer r.u.mu.Unlock()
	var out []*domainledger.Transaction
	r.u.store.mu.RLock()
	for _, tx := range r.u.store.ledger {
		if !match(tx) {
			continue
		}
		if settled, ok := r.u.settled[tx.ID]; ok {
			out = append(out, cloneTransaction(settled))
			continue
		}
		out = append(out, cloneTransaction(tx))
	}
	r.u.store.mu.RUnlock()
	for _, tx := range r.u.ledger {
		if match(tx) {
			out = append(out, cloneTransaction(tx))
		}
	}
	return out, nil
}

func (r ledgerRepo) SaveStatus(ctx context.Context, tx *domainledger.Transaction) error {
	if err := r.u.begin(true); err != nil {
		return err
	}
	defer r.u.mu.Unlock()
	for i, pending := range r.u.ledger {
		if pending.ID == tx.ID {
			r.u.ledger[i] = cloneTransaction(tx)
			return nil
		}
	}
	r.u.settled[tx.ID] = cloneTransaction(tx)
	return nil
}

// LockAccount snapshots the number of committed entries for userID. Commit
// fails if any other unit has appended to that account in the meantime.
func (r ledgerRepo) LockAccount(ctx context.Context, userID string) error {
	if err := r.u.begin(true); err != nil {
		return err
	}
	defer r.u.mu.Unlock()
	if _, ok := r.u.locks[userID]; ok {
		return nil
	}
	r.u.store.mu.RLock()
	r.u.locks[userID] = r.u.store.ledgerCountLocked(userID)
	r.u.store.mu.RUnlock()
	return nil
}

type reviewRepo struct{ u *Unit }

func (r reviewRepo) ByBooking(ctx context.Context, bookingID domainbooking.BookingID) (*domainreviews.Review, error) {
	if err := r.u.begin(false); err != nil {
		return nil, err
	}
	defer r.u.mu.Unlock()
	if review, ok := r.u.reviews[bookingID]; ok {
		return cloneReview(review), nil
	}
	r.u.store.mu.RLock()
	defer r.u.store.mu.RUnlock()
	if review, ok := r.u.store.reviews[bookingID]; ok {
		return cloneReview(review), nil
	}
	return nil, domainreviews.ErrNotFound
}

func (r reviewRepo) ListByProduct(ctx context.Context, productID domainproducts.ProductID, limit, offset int) ([]*domainreviews.Review, error) {
	if err := r.u.begin(false); err != nil {
		return nil, err
	}
	defer r.u.mu.Unlock()
	var out []*domainreviews.Review
	r.u.store.mu.RLock()
	for id, review := range r.u.store.reviews {
		if _, staged := r.u.reviews[id]; staged || review.ProductID != productID {
			continue
		}
		out = append(out, cloneReview(review))
	}
	r.u.store.mu.RUnlock()
	for _, review := range r.u.reviews {
		if review.ProductID == productID {
			out = append(out, cloneReview(review))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return page(out, limit, offset), nil
}

func (r reviewRepo) Save(ctx context.Context, review *domainreviews.Review) error {
	if err := r.u.begin(true); err != nil {
		return err
	}
	defer r.u.mu.Unlock()
	if _, ok := r.u.reviews[review.BookingID]; ok {
		return domainreviews.ErrAlreadyReviewed
	}
	r.u.reviews[review.BookingID] = cloneReview(review)
	return nil
}

func page[T any](items []T, limit, offset int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset > len(items) {
		offset = len(items)
	}
	end := len(items)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return items[offset:end]
}

type outboxWriter struct{ u *Unit }

func (w outboxWriter) Add(ctx context.Context, record appoutbox.EventRecord) error {
	if err := w.u.begin(true); err != nil {
		return err
	}
	defer w.u.mu.Unlock()
	w.u.outbox = append(w.u.outbox, record)
	return nil
}
