// Package memory implements the domain repositories and unit of work on
// plain maps. It backs the usecase and concurrency tests and is a drop-in
// stand-in for the postgres adapter in local development.
package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/coinharbor/exchange-backend/internal/domain"
)

// Store holds all persisted state behind a single mutex. Unit-of-work
// execution clones the state, applies the function to the clone, and swaps
// it in only on success, which gives the same all-or-nothing visibility as
// a database transaction.
type Store struct {
	mu sync.Mutex
	st *state
}

type state struct {
	wallets       map[int64]domain.Wallet
	walletByUser  map[uuid.UUID]int64
	assets        map[uuid.UUID]domain.Asset
	orders        map[uuid.UUID]domain.Order
	orderSeq      []uuid.UUID
	ledger        []domain.LedgerEntry
	withdrawals   map[uuid.UUID]domain.Withdrawal
	withdrawalSeq []uuid.UUID
	paymentOrders map[uuid.UUID]domain.PaymentOrder
}

func newState() *state {
	return &state{
		wallets:       make(map[int64]domain.Wallet),
		walletByUser:  make(map[uuid.UUID]int64),
		assets:        make(map[uuid.UUID]domain.Asset),
		orders:        make(map[uuid.UUID]domain.Order),
		withdrawals:   make(map[uuid.UUID]domain.Withdrawal),
		paymentOrders: make(map[uuid.UUID]domain.PaymentOrder),
	}
}

func (st *state) clone() *state {
	next := &state{
		wallets:       make(map[int64]domain.Wallet, len(st.wallets)),
		walletByUser:  make(map[uuid.UUID]int64, len(st.walletByUser)),
		assets:        make(map[uuid.UUID]domain.Asset, len(st.assets)),
		orders:        make(map[uuid.UUID]domain.Order, len(st.orders)),
		orderSeq:      append([]uuid.UUID(nil), st.orderSeq...),
		ledger:        append([]domain.LedgerEntry(nil), st.ledger...),
		withdrawals:   make(map[uuid.UUID]domain.Withdrawal, len(st.withdrawals)),
		withdrawalSeq: append([]uuid.UUID(nil), st.withdrawalSeq...),
		paymentOrders: make(map[uuid.UUID]domain.PaymentOrder, len(st.paymentOrders)),
	}
	for id, w := range st.wallets {
		next.wallets[id] = w
	}
	for user, id := range st.walletByUser {
		next.walletByUser[user] = id
	}
	for id, a := range st.assets {
		next.assets[id] = a
	}
	for id, o := range st.orders {
		next.orders[id] = o
	}
	for id, w := range st.withdrawals {
		next.withdrawals[id] = w
	}
	for id, p := range st.paymentOrders {
		next.paymentOrders[id] = p
	}
	return next
}

// NewStore creates an empty in-memory store
func NewStore() *Store {
	return &Store{st: newState()}
}

// Repositories returns repositories bound to the live store. Each call locks
// the store for the duration of the operation, so reads are consistent with
// committed units of work.
func (s *Store) Repositories() *domain.Repositories {
	return bind(s, nil)
}

// Do implements domain.UnitOfWork with clone-and-swap semantics.
func (s *Store) Do(ctx context.Context, fn func(r *domain.Repositories) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	snapshot := s.st.clone()
	if err := fn(bind(nil, snapshot)); err != nil {
		return err
	}

	s.st = snapshot
	return nil
}

// bind builds a repository set backed either by the live store (locking per
// operation) or by a transaction snapshot (no locking; Do already holds the
// store mutex).
func bind(s *Store, st *state) *domain.Repositories {
	v := view{store: s, tx: st}
	return &domain.Repositories{
		Wallets:       &walletRepo{v},
		Assets:        &assetRepo{v},
		Orders:        &orderRepo{v},
		Ledger:        &ledgerRepo{v},
		Withdrawals:   &withdrawalRepo{v},
		PaymentOrders: &paymentOrderRepo{v},
	}
}

type view struct {
	store *Store
	tx    *state
}

// acquire returns the state to operate on and a release function.
func (v view) acquire() (*state, func()) {
	if v.tx != nil {
		return v.tx, func() {}
	}
	v.store.mu.Lock()
	return v.store.st, v.store.mu.Unlock
}

type walletRepo struct{ view }

func (r *walletRepo) GetByID(ctx context.Context, id int64) (*domain.Wallet, error) {
	st, release := r.acquire()
	defer release()

	w, ok := st.wallets[id]
	if !ok {
		return nil, domain.ErrWalletNotFound
	}
	return &w, nil
}

func (r *walletRepo) GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.Wallet, error) {
	st, release := r.acquire()
	defer release()

	id, ok := st.walletByUser[userID]
	if !ok {
		return nil, domain.ErrWalletNotFound
	}
	w := st.wallets[id]
	return &w, nil
}

func (r *walletRepo) ExistsByID(ctx context.Context, id int64) (bool, error) {
	st, release := r.acquire()
	defer release()

	_, ok := st.wallets[id]
	return ok, nil
}

func (r *walletRepo) Create(ctx context.Context, wallet *domain.Wallet) error {
	st, release := r.acquire()
	defer release()

	st.wallets[wallet.ID] = *wallet
	st.walletByUser[wallet.UserID] = wallet.ID
	return nil
}

func (r *walletRepo) UpdateBalance(ctx context.Context, wallet *domain.Wallet) error {
	st, release := r.acquire()
	defer release()

	if _, ok := st.wallets[wallet.ID]; !ok {
		return domain.ErrWalletNotFound
	}
	st.wallets[wallet.ID] = *wallet
	return nil
}

type assetRepo struct{ view }

func (r *assetRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Asset, error) {
	st, release := r.acquire()
	defer release()

	a, ok := st.assets[id]
	if !ok {
		return nil, domain.ErrAssetNotFound
	}
	return &a, nil
}

func (r *assetRepo) FindByUserAndInstrument(ctx context.Context, userID uuid.UUID, instrumentID string) (*domain.Asset, error) {
	st, release := r.acquire()
	defer release()

	for _, a := range st.assets {
		if a.UserID == userID && a.InstrumentID == instrumentID {
			found := a
			return &found, nil
		}
	}
	return nil, domain.ErrAssetNotFound
}

func (r *assetRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Asset, error) {
	st, release := r.acquire()
	defer release()

	out := make([]*domain.Asset, 0)
	for _, a := range st.assets {
		if a.UserID == userID {
			found := a
			out = append(out, &found)
		}
	}
	return out, nil
}

func (r *assetRepo) Create(ctx context.Context, asset *domain.Asset) error {
	st, release := r.acquire()
	defer release()

	st.assets[asset.ID] = *asset
	return nil
}

func (r *assetRepo) Update(ctx context.Context, asset *domain.Asset) error {
	st, release := r.acquire()
	defer release()

	if _, ok := st.assets[asset.ID]; !ok {
		return domain.ErrAssetNotFound
	}
	st.assets[asset.ID] = *asset
	return nil
}

func (r *assetRepo) Delete(ctx context.Context, id uuid.UUID) error {
	st, release := r.acquire()
	defer release()

	if _, ok := st.assets[id]; !ok {
		return domain.ErrAssetNotFound
	}
	delete(st.assets, id)
	return nil
}

type orderRepo struct{ view }

func (r *orderRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	st, release := r.acquire()
	defer release()

	o, ok := st.orders[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	return &o, nil
}

func (r *orderRepo) ListByUser(ctx context.Context, userID uuid.UUID, filter domain.OrderFilter) ([]*domain.Order, error) {
	st, release := r.acquire()
	defer release()

	out := make([]*domain.Order, 0)
	for i := len(st.orderSeq) - 1; i >= 0; i-- {
		o := st.orders[st.orderSeq[i]]
		if o.UserID != userID || !o.Matches(filter) {
			continue
		}
		found := o
		out = append(out, &found)
	}
	return out, nil
}

func (r *orderRepo) Create(ctx context.Context, order *domain.Order) error {
	st, release := r.acquire()
	defer release()

	st.orders[order.ID] = *order
	st.orderSeq = append(st.orderSeq, order.ID)
	return nil
}

func (r *orderRepo) Update(ctx context.Context, order *domain.Order) error {
	st, release := r.acquire()
	defer release()

	if _, ok := st.orders[order.ID]; !ok {
		return domain.ErrOrderNotFound
	}
	st.orders[order.ID] = *order
	return nil
}

type ledgerRepo struct{ view }

func (r *ledgerRepo) Create(ctx context.Context, entry *domain.LedgerEntry) error {
	st, release := r.acquire()
	defer release()

	st.ledger = append(st.ledger, *entry)
	return nil
}

func (r *ledgerRepo) ListByWallet(ctx context.Context, walletID int64) ([]*domain.LedgerEntry, error) {
	st, release := r.acquire()
	defer release()

	out := make([]*domain.LedgerEntry, 0)
	for _, e := range st.ledger {
		if e.WalletID == walletID {
			found := e
			out = append(out, &found)
		}
	}
	return out, nil
}

type withdrawalRepo struct{ view }

func (r *withdrawalRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Withdrawal, error) {
	st, release := r.acquire()
	defer release()

	w, ok := st.withdrawals[id]
	if !ok {
		return nil, domain.ErrWithdrawalNotFound
	}
	return &w, nil
}

func (r *withdrawalRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Withdrawal, error) {
	st, release := r.acquire()
	defer release()

	out := make([]*domain.Withdrawal, 0)
	for _, id := range st.withdrawalSeq {
		w := st.withdrawals[id]
		if w.UserID == userID {
			found := w
			out = append(out, &found)
		}
	}
	return out, nil
}

func (r *withdrawalRepo) ListAll(ctx context.Context) ([]*domain.Withdrawal, error) {
	st, release := r.acquire()
	defer release()

	out := make([]*domain.Withdrawal, 0, len(st.withdrawalSeq))
	for _, id := range st.withdrawalSeq {
		w := st.withdrawals[id]
		out = append(out, &w)
	}
	return out, nil
}

func (r *withdrawalRepo) Create(ctx context.Context, withdrawal *domain.Withdrawal) error {
	st, release := r.acquire()
	defer release()

	st.withdrawals[withdrawal.ID] = *withdrawal
	st.withdrawalSeq = append(st.withdrawalSeq, withdrawal.ID)
	return nil
}

func (r *withdrawalRepo) Update(ctx context.Context, withdrawal *domain.Withdrawal) error {
	st, release := r.acquire()
	defer release()

	if _, ok := st.withdrawals[withdrawal.ID]; !ok {
		return domain.ErrWithdrawalNotFound
	}
	st.withdrawals[withdrawal.ID] = *withdrawal
	return nil
}

type paymentOrderRepo struct{ view }

func (r *paymentOrderRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.PaymentOrder, error) {
	st, release := r.acquire()
	defer release()

	p, ok := st.paymentOrders[id]
	if !ok {
		return nil, domain.ErrPaymentOrderNotFound
	}
	return &p, nil
}

func (r *paymentOrderRepo) Create(ctx context.Context, order *domain.PaymentOrder) error {
	st, release := r.acquire()
	defer release()

	st.paymentOrders[order.ID] = *order
	return nil
}

func (r *paymentOrderRepo) Update(ctx context.Context, order *domain.PaymentOrder) error {
	st, release := r.acquire()
	defer release()

	if _, ok := st.paymentOrders[order.ID]; !ok {
		return domain.ErrPaymentOrderNotFound
	}
	st.paymentOrders[order.ID] = *order
	return nil
}
