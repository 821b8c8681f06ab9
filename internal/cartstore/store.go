// Package cartstore holds the shopper-facing cart: an explicit store object
// with a mutation API, subscriber notifications, and three persistence tiers
// (durable per-identity key, size-limited cookie channel, debounced remote
// sync). It replaces the ambient global cart array the storefront UI used to
// mutate directly.
package cartstore

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fiestaliquor/storefront/internal/cart"
	"github.com/fiestaliquor/storefront/internal/models"
)

// Storage keys. The guest scope uses GuestIdentity; CacheKey holds a cart
// captured just before a forced login redirect.
const (
	GuestIdentity = "guest"
	GenericKey    = "cart"
	CacheKey      = "cartCache"
)

// DefaultDebounce is how long the store waits after the last mutation before
// pushing the cart to the server.
const DefaultDebounce = time.Second

// ErrUnauthorized is returned by a Syncer when the shopper's credentials are
// stale or missing. The store swallows it: cart sync never blocks shopping.
var ErrUnauthorized = errors.New("cartstore: unauthorized")

// Storage is a durable string key-value tier (the localStorage analog).
type Storage interface {
	Get(key string) (string, bool)
	Set(key, value string)
	Remove(key string)
}

// Cookies is the small cross-device persistence channel.
type Cookies interface {
	Get(name string) (string, bool)
	Set(name, value string)
	Clear(name string)
}

// Syncer pushes the authoritative cart triples to the server.
type Syncer interface {
	SyncCart(ctx context.Context, items []models.CartItem) error
}

// Store is the client cart. All methods are safe for concurrent use.
type Store struct {
	log      *slog.Logger
	storage  Storage
	cookies  Cookies
	syncer   Syncer
	debounce time.Duration

	mu            sync.Mutex
	identity      string
	authenticated bool
	lines         []Line
	pending       []CompressedLine
	subs          []func([]Line)
	timer         *time.Timer
}

// Option configures a Store.
type Option func(*Store)

// WithDebounce overrides the sync debounce interval.
func WithDebounce(d time.Duration) Option {
	return func(s *Store) { s.debounce = d }
}

// New creates a cart store for the guest identity. Call SetIdentity after
// authentication resolves.
func New(storage Storage, cookies Cookies, syncer Syncer, log *slog.Logger, opts ...Option) *Store {
	s := &Store{
		log:      log,
		storage:  storage,
		cookies:  cookies,
		syncer:   syncer,
		debounce: DefaultDebounce,
		identity: GuestIdentity,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) storageKey() string { return "cart_" + s.identity }
func (s *Store) cookieName() string { return "cart_" + s.identity }

// SetIdentity switches the store to the resolved identity (user id or email,
// or GuestIdentity). It does not merge carts; use Reconcile for the login
// merge.
func (s *Store) SetIdentity(identity string, authenticated bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if identity == "" {
		identity = GuestIdentity
	}
	s.identity = identity
	s.authenticated = authenticated
}

// Subscribe registers a callback invoked with a snapshot after every
// mutation.
func (s *Store) Subscribe(fn func([]Line)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs = append(s.subs, fn)
}

// Lines returns a snapshot of the cart's display lines.
func (s *Store) Lines() []Line {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

// Items returns the authoritative triples for the current cart.
func (s *Store) Items() []models.CartItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.items()
}

func (s *Store) items() []models.CartItem {
	out := make([]models.CartItem, len(s.lines))
	for i, l := range s.lines {
		out[i] = l.Item()
	}
	return out
}

func (s *Store) snapshot() []Line {
	out := make([]Line, len(s.lines))
	copy(out, s.lines)
	return out
}

// Add puts a line in the cart, incrementing the quantity when a line with
// the same product and size already exists.
func (s *Store) Add(line Line) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if line.Quantity < 1 {
		line.Quantity = 1
	}
	if line.CartItemID == "" {
		line.CartItemID = uuid.New().String()
	}
	for i := range s.lines {
		if s.lines[i].ProductID == line.ProductID && s.lines[i].Size == line.Size {
			s.lines[i].Quantity += line.Quantity
			s.afterMutation()
			return
		}
	}
	s.lines = append(s.lines, line)
	s.afterMutation()
}

// Remove deletes the line with the given cart item id.
func (s *Store) Remove(cartItemID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.lines {
		if s.lines[i].CartItemID == cartItemID {
			s.lines = append(s.lines[:i], s.lines[i+1:]...)
			s.afterMutation()
			return
		}
	}
}

// SetQuantity updates a line's quantity; quantities below one remove the
// line.
func (s *Store) SetQuantity(cartItemID string, quantity int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.lines {
		if s.lines[i].CartItemID == cartItemID {
			if quantity < 1 {
				s.lines = append(s.lines[:i], s.lines[i+1:]...)
			} else {
				s.lines[i].Quantity = quantity
			}
			s.afterMutation()
			return
		}
	}
}

// Clear empties the cart, e.g. after a successful order.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lines = nil
	s.afterMutation()
}

// afterMutation persists all tiers, notifies subscribers and schedules the
// debounced sync. Caller holds s.mu.
func (s *Store) afterMutation() {
	s.persistLocked()

	snap := s.snapshot()
	for _, fn := range s.subs {
		fn(snap)
	}

	s.scheduleSyncLocked()
}

func (s *Store) persistLocked() {
	payload, compressed, err := Encode(s.lines)
	if err != nil {
		s.log.Error("cart encode failed", "error", err)
		return
	}

	full := payload
	if compressed {
		// Storage has no size limit; keep the full form there.
		if b, err := json.Marshal(s.lines); err == nil {
			full = string(b)
		}
	}
	s.storage.Set(s.storageKey(), full)
	s.storage.Set(GenericKey, full)

	s.cookies.Set(s.cookieName(), payload)
}

// scheduleSyncLocked arms the debounce timer. Rapid mutations coalesce into
// at most one network write per debounce interval. Guests never sync.
func (s *Store) scheduleSyncLocked() {
	if !s.authenticated || s.syncer == nil {
		return
	}
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.debounce, func() {
		s.mu.Lock()
		items := s.items()
		s.mu.Unlock()
		s.sync(context.Background(), items)
	})
}

// sync pushes items to the server. Failures never surface to the shopper;
// local persistence is the safety net.
func (s *Store) sync(ctx context.Context, items []models.CartItem) {
	if err := s.syncer.SyncCart(ctx, items); err != nil {
		if errors.Is(err, ErrUnauthorized) {
			s.log.Debug("cart sync skipped: stale credentials")
			return
		}
		s.log.Warn("cart sync failed, will retry on next mutation", "error", err)
	}
}

// Flush cancels any pending debounce and syncs immediately.
func (s *Store) Flush(ctx context.Context) {
	s.mu.Lock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	authenticated := s.authenticated
	items := s.items()
	s.mu.Unlock()

	if authenticated && s.syncer != nil {
		s.sync(ctx, items)
	}
}

// Load restores the cart for the current identity: cookie first (it travels
// across devices), then the identity-scoped storage key, then a guest cart
// left over from before login. A compressed cookie payload is held pending
// until ExpandPending is called with a loaded catalog; it is never treated
// as an empty cart.
func (s *Store) Load() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if payload, ok := s.cookies.Get(s.cookieName()); ok {
		lines, pending, err := Decode(payload)
		switch {
		case err != nil:
			s.log.Warn("cart cookie unreadable, falling back to storage", "error", err)
		case len(pending) > 0:
			s.pending = pending
			return
		case len(lines) > 0:
			s.lines = lines
			s.storage.Set(s.storageKey(), payload)
			s.storage.Set(GenericKey, payload)
			return
		}
	}

	payload, ok := s.storage.Get(s.storageKey())
	if !ok && s.identity != GuestIdentity {
		// one-time migration of a pre-login guest cart
		if guest, found := s.storage.Get("cart_" + GuestIdentity); found {
			payload, ok = guest, true
			s.storage.Set(s.storageKey(), guest)
		}
	}
	if !ok {
		payload, ok = s.storage.Get(GenericKey)
	}
	if !ok {
		return
	}

	lines, pending, err := Decode(payload)
	if err != nil {
		s.log.Warn("stored cart unreadable, starting empty", "error", err)
		return
	}
	if len(pending) > 0 {
		s.pending = pending
		return
	}
	s.lines = lines
}

// ExpandPending re-hydrates a compressed cart once the catalog is available.
// Returns true when a pending cart was expanded.
func (s *Store) ExpandPending(catalog Catalog) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.pending) == 0 {
		return false
	}
	s.lines = Expand(s.pending, catalog)
	s.pending = nil
	s.afterMutation()
	return true
}

// CacheForLogin captures the in-progress cart under CacheKey before a forced
// redirect to the login page, so Reconcile can pick it up afterwards.
func (s *Store) CacheForLogin() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.lines) == 0 {
		return
	}
	payload, _, err := Encode(s.lines)
	if err != nil {
		s.log.Error("cart cache encode failed", "error", err)
		return
	}
	s.storage.Set(CacheKey, payload)
}

// Reconcile merges every cart candidate after authentication: the
// server-persisted cart (authoritative baseline), the pre-login cache, any
// guest-scoped cart, and a compressed guest cookie. The merged result
// becomes the current cart, transient sources are cleared, and the result is
// synced back to the server. When every source is empty no sync round-trip
// is made.
func (s *Store) Reconcile(ctx context.Context, serverCart []models.CartItem, catalog Catalog) []models.CartItem {
	s.mu.Lock()

	cached := s.readTriples(CacheKey)
	guest := s.readGuestTriples()
	cookie := s.readCookieTriples("cart_" + GuestIdentity)

	if cart.Empty(serverCart, cached, guest, cookie) {
		s.lines = nil
		s.pending = nil
		s.mu.Unlock()
		return nil
	}

	merged := cart.Merge(serverCart, cached, guest, cookie)
	s.lines = Rehydrate(merged, catalog)
	s.pending = nil

	// transient sources are spent once merged
	s.storage.Remove(CacheKey)
	s.storage.Remove("cart_" + GuestIdentity)
	s.cookies.Clear("cart_" + GuestIdentity)

	s.persistLocked()
	snap := s.snapshot()
	for _, fn := range s.subs {
		fn(snap)
	}
	authenticated := s.authenticated
	s.mu.Unlock()

	if authenticated && s.syncer != nil {
		s.sync(ctx, merged)
	}
	return merged
}

// readTriples loads cart triples from a storage key. Caller holds s.mu.
func (s *Store) readTriples(key string) []models.CartItem {
	payload, ok := s.storage.Get(key)
	if !ok {
		return nil
	}
	return decodeTriples(payload)
}

func (s *Store) readGuestTriples() []models.CartItem {
	if t := s.readTriples("cart_" + GuestIdentity); len(t) > 0 {
		return t
	}
	return s.readTriples(GenericKey)
}

func (s *Store) readCookieTriples(name string) []models.CartItem {
	payload, ok := s.cookies.Get(name)
	if !ok {
		return nil
	}
	return decodeTriples(payload)
}

func decodeTriples(payload string) []models.CartItem {
	lines, pending, err := Decode(payload)
	if err != nil {
		return nil
	}
	if len(pending) > 0 {
		out := make([]models.CartItem, len(pending))
		for i, p := range pending {
			out[i] = models.CartItem{ProductID: p.ID, Quantity: p.Quantity, Size: p.Size}
		}
		return out
	}
	out := make([]models.CartItem, len(lines))
	for i, l := range lines {
		out[i] = l.Item()
	}
	return out
}
