package pos

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// memStore backs the mock repositories and the fake transaction runner so
// tests observe reconciliation effects the way the real Mongo-backed
// implementation would expose them.
type memStore struct {
	checks      map[uuid.UUID]*Check
	orders      map[uuid.UUID]*Order
	ingredients map[uuid.UUID]*Ingredient
}

func newMemStore() *memStore {
	return &memStore{
		checks:      make(map[uuid.UUID]*Check),
		orders:      make(map[uuid.UUID]*Order),
		ingredients: make(map[uuid.UUID]*Ingredient),
	}
}

func copyCheck(c *Check) *Check {
	if c == nil {
		return nil
	}
	v := *c
	v.Items = append([]LineItem(nil), c.Items...)
	return &v
}

func copyOrder(o *Order) *Order {
	if o == nil {
		return nil
	}
	v := *o
	v.Items = append([]LineItem(nil), o.Items...)
	return &v
}

// fakeRunner executes the transaction function against a fakeTx. Staged
// writes reach the store only when fn returns nil, mirroring the all-or-
// nothing commit of the session-backed runner.
type fakeRunner struct {
	store   *memStore
	RunFunc func(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

func newFakeRunner(store *memStore) *fakeRunner {
	return &fakeRunner{store: store}
}

func (r *fakeRunner) Run(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	if r.RunFunc != nil {
		return r.RunFunc(ctx, fn)
	}
	tx := &fakeTx{store: r.store}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	for _, write := range tx.writes {
		write()
	}
	return nil
}

type fakeTx struct {
	store  *memStore
	writes []func()
}

func (t *fakeTx) GetCheck(ctx context.Context, id uuid.UUID) (*Check, error) {
	if len(t.writes) > 0 {
		return nil, ErrReadAfterWrite
	}
	return copyCheck(t.store.checks[id]), nil
}

func (t *fakeTx) GetOrder(ctx context.Context, id uuid.UUID) (*Order, error) {
	if len(t.writes) > 0 {
		return nil, ErrReadAfterWrite
	}
	return copyOrder(t.store.orders[id]), nil
}

func (t *fakeTx) GetIngredients(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*Ingredient, error) {
	if len(t.writes) > 0 {
		return nil, ErrReadAfterWrite
	}
	result := make(map[uuid.UUID]*Ingredient, len(ids))
	for _, id := range ids {
		if ing := t.store.ingredients[id]; ing != nil {
			v := *ing
			result[id] = &v
		}
	}
	return result, nil
}

func (t *fakeTx) CreateOrder(order *Order) {
	o := copyOrder(order)
	t.writes = append(t.writes, func() { t.store.orders[o.ID] = o })
}

func (t *fakeTx) SaveOrder(order *Order) {
	o := copyOrder(order)
	t.writes = append(t.writes, func() { t.store.orders[o.ID] = o })
}

func (t *fakeTx) SaveCheck(check *Check) {
	c := copyCheck(check)
	t.writes = append(t.writes, func() { t.store.checks[c.ID] = c })
}

func (t *fakeTx) DeleteCheck(id uuid.UUID) {
	t.writes = append(t.writes, func() { delete(t.store.checks, id) })
}

func (t *fakeTx) SetIngredientStock(id uuid.UUID, stock float64) {
	t.writes = append(t.writes, func() {
		if ing := t.store.ingredients[id]; ing != nil {
			ing.Stock = stock
		}
	})
}

// MockCheckRepo is a test mock for CheckRepo backed by a memStore.
type MockCheckRepo struct {
	store   *memStore
	GetFunc func(ctx context.Context, id uuid.UUID) (*Check, error)
}

func NewMockCheckRepo(store *memStore) *MockCheckRepo {
	return &MockCheckRepo{store: store}
}

func (m *MockCheckRepo) Create(ctx context.Context, check *Check) error {
	m.store.checks[check.ID] = copyCheck(check)
	return nil
}

func (m *MockCheckRepo) Get(ctx context.Context, id uuid.UUID) (*Check, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, id)
	}
	return copyCheck(m.store.checks[id]), nil
}

func (m *MockCheckRepo) List(ctx context.Context) ([]*Check, error) {
	result := make([]*Check, 0, len(m.store.checks))
	for _, c := range m.store.checks {
		result = append(result, copyCheck(c))
	}
	return result, nil
}

func (m *MockCheckRepo) FindOpenByTable(ctx context.Context, tableID uuid.UUID, exclude uuid.UUID) (*Check, error) {
	for _, c := range m.store.checks {
		if c.ID == exclude || c.TableID == nil {
			continue
		}
		if *c.TableID == tableID {
			return copyCheck(c), nil
		}
	}
	return nil, nil
}

func (m *MockCheckRepo) Save(ctx context.Context, check *Check) error {
	if _, exists := m.store.checks[check.ID]; !exists {
		return errors.New("check not found")
	}
	m.store.checks[check.ID] = copyCheck(check)
	return nil
}

func (m *MockCheckRepo) Delete(ctx context.Context, id uuid.UUID) error {
	delete(m.store.checks, id)
	return nil
}

// MockOrderRepo is a test mock for OrderRepo backed by a memStore.
type MockOrderRepo struct {
	store *memStore
}

func NewMockOrderRepo(store *memStore) *MockOrderRepo {
	return &MockOrderRepo{store: store}
}

func (m *MockOrderRepo) Get(ctx context.Context, id uuid.UUID) (*Order, error) {
	return copyOrder(m.store.orders[id]), nil
}

func (m *MockOrderRepo) List(ctx context.Context) ([]*Order, error) {
	result := make([]*Order, 0, len(m.store.orders))
	for _, o := range m.store.orders {
		result = append(result, copyOrder(o))
	}
	return result, nil
}

func (m *MockOrderRepo) ListByStatus(ctx context.Context, status string) ([]*Order, error) {
	var result []*Order
	for _, o := range m.store.orders {
		if o.Status == status {
			result = append(result, copyOrder(o))
		}
	}
	return result, nil
}

// MockIngredientRepo is a test mock for IngredientRepo backed by a memStore.
type MockIngredientRepo struct {
	store *memStore
}

func NewMockIngredientRepo(store *memStore) *MockIngredientRepo {
	return &MockIngredientRepo{store: store}
}

func (m *MockIngredientRepo) Get(ctx context.Context, id uuid.UUID) (*Ingredient, error) {
	ing := m.store.ingredients[id]
	if ing == nil {
		return nil, nil
	}
	v := *ing
	return &v, nil
}

func (m *MockIngredientRepo) List(ctx context.Context) ([]*Ingredient, error) {
	result := make([]*Ingredient, 0, len(m.store.ingredients))
	for _, ing := range m.store.ingredients {
		v := *ing
		result = append(result, &v)
	}
	return result, nil
}

// MockMenuProvider resolves recipes from a fixed map.
type MockMenuProvider struct {
	recipes map[uuid.UUID]Recipe
	Err     error
}

func NewMockMenuProvider(recipes map[uuid.UUID]Recipe) *MockMenuProvider {
	if recipes == nil {
		recipes = make(map[uuid.UUID]Recipe)
	}
	return &MockMenuProvider{recipes: recipes}
}

func (m *MockMenuProvider) Recipes(ctx context.Context, items []LineItem) (map[uuid.UUID]Recipe, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.recipes, nil
}

// MockSettingsProvider returns fixed settings.
type MockSettingsProvider struct {
	settings *Settings
}

func NewMockSettingsProvider(settings *Settings) *MockSettingsProvider {
	if settings == nil {
		settings = &Settings{}
	}
	return &MockSettingsProvider{settings: settings}
}

func (m *MockSettingsProvider) Settings(ctx context.Context) (*Settings, error) {
	return m.settings, nil
}

// MockPublisher is a test mock for events.Publisher.
type MockPublisher struct {
	PublishedEvents []PublishedEvent
	PublishFunc     func(ctx context.Context, topic string, data []byte) error
}

type PublishedEvent struct {
	Topic string
	Data  []byte
}

func NewMockPublisher() *MockPublisher {
	return &MockPublisher{
		PublishedEvents: make([]PublishedEvent, 0),
	}
}

func (m *MockPublisher) Publish(ctx context.Context, topic string, data []byte) error {
	if m.PublishFunc != nil {
		return m.PublishFunc(ctx, topic, data)
	}
	m.PublishedEvents = append(m.PublishedEvents, PublishedEvent{Topic: topic, Data: data})
	return nil
}
