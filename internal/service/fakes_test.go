package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"commerce-service/internal/audit"
	"commerce-service/internal/entity"
	"commerce-service/internal/repository"
)

var hundred = decimal.NewFromInt(100)

type recordingEmitter struct {
	mu     sync.Mutex
	events []audit.Event
}

func (e *recordingEmitter) Emit(ev audit.Event) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, ev)
}

func (e *recordingEmitter) Events() []audit.Event {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]audit.Event(nil), e.events...)
}

func (e *recordingEmitter) Last() audit.Event {
	events := e.Events()
	if len(events) == 0 {
		return audit.Event{}
	}
	return events[len(events)-1]
}

// brokenCache fails every call.
type brokenCache struct{}

func (brokenCache) Get(context.Context, string, any) (bool, error) {
	return false, errors.New("cache down")
}
func (brokenCache) Set(context.Context, string, any, time.Duration) error {
	return errors.New("cache down")
}
func (brokenCache) Delete(context.Context, ...string) error { return errors.New("cache down") }
func (brokenCache) Clear(context.Context) error              { return errors.New("cache down") }

// fakeOrderStore runs one transaction at a time against a copy of its state and
// swaps the copy in on commit.
type fakeOrderStore struct {
	mu         sync.Mutex
	products   map[int64]entity.Product
	orders     map[int64]entity.Order
	nextOrder  int64
	nextItem   int64
	failItemAt int // fail the nth InsertOrderItem of a transaction, 0 disables
	listCalls  int
	getCalls   int
	sawTimeout bool
}

func newFakeOrderStore(products ...entity.Product) *fakeOrderStore {
	s := &fakeOrderStore{products: map[int64]entity.Product{}, orders: map[int64]entity.Order{}}
	for _, p := range products {
		s.products[p.ID] = p
	}
	return s
}

func (s *fakeOrderStore) WithinTx(ctx context.Context, fn func(tx repository.OrderTx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := ctx.Deadline(); ok {
		s.sawTimeout = true
	}

	tx := &fakeOrderTx{
		store:     s,
		products:  map[int64]entity.Product{},
		orders:    map[int64]entity.Order{},
		nextOrder: s.nextOrder,
		nextItem:  s.nextItem,
	}
	for id, p := range s.products {
		tx.products[id] = p
	}
	for id, o := range s.orders {
		tx.orders[id] = o
	}

	if err := fn(tx); err != nil {
		return err
	}

	s.products = tx.products
	s.orders = tx.orders
	s.nextOrder = tx.nextOrder
	s.nextItem = tx.nextItem
	return nil
}

func (s *fakeOrderStore) ListOrders(context.Context) ([]entity.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listCalls++

	orders := make([]entity.Order, 0, len(s.orders))
	for _, o := range s.orders {
		orders = append(orders, o)
	}
	sort.Slice(orders, func(i, j int) bool { return orders[i].ID < orders[j].ID })
	return orders, nil
}

func (s *fakeOrderStore) GetOrder(_ context.Context, id int64) (*entity.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.getCalls++

	o, ok := s.orders[id]
	if !ok {
		return nil, nil
	}
	return &o, nil
}

func (s *fakeOrderStore) DeleteOrder(_ context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.orders[id]; !ok {
		return false, nil
	}
	delete(s.orders, id)
	return true, nil
}

func (s *fakeOrderStore) Stock(id int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.products[id].StockQuantity
}

func (s *fakeOrderStore) OrderCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.orders)
}

type fakeOrderTx struct {
	store     *fakeOrderStore
	products  map[int64]entity.Product
	orders    map[int64]entity.Order
	nextOrder int64
	nextItem  int64
	itemCalls int
}

func (t *fakeOrderTx) InsertOrder(_ context.Context, order *entity.Order) (int64, error) {
	t.nextOrder++
	o := *order
	o.ID = t.nextOrder
	o.Items = []entity.OrderItem{}
	t.orders[o.ID] = o
	return o.ID, nil
}

func (t *fakeOrderTx) GetProductForUpdate(_ context.Context, productID int64) (*entity.Product, error) {
	p, ok := t.products[productID]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (t *fakeOrderTx) DecrementStock(_ context.Context, productID int64, quantity int) (bool, error) {
	p, ok := t.products[productID]
	if !ok || p.StockQuantity < quantity {
		return false, nil
	}
	p.StockQuantity -= quantity
	t.products[productID] = p
	return true, nil
}

func (t *fakeOrderTx) InsertOrderItem(_ context.Context, item *entity.OrderItem) (int64, error) {
	t.itemCalls++
	if t.store.failItemAt > 0 && t.itemCalls == t.store.failItemAt {
		return 0, errors.New("insert order item: connection reset")
	}
	o, ok := t.orders[item.OrderID]
	if !ok {
		return 0, errors.New("insert order item: unknown order")
	}
	t.nextItem++
	it := *item
	it.ID = t.nextItem
	o.Items = append(o.Items, it)
	t.orders[item.OrderID] = o
	return it.ID, nil
}

type fakeProductStore struct {
	mu        sync.Mutex
	products  map[int64]entity.Product
	nextID    int64
	listCalls int
	getCalls  int
	imgCalls  int
}

func newFakeProductStore() *fakeProductStore {
	return &fakeProductStore{products: map[int64]entity.Product{}}
}

func (s *fakeProductStore) ListProducts(context.Context) ([]entity.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listCalls++
	out := []entity.Product{}
	for _, p := range s.products {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *fakeProductStore) GetProduct(_ context.Context, id int64) (*entity.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.getCalls++
	p, ok := s.products[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (s *fakeProductStore) ProductExists(_ context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.products[id]
	return ok, nil
}

func (s *fakeProductStore) CreateProduct(_ context.Context, p entity.Product) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	p.ID = s.nextID
	p.FinalPrice = p.Price.Sub(p.Price.Mul(p.DiscountPercent).Div(hundred))
	if p.Images == nil {
		p.Images = []entity.ProductImage{}
	}
	if p.Sizes == nil {
		p.Sizes = []entity.Size{}
	}
	s.products[p.ID] = p
	return p.ID, nil
}

func (s *fakeProductStore) UpdateProduct(_ context.Context, id int64, patch entity.ProductPatch) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return false, nil
	}
	patch.Apply(&p)
	p.FinalPrice = p.Price.Sub(p.Price.Mul(p.DiscountPercent).Div(hundred))
	s.products[id] = p
	return true, nil
}

func (s *fakeProductStore) DeleteProduct(_ context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.products[id]; !ok {
		return false, nil
	}
	delete(s.products, id)
	return true, nil
}

func (s *fakeProductStore) ListImages(_ context.Context, productID int64) ([]entity.ProductImage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.imgCalls++
	return append([]entity.ProductImage{}, s.products[productID].Images...), nil
}

func (s *fakeProductStore) AddImage(_ context.Context, productID int64, img entity.ProductImage) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	p := s.products[productID]
	img.ID = s.nextID
	img.ProductID = productID
	p.Images = append(p.Images, img)
	s.products[productID] = p
	return img.ID, nil
}

func (s *fakeProductStore) RemoveImage(_ context.Context, productID, imageID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.products[productID]
	for i, img := range p.Images {
		if img.ID == imageID {
			p.Images = append(p.Images[:i:i], p.Images[i+1:]...)
			s.products[productID] = p
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeProductStore) ListSizes(_ context.Context, productID int64) ([]entity.Size, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]entity.Size{}, s.products[productID].Sizes...), nil
}

func (s *fakeProductStore) AddSize(_ context.Context, productID int64, size entity.Size) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	p := s.products[productID]
	size.ID = s.nextID
	size.ProductID = productID
	p.Sizes = append(p.Sizes, size)
	s.products[productID] = p
	return size.ID, nil
}

func (s *fakeProductStore) RemoveSize(_ context.Context, productID, sizeID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.products[productID]
	for i, size := range p.Sizes {
		if size.ID == sizeID {
			p.Sizes = append(p.Sizes[:i:i], p.Sizes[i+1:]...)
			s.products[productID] = p
			return true, nil
		}
	}
	return false, nil
}
