package service

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"commerce-service/internal/audit"
	"commerce-service/internal/cache"
	"commerce-service/internal/entity"
	"commerce-service/internal/repository"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Logger()

var validate = validator.New()

// OrderStore is the persistence the order service needs; repository.OrderRepository implements it.
type OrderStore interface {
	WithinTx(ctx context.Context, fn func(tx repository.OrderTx) error) error
	ListOrders(ctx context.Context) ([]entity.Order, error)
	GetOrder(ctx context.Context, id int64) (*entity.Order, error)
	DeleteOrder(ctx context.Context, id int64) (bool, error)
}

// OrderService places orders atomically and serves order reads through the cache.
type OrderService struct {
	store     OrderStore
	cache     cache.Cache
	audit     audit.Emitter
	txTimeout time.Duration
}

func NewOrderService(store OrderStore, c cache.Cache, emitter audit.Emitter, txTimeout time.Duration) *OrderService {
	if txTimeout <= 0 {
		txTimeout = 5 * time.Second
	}
	return &OrderService{store: store, cache: c, audit: emitter, txTimeout: txTimeout}
}

// PlaceOrder creates the order, decrements stock and writes every item in one transaction.
// Any failing item rolls back the whole order.
func (s *OrderService) PlaceOrder(ctx context.Context, customer entity.Customer, items []entity.ItemRequest) (*entity.Order, error) {
	order, err := s.placeOrder(ctx, customer, items)

	payload := audit.OrderPlaced{CustomerEmail: customer.Email, Items: items}
	if order != nil {
		payload.OrderID = order.ID
	}
	s.audit.Emit(audit.Outcome(ctx, audit.SubjectOrder, payload, err))

	if err != nil {
		logger.Error().Err(err).Str("customer_email", customer.Email).Msg("Error placing order")
		return nil, err
	}
	return order, nil
}

func (s *OrderService) placeOrder(ctx context.Context, customer entity.Customer, items []entity.ItemRequest) (*entity.Order, error) {
	if err := validateOrderRequest(customer, items); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.txTimeout)
	defer cancel()

	order := &entity.Order{
		CustomerName:  customer.Name,
		CustomerEmail: customer.Email,
		CustomerPhone: customer.Phone,
		CreatedAt:     time.Now().UTC().Truncate(time.Second),
	}

	err := s.store.WithinTx(ctx, func(tx repository.OrderTx) error {
		order.Items = make([]entity.OrderItem, 0, len(items))

		id, err := tx.InsertOrder(ctx, order)
		if err != nil {
			return err
		}
		order.ID = id

		for _, req := range items {
			item, err := reserveItem(ctx, tx, id, req)
			if err != nil {
				return err
			}
			order.Items = append(order.Items, item)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	keys := []string{cache.KeyAllOrders, cache.OrderKey(order.ID), cache.KeyAllProducts}
	for _, item := range order.Items {
		keys = append(keys, cache.ProductKey(item.ProductID))
	}
	cache.Invalidate(ctx, s.cache, keys...)

	return order, nil
}

// reserveItem locks the product, takes the requested quantity out of stock and records the line.
func reserveItem(ctx context.Context, tx repository.OrderTx, orderID int64, req entity.ItemRequest) (entity.OrderItem, error) {
	product, err := tx.GetProductForUpdate(ctx, req.ProductID)
	if err != nil {
		return entity.OrderItem{}, err
	}
	if product == nil {
		return entity.OrderItem{}, fmt.Errorf("%w: id %d", ErrProductNotFound, req.ProductID)
	}

	if product.StockQuantity < req.Quantity {
		return entity.OrderItem{}, &InsufficientStockError{ProductID: product.ID, Available: product.StockQuantity, Requested: req.Quantity}
	}
	ok, err := tx.DecrementStock(ctx, product.ID, req.Quantity)
	if err != nil {
		return entity.OrderItem{}, err
	}
	if !ok {
		return entity.OrderItem{}, &InsufficientStockError{ProductID: product.ID, Available: product.StockQuantity, Requested: req.Quantity}
	}

	name := product.Name
	if name == "" {
		name = req.ProductName
	}
	item := entity.OrderItem{
		OrderID:     orderID,
		ProductID:   product.ID,
		ProductName: name,
		Quantity:    req.Quantity,
		Price:       req.UnitPrice,
	}
	if item.ID, err = tx.InsertOrderItem(ctx, &item); err != nil {
		return entity.OrderItem{}, err
	}
	return item, nil
}

func validateOrderRequest(customer entity.Customer, items []entity.ItemRequest) error {
	if err := validate.Struct(customer); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if len(items) == 0 {
		return validationError("order has no items")
	}
	for i, item := range items {
		if err := validate.Struct(item); err != nil {
			return fmt.Errorf("%w: item %d: %v", ErrValidation, i, err)
		}
		if !item.UnitPrice.IsPositive() {
			return validationError("item %d: unit price must be positive", i)
		}
	}
	return nil
}

func (s *OrderService) ListOrders(ctx context.Context) ([]entity.Order, error) {
	orders, err := s.listOrders(ctx)
	s.audit.Emit(audit.Outcome(ctx, audit.SubjectOrder, audit.OrdersListed{Count: len(orders)}, err))
	return orders, err
}

func (s *OrderService) listOrders(ctx context.Context) ([]entity.Order, error) {
	var orders []entity.Order
	if s.cacheGet(ctx, cache.KeyAllOrders, &orders) {
		return orders, nil
	}

	orders, err := s.store.ListOrders(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("Error listing orders")
		return nil, err
	}
	s.cacheSet(ctx, cache.KeyAllOrders, orders, cache.TTLOrders)
	return orders, nil
}

func (s *OrderService) GetOrder(ctx context.Context, id int64) (*entity.Order, error) {
	order, err := s.getOrder(ctx, id)
	s.audit.Emit(audit.Outcome(ctx, audit.SubjectOrder, audit.OrderRead{ID: id}, err))
	return order, err
}

func (s *OrderService) getOrder(ctx context.Context, id int64) (*entity.Order, error) {
	key := cache.OrderKey(id)

	var cached entity.Order
	if s.cacheGet(ctx, key, &cached) {
		return &cached, nil
	}

	order, err := s.store.GetOrder(ctx, id)
	if err != nil {
		logger.Error().Err(err).Msgf("Error getting order by ID %d", id)
		return nil, err
	}
	if order == nil {
		return nil, fmt.Errorf("%w: id %d", ErrOrderNotFound, id)
	}
	s.cacheSet(ctx, key, order, cache.TTLOrders)
	return order, nil
}

// RemoveOrder deletes the order and its items. It reports whether anything was removed.
func (s *OrderService) RemoveOrder(ctx context.Context, id int64) (bool, error) {
	removed, err := s.store.DeleteOrder(ctx, id)
	if err != nil {
		logger.Error().Err(err).Msgf("Error deleting order %d", id)
	} else {
		cache.Invalidate(ctx, s.cache, cache.OrderKey(id), cache.KeyAllOrders)
	}
	s.audit.Emit(audit.Outcome(ctx, audit.SubjectOrder, audit.OrderRemoved{ID: id, Removed: removed}, err))
	return removed, err
}

// cacheGet reports a hit only for a readable entry; errors degrade to a miss.
func (s *OrderService) cacheGet(ctx context.Context, key string, dest any) bool {
	return readThrough(ctx, s.cache, key, dest)
}

func (s *OrderService) cacheSet(ctx context.Context, key string, value any, ttl time.Duration) {
	writeThrough(ctx, s.cache, key, value, ttl)
}

func readThrough(ctx context.Context, c cache.Cache, key string, dest any) bool {
	ok, err := c.Get(ctx, key, dest)
	if err != nil {
		logger.Warn().Err(err).Str("key", key).Msg("Cache read failed, falling back to store")
		return false
	}
	return ok
}

func writeThrough(ctx context.Context, c cache.Cache, key string, value any, ttl time.Duration) {
	if err := c.Set(ctx, key, value, ttl); err != nil {
		logger.Warn().Err(err).Str("key", key).Msg("Cache write failed")
	}
}
