// Package inmemory is a process-local implementation of the catalog, order
// and sequence contracts. It honours the same atomicity rules as the MongoDB
// store, which makes it suitable for tests and local runs without a database.
package inmemory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/models"
	"storefront/internal/orders"
)

type Store struct {
	mu       sync.Mutex
	products map[primitive.ObjectID]models.Product
	orders   map[primitive.ObjectID]models.Order
	seqs     map[string]int64
}

func NewStore() *Store {
	return &Store{
		products: make(map[primitive.ObjectID]models.Product),
		orders:   make(map[primitive.ObjectID]models.Order),
		seqs:     make(map[string]int64),
	}
}

// PutProduct inserts or replaces a product, assigning an id when missing.
func (s *Store) PutProduct(p models.Product) models.Product {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	p.RefreshStockFlags()
	s.products[p.ID] = cloneProduct(p)
	return cloneProduct(p)
}

func (s *Store) FindProduct(_ context.Context, id primitive.ObjectID) (models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[id]
	if !ok {
		return models.Product{}, orders.ErrProductNotFound
	}
	return cloneProduct(p), nil
}

func (s *Store) Next(_ context.Context, key string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seqs[key]++
	return s.seqs[key], nil
}

func (s *Store) PlaceOrder(_ context.Context, order *models.Order, decrements []orders.StockAdjustment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	staged, err := s.stageDecrements(decrements)
	if err != nil {
		return err
	}

	for _, o := range s.orders {
		if o.OrderNumber == order.OrderNumber {
			return orders.ErrConflict
		}
	}

	order.ID = primitive.NewObjectID()
	for id, p := range staged {
		s.products[id] = p
	}
	s.orders[order.ID] = cloneOrder(*order)
	return nil
}

// stageDecrements applies decrements to copies of the products. Nothing is
// stored; the caller commits the result once every other check passed.
// Callers hold s.mu.
func (s *Store) stageDecrements(decrements []orders.StockAdjustment) (map[primitive.ObjectID]models.Product, error) {
	staged := make(map[primitive.ObjectID]models.Product)
	for _, d := range decrements {
		p, ok := staged[d.ProductID]
		if !ok {
			stored, found := s.products[d.ProductID]
			if !found {
				return nil, orders.ErrProductNotFound
			}
			p = cloneProduct(stored)
		}
		if !p.Available() {
			return nil, &orders.ProductUnavailableError{ProductID: p.ID.Hex(), Title: p.Title}
		}
		idx := sizeIndex(p, d.Size)
		if idx < 0 || p.Sizes[idx].Stock < d.Quantity {
			available := 0
			if idx >= 0 {
				available = p.Sizes[idx].Stock
			}
			return nil, &orders.InsufficientStockError{
				ProductID: d.ProductID.Hex(),
				Title:     p.Title,
				Size:      d.Size,
				Requested: d.Quantity,
				Available: available,
			}
		}
		p.Sizes[idx].Stock -= d.Quantity
		p.RefreshStockFlags()
		staged[d.ProductID] = p
	}
	return staged, nil
}

func (s *Store) FindOrder(_ context.Context, id primitive.ObjectID) (models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[id]
	if !ok {
		return models.Order{}, orders.ErrNotFound
	}
	return cloneOrder(o), nil
}

func (s *Store) ListOrders(_ context.Context, filter orders.OrderFilter, page orders.Page) ([]models.Order, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	search := strings.ToLower(filter.Search)
	matched := make([]models.Order, 0)
	for _, o := range s.orders {
		if !o.IsActive {
			continue
		}
		if filter.UserID != nil && o.UserID != *filter.UserID {
			continue
		}
		if filter.Status != "" && o.Status != filter.Status {
			continue
		}
		if filter.PaymentStatus != "" && o.PaymentStatus != filter.PaymentStatus {
			continue
		}
		if search != "" && !matchesSearch(o, search) {
			continue
		}
		matched = append(matched, o)
	}

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID.Hex() > matched[j].ID.Hex()
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := int64(len(matched))
	start := page.Skip()
	if start < 0 || start > total {
		start = total
	}
	end := start + page.Limit
	if end > total {
		end = total
	}

	out := make([]models.Order, 0, end-start)
	for _, o := range matched[start:end] {
		out = append(out, cloneOrder(o))
	}
	return out, total, nil
}

func (s *Store) TransitionStatus(_ context.Context, id primitive.ObjectID, change models.StatusChange, stock orders.StockMovement) (models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[id]
	if !ok {
		return models.Order{}, orders.ErrNotFound
	}
	if o.Status != change.From {
		return models.Order{}, orders.ErrConflict
	}

	staged, err := s.stageDecrements(stock.Reserve)
	if err != nil {
		return models.Order{}, err
	}
	for pid, p := range staged {
		s.products[pid] = p
	}

	for _, r := range stock.Restock {
		p, found := s.products[r.ProductID]
		if !found {
			continue
		}
		p = cloneProduct(p)
		if idx := sizeIndex(p, r.Size); idx >= 0 {
			p.Sizes[idx].Stock += r.Quantity
			p.RefreshStockFlags()
			s.products[r.ProductID] = p
		}
	}

	o = cloneOrder(o)
	o.Status = change.To
	o.StatusHistory = append(o.StatusHistory, change)
	o.UpdatedAt = change.ChangedAt
	s.orders[id] = o
	return cloneOrder(o), nil
}

func (s *Store) ArchiveOrder(_ context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[id]
	if !ok {
		return orders.ErrNotFound
	}
	o.IsActive = false
	s.orders[id] = o
	return nil
}

func (s *Store) UpdatePayment(_ context.Context, id primitive.ObjectID, update orders.PaymentUpdate) (models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[id]
	if !ok {
		return models.Order{}, orders.ErrNotFound
	}
	o = cloneOrder(o)
	if update.Method != "" {
		o.PaymentMethod = update.Method
	}
	if update.Status != "" {
		o.PaymentStatus = update.Status
	}
	if update.GatewayOrderID != "" {
		o.PaymentGatewayOrderID = update.GatewayOrderID
	}
	if update.PaymentID != "" {
		o.PaymentID = update.PaymentID
	}
	s.orders[id] = o
	return cloneOrder(o), nil
}

func matchesSearch(o models.Order, needle string) bool {
	fields := []string{
		o.OrderNumber,
		o.ShippingAddress.FirstName,
		o.ShippingAddress.LastName,
		o.ShippingAddress.Email,
	}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), needle) {
			return true
		}
	}
	return false
}

func sizeIndex(p models.Product, size string) int {
	for i, s := range p.Sizes {
		if s.Size == size {
			return i
		}
	}
	return -1
}

func cloneProduct(p models.Product) models.Product {
	p.Images = append(models.StringList(nil), p.Images...)
	p.Sizes = append([]models.SizeStock(nil), p.Sizes...)
	return p
}

func cloneOrder(o models.Order) models.Order {
	o.Items = append([]models.OrderItem(nil), o.Items...)
	o.StatusHistory = append([]models.StatusChange(nil), o.StatusHistory...)
	return o
}
