package inmemory

import (
	"context"
	"sort"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/database"
	"storefront/internal/models"
	"storefront/internal/orders"
)

func (s *Store) ListProducts(_ context.Context, filter database.ProductFilter, page orders.Page) ([]models.Product, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	search := strings.ToLower(filter.Search)
	matched := make([]models.Product, 0)
	for _, p := range s.products {
		if filter.PublicOnly && (!p.IsActive || p.Status != models.ProductStatusPublished) {
			continue
		}
		if !filter.PublicOnly && filter.Status != "" && p.Status != filter.Status {
			continue
		}
		if filter.Category != "" && p.Category != filter.Category {
			continue
		}
		if search != "" && !productMatches(p, search) {
			continue
		}
		matched = append(matched, p)
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

	out := make([]models.Product, 0, end-start)
	for _, p := range matched[start:end] {
		out = append(out, cloneProduct(p))
	}
	return out, total, nil
}

func (s *Store) CreateProduct(_ context.Context, p *models.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p.ID = primitive.NewObjectID()
	s.products[p.ID] = cloneProduct(*p)
	return nil
}

func (s *Store) ReplaceProduct(_ context.Context, p models.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.products[p.ID]; !ok {
		return orders.ErrProductNotFound
	}
	s.products[p.ID] = cloneProduct(p)
	return nil
}

func (s *Store) ArchiveProduct(_ context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[id]
	if !ok {
		return orders.ErrProductNotFound
	}
	p.IsActive = false
	p.Status = models.ProductStatusArchived
	p.UpdatedAt = time.Now()
	s.products[id] = p
	return nil
}

func productMatches(p models.Product, needle string) bool {
	for _, f := range []string{p.Title, p.Brand, p.Description} {
		if strings.Contains(strings.ToLower(f), needle) {
			return true
		}
	}
	return false
}
