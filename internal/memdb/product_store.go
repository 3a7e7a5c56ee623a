package memdb

import (
	"context"
	"sync"
	"time"

	"github.com/hivemarket/hivemarket/internal/models"
)

type ProductStore struct {
	mu       sync.Mutex
	nextID   int
	products map[int]*models.Product
}

func NewProductStore() *ProductStore {
	return &ProductStore{
		nextID:   1,
		products: make(map[int]*models.Product),
	}
}

func (s *ProductStore) GetAll(ctx context.Context) ([]models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	products := make([]models.Product, 0, len(s.products))
	for id := s.nextID - 1; id >= 1; id-- {
		if p, ok := s.products[id]; ok {
			products = append(products, *p)
		}
	}
	return products, nil
}

func (s *ProductStore) GetByID(ctx context.Context, id int) (*models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[id]
	if !ok {
		return nil, models.ErrProductNotFound
	}

	out := *p
	return &out, nil
}

// GetProduct satisfies pricing.CatalogReader.
func (s *ProductStore) GetProduct(ctx context.Context, productID int) (*models.Product, error) {
	return s.GetByID(ctx, productID)
}

func (s *ProductStore) Create(ctx context.Context, req models.CreateProductRequest) (*models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	p := &models.Product{
		ID:          s.nextID,
		SellerID:    req.SellerID,
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Category:    req.Category,
		Brand:       req.Brand,
		Quantity:    req.Quantity,
		InStock:     req.InStock,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.nextID++
	s.products[p.ID] = p

	out := *p
	return &out, nil
}

func (s *ProductStore) Update(ctx context.Context, id int, req models.UpdateProductRequest) (*models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[id]
	if !ok {
		return nil, models.ErrProductNotFound
	}

	if req.Name != nil {
		p.Name = *req.Name
	}
	if req.Description != nil {
		p.Description = *req.Description
	}
	if req.Price != nil {
		p.Price = *req.Price
	}
	if req.Category != nil {
		p.Category = *req.Category
	}
	if req.Brand != nil {
		p.Brand = *req.Brand
	}
	if req.Quantity != nil {
		p.Quantity = *req.Quantity
	}
	if req.InStock != nil {
		p.InStock = *req.InStock
	}
	p.UpdatedAt = time.Now()

	out := *p
	return &out, nil
}

func (s *ProductStore) Delete(ctx context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.products[id]; !ok {
		return models.ErrProductNotFound
	}
	delete(s.products, id)
	return nil
}
