package db

import (
	"context"
	"fmt"
	"log"

	"github.com/hivemarket/hivemarket/internal/cache"
	"github.com/hivemarket/hivemarket/internal/models"
	"github.com/redis/go-redis/v9"
)

// CachedProductRepository is a read-through cache over ProductRepository.
// Catalog reads dominate the traffic; every write invalidates.
type CachedProductRepository struct {
	repo  *ProductRepository
	cache *cache.RedisCache
}

func NewCachedProductRepository(repo *ProductRepository, cache *cache.RedisCache) *CachedProductRepository {
	return &CachedProductRepository{
		repo:  repo,
		cache: cache,
	}
}

// Cache key helpers
func productKey(id int) string {
	return fmt.Sprintf("product:%d", id)
}

func allProductsKey() string {
	return "products:all"
}

// GetAll returns all products (with caching)
func (r *CachedProductRepository) GetAll(ctx context.Context) ([]models.Product, error) {
	cacheKey := allProductsKey()

	var products []models.Product
	err := r.cache.Get(ctx, cacheKey, &products)
	if err == nil {
		log.Println("📦 Cache HIT: all products")
		return products, nil
	}

	log.Println("💾 Cache MISS: all products - fetching from DB")
	products, err = r.repo.GetAll()
	if err != nil {
		return nil, err
	}

	if err := r.cache.Set(ctx, cacheKey, products); err != nil {
		log.Printf("⚠️ Failed to cache products: %v", err)
	}

	return products, nil
}

// GetByID returns a single product (with caching)
func (r *CachedProductRepository) GetByID(ctx context.Context, id int) (*models.Product, error) {
	cacheKey := productKey(id)

	var product models.Product
	err := r.cache.Get(ctx, cacheKey, &product)
	if err == nil {
		log.Printf("📦 Cache HIT: product %d", id)
		return &product, nil
	}

	if err != redis.Nil {
		log.Printf("⚠️ Cache error: %v", err)
	}

	log.Printf("💾 Cache MISS: product %d - fetching from DB", id)
	p, err := r.repo.GetByID(id)
	if err != nil {
		return nil, err
	}

	if err := r.cache.Set(ctx, cacheKey, p); err != nil {
		log.Printf("⚠️ Failed to cache product: %v", err)
	}

	return p, nil
}

// Create inserts a new product and invalidates the list cache.
func (r *CachedProductRepository) Create(ctx context.Context, req models.CreateProductRequest) (*models.Product, error) {
	product, err := r.repo.Create(req)
	if err != nil {
		return nil, err
	}

	if err := r.cache.Delete(ctx, allProductsKey()); err != nil {
		log.Printf("⚠️ Failed to invalidate cache: %v", err)
	}

	return product, nil
}

// Update applies seller edits and invalidates both caches. A stale cached
// price only affects browsing; order pricing reads through this path too,
// so the invalidation keeps snapshots close to the live price.
func (r *CachedProductRepository) Update(ctx context.Context, id int, req models.UpdateProductRequest) (*models.Product, error) {
	product, err := r.repo.Update(id, req)
	if err != nil {
		return nil, err
	}

	r.cache.Delete(ctx, productKey(id))
	r.cache.Delete(ctx, allProductsKey())

	return product, nil
}

// Delete removes a product and invalidates caches.
func (r *CachedProductRepository) Delete(ctx context.Context, id int) error {
	if err := r.repo.Delete(id); err != nil {
		return err
	}

	r.cache.Delete(ctx, productKey(id))
	r.cache.Delete(ctx, allProductsKey())
	log.Printf("🗑️ Cache invalidated: product %d", id)

	return nil
}
