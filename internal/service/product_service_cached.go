package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sakashimaa/storefront/internal/domain"
	"github.com/sakashimaa/storefront/pkg/mylogger"
	"go.uber.org/zap"
)

const defaultProductCacheTTL = 10 * time.Minute

// CachedProductService keeps FindByID results in Redis. Cache failures are
// logged and fall through to next.
type CachedProductService struct {
	next        ProductService
	redisClient *redis.Client
	cacheTTL    time.Duration
	logger      *zap.Logger
}

func NewCachedProductService(next ProductService, redisClient *redis.Client, ttl time.Duration, logger *zap.Logger) *CachedProductService {
	if ttl <= 0 {
		ttl = defaultProductCacheTTL
	}

	return &CachedProductService{
		next:        next,
		redisClient: redisClient,
		cacheTTL:    ttl,
		logger:      logger,
	}
}

func productCacheKey(id string) string {
	return fmt.Sprintf("product:%s", id)
}

func (s *CachedProductService) Save(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	saved, err := s.next.Save(ctx, product)
	if err != nil {
		return nil, err
	}

	s.evict(ctx, saved.ID)
	return saved, nil
}

func (s *CachedProductService) FindByID(ctx context.Context, id string) (*domain.Product, error) {
	key := productCacheKey(id)

	val, err := s.redisClient.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var product domain.Product
		if err := json.Unmarshal(val, &product); err == nil {
			return &product, nil
		}
		mylogger.Warn(ctx, s.logger, "Dropping undecodable cache entry", zap.String("key", key))
	case !errors.Is(err, redis.Nil):
		mylogger.Warn(ctx, s.logger, "Product cache read failed", zap.String("key", key), zap.Error(err))
	}

	product, err := s.next.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(product)
	if err == nil {
		if err := s.redisClient.Set(ctx, key, data, s.cacheTTL).Err(); err != nil {
			mylogger.Warn(ctx, s.logger, "Product cache write failed", zap.String("key", key), zap.Error(err))
		}
	}

	return product, nil
}

func (s *CachedProductService) List(ctx context.Context) ([]domain.Product, error) {
	return s.next.List(ctx)
}

func (s *CachedProductService) Delete(ctx context.Context, id string) error {
	if err := s.next.Delete(ctx, id); err != nil {
		return err
	}

	s.evict(ctx, id)
	return nil
}

// Evict drops the cached entry for id.
func (s *CachedProductService) Evict(ctx context.Context, id string) error {
	if err := s.redisClient.Del(ctx, productCacheKey(id)).Err(); err != nil {
		return fmt.Errorf("evict product %s: %w", id, err)
	}

	return nil
}

func (s *CachedProductService) evict(ctx context.Context, id string) {
	if err := s.Evict(ctx, id); err != nil {
		mylogger.Warn(ctx, s.logger, "Product cache eviction failed", zap.String("product_id", id), zap.Error(err))
	}
}
