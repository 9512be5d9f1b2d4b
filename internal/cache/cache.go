package cache

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Logger()

const (
	KeyAllOrders     = "all_orders"
	KeyOrder         = "order_%d"
	KeyAllProducts   = "all_products"
	KeyProduct       = "product_%d"
	KeyProductImages = "product_%d_images"
	KeyProductSizes  = "product_%d_sizes"
)

var (
	TTLOrders   = 300 * time.Second
	TTLProducts = 3600 * time.Second
)

// Cache is a key-value store of JSON snapshots with per-key expiry.
// Get reports false on a miss and leaves dest untouched.
type Cache interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	Clear(ctx context.Context) error
}

func OrderKey(id int64) string { return fmt.Sprintf(KeyOrder, id) }

func ProductKey(id int64) string { return fmt.Sprintf(KeyProduct, id) }

func ProductImagesKey(id int64) string { return fmt.Sprintf(KeyProductImages, id) }

func ProductSizesKey(id int64) string { return fmt.Sprintf(KeyProductSizes, id) }

// Invalidate deletes keys and logs instead of failing: a stale entry expires on its own TTL.
func Invalidate(ctx context.Context, c Cache, keys ...string) {
	if err := c.Delete(ctx, keys...); err != nil {
		logger.Error().Err(err).Strs("keys", keys).Msg("Error invalidating cache keys")
	}
}
