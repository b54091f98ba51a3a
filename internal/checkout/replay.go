package checkout

import (
	"context"
	"fmt"

	"github.com/ariefcatur/ferremas-api/internal/redisx"
	"github.com/redis/go-redis/v9"
)

// ReplayGuard remembers which gateway tokens were already committed, so a repeated
// callback re-reads the transaction instead of committing it again.
type ReplayGuard interface {
	Committed(ctx context.Context, token string) (bool, error)
	MarkCommitted(ctx context.Context, token, buyOrder string) error
}

type RedisReplayGuard struct {
	RDB redis.Cmdable
}

func (g *RedisReplayGuard) Committed(ctx context.Context, token string) (bool, error) {
	return redisx.Exists(ctx, g.RDB, fmt.Sprintf(redisx.KeyWebpayCommitted, token))
}

func (g *RedisReplayGuard) MarkCommitted(ctx context.Context, token, buyOrder string) error {
	_, err := redisx.MarkOnce(ctx, g.RDB, fmt.Sprintf(redisx.KeyWebpayCommitted, token), buyOrder, redisx.TTLWebpayCommitted)
	return err
}
