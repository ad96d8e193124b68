package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// windowIncr increments the fixed-window counter and attaches the window
// expiry in the same script, so a counter can never be left behind without
// a TTL. The PTTL check also heals any orphaned counter from before a
// crash.
var windowIncr = redis.NewScript(`
local count = redis.call('INCR', KEYS[1])
if count == 1 or redis.call('PTTL', KEYS[1]) < 0 then
	redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
return count
`)

// Allow increments the fixed-window counter for (scope, ident) and reports
// whether the request stays under limit.
func (s *Store) Allow(ctx context.Context, scope, ident string, limit int, window time.Duration) (bool, error) {
	key := fmt.Sprintf("throttle:%s:%s", scope, ident)

	count, err := windowIncr.Run(ctx, s.rdb, []string{key}, window.Milliseconds()).Int64()

	if err != nil {
		return false, err
	}

	return count <= int64(limit), nil
}
