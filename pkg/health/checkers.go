package health

import (
	"context"
	"runtime"

	"github.com/go-faster/errors"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Pinger is satisfied by *mongo.Client.
type Pinger interface {
	Ping(ctx context.Context, rp *readpref.ReadPref) error
}

// MongoPing fails when the primary does not answer a ping.
func MongoPing(p Pinger) CheckFunc {
	return func(ctx context.Context) error {
		if err := p.Ping(ctx, readpref.Primary()); err != nil {
			return errors.Wrap(err, "ping mongo")
		}
		return nil
	}
}

// Goroutines fails when the goroutine count exceeds limit, which usually
// means handlers are leaking.
func Goroutines(limit int) CheckFunc {
	return func(context.Context) error {
		if n := runtime.NumGoroutine(); n > limit {
			return errors.Errorf("%d goroutines running, limit %d", n, limit)
		}
		return nil
	}
}
