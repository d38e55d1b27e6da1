package logger

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/event"
	"go.uber.org/zap"
)

// NewMongoMonitor returns a command monitor that logs failed commands at error
// level and commands slower than slowQuerySeconds at warn level. Every
// succeeded command is logged at debug level.
func NewMongoMonitor(log *zap.Logger, slowQuerySeconds float64) *event.CommandMonitor {
	log = log.Named("mongo")
	threshold := time.Duration(slowQuerySeconds * float64(time.Second))

	return &event.CommandMonitor{
		Succeeded: func(ctx context.Context, evt *event.CommandSucceededEvent) {
			l := WithContext(ctx, log).With(
				zap.String("command", evt.CommandName),
				zap.Duration("elapsed", evt.Duration),
			)
			if threshold > 0 && evt.Duration > threshold {
				l.Warn("mongo slow command", zap.Duration("threshold", threshold))
				return
			}
			l.Debug("mongo command")
		},
		Failed: func(ctx context.Context, evt *event.CommandFailedEvent) {
			WithContext(ctx, log).Error("mongo command failed",
				zap.String("command", evt.CommandName),
				zap.Duration("elapsed", evt.Duration),
				zap.String("failure", evt.Failure),
			)
		},
	}
}
