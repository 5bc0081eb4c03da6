package jobs

import (
	"time"

	"github.com/hibiken/asynq"
)

// Config configures the asynq client/server pair plus the recovery scan's
// own tuning (spec.md §5: "a recovery job may scan for chunks stuck in
// pending for longer than a threshold and re-enqueue them").
type Config struct {
	Addr         string
	Username     string
	Password     string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	Concurrency  int

	StaleAfterSeconds int64
	ScanBatchSize     int
}

func (c Config) withDefaults() Config {
	if c.Concurrency <= 0 {
		c.Concurrency = 10
	}
	if c.StaleAfterSeconds <= 0 {
		c.StaleAfterSeconds = 300
	}
	if c.ScanBatchSize <= 0 {
		c.ScanBatchSize = 100
	}
	return c
}

func (c Config) redisOpt() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:         c.Addr,
		Username:     c.Username,
		Password:     c.Password,
		ReadTimeout:  c.ReadTimeout,
		WriteTimeout: c.WriteTimeout,
	}
}
