package jobs

import "github.com/hibiken/asynq"

// NewServer builds the asynq worker server, mirroring the teacher's
// run() queue-priority split (critical/default/low).
func NewServer(cfg Config) *asynq.Server {
	cfg = cfg.withDefaults()
	return asynq.NewServer(cfg.redisOpt(), asynq.Config{
		Concurrency: cfg.Concurrency,
		Queues: map[string]int{
			"critical": 6,
			"default":  3,
			"low":      1,
		},
	})
}

// NewMux registers every background task handler this process runs.
func NewMux(recovery *RecoveryHandler) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.Handle(TaskTypeRecoverStaleChunks, recovery)
	return mux
}

// NewClient builds the asynq client used to enqueue one-off and periodic
// tasks, mirroring the teacher's GetAsyncqClient singleton but injected
// rather than held in a package global.
func NewClient(cfg Config) *asynq.Client {
	return asynq.NewClient(cfg.withDefaults().redisOpt())
}

// NewScheduler builds the asynq scheduler that periodically enqueues the
// recovery scan; RegisterRecoveryScan adds its cron entry.
func NewScheduler(cfg Config) *asynq.Scheduler {
	return asynq.NewScheduler(cfg.withDefaults().redisOpt(), nil)
}

// RegisterRecoveryScan schedules TaskTypeRecoverStaleChunks on cronSpec
// (a cron expression or an "@every <duration>" descriptor), returning the scheduler entry id.
func RegisterRecoveryScan(scheduler *asynq.Scheduler, cronSpec string) (string, error) {
	task := asynq.NewTask(TaskTypeRecoverStaleChunks, nil)
	return scheduler.Register(cronSpec, task)
}
