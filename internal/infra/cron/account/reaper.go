package account

import (
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/lloydmeta/notesync/internal/domain/account"
	"github.com/lloydmeta/notesync/internal/domain/leader"
	"github.com/lloydmeta/notesync/internal/domain/tracing"
)

const DefaultSchedule = "@every 10m"

type reaperImpl struct {
	cron *cron.Cron

	accounts account.Service

	lock leader.Lock

	tracer tracing.Tracer

	mu sync.Mutex
}

// NewReaper returns a Reaper that runs account.Service.ReapMerged on the given cron
// schedule, on whichever process holds the lock. An empty schedule uses DefaultSchedule.
func NewReaper(accounts account.Service, lock leader.Lock, tracer tracing.Tracer, schedule string) (account.Reaper, error) {
	if schedule == "" {
		schedule = DefaultSchedule
	}
	r := &reaperImpl{
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithLogger(zeroLogCronLogger{}),
			cron.WithChain(
				cron.Recover(zeroLogCronLogger{}),
				cron.SkipIfStillRunning(zeroLogCronLogger{}),
			),
		),
		accounts: accounts,
		lock:     lock,
		tracer:   tracer,
	}
	if _, err := r.cron.AddFunc(schedule, r.reap); err != nil {
		return nil, InvalidSchedule{Expression: schedule, Underlying: err}
	}
	log.Info().Str("expression", schedule).Msg("Scheduled merged owner reaper")
	return r, nil
}

func (r *reaperImpl) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cron.Start()
}

func (r *reaperImpl) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	<-r.cron.Stop().Done()
}

func (r *reaperImpl) reap() {
	tx := r.tracer.BackgroundTx("merged-owner-reaper")
	defer tx.End()
	ctx := tx.Context()
	if isLeader, err := r.lock.Acquire(ctx); err != nil {
		log.Error().Err(err).Msg("Failed to check for leadership, skipping reaper run")
		return
	} else if !isLeader {
		log.Debug().Msg("Not the leader, skipping reaper run")
		return
	}
	reaped, err := r.accounts.ReapMerged(ctx)
	if err != nil {
		log.Error().Err(err).Uint("reaped", reaped).Msg("Failed to reap some merged owners")
	} else if reaped > 0 {
		log.Info().Uint("reaped", reaped).Msg("Reaped merged owners")
	}
}

type InvalidSchedule struct {
	Expression string
	Underlying error
}

func (e InvalidSchedule) Error() string {
	return fmt.Sprintf("Invalid reaper schedule [%s]: %v", e.Expression, e.Underlying)
}

func (e InvalidSchedule) Unwrap() error {
	return e.Underlying
}

type zeroLogCronLogger struct {
}

func (z zeroLogCronLogger) Info(msg string, keysAndValues ...interface{}) {
	if log.Debug().Enabled() {
		formatted := formatTimeValues(keysAndValues)
		log.Debug().Fields(formatted).Msg(msg)
	}
}

func (z zeroLogCronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	if log.Error().Enabled() {
		formatted := formatTimeValues(keysAndValues)
		log.Error().Err(err).Fields(formatted).Msg(msg)
	}
}

// formatTimeValues formats any time.Time values as RFC3339 and turns the
// alternating key-value slice into a map
func formatTimeValues(keysAndValues []interface{}) map[string]interface{} {
	formattedArgs := make(map[string]interface{}, len(keysAndValues)/2)
	for idx := 0; idx < len(keysAndValues); idx += 2 {
		var key string
		if s, ok := keysAndValues[idx].(string); ok {
			key = s
		} else {
			key = fmt.Sprint(keysAndValues[idx])
		}
		valueIdx := idx + 1
		if len(keysAndValues) > valueIdx {
			value := keysAndValues[valueIdx]
			if t, ok := value.(time.Time); ok {
				value = t.Format(time.RFC3339)
			}
			formattedArgs[key] = value
		}
	}
	return formattedArgs
}
