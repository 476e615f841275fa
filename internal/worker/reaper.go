package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/leif888/qamanage/internal/domain/services"
	pkgredis "github.com/leif888/qamanage/internal/pkg/redis"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

const reaperLockKey = "qamanage:reaper:lock"

// Reaper periodically fails executions stuck in running, covering worker
// crashes that never reported an outcome. A Redis lock keeps concurrent
// worker instances from sweeping at the same time.
type Reaper struct {
	executionSvc *services.ExecutionService
	redis        *pkgredis.Client
	staleAfter   time.Duration
	interval     time.Duration
	cron         *cron.Cron
	instanceID   string
}

func NewReaper(executionSvc *services.ExecutionService, redisClient *pkgredis.Client, staleAfter, interval time.Duration) *Reaper {
	if staleAfter <= 0 {
		staleAfter = 30 * time.Minute
	}
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &Reaper{
		executionSvc: executionSvc,
		redis:        redisClient,
		staleAfter:   staleAfter,
		interval:     interval,
		cron:         cron.New(),
		instanceID:   uuid.NewString(),
	}
}

func (r *Reaper) Start() error {
	spec := fmt.Sprintf("@every %s", r.interval)
	if _, err := r.cron.AddFunc(spec, r.sweep); err != nil {
		return fmt.Errorf("failed to schedule reaper: %w", err)
	}
	r.cron.Start()
	log.Info().Dur("interval", r.interval).Dur("stale_after", r.staleAfter).Msg("Stale execution reaper started")
	return nil
}

func (r *Reaper) Stop() {
	ctx := r.cron.Stop()
	<-ctx.Done()
}

func (r *Reaper) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	acquired, err := r.redis.AcquireLock(ctx, reaperLockKey, r.instanceID, r.interval)
	if err != nil {
		log.Warn().Err(err).Msg("Reaper lock acquisition failed")
		return
	}
	if !acquired {
		return
	}
	defer func() {
		if err := r.redis.ReleaseLock(ctx, reaperLockKey, r.instanceID); err != nil {
			log.Warn().Err(err).Msg("Reaper lock release failed")
		}
	}()

	cutoff := time.Now().UTC().Add(-r.staleAfter)
	reaped, err := r.executionSvc.ReapStale(ctx, cutoff)
	if err != nil {
		log.Error().Err(err).Msg("Stale execution sweep failed")
		return
	}
	if reaped > 0 {
		log.Info().Int("reaped", reaped).Msg("Failed stale executions")
	}
}
