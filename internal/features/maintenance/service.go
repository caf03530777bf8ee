package maintenance

import (
	"context"
	"fmt"
	"time"

	"go-taskhub/internal/authz"
	common_models "go-taskhub/internal/common/models"
	"go-taskhub/internal/features/audit"
	"go-taskhub/internal/features/member"

	"github.com/robfig/cron/v3"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// MaintenanceService runs the background hygiene jobs. Expiry is always
// enforced at resolution time; the hourly sweep only removes dead
// assignment documents (and bumps member versions while doing so, which
// retires the matching cache entries).
type MaintenanceService interface {
	SweepExpired(ctx context.Context) (int64, error)
}

type MaintenanceServiceImpl struct {
	members      member.MemberRepository
	engine       *authz.Engine
	auditService audit.AuditService
	log          *zap.Logger

	scheduler *cron.Cron
}

func NewMaintenanceService(
	lc fx.Lifecycle,
	members member.MemberRepository,
	engine *authz.Engine,
	auditService audit.AuditService,
	log *zap.Logger,
) MaintenanceService {
	s := &MaintenanceServiceImpl{
		members:      members,
		engine:       engine,
		auditService: auditService,
		log:          log,
		scheduler:    cron.New(),
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if _, err := s.scheduler.AddFunc("@hourly", s.runSweep); err != nil {
				return fmt.Errorf("schedule expiry sweep: %w", err)
			}
			if _, err := s.scheduler.AddFunc("@every 15m", s.reportCacheStats); err != nil {
				return fmt.Errorf("schedule cache stats: %w", err)
			}
			s.scheduler.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			stopCtx := s.scheduler.Stop()
			select {
			case <-stopCtx.Done():
			case <-ctx.Done():
			}
			return nil
		},
	})

	return s
}

func (s *MaintenanceServiceImpl) SweepExpired(ctx context.Context) (int64, error) {
	removed, err := s.members.SweepExpiredAssignments(ctx, time.Now())
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		_ = s.auditService.LogChange(ctx, common_models.AuditActionCron, "member", "",
			map[string]common_models.Change{
				"expired_assignments_removed": {New: removed},
			})
	}
	return removed, nil
}

func (s *MaintenanceServiceImpl) runSweep() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	removed, err := s.SweepExpired(ctx)
	if err != nil {
		s.log.Error("expired assignment sweep failed", zap.Error(err))
		return
	}
	if removed > 0 {
		s.log.Info("swept expired role assignments", zap.Int64("membersTouched", removed))
	}
}

func (s *MaintenanceServiceImpl) reportCacheStats() {
	stats := s.engine.CacheStats()
	s.log.Info("decision cache stats",
		zap.Int64("hits", stats.Hits),
		zap.Int64("misses", stats.Misses),
		zap.Int("size", stats.Size))
}
