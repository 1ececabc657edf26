package scheduler

import (
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"devfolio/internal/pkg/config"
	"devfolio/internal/repository"
	"devfolio/internal/service"
)

// Scheduler 调度器
type Scheduler struct {
	cron          *cron.Cron
	logger        *zap.Logger
	userRepo      repository.UserRepository
	mirror        service.MirrorEnqueuer
	cronSchedules map[string]cron.EntryID // 存储任务ID，便于管理
}

// NewScheduler 创建调度器
func NewScheduler(userRepo repository.UserRepository, mirror service.MirrorEnqueuer, logger *zap.Logger) *Scheduler {
	// 创建 cron 实例（带秒级支持）
	c := cron.New(cron.WithSeconds())

	return &Scheduler{
		cron:          c,
		logger:        logger,
		userRepo:      userRepo,
		mirror:        mirror,
		cronSchedules: make(map[string]cron.EntryID),
	}
}

// Start 启动调度器
func (s *Scheduler) Start(cfg *config.Config) error {
	log := s.logger.Sugar()

	log.Info("启动定时任务调度器...")

	// 获取配置的 cron 表达式，默认每天凌晨2点执行
	// cron 表达式格式: 秒 分 时 日 月 周
	cronExpr := cfg.Mirror.Cron
	if cronExpr == "" {
		cronExpr = "0 0 2 * * *" // 默认: 每天凌晨2点
		log.Warnf("未配置mirror.cron，使用默认值: %s", cronExpr)
	}

	entryID, err := s.cron.AddFunc(cronExpr, func() {
		log.Info("执行定时任务: 代码库镜像全量同步")
		if err := s.enqueueAll(); err != nil {
			log.Errorf("代码库镜像全量同步任务执行失败: %v", err)
		}
	})

	if err != nil {
		log.Errorf("注册镜像同步任务失败: cron=%v err=%v", cronExpr, err)
		return err
	}

	s.cronSchedules["mirror_sync"] = entryID
	log.Infof("代码库镜像同步任务已注册: %s entry_id=%d", cronExpr, entryID)

	// 启动 cron
	s.cron.Start()
	log.Info("定时任务调度器启动成功")

	return nil
}

// Stop 停止调度器
func (s *Scheduler) Stop() {
	s.logger.Info("正在停止定时任务调度器...")

	// 停止 cron（等待正在执行的任务完成）
	ctx := s.cron.Stop()
	<-ctx.Done()

	s.logger.Info("定时任务调度器已停止")
}

// TriggerMirrorSync 手动触发全量镜像同步（用于测试或手动触发）
func (s *Scheduler) TriggerMirrorSync() error {
	s.logger.Info("手动触发代码库镜像全量同步")
	return s.enqueueAll()
}

// enqueueAll 将所有OAuth用户加入镜像同步队列
func (s *Scheduler) enqueueAll() error {
	users, err := s.userRepo.ListMirrorCandidates()
	if err != nil {
		return err
	}

	for _, user := range users {
		s.mirror.Enqueue(user.ID)
	}

	s.logger.Info("镜像同步任务已入队", zap.Int("user_count", len(users)))
	return nil
}
