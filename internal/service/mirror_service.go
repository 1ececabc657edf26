package service

import (
	"sync"

	"github.com/samber/lo"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"devfolio/internal/model"
	"devfolio/internal/pkg/config"
	"devfolio/internal/pkg/git"
	"devfolio/internal/repository"
)

const defaultQueueSize = 64

// MirrorEnqueuer 镜像同步触发入口
// 登录/绑定路径只投递任务，不等待同步结果
type MirrorEnqueuer interface {
	Enqueue(userID int64)
}

// MirrorService 代码库镜像同步服务
// 对账以仓库名为键（区分大小写，按用户隔离）：远端有本地无则插入，
// 本地有远端无则删除，已存在的记录不做字段级更新。
// 同步请求经队列由单个worker消费，按用户加锁，失败只记日志不向上抛。
type MirrorService struct {
	userRepo repository.UserRepository
	repoRepo repository.RepositoryRepository
	client   *git.Client
	logger   *zap.Logger

	queue chan int64
	done  chan struct{}
	wg    sync.WaitGroup
	locks sync.Map // userID → *sync.Mutex
}

// NewMirrorService 创建镜像同步服务
func NewMirrorService(db *gorm.DB, logger *zap.Logger, cfg *config.MirrorConfig) *MirrorService {
	queueSize := cfg.QueueSize
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}

	return &MirrorService{
		userRepo: repository.NewUserRepository(db),
		repoRepo: repository.NewRepositoryRepository(db),
		client: git.NewClient(&git.ClientConfig{
			BaseURL:   cfg.BaseURL,
			UserAgent: cfg.UserAgent,
			Token:     cfg.Token,
		}),
		logger: logger,
		queue:  make(chan int64, queueSize),
		done:   make(chan struct{}),
	}
}

// Start 启动同步worker
func (s *MirrorService) Start() {
	s.wg.Add(1)
	go s.worker()
	s.logger.Info("镜像同步worker已启动")
}

// Stop 停止worker（等待当前任务完成）
func (s *MirrorService) Stop() {
	close(s.done)
	s.wg.Wait()
	s.logger.Info("镜像同步worker已停止")
}

// Enqueue 投递一次同步任务，队列满时丢弃
// 镜像是尽力而为的缓存，丢弃的任务会被下一次登录或定时同步补上
func (s *MirrorService) Enqueue(userID int64) {
	select {
	case s.queue <- userID:
	default:
		s.logger.Warn("镜像同步队列已满，丢弃任务", zap.Int64("user_id", userID))
	}
}

func (s *MirrorService) worker() {
	defer s.wg.Done()

	for {
		select {
		case userID := <-s.queue:
			if err := s.ReconcileByID(userID); err != nil {
				s.logger.Error("镜像同步失败", zap.Int64("user_id", userID), zap.Error(err))
			}
		case <-s.done:
			return
		}
	}
}

// Reconcile 对单个用户执行一次完整对账
// 远端拉取或解析失败时整轮放弃（本地不变）；单条写入失败只记日志，
// 不影响同轮的其它记录
func (s *MirrorService) Reconcile(user *model.User) error {
	remote, err := s.client.ListUserRepositories(user.Username)
	if err != nil {
		return err
	}

	local, err := s.repoRepo.ListByUser(user.ID)
	if err != nil {
		return err
	}

	toInsert, toDelete := mirrorDiff(remote, local)

	for _, info := range toInsert {
		repo := &model.Repository{
			Name:   info.Name,
			URL:    info.CloneURL,
			UserID: user.ID,
		}
		if err := s.repoRepo.Create(repo); err != nil {
			s.logger.Warn("保存代码库镜像失败", zap.String("repo", info.Name), zap.Error(err))
			continue
		}
		s.logger.Info("代码库镜像已保存", zap.String("repo", info.Name), zap.String("username", user.Username))
	}

	for _, repo := range toDelete {
		if err := s.repoRepo.Delete(repo.ID); err != nil {
			s.logger.Warn("删除代码库镜像失败", zap.String("repo", repo.Name), zap.Error(err))
			continue
		}
		s.logger.Info("代码库镜像已删除", zap.String("repo", repo.Name), zap.String("username", user.Username))
	}

	return nil
}

// ReconcileByID 按用户ID同步，供worker外的同步调用方使用
func (s *MirrorService) ReconcileByID(userID int64) error {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		return err
	}

	// 同一用户的并发对账互斥，避免插入/删除互相踩踏
	mu, _ := s.locks.LoadOrStore(userID, &sync.Mutex{})
	lock := mu.(*sync.Mutex)
	lock.Lock()
	defer lock.Unlock()

	return s.Reconcile(user)
}

// mirrorDiff 远端与本地的集合差
// 插入集 = 远端−本地，删除集 = 本地−远端，键为仓库名
func mirrorDiff(remote []git.RepositoryInfo, local []*model.Repository) ([]git.RepositoryInfo, []*model.Repository) {
	remoteByName := lo.KeyBy(remote, func(r git.RepositoryInfo) string {
		return r.Name
	})
	localByName := lo.KeyBy(local, func(r *model.Repository) string {
		return r.Name
	})

	toInsert := lo.Filter(remote, func(r git.RepositoryInfo, _ int) bool {
		_, exists := localByName[r.Name]
		return !exists
	})
	toDelete := lo.Filter(local, func(r *model.Repository, _ int) bool {
		_, exists := remoteByName[r.Name]
		return !exists
	})

	return toInsert, toDelete
}
