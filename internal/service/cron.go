package service

import (
	"context"
	"time"

	"node-wallet/internal/service/session"
	"node-wallet/pkg/config"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// ContractReloader 地址簿重新加载 (*deployinfo.Book)
type ContractReloader interface {
	Reload() (int, error)
}

// SessionSweeper 读取当前会话时会顺带清理过期会话 (*session.Manager)
type SessionSweeper interface {
	Current(ctx context.Context) *session.WalletSession
}

type CronService struct {
	cron     *cron.Cron
	book     ContractReloader
	sessions SessionSweeper
	log      *zap.Logger
}

func NewCronService(book ContractReloader, sessions SessionSweeper, log *zap.Logger) *CronService {
	// 标准配置 (分级)，"@every 30s" 这类描述符仍然可用
	return &CronService{
		cron:     cron.New(),
		book:     book,
		sessions: sessions,
		log:      log,
	}
}

// Register 注册任务，表达式为空的任务跳过
func (s *CronService) Register(cfg config.CronConfig) error {
	jobs := []struct {
		schedule string
		fn       func()
	}{
		{cfg.ContractReload, s.ReloadContracts},
		{cfg.SessionSweep, s.SweepSessions},
	}
	for _, j := range jobs {
		if j.schedule == "" {
			continue
		}
		if _, err := s.cron.AddFunc(j.schedule, j.fn); err != nil {
			return err
		}
	}
	return nil
}

func (s *CronService) Start() {
	s.cron.Start()
	s.log.Info("Cron Service started", zap.Int("jobs", len(s.cron.Entries())))
}

// Stop 等待正在执行的任务结束
func (s *CronService) Stop() {
	<-s.cron.Stop().Done()
	s.log.Info("Cron Service stopped")
}

// ReloadContracts 同步 node-deploy 写入的部署记录
// 每个实例都要刷新自己的内存副本，所以这里不加分布式锁
func (s *CronService) ReloadContracts() {
	n, err := s.book.Reload()
	if err != nil {
		s.log.Warn("[Cron] 重新加载部署记录失败", zap.Error(err))
		return
	}
	s.log.Debug("[Cron] 部署记录已刷新", zap.Int("contracts", n))
}

// SweepSessions 清理已过期的会话并刷新会话指标
func (s *CronService) SweepSessions() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if ws := s.sessions.Current(ctx); ws != nil {
		s.log.Debug("[Cron] 会话有效", zap.String("account", ws.AccountID), zap.Time("expiry", ws.Expiry))
	}
}
