package service

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"node-wallet/internal/service/session"
	"node-wallet/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeBook struct {
	calls atomic.Int32
	err   error
}

func (b *fakeBook) Reload() (int, error) {
	b.calls.Add(1)
	return 3, b.err
}

type fakeSessions struct {
	calls atomic.Int32
}

func (s *fakeSessions) Current(ctx context.Context) *session.WalletSession {
	s.calls.Add(1)
	return nil
}

func TestCronService_Jobs(t *testing.T) {
	book := &fakeBook{}
	sessions := &fakeSessions{}
	s := NewCronService(book, sessions, zap.NewNop())

	s.ReloadContracts()
	s.SweepSessions()
	assert.Equal(t, int32(1), book.calls.Load())
	assert.Equal(t, int32(1), sessions.calls.Load())

	// 加载失败只记录日志
	book.err = errors.New("parse deployment-info.json: unexpected EOF")
	assert.NotPanics(t, s.ReloadContracts)
}

func TestCronService_Register(t *testing.T) {
	s := NewCronService(&fakeBook{}, &fakeSessions{}, zap.NewNop())

	require.NoError(t, s.Register(config.CronConfig{ContractReload: "@every 30s"}))
	assert.Len(t, s.cron.Entries(), 1)

	err := s.Register(config.CronConfig{SessionSweep: "not a schedule"})
	assert.Error(t, err)
}

func TestCronService_Runs(t *testing.T) {
	book := &fakeBook{}
	s := NewCronService(book, &fakeSessions{}, zap.NewNop())
	require.NoError(t, s.Register(config.CronConfig{ContractReload: "@every 1s"}))

	s.Start()
	defer s.Stop()

	assert.Eventually(t, func() bool { return book.calls.Load() > 0 }, 3*time.Second, 50*time.Millisecond)
}
