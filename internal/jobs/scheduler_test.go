package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type closerMock struct {
	mock.Mock
}

func (m *closerMock) CloseExpired(ctx context.Context, now time.Time) (int, error) {
	args := m.Called(ctx, now)
	return args.Int(0), args.Error(1)
}

func TestCloseExpiredPassesCurrentTime(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	closer := &closerMock{}
	closer.On("CloseExpired", mock.Anything, now).Return(2, nil).Once()

	s := NewScheduler(closer, zap.NewNop())
	s.now = func() time.Time { return now }
	s.closeExpired()

	closer.AssertExpectations(t)
}

func TestCloseExpiredSwallowsErrors(t *testing.T) {
	closer := &closerMock{}
	closer.On("CloseExpired", mock.Anything, mock.Anything).Return(0, errors.New("db down")).Once()

	s := NewScheduler(closer, zap.NewNop())
	assert.NotPanics(t, s.closeExpired)
	closer.AssertExpectations(t)
}

func TestStartRegistersJob(t *testing.T) {
	s := NewScheduler(&closerMock{}, zap.NewNop())
	require.NoError(t, s.Start())
	assert.Len(t, s.cron.Entries(), 1)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Stop(ctx)
}
