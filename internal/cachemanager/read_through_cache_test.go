package cachemanager

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockCache struct {
	mock.Mock
}

func (m *mockCache) Get(ctx context.Context, key string) (string, bool) {
	args := m.Called(ctx, key)
	return args.String(0), args.Bool(1)
}

func (m *mockCache) GetMultiple(ctx context.Context, keys []string) (map[string]string, bool) {
	args := m.Called(ctx, keys)
	return args.Get(0).(map[string]string), args.Bool(1)
}

func (m *mockCache) GetWithRefresh(ctx context.Context, key string, ttl time.Duration) (string, bool) {
	args := m.Called(ctx, key, ttl)
	return args.String(0), args.Bool(1)
}

func (m *mockCache) Set(ctx context.Context, key string, value string, ttl time.Duration) {
	m.Called(ctx, key, value, ttl)
}

func (m *mockCache) Delete(ctx context.Context, keys ...string) error {
	args := m.Called(ctx, keys)
	return args.Error(0)
}

func (m *mockCache) Flush(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

type outputRequest struct {
	SubmissionID int64
}

func loader(calls *int) func(context.Context, outputRequest) (string, error) {
	return func(_ context.Context, in outputRequest) (string, error) {
		*calls++
		if in.SubmissionID < 0 {
			return "", errors.New("submission not found")
		}
		return "output", nil
	}
}

func TestReadThrough_SkipCacheAlwaysLoads(t *testing.T) {
	m := &mockCache{}
	calls := 0
	r := NewReadThroughCache[string, string, outputRequest](m, loader(&calls), true)

	for range 2 {
		got, err := r.Get(context.Background(), "k", outputRequest{SubmissionID: 1}, time.Minute)
		require.NoError(t, err)
		require.Equal(t, "output", got)
	}
	_, err := r.GetWithRefresh(context.Background(), "k", outputRequest{SubmissionID: 1}, time.Minute)
	require.NoError(t, err)
	require.Equal(t, 3, calls)
	m.AssertExpectations(t)
}

func TestReadThrough_HitDoesNotLoad(t *testing.T) {
	m := &mockCache{}
	m.On("Get", mock.Anything, "k").Return("cached", true)
	calls := 0
	r := NewReadThroughCache[string, string, outputRequest](m, loader(&calls), false)

	got, err := r.Get(context.Background(), "k", outputRequest{SubmissionID: 1}, time.Minute)
	require.NoError(t, err)
	require.Equal(t, "cached", got)
	require.Zero(t, calls)
	m.AssertExpectations(t)
}

func TestReadThrough_MissLoadsAndStores(t *testing.T) {
	m := &mockCache{}
	m.On("Get", mock.Anything, "k").Return("", false)
	m.On("Set", mock.Anything, "k", "output", time.Minute).Return()
	calls := 0
	r := NewReadThroughCache[string, string, outputRequest](m, loader(&calls), false)

	got, err := r.Get(context.Background(), "k", outputRequest{SubmissionID: 1}, time.Minute)
	require.NoError(t, err)
	require.Equal(t, "output", got)
	require.Equal(t, 1, calls)
	m.AssertExpectations(t)
}

func TestReadThrough_ErrorIsNotCached(t *testing.T) {
	m := &mockCache{}
	m.On("Get", mock.Anything, "k").Return("", false)
	calls := 0
	r := NewReadThroughCache[string, string, outputRequest](m, loader(&calls), false)

	_, err := r.Get(context.Background(), "k", outputRequest{SubmissionID: -1}, time.Minute)
	require.Error(t, err)
	m.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestReadThrough_GetWithRefresh(t *testing.T) {
	m := &mockCache{}
	m.On("GetWithRefresh", mock.Anything, "hit", time.Minute).Return("cached", true)
	m.On("GetWithRefresh", mock.Anything, "miss", time.Minute).Return("", false)
	m.On("Set", mock.Anything, "miss", "output", time.Minute).Return()
	calls := 0
	r := NewReadThroughCache[string, string, outputRequest](m, loader(&calls), false)

	got, err := r.GetWithRefresh(context.Background(), "hit", outputRequest{SubmissionID: 1}, time.Minute)
	require.NoError(t, err)
	require.Equal(t, "cached", got)

	got, err = r.GetWithRefresh(context.Background(), "miss", outputRequest{SubmissionID: 1}, time.Minute)
	require.NoError(t, err)
	require.Equal(t, "output", got)
	require.Equal(t, 1, calls)
	m.AssertExpectations(t)
}

func TestReadThrough_InvalidateReloads(t *testing.T) {
	ctx := context.Background()
	calls := 0
	r := NewReadThroughCache[outputKey, string, outputRequest](newOutputCache(), loader(&calls), false)

	_, err := r.Get(ctx, "k", outputRequest{SubmissionID: 1}, time.Minute)
	require.NoError(t, err)
	_, err = r.Get(ctx, "k", outputRequest{SubmissionID: 1}, time.Minute)
	require.NoError(t, err)
	require.Equal(t, 1, calls)

	require.NoError(t, r.Invalidate(ctx, "k"))
	_, err = r.Get(ctx, "k", outputRequest{SubmissionID: 1}, time.Minute)
	require.NoError(t, err)
	require.Equal(t, 2, calls)
}
