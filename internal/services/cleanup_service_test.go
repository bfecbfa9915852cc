package services

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ienerzy/auth-service/internal/config"
)

func newCleanupService() (CleanupService, *mockOTPRepo, *mockSessionRepo, *mockBlacklistRepo, *mockRateLimitRepo) {
	otps := new(mockOTPRepo)
	sessions := new(mockSessionRepo)
	blacklist := new(mockBlacklistRepo)
	rateLimits := new(mockRateLimitRepo)
	svc := NewCleanupService(otps, sessions, blacklist, rateLimits, &config.Config{
		RateLimitWindow: time.Minute,
	})
	return svc, otps, sessions, blacklist, rateLimits
}

func TestCleanupDaily_SweepsAllStores(t *testing.T) {
	svc, otps, sessions, blacklist, rateLimits := newCleanupService()

	otps.On("CleanupExpired", mock.Anything).Return(nil)
	sessions.On("CleanupExpired", mock.Anything).Return(nil)
	blacklist.On("CleanupExpired", mock.Anything).Return(nil)
	rateLimits.On("CleanupExpired", mock.Anything, 2*time.Minute).Return(nil)

	require.NoError(t, svc.CleanupDaily(context.Background()))
	otps.AssertExpectations(t)
	sessions.AssertExpectations(t)
	blacklist.AssertExpectations(t)
	rateLimits.AssertExpectations(t)
}

func TestCleanupDaily_RetriesTransientError(t *testing.T) {
	svc, otps, sessions, blacklist, rateLimits := newCleanupService()

	otps.On("CleanupExpired", mock.Anything).Return(io.EOF).Once()
	otps.On("CleanupExpired", mock.Anything).Return(nil).Once()
	sessions.On("CleanupExpired", mock.Anything).Return(nil)
	blacklist.On("CleanupExpired", mock.Anything).Return(nil)
	rateLimits.On("CleanupExpired", mock.Anything, mock.Anything).Return(nil)

	require.NoError(t, svc.CleanupDaily(context.Background()))
	otps.AssertNumberOfCalls(t, "CleanupExpired", 2)
}

func TestCleanupDaily_PermanentErrorStopsSweep(t *testing.T) {
	svc, otps, sessions, _, _ := newCleanupService()

	permanent := errors.New("relation does not exist")
	otps.On("CleanupExpired", mock.Anything).Return(permanent)

	err := svc.CleanupDaily(context.Background())
	assert.ErrorIs(t, err, permanent)
	sessions.AssertNotCalled(t, "CleanupExpired", mock.Anything)
}
