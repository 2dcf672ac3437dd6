package types

import (
	"errors"
	"fmt"
)

var (
	ErrConfigNotFound       = errors.New("config not found")
	ErrConfigParseFailed    = errors.New("config parse failed")
	ErrConfigIsNil          = errors.New("config is nil")
	ErrConfigValidateFailed = errors.New("config validate failed")
)

var (
	ErrCacheKeyEmpty         = errors.New("cache key empty")
	ErrCacheConnectionFailed = errors.New("cache connection failed")
	ErrCacheOperationFailed  = errors.New("cache operation failed")
	ErrCacheIsDisabled       = errors.New("cache client is disabled")
	ErrCacheEntryCorrupted   = errors.New("cache entry corrupted")
	ErrCacheTypeUnknown      = errors.New("cache client type unknown")
)

var (
	ErrStoreIsDisabled = errors.New("store is disabled")
	ErrStoreNotRunning = errors.New("store not running")
	ErrEntityNotFound  = errors.New("entity not found")
	ErrEntityIDEmpty   = errors.New("entity id empty")
	ErrEntitySlugTaken = errors.New("entity slug already taken")
	ErrInvalidStatus   = errors.New("invalid status transition")
	ErrUnknownScope    = errors.New("unknown role scope")
)

var (
	ErrNotifyNotInitialized   = errors.New("notifier not initialized")
	ErrNotifyPublishFailed    = errors.New("notify publish failed")
	ErrNotifyConnectionFailed = errors.New("notify connection failed")
	ErrNotifyConfigInvalid    = errors.New("notify config invalid")
	ErrNotifyIsDisabled       = errors.New("notifier is disabled")
	ErrNotifyIsRunning        = errors.New("notifier is running")
)

var (
	ErrMetricsStartFailed = errors.New("metrics start failed")
	ErrMetricsIsDisabled  = errors.New("metrics manager is disabled")
)

var (
	ErrServerNotRunning     = errors.New("server not running")
	ErrServerAlreadyRunning = errors.New("server already running")
	ErrServerStartFailed    = errors.New("server start failed")
)

var (
	ErrCronJobNameIsEmpty    = errors.New("cron job name is empty")
	ErrCronJobIsNil          = errors.New("cron job is nil")
	ErrCronJobExists         = errors.New("cron job exists")
	ErrCronExpressionInvalid = errors.New("cron expression invalid")
	ErrCronIsRunning         = errors.New("cron is running")
	ErrCronSchedulerStopped  = errors.New("cron scheduler stopped")
	ErrCronJobFailed         = errors.New("cron job failed")
	ErrCronJobTimeout        = errors.New("cron job timeout")
)

var (
	ErrHealthCheckFailed  = errors.New("health check failed")
	ErrHealthCheckTimeout = errors.New("health check timeout")
)

var (
	ErrLogFileIsEmpty     = errors.New("log file is empty")
	ErrLogFileWrongFormat = errors.New("log file wrong format")
	ErrLoggerTypeUnknown  = errors.New("logger type unknown")
)

var (
	ErrInvalidParameter = errors.New("invalid parameter")
	ErrOperationFailed  = errors.New("operation failed")
	ErrInvalidState     = errors.New("invalid state")
	ErrNotSupported     = errors.New("not supported")
)

func Errorf(baseErr error, format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", baseErr, fmt.Sprintf(format, args...))
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

func NewErrorf(format string, args ...interface{}) error {
	return fmt.Errorf(format, args...)
}

func IsError(err, target error) bool {
	return errors.Is(err, target)
}
