package notify

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/saiset-co/sai-storecache/config"
	"github.com/saiset-co/sai-storecache/types"
)

type nopLogger struct{}

func (nopLogger) Error(msg string, fields ...zap.Field)                        {}
func (nopLogger) ErrorWithErrStack(msg string, err error, fields ...zap.Field) {}
func (nopLogger) Warn(msg string, fields ...zap.Field)                         {}
func (nopLogger) Info(msg string, fields ...zap.Field)                         {}
func (nopLogger) Debug(msg string, fields ...zap.Field)                        {}
func (nopLogger) Log(lvl zapcore.Level, msg string, fields ...zap.Field)       {}

type stubNotifier struct{}

func (stubNotifier) Start() error                                    { return nil }
func (stubNotifier) Stop() error                                     { return nil }
func (stubNotifier) IsRunning() bool                                 { return true }
func (stubNotifier) Publish(topic string, payload interface{}) error { return nil }

func notifyConfig(cfg *types.NotifyConfig) types.ConfigManager {
	return config.NewStaticManager(&types.ServiceConfig{Notify: cfg})
}

func TestNewNotifierDisabled(t *testing.T) {
	_, err := NewNotifier(context.Background(), notifyConfig(&types.NotifyConfig{Enabled: false}), nopLogger{})
	assert.ErrorIs(t, err, types.ErrNotifyIsDisabled)

	_, err = NewNotifier(context.Background(), notifyConfig(nil), nopLogger{})
	assert.ErrorIs(t, err, types.ErrNotifyIsDisabled)
}

func TestNewNotifierUnknownType(t *testing.T) {
	_, err := NewNotifier(context.Background(), notifyConfig(&types.NotifyConfig{
		Enabled: true,
		Type:    "carrier-pigeon",
	}), nopLogger{})
	assert.ErrorIs(t, err, types.ErrNotifyConfigInvalid)
}

func TestNewNotifierCustomCreator(t *testing.T) {
	RegisterNotifier("stub", func(config interface{}) (types.Notifier, error) {
		return stubNotifier{}, nil
	})

	notifier, err := NewNotifier(context.Background(), notifyConfig(&types.NotifyConfig{
		Enabled: true,
		Type:    "stub",
	}), nopLogger{})
	require.NoError(t, err)
	assert.True(t, notifier.IsRunning())
}

func TestPublishRequiresRunningNotifier(t *testing.T) {
	notifier, err := NewWebSocketNotifier(context.Background(), nopLogger{}, &types.NotifyConfig{Enabled: true})
	require.NoError(t, err)

	err = notifier.Publish("invitation.status_changed", map[string]string{"id": "i1"})
	assert.ErrorIs(t, err, types.ErrNotifyNotInitialized)

	err = notifier.Publish("", nil)
	assert.ErrorIs(t, err, types.ErrNotifyConfigInvalid)
}
