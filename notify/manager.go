package notify

import (
	"context"

	"github.com/saiset-co/sai-storecache/types"
)

var customNotifierCreators = make(map[string]types.NotifierCreator)

func RegisterNotifier(name string, creator types.NotifierCreator) {
	customNotifierCreators[name] = creator
}

func NewNotifier(ctx context.Context, config types.ConfigManager, logger types.Logger) (types.Notifier, error) {
	notifyConfig := config.GetConfig().Notify

	if notifyConfig == nil || !notifyConfig.Enabled {
		return nil, types.ErrNotifyIsDisabled
	}

	notifierName := "websocket"
	if notifyConfig.Type != "" {
		notifierName = notifyConfig.Type
	}

	switch notifierName {
	case "websocket":
		return NewWebSocketNotifier(ctx, logger, notifyConfig)
	default:
		if creator, exists := customNotifierCreators[notifierName]; exists {
			return creator(notifyConfig.Config)
		}
		return nil, types.Errorf(types.ErrNotifyConfigInvalid, "notifier type: %s", notifierName)
	}
}
