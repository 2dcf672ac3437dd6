package notify

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/saiset-co/sai-storecache/types"
	"github.com/saiset-co/sai-storecache/utils"
)

type NotifierState int32

const (
	NotifierStateStopped NotifierState = iota
	NotifierStateStarting
	NotifierStateRunning
	NotifierStateStopping
	NotifierStateReconnecting
)

type WebSocketConfig struct {
	URL            string        `json:"url"`
	ReconnectDelay time.Duration `json:"reconnect_delay"`
	MaxRetries     int           `json:"max_retries"`
	PingInterval   time.Duration `json:"ping_interval"`
	PongWait       time.Duration `json:"pong_wait"`
	WriteWait      time.Duration `json:"write_wait"`
}

// WebSocketNotifier pushes invalidation and status-change notifications
// to a relay so other back-office nodes can react. Delivery is best
// effort: a full send queue drops the message rather than blocking the
// mutation path.
type WebSocketNotifier struct {
	ctx               context.Context
	cancel            context.CancelFunc
	logger            types.Logger
	config            *WebSocketConfig
	conn              *websocket.Conn
	connMu            sync.RWMutex
	send              chan *types.NotificationMessage
	reconnectCh       chan struct{}
	state             atomic.Value
	shutdownTimeout   time.Duration
	reconnectAttempts int32
}

func NewWebSocketNotifier(ctx context.Context, logger types.Logger, config *types.NotifyConfig) (types.Notifier, error) {
	wsConfig := &WebSocketConfig{
		URL:            "ws://localhost:8081/ws",
		ReconnectDelay: 5 * time.Second,
		MaxRetries:     10,
		PingInterval:   54 * time.Second,
		PongWait:       60 * time.Second,
		WriteWait:      10 * time.Second,
	}

	if config.Config != nil {
		err := utils.UnmarshalConfig(config.Config, wsConfig)
		if err != nil {
			return nil, types.WrapError(err, "failed to unmarshal WebSocket config")
		}
	}

	notifierCtx, cancel := context.WithCancel(ctx)

	notifier := &WebSocketNotifier{
		ctx:             notifierCtx,
		cancel:          cancel,
		logger:          logger,
		config:          wsConfig,
		send:            make(chan *types.NotificationMessage, 256),
		reconnectCh:     make(chan struct{}, 1),
		shutdownTimeout: 10 * time.Second,
	}

	notifier.state.Store(NotifierStateStopped)

	logger.Info("WebSocket notifier initialized",
		zap.String("url", wsConfig.URL),
		zap.Duration("reconnect_delay", wsConfig.ReconnectDelay),
		zap.Int("max_retries", wsConfig.MaxRetries))

	return notifier, nil
}

func (w *WebSocketNotifier) Publish(topic string, payload interface{}) error {
	if topic == "" {
		return types.ErrNotifyConfigInvalid
	}

	if !w.IsRunning() {
		return types.ErrNotifyNotInitialized
	}

	message := &types.NotificationMessage{
		Topic:     topic,
		Payload:   payload,
		Timestamp: time.Now(),
		Source:    "storecache-notifier",
		MessageID: uuid.NewString(),
	}

	select {
	case w.send <- message:
		w.logger.Debug("Notification queued",
			zap.String("topic", topic),
			zap.String("message_id", message.MessageID))
		return nil
	case <-w.ctx.Done():
		return types.ErrNotifyNotInitialized
	default:
		w.logger.Error("Send channel is full, dropping notification",
			zap.String("topic", topic),
			zap.String("message_id", message.MessageID))
		return types.ErrNotifyPublishFailed
	}
}

func (w *WebSocketNotifier) Start() error {
	if !w.transitionState(NotifierStateStopped, NotifierStateStarting) {
		return types.ErrNotifyIsRunning
	}

	defer func() {
		if w.getState() == NotifierStateStarting {
			w.setState(NotifierStateRunning)
		}
	}()

	if err := w.connect(); err != nil {
		w.setState(NotifierStateStopped)
		w.logger.Error("Failed to establish initial connection", zap.Error(err))
		return types.WrapError(err, "failed to establish initial connection")
	}

	go w.readPump()
	go w.writePump()
	go w.reconnectLoop()

	w.logger.Info("WebSocket notifier started successfully")
	return nil
}

func (w *WebSocketNotifier) Stop() error {
	if !w.transitionState(NotifierStateRunning, NotifierStateStopping) &&
		!w.transitionState(NotifierStateReconnecting, NotifierStateStopping) {
		return types.ErrNotifyNotInitialized
	}

	defer func() {
		w.setState(NotifierStateStopped)
		w.cancel()
	}()

	w.connMu.Lock()
	if w.conn != nil {
		if err := w.conn.Close(); err != nil {
			w.logger.Error("Failed to close connection", zap.Error(err))
		}
		w.conn = nil
	}
	w.connMu.Unlock()

	w.logger.Info("WebSocket notifier stopped")
	return nil
}

func (w *WebSocketNotifier) IsRunning() bool {
	state := w.getState()
	return state == NotifierStateRunning || state == NotifierStateReconnecting
}

func (w *WebSocketNotifier) getState() NotifierState {
	return w.state.Load().(NotifierState)
}

func (w *WebSocketNotifier) setState(newState NotifierState) bool {
	currentState := w.getState()
	return w.state.CompareAndSwap(currentState, newState)
}

func (w *WebSocketNotifier) transitionState(from, to NotifierState) bool {
	return w.state.CompareAndSwap(from, to)
}

func (w *WebSocketNotifier) connect() error {
	w.logger.Debug("Attempting to connect to WebSocket relay",
		zap.String("url", w.config.URL))

	dialCtx, cancel := context.WithTimeout(w.ctx, 10*time.Second)
	defer cancel()

	dialer := websocket.DefaultDialer
	conn, _, err := dialer.DialContext(dialCtx, w.config.URL, nil)
	if err != nil {
		return types.WrapError(err, "failed to dial WebSocket relay")
	}

	w.connMu.Lock()
	if w.conn != nil {
		_ = w.conn.Close()
	}
	w.conn = conn
	w.connMu.Unlock()

	_ = conn.SetReadDeadline(time.Now().Add(w.config.PongWait))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(w.config.PongWait))
		return nil
	})

	atomic.StoreInt32(&w.reconnectAttempts, 0)

	w.logger.Info("Connected to WebSocket relay")
	return nil
}

func (w *WebSocketNotifier) reconnectLoop() {
	defer w.logger.Debug("Reconnect loop stopped")

	for {
		select {
		case <-w.ctx.Done():
			return
		case <-w.reconnectCh:
			if !w.IsRunning() {
				return
			}

			if w.getState() == NotifierStateRunning {
				w.setState(NotifierStateReconnecting)
			}

			retryCount := atomic.LoadInt32(&w.reconnectAttempts)

			w.logger.Info("Starting reconnection attempt",
				zap.Int32("attempt", retryCount+1),
				zap.Int("max_retries", w.config.MaxRetries))

			if int(retryCount) >= w.config.MaxRetries {
				w.logger.Error("Max reconnection attempts reached, stopping notifier")

				if w.transitionState(NotifierStateReconnecting, NotifierStateStopping) {
					w.cancel()
				}
				return
			}

			select {
			case <-time.After(w.config.ReconnectDelay):
			case <-w.ctx.Done():
				return
			}

			atomic.AddInt32(&w.reconnectAttempts, 1)

			if err := w.connect(); err != nil {
				w.logger.Error("Reconnection attempt failed",
					zap.Int32("attempt", atomic.LoadInt32(&w.reconnectAttempts)),
					zap.Error(err))

				w.safeReconnectTrigger()
				continue
			}

			w.setState(NotifierStateRunning)
			w.logger.Info("Reconnected to WebSocket relay")

			go w.readPump()
		}
	}
}

func (w *WebSocketNotifier) safeReconnectTrigger() {
	select {
	case w.reconnectCh <- struct{}{}:
	case <-w.ctx.Done():
	default:
	}
}

// readPump keeps control frames flowing. Incoming data frames are
// discarded, this side of the relay only publishes.
func (w *WebSocketNotifier) readPump() {
	defer w.logger.Debug("Read pump stopped")

	for {
		select {
		case <-w.ctx.Done():
			return
		default:
			if !w.IsRunning() {
				return
			}

			success := w.withConnection(func(conn *websocket.Conn) error {
				_, _, err := conn.ReadMessage()
				if err != nil {
					if websocket.IsCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
						w.logger.Debug("WebSocket connection closed", zap.Error(err))
					}
					return err
				}
				return nil
			})

			if !success && w.IsRunning() {
				w.safeReconnectTrigger()
				return
			}
		}
	}
}

func (w *WebSocketNotifier) writePump() {
	ticker := time.NewTicker(w.config.PingInterval)
	defer func() {
		ticker.Stop()
		w.logger.Debug("Write pump stopped")
	}()

	for {
		select {
		case <-w.ctx.Done():
			return
		case message, ok := <-w.send:
			if !ok {
				return
			}

			if !w.IsRunning() {
				w.logger.Debug("Dropping notification, notifier stopping",
					zap.String("topic", message.Topic))
				return
			}

			success := w.withConnection(func(conn *websocket.Conn) error {
				_ = conn.SetWriteDeadline(time.Now().Add(w.config.WriteWait))

				data, err := utils.Marshal(message)
				if err != nil {
					w.logger.Error("Failed to marshal notification",
						zap.Error(err),
						zap.String("topic", message.Topic))
					return nil
				}

				if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
					return err
				}

				w.logger.Debug("Notification sent",
					zap.String("topic", message.Topic),
					zap.String("message_id", message.MessageID))
				return nil
			})

			if !success && w.IsRunning() {
				w.safeReconnectTrigger()
			}

		case <-ticker.C:
			if !w.IsRunning() {
				return
			}

			success := w.withConnection(func(conn *websocket.Conn) error {
				_ = conn.SetWriteDeadline(time.Now().Add(w.config.WriteWait))
				return conn.WriteMessage(websocket.PingMessage, nil)
			})

			if !success && w.IsRunning() {
				w.safeReconnectTrigger()
			}
		}
	}
}

func (w *WebSocketNotifier) withConnection(fn func(*websocket.Conn) error) bool {
	w.connMu.RLock()
	defer w.connMu.RUnlock()

	if w.conn == nil {
		return false
	}

	if err := fn(w.conn); err != nil {
		w.logger.Error("WebSocket operation failed", zap.Error(err))
		return false
	}

	return true
}
