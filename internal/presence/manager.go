package presence

import (
	"log/slog"
	"sync"
	"time"
)

// Status tokens published to the viewer status topic. The device publishes
// the same tokens on its own status topic, so these strings are part of the
// broker contract and must not change.
const (
	TokenOnline  = "online"
	TokenOffline = "offline"
)

const pingPayload = "1"

// DefaultHeartbeatEvery is the liveness ping period while live data is shown.
const DefaultHeartbeatEvery = 20 * time.Second

// Publisher is the outbound half of the broker session the manager needs.
type Publisher interface {
	Publish(topic string, payload []byte, retained bool) error
}

// Manager announces this viewer's liveness: a retained online/offline status
// plus a periodic heartbeat ping while live data is displayed. It owns its
// heartbeat goroutine; Stop publishes the final offline exactly once, no
// matter how many shutdown paths race to call it.
type Manager struct {
	pub         Publisher
	logger      *slog.Logger
	statusTopic string
	pingTopic   string
	every       time.Duration

	mu       sync.Mutex
	live     bool
	stopped  bool
	stopPing chan struct{}

	offlineOnce sync.Once
}

// NewManager returns a manager publishing to the given viewer topics. An
// every of zero or less falls back to DefaultHeartbeatEvery.
func NewManager(pub Publisher, logger *slog.Logger, statusTopic, pingTopic string, every time.Duration) *Manager {
	if every <= 0 {
		every = DefaultHeartbeatEvery
	}
	return &Manager{
		pub:         pub,
		logger:      logger,
		statusTopic: statusTopic,
		pingTopic:   pingTopic,
		every:       every,
	}
}

// HandleConnect re-publishes the retained status on every broker connect and
// reconnect, so the retained value always reflects the current mode even
// across reconnect storms.
func (m *Manager) HandleConnect() {
	m.mu.Lock()
	live := m.live
	stopped := m.stopped
	m.mu.Unlock()
	if stopped {
		return
	}
	if live {
		m.publishStatus(TokenOnline)
	} else {
		m.publishStatus(TokenOffline)
	}
}

// SetLive switches the viewer between the live-data view and everything else.
// Entering live publishes retained online and starts the heartbeat; leaving
// publishes retained offline and stops it. Exactly one heartbeat goroutine
// exists at any time.
func (m *Manager) SetLive(live bool) {
	m.mu.Lock()
	if m.stopped || m.live == live {
		m.mu.Unlock()
		return
	}
	m.live = live
	if live {
		m.startHeartbeatLocked()
	} else {
		m.stopHeartbeatLocked()
	}
	m.mu.Unlock()

	if live {
		m.publishStatus(TokenOnline)
	} else {
		m.publishStatus(TokenOffline)
	}
}

// Live reports whether the viewer is on the live-data view.
func (m *Manager) Live() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.live
}

// Stop halts the heartbeat and publishes the graceful retained offline.
// Idempotent: repeated calls publish offline only once.
func (m *Manager) Stop() {
	m.mu.Lock()
	m.stopped = true
	m.stopHeartbeatLocked()
	m.mu.Unlock()

	m.offlineOnce.Do(func() {
		m.publishStatus(TokenOffline)
	})
}

func (m *Manager) startHeartbeatLocked() {
	m.stopHeartbeatLocked()
	stop := make(chan struct{})
	m.stopPing = stop
	go m.heartbeat(stop)
}

func (m *Manager) stopHeartbeatLocked() {
	if m.stopPing != nil {
		close(m.stopPing)
		m.stopPing = nil
	}
}

func (m *Manager) heartbeat(stop <-chan struct{}) {
	ticker := time.NewTicker(m.every)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if err := m.pub.Publish(m.pingTopic, []byte(pingPayload), false); err != nil {
				m.logger.Warn("heartbeat ping failed", "topic", m.pingTopic, "error", err)
			}
		}
	}
}

func (m *Manager) publishStatus(token string) {
	if err := m.pub.Publish(m.statusTopic, []byte(token), true); err != nil {
		m.logger.Warn("presence publish failed", "topic", m.statusTopic, "status", token, "error", err)
		return
	}
	m.logger.Debug("presence published", "topic", m.statusTopic, "status", token)
}
