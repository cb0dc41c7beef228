package readings

import (
	"github.com/67070194/TheForecaster-2-PocketEdition-sub001/internal/config"
	"github.com/67070194/TheForecaster-2-PocketEdition-sub001/internal/mqtt"
)

// MessageBroker is the subscription surface of the broker session.
type MessageBroker interface {
	Handle(topic string, h mqtt.HandlerFunc)
	OnConnect(hook func())
}

// registerMQTTHandlers binds the device topics to the service. Handlers must
// be registered before the session connects so the broker cannot deliver
// queued messages into a void.
func registerMQTTHandlers(broker MessageBroker, svc *Service, cfg config.Config) {
	broker.Handle(cfg.DeviceDataTopic(), svc.HandleData)
	broker.Handle(cfg.DeviceStatusTopic(), svc.HandleStatus)
	broker.OnConnect(svc.HandleSessionConnect)
}
