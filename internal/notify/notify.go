package notify

import (
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	log "github.com/sirupsen/logrus"

	"github.com/induspec/plant-maintenance/internal/models"
	"github.com/induspec/plant-maintenance/internal/outbox"
)

// Publisher pushes maintenance events onto the plant MQTT bus so shop
// floor panels can react without polling the API. A nil Publisher is
// valid and drops every publish, which keeps the broker optional.
type Publisher struct {
	client mqtt.Client
	prefix string
	log    *log.Entry
}

// Connect dials the broker and returns a publisher, or an error when
// the broker is unreachable. prefix namespaces every topic, e.g.
// "plant/maintenance".
func Connect(broker, clientID, prefix string) (*Publisher, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectTimeout(5 * time.Second)

	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		log.WithError(err).Warn("MQTT connection lost")
	}

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("connecting to MQTT broker %s: %w", broker, token.Error())
	}

	return &Publisher{
		client: client,
		prefix: prefix,
		log:    log.WithField("component", "notify"),
	}, nil
}

// OrderSaved announces a work-order save with its resulting status.
func (p *Publisher) OrderSaved(order models.WorkOrder) {
	if p == nil {
		return
	}
	p.publish(fmt.Sprintf("%s/workorders/%s", p.prefix, order.ID), map[string]interface{}{
		"id":           order.ID,
		"equipment_id": order.EquipmentID,
		"status":       order.Status,
		"version":      order.Version,
	})
}

// OrderDeleted announces a work-order removal.
func (p *Publisher) OrderDeleted(orderID string) {
	if p == nil {
		return
	}
	p.publish(fmt.Sprintf("%s/workorders/%s", p.prefix, orderID), map[string]interface{}{
		"id":      orderID,
		"deleted": true,
	})
}

// SyncStatus announces a change of the store synchronizer state.
func (p *Publisher) SyncStatus(status outbox.Status) {
	if p == nil {
		return
	}
	p.publish(p.prefix+"/sync", map[string]interface{}{
		"status": status,
		"at":     time.Now().UTC().Format(time.RFC3339),
	})
}

// LowStock announces a part that dropped to or below its minimum.
func (p *Publisher) LowStock(part models.SparePart) {
	if p == nil {
		return
	}
	p.publish(p.prefix+"/inventory/low", map[string]interface{}{
		"part_id":       part.ID,
		"name":          part.Name,
		"current_stock": part.CurrentStock,
		"min_stock":     part.MinStock,
	})
}

func (p *Publisher) publish(topic string, payload interface{}) {
	if p.client == nil {
		return
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		p.log.WithError(err).Error("Failed to encode MQTT payload")
		return
	}
	token := p.client.Publish(topic, 0, false, raw)
	go func() {
		if token.Wait() && token.Error() != nil {
			p.log.WithError(token.Error()).WithField("topic", topic).Warn("MQTT publish failed")
		}
	}()
}

// Close disconnects from the broker.
func (p *Publisher) Close() {
	if p == nil || p.client == nil {
		return
	}
	p.client.Disconnect(250)
}
