package events

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// TopicSession is the default topic session lifecycle events go out on.
const TopicSession = "mastro.session"

// PublisherManager distributes session events to a set of watermill
// publishers. Publishers are subscribed per topic; every published event is
// JSON-serialized and stamped with a monotonically increasing sequence number
// so consumers can detect gaps and reorder.
type PublisherManager struct {
	publishers     map[string][]message.Publisher
	sequenceNumber uint64
	mu             sync.Mutex
}

func NewPublisherManager() *PublisherManager {
	return &PublisherManager{
		publishers: map[string][]message.Publisher{},
	}
}

func (pm *PublisherManager) SubscribePublisher(topic string, pub message.Publisher) {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	pm.publishers[topic] = append(pm.publishers[topic], pub)
}

// Publish distributes an event to all publishers across all topics. The
// fan-out runs concurrently; the first publisher failure is returned after
// all publishers have been given the event.
func (pm *PublisherManager) Publish(evt Event) error {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	b, err := json.Marshal(evt)
	if err != nil {
		return err
	}

	msg := message.NewMessage(watermill.NewUUID(), b)
	msg.Metadata.Set("sequence_number", fmt.Sprintf("%d", pm.sequenceNumber))
	msg.Metadata.Set("event_type", string(evt.Type))
	pm.sequenceNumber++

	g := errgroup.Group{}
	for topic, pubs := range pm.publishers {
		for _, pub := range pubs {
			topic := topic
			pub := pub
			g.Go(func() error {
				if err := pub.Publish(topic, msg); err != nil {
					log.Warn().Err(err).Str("topic", topic).Msg("failed to publish event")
					return err
				}
				return nil
			})
		}
	}

	return g.Wait()
}

// PublishBlind publishes and only logs failures. Session code uses this since
// event distribution must never fail an inference.
func (pm *PublisherManager) PublishBlind(evt Event) {
	if err := pm.Publish(evt); err != nil {
		log.Warn().Err(err).Msg("failed to publish event")
	}
}
