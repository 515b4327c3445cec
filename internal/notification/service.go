package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"inboxpilot-backend/pkg/metrics"

	"cloud.google.com/go/pubsub"
	"google.golang.org/api/option"
)

// GmailNotification is the payload Gmail publishes to the watch topic.
type GmailNotification struct {
	EmailAddress string          `json:"emailAddress"`
	HistoryID    json.RawMessage `json:"historyId"`
}

// Service receives Gmail watch notifications from Pub/Sub.
type Service struct {
	pubsubClient *pubsub.Client
	intake       *Intake
	topicName    string
	subName      string

	// Pub/Sub delivers at least once; remember the last historyId per mailbox
	// so a redelivery is not dispatched twice.
	mu            sync.Mutex
	lastHistoryID map[string]string
}

func NewService(projectID, topicName, credentialsFile string, intake *Intake) (*Service, error) {
	ctx := context.Background()

	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := pubsub.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create pubsub client: %v", err)
	}
	return newService(client, topicName, intake), nil
}

func newService(client *pubsub.Client, topicName string, intake *Intake) *Service {
	topicName = shortTopic(topicName)
	return &Service{
		pubsubClient:  client,
		intake:        intake,
		topicName:     topicName,
		subName:       topicName + "-sub",
		lastHistoryID: make(map[string]string),
	}
}

// shortTopic accepts either a bare topic id or projects/<p>/topics/<id>.
func shortTopic(topic string) string {
	if i := strings.LastIndex(topic, "/"); i >= 0 {
		return topic[i+1:]
	}
	return topic
}

// Start blocks receiving messages until ctx is done.
func (s *Service) Start(ctx context.Context) {
	log.Printf("[PubSub] Starting notification service with topic: %s, subscription: %s", s.topicName, s.subName)

	sub := s.pubsubClient.Subscription(s.subName)
	exists, err := sub.Exists(ctx)
	if err != nil {
		log.Printf("[PubSub] Error checking subscription existence: %v", err)
		return
	}

	if !exists {
		topic := s.pubsubClient.Topic(s.topicName)
		topicExists, err := topic.Exists(ctx)
		if err != nil {
			log.Printf("[PubSub] Error checking topic existence: %v", err)
			return
		}
		if !topicExists {
			log.Printf("[PubSub] Topic %s does not exist, cannot create subscription", s.topicName)
			return
		}

		sub, err = s.pubsubClient.CreateSubscription(ctx, s.subName, pubsub.SubscriptionConfig{
			Topic:       topic,
			AckDeadline: 10 * time.Second,
		})
		if err != nil {
			log.Printf("[PubSub] Failed to create subscription: %v", err)
			return
		}
		log.Printf("[PubSub] Created subscription: %s", s.subName)
	}

	log.Printf("[PubSub] Listening for messages on subscription: %s", s.subName)
	err = sub.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		s.handleMessage(ctx, msg.Data)
		// unknown and inactive mailboxes are acked too; redelivery would not help
		msg.Ack()
	})
	if err != nil {
		log.Printf("[PubSub] Error receiving messages: %v", err)
	}
}

func (s *Service) Close() error {
	return s.pubsubClient.Close()
}

func (s *Service) handleMessage(ctx context.Context, data []byte) string {
	var notification GmailNotification
	if err := json.Unmarshal(data, &notification); err != nil || notification.EmailAddress == "" {
		log.Printf("[PubSub] Failed to unmarshal notification: %v", err)
		metrics.PushNotification("google", resultMalformed)
		return resultMalformed
	}
	// historyId arrives as a JSON number; keep its decimal text verbatim
	historyID := strings.Trim(string(notification.HistoryID), `"`)
	email := strings.ToLower(notification.EmailAddress)

	s.mu.Lock()
	if s.lastHistoryID[email] == historyID {
		s.mu.Unlock()
		log.Printf("[PubSub] Skipping redelivered notification for %s (historyId %s)", email, historyID)
		metrics.PushNotification("google", resultDuplicate)
		return resultDuplicate
	}
	s.lastHistoryID[email] = historyID
	s.mu.Unlock()

	return s.intake.HandleGmail(ctx, email, historyID)
}
