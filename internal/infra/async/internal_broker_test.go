package async_test

import (
	"context"

	"turret-server/internal/infra/async"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Local Broker", func() {
	var broker *async.LocalBroker
	var topic async.BrokerTopicName
	var subscription async.Subscription
	var ctx context.Context

	BeforeEach(func() {
		broker = async.NewLocalBroker()
		ctx = context.TODO()
	})

	Context("Subscribe", func() {
		When("a message is published to a subscribed topic", func() {
			BeforeEach(func() {
				topic = "actuator_events"
			})

			It("should deliver the message", func() {
				subscription, _ = broker.Subscribe(topic)

				broker.Publish(ctx, topic, async.BrokerMessage{Event: "status_refreshed"})

				Eventually(subscription.Receiver).Should(Receive(And(
					HaveField("Event", "status_refreshed"),
				)))
			})
		})

		When("multiple subscriptors exist", func() {
			var subscription2 async.Subscription

			BeforeEach(func() {
				topic = "actuator_events"
			})

			It("should deliver the message to all of them", func() {
				subscription, _ = broker.Subscribe(topic)
				subscription2, _ = broker.Subscribe(topic)

				broker.Publish(ctx, topic, async.BrokerMessage{})

				Eventually(subscription.Receiver).Should(Receive(&async.BrokerMessage{}))
				Eventually(subscription2.Receiver).Should(Receive(&async.BrokerMessage{}))
			})
		})
	})

	Context("Publish", func() {
		When("the topic has no subscriptors", func() {
			It("should return an error", func() {
				err := broker.Publish(ctx, "unknown", async.BrokerMessage{})

				Expect(err).To(MatchError(async.ErrTopicNotFound))
			})
		})
	})

	Context("Unsubscribe", func() {
		BeforeEach(func() {
			topic = "actuator_events"
			subscription, _ = broker.Subscribe(topic)
		})

		It("should close the receiver channel", func() {
			err := broker.Unsubscribe(topic, subscription)

			Expect(err).NotTo(HaveOccurred())
			Eventually(subscription.Receiver).Should(BeClosed())
		})

		When("the subscription is unknown", func() {
			It("should return an error", func() {
				err := broker.Unsubscribe(topic, async.Subscription{ID: "missing"})

				Expect(err).To(MatchError(async.ErrSubscriptorNotFound))
			})
		})
	})
})
