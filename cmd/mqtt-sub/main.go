// Command mqtt-sub connects to a broker, subscribes to a topic
// filter, and prints every delivered message, for manual testing
// against a running broker.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/go-mqttcore/mqttclient"
	"github.com/go-mqttcore/mqttclient/packets"
)

func main() {
	host := flag.String("host", "localhost", "broker host")
	port := flag.Uint("port", 1883, "broker port")
	topic := flag.String("topic", "#", "topic filter to subscribe to")
	qos := flag.Uint("qos", 0, "requested subscribe QoS (0 or 1)")
	clientID := flag.String("client-id", "", "MQTT client id")
	timeout := flag.Duration("timeout", 10*time.Second, "operation timeout")
	flag.Parse()

	opts, err := mqttclient.NewOptionsBuilder().
		SetHost(*host).
		SetPort(uint16(*port)).
		SetClientID(*clientID).
		SetOperationTimeout(*timeout).
		SetKeepAlive(mqttclient.KeepAliveEnabled(30)).
		SetTrace(mqttclient.NewStdTrace(nil)).
		Build()
	if err != nil {
		log.Fatalf("mqtt-sub: invalid options: %v", err)
	}

	connectCtx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	c, err := mqttclient.Connect(connectCtx, opts)
	if err != nil {
		log.Fatalf("mqtt-sub: connect: %v", err)
	}
	defer c.Disconnect(context.Background())

	subCtx, subCancel := context.WithTimeout(context.Background(), *timeout)
	defer subCancel()
	result, err := c.Subscribe(subCtx, []mqttclient.SubscribeRequest{{Topic: *topic, QoS: packets.QoS(*qos)}})
	if err != nil {
		log.Fatalf("mqtt-sub: subscribe: %v", err)
	}
	if result.AnyFailures() {
		log.Fatalf("mqtt-sub: broker refused subscription to %q", *topic)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	log.Printf("mqtt-sub: subscribed to %q, waiting for messages (ctrl-c to stop)", *topic)
	for {
		r, err := c.ReadSubscriptions(ctx)
		if err != nil {
			log.Printf("mqtt-sub: stopped: %v", err)
			return
		}
		log.Printf("mqtt-sub: %s: %s", r.Topic, r.Payload)
	}
}
