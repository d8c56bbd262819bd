// Command mqtt-pub connects to a broker and publishes a single
// message, for manual testing against a running broker.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/go-mqttcore/mqttclient"
	"github.com/go-mqttcore/mqttclient/packets"
)

func main() {
	host := flag.String("host", "localhost", "broker host")
	port := flag.Uint("port", 1883, "broker port")
	topic := flag.String("topic", "", "topic to publish to")
	payload := flag.String("payload", "", "message payload")
	qos := flag.Uint("qos", 0, "publish QoS (0 or 1)")
	retain := flag.Bool("retain", false, "set the RETAIN flag")
	clientID := flag.String("client-id", "", "MQTT client id")
	timeout := flag.Duration("timeout", 10*time.Second, "operation timeout")
	flag.Parse()

	if *topic == "" {
		log.Fatal("mqtt-pub: -topic is required")
	}

	opts, err := mqttclient.NewOptionsBuilder().
		SetHost(*host).
		SetPort(uint16(*port)).
		SetClientID(*clientID).
		SetOperationTimeout(*timeout).
		SetTrace(mqttclient.NewStdTrace(nil)).
		Build()
	if err != nil {
		log.Fatalf("mqtt-pub: invalid options: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	c, err := mqttclient.Connect(ctx, opts)
	if err != nil {
		log.Fatalf("mqtt-pub: connect: %v", err)
	}
	defer c.Disconnect(context.Background())

	msg := mqttclient.NewPublish(*topic, []byte(*payload)).
		SetQoS(packets.QoS(*qos)).
		SetRetain(*retain)

	if err := c.Publish(ctx, msg); err != nil {
		log.Fatalf("mqtt-pub: publish: %v", err)
	}
	log.Printf("mqtt-pub: published to %q", *topic)
}
