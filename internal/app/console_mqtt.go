// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"github.com/relabs-tech/inertial_simulator/internal/config"
	"github.com/relabs-tech/inertial_simulator/internal/imu"
	"github.com/relabs-tech/inertial_simulator/internal/orientation"
)

// RunConsoleMQTT prints every reading published on the readings topic
// until ctx is cancelled.
func RunConsoleMQTT(ctx context.Context, cfg *config.Config, log *zap.Logger, out io.Writer) error {
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTT.Broker).
		SetClientID(clientID(cfg.MQTT.ClientID + "-console"))

	return runConsole(ctx, mqtt.NewClient(opts), cfg.MQTT.TopicReadings, log.With(zap.String("component", "console")), out)
}

func runConsole(ctx context.Context, client mqtt.Client, topic string, log *zap.Logger, out io.Writer) error {
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("MQTT connect error: %w", token.Error())
	}
	defer client.Disconnect(250)
	log.Info("connected to MQTT broker")

	token := client.Subscribe(topic, 0, readingHandler(out, log))
	token.Wait()
	if token.Error() != nil {
		return fmt.Errorf("MQTT subscribe %s: %w", topic, token.Error())
	}
	log.Info("subscribed to MQTT topic", zap.String("topic", topic))

	<-ctx.Done()
	log.Info("console shutting down")
	return nil
}

func readingHandler(out io.Writer, log *zap.Logger) mqtt.MessageHandler {
	var mu sync.Mutex
	return func(_ mqtt.Client, msg mqtt.Message) {
		var r imu.Reading
		if err := json.Unmarshal(msg.Payload(), &r); err != nil {
			log.Warn("reading unmarshal error", zap.String("topic", msg.Topic()), zap.Error(err))
			return
		}

		mu.Lock()
		defer mu.Unlock()
		PrintReading(out, r)
	}
}

// PrintReading writes the three readouts with two decimals, plus the tilt
// implied by the accelerometer.
func PrintReading(out io.Writer, r imu.Reading) {
	a, g, m := r.Accelerometer, r.Gyroscope, r.Magnetometer
	tilt := orientation.TiltFromAccel(a.X, a.Y, a.Z)

	fmt.Fprintf(out,
		"[ACC]  x=%6.2f y=%6.2f z=%6.2f  tilt ROLL=%6.2f PITCH=%6.2f\n",
		a.X, a.Y, a.Z, tilt.Roll, tilt.Pitch,
	)
	fmt.Fprintf(out,
		"[GYRO] pitch=%6.2f yaw=%6.2f roll=%6.2f\n",
		g.Pitch, g.Yaw, g.Roll,
	)
	fmt.Fprintf(out,
		"[MAG]  x=%6.2f y=%6.2f z=%6.2f\n",
		m.X, m.Y, m.Z,
	)
}
