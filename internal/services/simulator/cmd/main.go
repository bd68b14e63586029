package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/LeonardoBeccarini/serosis/internal/services/simulator"
	"github.com/LeonardoBeccarini/serosis/pkg/rabbitmq"
)

func envStr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envFloat(key string, def float64) float64 {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func main() {
	_ = godotenv.Load()

	port := flag.Int("port", envInt("PORT", 5000), "HTTP port")
	sensors := flag.Int("sensors", envInt("SENSOR_COUNT", 3), "number of simulated sensors")
	crop := flag.String("crop", envStr("CROP", "Wheat"), "crop name")
	interval := flag.Duration("interval", time.Duration(envInt("PUSH_INTERVAL_MS", 10000))*time.Millisecond, "push interval")
	lat := flag.Float64("lat", envFloat("LAT", 41.51109), "latitude")
	lon := flag.Float64("lon", envFloat("LON", 12.37007), "longitude")
	soil := flag.Bool("soilgrids", false, "seed moisture from SoilGrids at startup")
	mqttOn := flag.Bool("mqtt", envStr("PUSH_TRANSPORT", "ws") == "mqtt", "also publish pushes over MQTT")
	flag.Parse()

	if lvl, err := logrus.ParseLevel(envStr("LOG_LEVEL", "info")); err == nil {
		logrus.SetLevel(lvl)
	}
	log := logrus.WithField("component", "simulator-main")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	field := simulator.NewField(*sensors, *crop, time.Now().UnixNano())
	if *soil {
		sctx, scancel := context.WithTimeout(ctx, 20*time.Second)
		if m, err := simulator.NewSoilGrids().Moisture(sctx, *lat, *lon); err == nil {
			field.Seed(m)
			log.WithField("moisture", m).Info("seeded from SoilGrids")
		} else {
			log.WithError(err).Warn("SoilGrids unavailable, using default seed")
		}
		scancel()
	}

	var weather simulator.WeatherSource
	if key := envStr("OWM_API_KEY", ""); key != "" {
		weather = simulator.NewOWMClient(key, *lat, *lon)
	}

	var publisher rabbitmq.IPublisher
	if *mqttOn {
		cfg := &rabbitmq.RabbitMQConfig{
			Host:              envStr("RABBITMQ_HOST", "localhost"),
			Port:              envInt("RABBITMQ_PORT", 1883),
			User:              envStr("RABBITMQ_USER", "guest"),
			Password:          envStr("RABBITMQ_PASSWORD", "guest"),
			ClientID:          envStr("HOSTNAME", "serosis-simulator"),
			Exchange:          "dashboard",
			Kind:              "topic",
			ReconnectInterval: 3 * time.Second,
			MaxConnectRetries: 5,
		}
		client, err := rabbitmq.NewRabbitMQConn(cfg, ctx)
		if err != nil {
			log.WithError(err).Fatal("mqtt connection error")
		}
		publisher = rabbitmq.NewPublisher(client, envStr("PUSH_TOPIC", "dashboard/updates"), cfg.Exchange)
	}

	srv := simulator.NewServer(field, weather, publisher)
	hs := &http.Server{
		Addr:              ":" + strconv.Itoa(*port),
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.WithField("event", "listen").Infof("HTTP listening on :%d", *port)
		if err := hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("http server error")
		}
	}()
	go srv.Run(ctx, *interval)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh
	log.Info("shutting down...")
	cancel()

	shCtx, shCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shCancel()
	_ = hs.Shutdown(shCtx)
}
