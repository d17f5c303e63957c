// FilePath: cmd/device/main.go
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fieldsync/tofhub/device"
	"github.com/fieldsync/tofhub/internal/config"
	nuts "github.com/vaudience/go-nuts"
)

func main() {
	nuts.InitVersion()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	nuts.L.Infof("[Main] Starting device agent %s v%s, hub %s",
		cfg.Device.DeviceID, nuts.GetVersion(), cfg.Device.HubURL)

	hub := device.NewClient(cfg.Device.HubURL, cfg.Device.HTTPTimeout)
	sensor := device.NewSimulatedSensor(time.Now().UnixNano())
	agent := device.NewAgent(cfg.Device, hub, sensor)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := agent.Run(ctx); err != nil && err != context.Canceled {
		nuts.L.Errorf("[Main] Agent error: %v", err)
		os.Exit(1)
	}
	nuts.L.Infof("[Main] Device agent stopped")
}
