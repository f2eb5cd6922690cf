package main

import (
	"flag"
	"net/http"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/golang/glog"
	gometrics "github.com/rcrowley/go-metrics"
	"github.com/spf13/viper"

	"github.com/demandsignal/telemetry/analytics/pipeline"
	"github.com/demandsignal/telemetry/config"
	"github.com/demandsignal/telemetry/endpoints"
	"github.com/demandsignal/telemetry/metrics"
	"github.com/demandsignal/telemetry/router"
	"github.com/demandsignal/telemetry/server"
)

const configFileName = "telemetry"

func main() {
	flag.Parse() // required for glog flags

	cfg, err := loadConfig()
	if err != nil {
		glog.Exitf("Configuration could not be loaded or did not pass validation: %v", err)
	}

	if err := serve(cfg); err != nil {
		glog.Exitf("telemetry service failed: %v", err)
	}
}

func loadConfig() (*config.Configuration, error) {
	v := viper.New()
	config.SetupViper(v, configFileName)
	return config.New(v)
}

func serve(cfg *config.Configuration) error {
	registry := gometrics.NewPrefixedRegistry("demandsignal.")
	me := metrics.NewMetrics(registry, endpoints.EventTypes(), vendorNames(cfg))
	if cfg.Metrics.Host != "" {
		go me.Export(cfg.Metrics)
	}

	client := &http.Client{
		Timeout: time.Duration(cfg.VendorTimeoutMs) * time.Millisecond,
	}

	module, err := pipeline.NewModule(cfg, client, me, clock.New())
	if err != nil {
		return err
	}
	defer module.Shutdown()

	return server.Listen(cfg, router.New(module, me))
}

func vendorNames(cfg *config.Configuration) []string {
	names := make([]string, 0, len(cfg.Vendors))
	for _, vendor := range cfg.Vendors {
		names = append(names, vendor.Name)
	}
	return names
}
