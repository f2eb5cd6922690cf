package config

import (
	"errors"
	"strings"

	"github.com/asaskevich/govalidator"
	"github.com/golang/glog"
	"github.com/prebid/openrtb/v20/openrtb2"
	"github.com/spf13/viper"

	"github.com/demandsignal/telemetry/analytics/payload"
)

// DataMode selects the payload shape a vendor receives.
const (
	DataModeRaw   = "raw"
	DataModeIndex = "index"
	DataModeBoth  = "both"
)

// Configuration is the full service configuration.
type Configuration struct {
	Host            string   `mapstructure:"host"`
	Port            int      `mapstructure:"port"`
	PublisherID     string   `mapstructure:"publisher_id"`
	ExcludeFields   []string `mapstructure:"exclude_fields"`
	Vendors         []Vendor `mapstructure:"vendors"`
	Content         Content  `mapstructure:"content"`
	Metrics         Metrics  `mapstructure:"metrics"`
	VendorTimeoutMs uint64   `mapstructure:"vendor_timeout_ms"`
}

// Vendor is one configured payload destination.
type Vendor struct {
	Name          string   `mapstructure:"name"`
	Endpoint      string   `mapstructure:"endpoint"`
	DataMode      string   `mapstructure:"data_mode"`
	ExcludeFields []string `mapstructure:"exclude_fields"`
}

// Content is the persisted content descriptor used when an auction carries
// none of its own.
type Content struct {
	Language string   `mapstructure:"language"`
	Keywords []string `mapstructure:"keywords"`
}

// ToORTB returns the descriptor as an OpenRTB content object, nil when the
// descriptor is empty.
func (c Content) ToORTB() *openrtb2.Content {
	if c.Language == "" && len(c.Keywords) == 0 {
		return nil
	}
	return &openrtb2.Content{
		Language: c.Language,
		KwArray:  c.Keywords,
	}
}

// Metrics configures the optional InfluxDB metrics export.
type Metrics struct {
	Host     string `mapstructure:"host"`
	Database string `mapstructure:"database"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// New uses viper to build and validate the service configuration. Invalid
// vendor entries and unknown exclusion fields are dropped with a warning;
// ending up with zero vendors is the only fatal outcome.
func New(v *viper.Viper) (*Configuration, error) {
	var c Configuration
	if err := v.Unmarshal(&c); err != nil {
		return nil, err
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (cfg *Configuration) validate() error {
	cfg.ExcludeFields = filterExcludeFields("global", cfg.ExcludeFields)

	valid := make([]Vendor, 0, len(cfg.Vendors))
	for i := range cfg.Vendors {
		if vendor, ok := validateVendor(cfg.Vendors[i]); ok {
			valid = append(valid, vendor)
		}
	}
	cfg.Vendors = valid

	if len(cfg.Vendors) == 0 {
		return errors.New("no valid vendors configured")
	}
	return nil
}

func validateVendor(vendor Vendor) (Vendor, bool) {
	if vendor.Name == "" {
		glog.Warning("[config] dropping vendor with empty name")
		return vendor, false
	}
	if vendor.Endpoint == "" || !govalidator.IsRequestURL(vendor.Endpoint) {
		glog.Warningf("[config] dropping vendor %s: invalid endpoint %q", vendor.Name, vendor.Endpoint)
		return vendor, false
	}

	switch vendor.DataMode {
	case DataModeRaw, DataModeIndex, DataModeBoth:
	case "":
		vendor.DataMode = DataModeRaw
	default:
		glog.Warningf("[config] vendor %s: unknown data mode %q, defaulting to %s", vendor.Name, vendor.DataMode, DataModeRaw)
		vendor.DataMode = DataModeRaw
	}

	vendor.ExcludeFields = filterExcludeFields(vendor.Name, vendor.ExcludeFields)
	return vendor, true
}

// filterExcludeFields drops names outside the known payload vocabulary so
// typos never reach the dispatch path.
func filterExcludeFields(owner string, fields []string) []string {
	if len(fields) == 0 {
		return fields
	}
	known := make([]string, 0, len(fields))
	for _, field := range fields {
		if payload.IsKnownField(field) {
			known = append(known, field)
		} else {
			glog.Warningf("[config] %s: unknown exclude field %q ignored", owner, field)
		}
	}
	return known
}

// SetupViper establishes defaults and binds environment overrides, following
// the usual server conventions (DST_HOST, DST_VENDOR_TIMEOUT_MS, ...). The
// config file is optional.
func SetupViper(v *viper.Viper, filename string) {
	if filename != "" {
		v.SetConfigName(filename)
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/telemetry")
	}

	v.SetDefault("host", "")
	v.SetDefault("port", 8006)
	v.SetDefault("publisher_id", "")
	v.SetDefault("exclude_fields", []string{})
	v.SetDefault("vendor_timeout_ms", 2000)
	v.SetDefault("metrics.host", "")
	v.SetDefault("metrics.database", "")
	v.SetDefault("metrics.username", "")
	v.SetDefault("metrics.password", "")

	v.SetEnvPrefix("DST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.ReadInConfig(); err != nil && filename != "" {
		glog.Infof("[config] no config file in use: %v", err)
	}
}
