package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Pricing carries the tunable billing parameters. Prices are decimal
// strings so block and fee math stays exact.
type Pricing struct {
	HPCStorageFSName    string `mapstructure:"hpcStorageFsname"`
	StorageBlockSizeGB  int64  `mapstructure:"storageBlockSizeGb"`
	HPCHomeBlockPrice   string `mapstructure:"hpcHomeBlockPrice"`
	NectarNovaVCPUPrice string `mapstructure:"nectarNovaVcpuPrice"`
}

func DefaultPricing() Pricing {
	return Pricing{
		HPCStorageFSName:    "hpchome",
		StorageBlockSizeGB:  250,
		HPCHomeBlockPrice:   "5",
		NectarNovaVCPUPrice: "5",
	}
}

// PricingHolder serves the current pricing config and hot-reloads it
// when the file changes. Invalid reloads are ignored with a log line.
type PricingHolder struct {
	current atomic.Value // holds Pricing
}

func NewPricingHolder() (*PricingHolder, error) {
	v := viper.New()

	v.SetConfigName("pricing")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/chargeview/config")
	v.AddConfigPath("/etc/chargeview")
	v.AddConfigPath(".")

	v.SetEnvPrefix("CHARGEVIEW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultPricing()
	v.SetDefault("pricing.hpcStorageFsname", defaults.HPCStorageFSName)
	v.SetDefault("pricing.storageBlockSizeGb", defaults.StorageBlockSizeGB)
	v.SetDefault("pricing.hpcHomeBlockPrice", defaults.HPCHomeBlockPrice)
	v.SetDefault("pricing.nectarNovaVcpuPrice", defaults.NectarNovaVCPUPrice)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Pricing
	if err := v.UnmarshalKey("pricing", &cfg); err != nil {
		return nil, err
	}
	if err := validatePricing(cfg); err != nil {
		return nil, err
	}

	holder := &PricingHolder{}
	holder.current.Store(cfg)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated Pricing
		if err := v.UnmarshalKey("pricing", &updated); err != nil {
			log.Printf("[pricing-config] reload failed: %v", err)
			return
		}
		if err := validatePricing(updated); err != nil {
			log.Printf("[pricing-config] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[pricing-config] reloaded from %s", e.Name)
	})

	return holder, nil
}

// NewStaticPricingHolder wraps a fixed Pricing, for tests.
func NewStaticPricingHolder(p Pricing) *PricingHolder {
	holder := &PricingHolder{}
	holder.current.Store(p)
	return holder
}

func (h *PricingHolder) Get() Pricing {
	return h.current.Load().(Pricing)
}

func validatePricing(p Pricing) error {
	if strings.TrimSpace(p.HPCStorageFSName) == "" {
		return errors.New("hpcStorageFsname is required")
	}
	if p.StorageBlockSizeGB <= 0 {
		return errors.New("storageBlockSizeGb must be positive")
	}
	if strings.TrimSpace(p.HPCHomeBlockPrice) == "" {
		return errors.New("hpcHomeBlockPrice is required")
	}
	if strings.TrimSpace(p.NectarNovaVCPUPrice) == "" {
		return errors.New("nectarNovaVcpuPrice is required")
	}
	return nil
}
