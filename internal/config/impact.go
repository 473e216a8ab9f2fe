package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// ImpactFactors converts idle seats into environmental equivalents.
type ImpactFactors struct {
	// CO2KgPerSeatMonth is the CO2 saved per unused seat per month.
	CO2KgPerSeatMonth float64 `mapstructure:"co2KgPerSeatMonth"`
	// EnergyKWhPerSeatMonth is the energy saved per unused seat per month.
	EnergyKWhPerSeatMonth float64 `mapstructure:"energyKwhPerSeatMonth"`
	// WaterLitersPerSeatMonth is the water saved per unused seat per month.
	WaterLitersPerSeatMonth float64 `mapstructure:"waterLitersPerSeatMonth"`
	// TreeKgCO2PerYear is the CO2 a tree absorbs in a year.
	TreeKgCO2PerYear float64 `mapstructure:"treeKgCo2PerYear"`
	// CarKgCO2PerMile is the CO2 emitted per car mile.
	CarKgCO2PerMile float64 `mapstructure:"carKgCo2PerMile"`
}

func DefaultImpactFactors() ImpactFactors {
	return ImpactFactors{
		CO2KgPerSeatMonth:       0.15,
		EnergyKWhPerSeatMonth:   0.5,
		WaterLitersPerSeatMonth: 2,
		TreeKgCO2PerYear:        20,
		CarKgCO2PerMile:         0.404,
	}
}

type ImpactFactorsHolder struct {
	current atomic.Value // holds ImpactFactors
}

// NewStaticImpactFactorsHolder returns a holder that never reloads.
func NewStaticImpactFactorsHolder(factors ImpactFactors) *ImpactFactorsHolder {
	holder := &ImpactFactorsHolder{}
	holder.current.Store(factors)
	return holder
}

func NewImpactFactorsHolder() (*ImpactFactorsHolder, error) {
	v := viper.New()

	v.SetConfigName("impact")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/seatwise/config")
	v.AddConfigPath("/etc/seatwise")
	v.AddConfigPath(".")

	v.SetEnvPrefix("SEATWISE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultImpactFactors()
	v.SetDefault("impact.co2KgPerSeatMonth", defaults.CO2KgPerSeatMonth)
	v.SetDefault("impact.energyKwhPerSeatMonth", defaults.EnergyKWhPerSeatMonth)
	v.SetDefault("impact.waterLitersPerSeatMonth", defaults.WaterLitersPerSeatMonth)
	v.SetDefault("impact.treeKgCo2PerYear", defaults.TreeKgCO2PerYear)
	v.SetDefault("impact.carKgCo2PerMile", defaults.CarKgCO2PerMile)

	fileLoaded := true
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		fileLoaded = false
	}

	var factors ImpactFactors
	if err := v.UnmarshalKey("impact", &factors); err != nil {
		return nil, err
	}
	if err := validateImpactFactors(factors); err != nil {
		return nil, err
	}

	holder := NewStaticImpactFactorsHolder(factors)
	if !fileLoaded {
		return holder, nil
	}

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated ImpactFactors
		if err := v.UnmarshalKey("impact", &updated); err != nil {
			log.Printf("[impact-config] reload failed: %v", err)
			return
		}
		if err := validateImpactFactors(updated); err != nil {
			log.Printf("[impact-config] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[impact-config] reloaded from %s", e.Name)
	})

	return holder, nil
}

func (h *ImpactFactorsHolder) Get() ImpactFactors {
	if h == nil {
		return DefaultImpactFactors()
	}
	factors, ok := h.current.Load().(ImpactFactors)
	if !ok {
		return DefaultImpactFactors()
	}
	return factors
}

func validateImpactFactors(f ImpactFactors) error {
	if f.CO2KgPerSeatMonth < 0 || f.EnergyKWhPerSeatMonth < 0 || f.WaterLitersPerSeatMonth < 0 {
		return errors.New("impact factors cannot be negative")
	}
	if f.TreeKgCO2PerYear <= 0 {
		return errors.New("impact.treeKgCo2PerYear must be positive")
	}
	if f.CarKgCO2PerMile <= 0 {
		return errors.New("impact.carKgCo2PerMile must be positive")
	}
	return nil
}
