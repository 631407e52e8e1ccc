// Package config loads worlds and vehicles from JSON descriptions.
//
// Every tunable has a default, so a description only needs what differs
// from a stock car. Each wheel is merged over the vehicle's "wheel"
// template, then over the wheel defaults.
package config

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/viper"
)

var (
	ErrNoWheels          = errors.New("config: vehicle has no wheels")
	ErrWheelEntry        = errors.New("config: wheel entry must be an object")
	ErrUnknownDrive      = errors.New("config: unknown drive")
	ErrUnknownDiff       = errors.New("config: unknown differential")
	ErrUnknownAccuracy   = errors.New("config: unknown clutch accuracy mode")
	ErrUnknownTankModel  = errors.New("config: unknown tank model")
	ErrUnknownUpdateMode = errors.New("config: unknown update mode")
	ErrChassisMass       = errors.New("config: chassis mass must be positive")
)

// Config is a full description file: one world and one vehicle.
type Config struct {
	World   World   `json:"world" mapstructure:"world"`
	Vehicle Vehicle `json:"vehicle" mapstructure:"vehicle"`
}

// Load reads a JSON description.
func Load(r io.Reader) (*Config, error) {
	v := newViper()
	if err := v.ReadConfig(r); err != nil {
		return nil, fmt.Errorf("error reading config: %w", err)
	}
	return decode(v)
}

// LoadFile reads a JSON description from a file.
func LoadFile(path string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}
	return decode(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("json")
	setWorldDefaults(v)
	setVehicleDefaults(v)
	return v
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error decoding config: %w", err)
	}

	wheels, err := decodeWheels(v)
	if err != nil {
		return nil, err
	}
	cfg.Vehicle.Wheels = wheels

	return &cfg, nil
}

// decodeWheels merges each entry of vehicle.wheels over the wheel template.
func decodeWheels(v *viper.Viper) ([]Wheel, error) {
	entries, _ := v.Get("vehicle.wheels").([]any)
	if len(entries) == 0 {
		return nil, ErrNoWheels
	}

	template := v.GetStringMap("vehicle.wheel")
	wheels := make([]Wheel, len(entries))
	for i, entry := range entries {
		fields, ok := entry.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("wheel %d: %w", i, ErrWheelEntry)
		}

		wv := viper.New()
		setWheelDefaults(wv)
		if err := wv.MergeConfigMap(cloneMap(template)); err != nil {
			return nil, fmt.Errorf("wheel %d: %w", i, err)
		}
		if err := wv.MergeConfigMap(fields); err != nil {
			return nil, fmt.Errorf("wheel %d: %w", i, err)
		}
		if err := wv.Unmarshal(&wheels[i]); err != nil {
			return nil, fmt.Errorf("wheel %d: %w", i, err)
		}
	}

	return wheels, nil
}

// cloneMap copies nested maps, since merging keeps references to them.
func cloneMap(m map[string]any) map[string]any {
	clone := make(map[string]any, len(m))
	for key, value := range m {
		if nested, ok := value.(map[string]any); ok {
			value = cloneMap(nested)
		}
		clone[key] = value
	}
	return clone
}

// parseName returns the value whose name matches s, case insensitive.
func parseName[T fmt.Stringer](s string, values []T, notFound error) (T, error) {
	for _, value := range values {
		if strings.EqualFold(value.String(), s) {
			return value, nil
		}
	}

	var zero T
	return zero, fmt.Errorf("%w: %q", notFound, s)
}
