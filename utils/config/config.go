package config

import (
	"errors"
	"fmt"

	"github.com/samber/lo"
	"gopkg.in/yaml.v2"
)

var (
	ErrInvalidConfig = errors.New("invalid config")
)

// Presets 流量预设对应的累积权重
var Presets = map[string][]float64{
	"light":  {100, 200, 225, 250},
	"medium": {200, 400, 450, 500},
	"heavy":  {400, 800, 900, 1000},
}

// Default 返回默认配置
// 功能：提供一份完整可运行的配置，对应单个十字路口的屏幕模型
func Default() Config {
	return Config{
		Control: Control{
			Step:     ControlStep{Start: 0, Total: 300, Interval: 1},
			Substeps: 60,
			Seed:     0,

			HeartbeatInterval: 100,
		},
		Vehicle: Vehicle{
			Car:          VehicleClass{Speed: 2.25, CrossTime: 2, Length: 40, Width: 20},
			Bus:          VehicleClass{Speed: 1.8, CrossTime: 2.5, Length: 70, Width: 26},
			Truck:        VehicleClass{Speed: 1.8, CrossTime: 2.5, Length: 65, Width: 26},
			Bike:         VehicleClass{Speed: 2.5, CrossTime: 1, Length: 25, Width: 12},
			Gap:          15,
			RotationStep: 3,
			ExitMargin:   100,
		},
		Arrival: Arrival{
			Period:          0.75,
			Weights:         []float64{400, 800, 900, 1000},
			TurnProbability: 0.75,
		},
		Signal: Signal{DefaultRed: 150, Yellow: 5},
		Antenna: Antenna{
			MaxGreen:       180,
			MinGreen:       60,
			SampleInterval: 1,
			Zones: []Zone{
				{X: 20, Y: 330, W: 340, H: 100},
				{X: 705, Y: 20, W: 100, H: 160},
				{X: 1030, Y: 430, W: 340, H: 105},
				{X: 595, Y: 690, W: 100, H: 210},
			},
		},
		Camera: Camera{
			DefaultGreen:     20,
			MinGreen:         10,
			MaxGreen:         60,
			Lookahead:        5,
			LanesPerApproach: 2,
		},
		PIR: PIR{
			MaxGreen: 180,
			MinGreen: 60,
			Zones: []Zone{
				{X: 360, Y: 330, W: 10, H: 100},
				{X: 705, Y: 170, W: 100, H: 10},
				{X: 1030, Y: 430, W: 10, H: 105},
				{X: 595, Y: 690, W: 100, H: 10},
			},
		},
		Output: Output{
			File: "simulation_data.json",
			DB:   "dynlight",
			Col:  "results",
		},
	}
}

// Load 从YAML数据中解析配置
// 功能：在默认配置之上严格解析YAML，应用流量预设并校验
// 参数：data-YAML文件内容
// 返回：解析后的配置与错误
func Load(data []byte) (Config, error) {
	c := Default()
	if err := yaml.UnmarshalStrict(data, &c); err != nil {
		return c, fmt.Errorf("config unmarshal: %w", err)
	}
	if err := c.ApplyPreset(); err != nil {
		return c, err
	}
	if err := c.Validate(); err != nil {
		return c, err
	}
	return c, nil
}

// ApplyPreset 若设置了流量预设，用预设覆盖累积权重
func (c *Config) ApplyPreset() error {
	if c.Arrival.Preset == "" {
		return nil
	}
	w, ok := Presets[c.Arrival.Preset]
	if !ok {
		return fmt.Errorf("%w: unknown arrival preset %q, want one of %v", ErrInvalidConfig, c.Arrival.Preset, lo.Keys(Presets))
	}
	c.Arrival.Weights = append([]float64(nil), w...)
	return nil
}

// Validate 校验配置
// 功能：快速失败地检查所有取值，错误均包装ErrInvalidConfig
// 返回：第一个发现的错误
func (c Config) Validate() error {
	invalid := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
	}
	if c.Control.Step.Total <= 0 {
		return invalid("control.step.total must be positive, got %d", c.Control.Step.Total)
	}
	if c.Control.Step.Interval <= 0 {
		return invalid("control.step.interval must be positive, got %v", c.Control.Step.Interval)
	}
	if c.Control.Substeps <= 0 {
		return invalid("control.substeps must be positive, got %d", c.Control.Substeps)
	}
	if c.Control.HeartbeatInterval <= 0 {
		return invalid("control.heartbeat_interval must be positive, got %d", c.Control.HeartbeatInterval)
	}
	for i, vc := range c.Vehicle.Classes() {
		if vc.Speed <= 0 || vc.Length <= 0 || vc.Width <= 0 || vc.CrossTime < 0 {
			return invalid("vehicle class %d has non-positive attributes: %+v", i, vc)
		}
	}
	if c.Vehicle.Gap < 0 {
		return invalid("vehicle.gap must not be negative")
	}
	if c.Vehicle.RotationStep <= 0 || 90/c.Vehicle.RotationStep != float64(int(90/c.Vehicle.RotationStep)) {
		return invalid("vehicle.rotation_step must divide 90, got %v", c.Vehicle.RotationStep)
	}
	if c.Arrival.Period <= 0 {
		return invalid("arrival.period must be positive, got %v", c.Arrival.Period)
	}
	if len(c.Arrival.Weights) != 4 {
		return invalid("arrival.weights needs 4 cumulative bounds, got %d", len(c.Arrival.Weights))
	}
	prev := 0.
	for _, w := range c.Arrival.Weights {
		if w < prev {
			return invalid("arrival.weights must be non-decreasing: %v", c.Arrival.Weights)
		}
		prev = w
	}
	if prev <= 0 {
		return invalid("arrival.weights last bound must be positive: %v", c.Arrival.Weights)
	}
	if c.Arrival.TurnProbability < 0 || c.Arrival.TurnProbability > 1 {
		return invalid("arrival.turn_probability must be in [0,1], got %v", c.Arrival.TurnProbability)
	}
	if c.Signal.DefaultRed <= 0 || c.Signal.Yellow <= 0 {
		return invalid("signal timers must be positive: %+v", c.Signal)
	}
	if c.Antenna.MinGreen <= 0 || c.Antenna.MinGreen > c.Antenna.MaxGreen {
		return invalid("antenna requires 0 < min_green <= max_green: %d %d", c.Antenna.MinGreen, c.Antenna.MaxGreen)
	}
	if c.Antenna.SampleInterval <= 0 {
		return invalid("antenna.sample_interval must be positive")
	}
	if len(c.Antenna.Zones) != 4 || len(c.PIR.Zones) != 4 {
		return invalid("antenna and pir need 4 zones each")
	}
	if c.Camera.MinGreen <= 0 || c.Camera.MinGreen > c.Camera.MaxGreen {
		return invalid("camera requires 0 < min_green <= max_green: %d %d", c.Camera.MinGreen, c.Camera.MaxGreen)
	}
	if c.Camera.DefaultGreen < c.Camera.MinGreen || c.Camera.DefaultGreen > c.Camera.MaxGreen {
		return invalid("camera.default_green must lie in [min_green, max_green]")
	}
	if c.Camera.Lookahead <= 0 || c.Camera.LanesPerApproach <= 0 {
		return invalid("camera.lookahead and camera.lanes_per_approach must be positive")
	}
	if c.PIR.MinGreen <= 0 || c.PIR.MinGreen > c.PIR.MaxGreen {
		return invalid("pir requires 0 < min_green <= max_green: %d %d", c.PIR.MinGreen, c.PIR.MaxGreen)
	}
	return nil
}
