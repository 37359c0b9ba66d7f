package entity

import (
	"fmt"
	"strings"

	mapv2 "git.fiblab.net/sim/protos/v2/go/city/map/v2"
	"github.com/paulmach/orb"
)

// Approach 进口方向，按车辆从屏幕哪一侧驶入命名
type Approach int32

const (
	West  Approach = 0 // 从左侧驶入，沿+x行驶
	North Approach = 1 // 从上侧驶入，沿+y行驶
	East  Approach = 2 // 从右侧驶入，沿-x行驶
	South Approach = 3 // 从下侧驶入，沿-y行驶

	ApproachCount = 4
)

// Approaches 按编号顺序排列的全部进口方向
var Approaches = []Approach{West, North, East, South}

// Opposite 对向进口
func (a Approach) Opposite() Approach {
	return (a + 2) % ApproachCount
}

// Clockwise 顺时针方向的下一个进口
func (a Approach) Clockwise() Approach {
	return (a + 1) % ApproachCount
}

// Axis 进口所在的轴
func (a Approach) Axis() Axis {
	if a == West || a == East {
		return AxisEastWest
	}
	return AxisNorthSouth
}

func (a Approach) String() string {
	switch a {
	case West:
		return "West"
	case North:
		return "North"
	case East:
		return "East"
	case South:
		return "South"
	}
	return fmt.Sprintf("Approach(%d)", int32(a))
}

// Axis 东西轴或南北轴
type Axis int32

const (
	AxisEastWest   Axis = 0
	AxisNorthSouth Axis = 1
)

// Approaches 轴上的两个进口
func (x Axis) Approaches() [2]Approach {
	if x == AxisEastWest {
		return [2]Approach{West, East}
	}
	return [2]Approach{North, South}
}

// Orthogonal 另一条轴
func (x Axis) Orthogonal() Axis {
	return 1 - x
}

func (x Axis) String() string {
	if x == AxisEastWest {
		return "EastWest"
	}
	return "NorthSouth"
}

// VehicleClass 车型
type VehicleClass int32

const (
	Car   VehicleClass = 0
	Bus   VehicleClass = 1
	Truck VehicleClass = 2
	Bike  VehicleClass = 3

	VehicleClassCount = 4
)

func (c VehicleClass) String() string {
	switch c {
	case Car:
		return "car"
	case Bus:
		return "bus"
	case Truck:
		return "truck"
	case Bike:
		return "bike"
	}
	return fmt.Sprintf("VehicleClass(%d)", int32(c))
}

// ClassCount 各车型的车辆数
type ClassCount [VehicleClassCount]int

// Strategy 信控策略
type Strategy int32

const (
	Antenna Strategy = iota // 周期占有率轮询
	Camera                  // 按车辆数比例分配绿灯
	PIR                     // 主从顺序检测
)

// Strategies 全部信控策略
var Strategies = []Strategy{Antenna, Camera, PIR}

func (s Strategy) String() string {
	switch s {
	case Antenna:
		return "Antenna"
	case Camera:
		return "Camera"
	case PIR:
		return "PIR"
	}
	return fmt.Sprintf("Strategy(%d)", int32(s))
}

// ParseStrategy 解析策略名（大小写不敏感）
func ParseStrategy(name string) (Strategy, error) {
	for _, s := range Strategies {
		if strings.EqualFold(s.String(), name) {
			return s, nil
		}
	}
	return 0, fmt.Errorf("unknown strategy %q, want one of Antenna|Camera|PIR", name)
}

// VehicleView 车辆的只读快照
type VehicleView struct {
	ID        int32
	Class     VehicleClass
	Approach  Approach
	Lane      int32
	Pos       orb.Point // 车头中点
	Heading   float64   // 朝向（度）
	Footprint orb.Bound // 外接矩形
	Crossed   bool
	Turned    bool
}

// SignalView 单个方向信号灯的只读快照
type SignalView struct {
	State           mapv2.LightState
	Red             int32
	Yellow          int32
	Green           int32
	CumulativeGreen int32
}

// Frame 提供给渲染端的一帧只读数据
type Frame struct {
	Strategy Strategy
	Step     int32
	T        float64
	Current  Approach
	Next     Approach
	Signals  [ApproachCount]SignalView
	Crossed  [ApproachCount]int32
	Vehicles []VehicleView
}
