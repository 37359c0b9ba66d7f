package trafficlight

import (
	"fmt"
	"math"

	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/dynlight-sim/entity"
	"github.com/tsinghua-fib-lab/dynlight-sim/utils/config"
)

// GreenTime 按未通过车辆的加权数量计算绿灯时长
// 功能：greenTime = ceil(Σ 车辆数·通过时间 / (车道数+1))，并截断到[MinGreen, MaxGreen]
// 参数：count-各车型未通过车辆数，classes-车型属性（按车型枚举顺序），conf-比例分配配置
func GreenTime(count entity.ClassCount, classes []config.VehicleClass, conf config.Camera) int32 {
	total := 0.
	for i, n := range count {
		total += float64(n) * classes[i].CrossTime
	}
	g := int32(math.Ceil(total / float64(conf.LanesPerApproach+1)))
	return lo.Clamp(g, conf.MinGreen, conf.MaxGreen)
}

// ProportionalController 按比例分配绿灯策略（Camera）
// 功能：顺时针轮换；下一方向红灯剩余lookahead时启动一次计数，按其未通过车辆计算绿灯时长
// 说明：计数在runner中执行，读取车道登记表的不可变快照，结果带周期号写回Bank，晚到则被丢弃
type ProportionalController struct {
	bank    *Bank
	source  ISnapshotSource
	runner  IRunner
	conf    config.Camera
	classes []config.VehicleClass

	launched int64 // 最近一次启动计数的周期数
}

// NewProportionalController 创建比例分配策略
// 参数：signal-公共信号配置，conf-比例分配配置，classes-车型属性，source-快照来源，runner-计数执行方式
func NewProportionalController(
	signal config.Signal, conf config.Camera, classes []config.VehicleClass,
	source ISnapshotSource, runner IRunner,
) (*ProportionalController, error) {
	if conf.MinGreen <= 0 || conf.MinGreen > conf.MaxGreen || conf.LanesPerApproach <= 0 || conf.Lookahead <= 0 {
		return nil, fmt.Errorf("%w: camera bounds %+v", config.ErrInvalidConfig, conf)
	}
	if len(classes) != entity.VehicleClassCount {
		return nil, fmt.Errorf("%w: camera needs %d vehicle classes, got %d", config.ErrInvalidConfig, entity.VehicleClassCount, len(classes))
	}
	return &ProportionalController{
		bank: NewBank(Timing{
			Red: signal.DefaultRed, Yellow: signal.Yellow,
			Green: conf.DefaultGreen, MinGreen: conf.MinGreen, MaxGreen: conf.MaxGreen,
		}),
		source:   source,
		runner:   runner,
		conf:     conf,
		classes:  classes,
		launched: -1,
	}, nil
}

func (c *ProportionalController) Strategy() entity.Strategy { return entity.Camera }
func (c *ProportionalController) Bank() *Bank               { return c.bank }

// State 最近一次启动计数的周期
func (c *ProportionalController) State() string {
	if c.launched < 0 {
		return "census idle"
	}
	return fmt.Sprintf("census launched in cycle %d", c.launched)
}

// Decide 下一方向红灯剩余不超过lookahead且本周期尚未计数时，启动一次计数
func (c *ProportionalController) Decide(step int32) {
	next := c.bank.Next()
	cycle := c.bank.Cycle()
	if c.launched == cycle || c.bank.Signal(next).Red > c.conf.Lookahead {
		return
	}
	c.launched = cycle
	c.runner.Go(func() {
		count := c.source.Snapshot().Uncrossed[next]
		g := GreenTime(count, c.classes, c.conf)
		log.Debugf("camera census for %v in cycle %d: %v -> green %d", next, cycle, count, g)
		c.bank.SetGreen(cycle, next, g)
	})
}
