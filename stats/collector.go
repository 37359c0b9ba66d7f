package stats

import (
	mapv2 "git.fiblab.net/sim/protos/v2/go/city/map/v2"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"github.com/tsinghua-fib-lab/dynlight-sim/entity"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/floats/scalar"
	"gonum.org/v1/gonum/stat"
)

var log = logrus.WithField("module", "stats")

// Collector 统计收集器
// 功能：每步累计各方向等待计数与排队车辆·秒，运行结束时生成Report
// 说明：只在主循环goroutine中调用
type Collector struct {
	strategy entity.Strategy
	dt       float64

	ticks  int32
	wait   []float64 // 各方向等待计数（步）
	queued []float64 // 各方向红灯/黄灯下未通过车辆的车辆·秒
}

func New(strategy entity.Strategy, dt float64) *Collector {
	return &Collector{
		strategy: strategy,
		dt:       dt,
		wait:     make([]float64, entity.ApproachCount),
		queued:   make([]float64, entity.ApproachCount),
	}
}

// Observe 观察一步
// 功能：当前方向剩余绿灯或黄灯非零时，四个方向的等待计数均+1；
// 非绿灯方向的未通过车辆数按dt累计到排队车辆·秒
// 参数：activeRemaining-当前方向剩余绿灯或黄灯，signals-信号灯快照，uncrossed-各方向未通过车辆数
func (c *Collector) Observe(
	activeRemaining int32,
	signals [entity.ApproachCount]entity.SignalView,
	uncrossed [entity.ApproachCount]entity.ClassCount,
) {
	c.ticks++
	if activeRemaining != 0 {
		floats.AddConst(1, c.wait)
	}
	for _, a := range entity.Approaches {
		if signals[a].State == mapv2.LightState_LIGHT_STATE_GREEN {
			continue
		}
		c.queued[a] += float64(lo.Sum(uncrossed[a][:])) * c.dt
	}
}

// Ticks 已观察的步数
func (c *Collector) Ticks() int32 {
	return c.ticks
}

// Report 一次运行的统计结果
type Report struct {
	Strategy          entity.Strategy
	Ticks             int32
	SimulationSeconds float64

	WaitTicks       [entity.ApproachCount]float64
	AverageWaitTime float64 // 分钟，保留3位小数

	Crossed      [entity.ApproachCount]int32
	LaneCrossed  [entity.ApproachCount][3]int32
	TotalCrossed int32
	Throughput   float64 // 辆/秒
	EastWest     int32
	NorthSouth   int32

	QueuedSeconds     [entity.ApproachCount]float64
	MeanQueuedSeconds float64
}

// Report 生成统计结果
// 功能：averageWaitTime = round(Σ等待计数 / 60 / 4, 3)，throughput = 通过总数 / 仿真秒数
// 参数：crossed-各方向通过数，laneCrossed-各车道通过数，seconds-仿真总秒数
func (c *Collector) Report(
	crossed [entity.ApproachCount]int32,
	laneCrossed [entity.ApproachCount][3]int32,
	seconds float64,
) Report {
	r := Report{
		Strategy:          c.strategy,
		Ticks:             c.ticks,
		SimulationSeconds: seconds,
		AverageWaitTime:   scalar.Round(floats.Sum(c.wait)/60/entity.ApproachCount, 3),
		Crossed:           crossed,
		LaneCrossed:       laneCrossed,
		TotalCrossed:      lo.Sum(crossed[:]),
		EastWest:          crossed[entity.West] + crossed[entity.East],
		NorthSouth:        crossed[entity.North] + crossed[entity.South],
		MeanQueuedSeconds: stat.Mean(c.queued, nil),
	}
	copy(r.WaitTicks[:], c.wait)
	copy(r.QueuedSeconds[:], c.queued)
	if seconds > 0 {
		r.Throughput = float64(r.TotalCrossed) / seconds
	}
	return r
}

// Log 输出结果，包括各车道通过数
func (r Report) Log() {
	log.Infof("%v: %d ticks, %d crossed (%.3f veh/s), AWT %.3f min",
		r.Strategy, r.Ticks, r.TotalCrossed, r.Throughput, r.AverageWaitTime)
	for _, a := range entity.Approaches {
		log.Infof("  %-5v crossed %3d lanes %v queued %.0f veh*s",
			a, r.Crossed[a], r.LaneCrossed[a], r.QueuedSeconds[a])
	}
	if r.Strategy == entity.Antenna {
		log.Infof("  EastWest %d NorthSouth %d", r.EastWest, r.NorthSouth)
	}
}
