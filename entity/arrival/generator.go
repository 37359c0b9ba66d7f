package arrival

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tsinghua-fib-lab/dynlight-sim/entity"
	"github.com/tsinghua-fib-lab/dynlight-sim/utils/config"
	"github.com/tsinghua-fib-lab/dynlight-sim/utils/randengine"
)

var log = logrus.WithField("module", "arrival")

// IArrivalSink 新车辆的接收方（车道登记表）
type IArrivalSink interface {
	Enqueue(class entity.VehicleClass, a entity.Approach, lane int32, willTurn bool)
}

// Generator 车辆生成器
// 功能：按固定周期生成车辆，随机抽取车型、车道、是否右转与进口方向
// 说明：Fire可在任意goroutine中调用，随机数使用引擎的线程安全方法
type Generator struct {
	sink   IArrivalSink
	engine *randengine.Engine
	conf   config.Arrival
	fired  atomic.Int64
}

// New 创建车辆生成器
// 参数：conf-生成配置（已校验），sink-车辆接收方，engine-随机数引擎
func New(conf config.Arrival, sink IArrivalSink, engine *randengine.Engine) *Generator {
	return &Generator{
		sink:   sink,
		engine: engine,
		conf:   conf,
	}
}

// Period 生成周期
func (g *Generator) Period() time.Duration {
	return time.Duration(g.conf.Period * float64(time.Second))
}

// PeriodSeconds 生成周期（秒）
func (g *Generator) PeriodSeconds() float64 {
	return g.conf.Period
}

// Fire 生成一辆车
// 算法说明：
// 1. 车型在4种中均匀抽取
// 2. 自行车固定在0号车道，其余车型在1、2号车道中均匀抽取
// 3. 2号车道车辆以turn_probability的概率右转
// 4. 进口方向按累积上界抽取
func (g *Generator) Fire() {
	class := entity.VehicleClass(g.engine.IntnSafe(entity.VehicleClassCount))
	lane := int32(0)
	if class != entity.Bike {
		lane = 1 + int32(g.engine.IntnSafe(2))
	}
	willTurn := lane == 2 && g.engine.PTrueSafe(g.conf.TurnProbability)
	a := entity.Approach(g.engine.CumulativeDistributionSafe(g.conf.Weights))
	n := g.fired.Add(1)
	log.Tracef("arrival #%d: %v on %v lane %d turn=%v", n, class, a, lane, willTurn)
	g.sink.Enqueue(class, a, lane, willTurn)
}

// Fired 已生成的车辆数
func (g *Generator) Fired() int64 {
	return g.fired.Load()
}

// Run 按墙钟周期持续生成车辆，直到ctx取消
func (g *Generator) Run(ctx context.Context) {
	ticker := time.NewTicker(g.Period())
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Debugf("generator stopped after %d arrivals", g.fired.Load())
			return
		case <-ticker.C:
			g.Fire()
		}
	}
}
