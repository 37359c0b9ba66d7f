package junction

import (
	"errors"
	"fmt"

	"github.com/tsinghua-fib-lab/dynlight-sim/entity"
	"github.com/tsinghua-fib-lab/dynlight-sim/entity/junction/detector"
	"github.com/tsinghua-fib-lab/dynlight-sim/entity/junction/trafficlight"
)

var (
	ErrUnknownStrategy = errors.New("unknown signal strategy")
	ErrNoSuchJunction  = errors.New("junction id does not exist")
)

// Junction 信控交叉口
// 功能：持有信号灯组、信控策略与（按策略选用的）占有检测器
type Junction struct {
	id         int32
	controller trafficlight.IController
	detector   *detector.Detector // Camera策略不使用检测器
}

// newJunction 按策略创建交叉口
// 功能：Antenna与PIR使用各自检测区的占有检测器，Camera按运行模式选择计数执行方式；
// 当前方向绿灯结束时重置该方向车辆的停车坐标
// 参数：ctx-任务上下文，id-交叉口ID，strategy-信控策略
// 返回：交叉口与错误
func newJunction(ctx entity.ITaskContext, id int32, strategy entity.Strategy) (*Junction, error) {
	c := ctx.RuntimeConfig().All
	registry := ctx.LaneManager()
	j := &Junction{id: id}
	var err error
	switch strategy {
	case entity.Antenna:
		j.detector = detector.New(registry, c.Antenna.Zones)
		j.controller, err = trafficlight.NewPollingController(c.Signal, c.Antenna, j.detector)
	case entity.PIR:
		j.detector = detector.New(registry, c.PIR.Zones)
		j.controller, err = trafficlight.NewSequentialController(c.Signal, c.PIR, j.detector)
	case entity.Camera:
		var runner trafficlight.IRunner = trafficlight.InlineRunner{}
		if ctx.RuntimeConfig().C.Realtime {
			runner = trafficlight.AsyncRunner{}
		}
		j.controller, err = trafficlight.NewProportionalController(c.Signal, c.Camera, c.Vehicle.Classes(), registry, runner)
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnknownStrategy, strategy)
	}
	if err != nil {
		return nil, err
	}
	j.controller.Bank().OnYellow(registry.ResetStops)
	j.controller.Bank().OnGreen(func(a entity.Approach) {
		log.Debugf("junction %d at step %d: %v green", id, ctx.Clock().InternalStep, a)
	})
	return j, nil
}

func (j *Junction) prepare() {
	j.controller.Bank().Prepare()
}

func (j *Junction) update() {
	j.controller.Bank().Update()
}

func (j *Junction) decide(step int32) {
	j.controller.Decide(step)
}

// ID 交叉口ID
func (j *Junction) ID() int32 {
	if j == nil {
		return -1
	}
	return j.id
}

// Controller 信控策略
func (j *Junction) Controller() trafficlight.IController {
	return j.controller
}

// Detector 占有检测器，Camera策略下为nil
func (j *Junction) Detector() *detector.Detector {
	return j.detector
}

// remaining 从快照计算当前方向剩余的绿灯或黄灯时间（线程安全）
func remaining(s *trafficlight.BankSnapshot) int32 {
	if s.Yellow {
		return s.Signals[s.Current].Yellow
	}
	return s.Signals[s.Current].Green
}
