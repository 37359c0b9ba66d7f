package trafficlight

import (
	"github.com/anggasct/fluo"
	"github.com/tsinghua-fib-lab/dynlight-sim/entity"
)

// eventTick 每步驱动一次状态机的事件名，事件数据为当前步数（int32）
const eventTick = "tick"

// transitionLogger 将状态机的转移写入日志
type transitionLogger struct {
	fluo.BaseObserver
	strategy entity.Strategy
}

func (o *transitionLogger) OnTransition(from string, to string, _ fluo.Event, ctx fluo.Context) {
	log.Debugf("%v step %v: %s -> %s", o.strategy, ctx.GetEventData(), from, to)
}

// startMachine 由状态机定义创建实例并启动
func startMachine(def fluo.MachineDefinition, strategy entity.Strategy) fluo.Machine {
	m := def.CreateInstance()
	m.AddObserver(&transitionLogger{strategy: strategy})
	if err := m.Start(); err != nil {
		log.Panicf("%v: start state machine: %v", strategy, err)
	}
	return m
}

// tick 以当前步为事件数据驱动一次状态机
// 返回：是否发生了转移
// 说明：没有守卫成立时事件被拒绝，属于正常情况；转移动作失败说明信控逻辑有误，直接panic
func tick(m fluo.Machine, step int32) bool {
	r := m.HandleEvent(eventTick, step)
	if r.Processed {
		return true
	}
	if r.RejectionReason == "" && r.Error != nil {
		log.Panicf("transition from %s failed at step %d: %v", r.PreviousState, step, r.Error)
	}
	return false
}

// eventStep 从状态机上下文中取出当前步数
func eventStep(ctx fluo.Context) int32 {
	step, ok := ctx.GetEventData().(int32)
	if !ok {
		log.Panicf("unexpected %s event data %T", ctx.GetEventName(), ctx.GetEventData())
	}
	return step
}
