package trafficlight

import (
	"fmt"

	"github.com/anggasct/fluo"
	"github.com/tsinghua-fib-lab/dynlight-sim/entity"
	"github.com/tsinghua-fib-lab/dynlight-sim/utils/config"
)

// holdStep 轮询策略中半周期内的步骤
type holdStep int

const (
	holdFirst  holdStep = iota // 入口方向A绿灯，等待对向有车
	holdSecond                 // 对向绿灯，等待A方向有车
	handOff                    // 对向黄灯，在正交轴上选择下一个入口方向
)

func (s holdStep) String() string {
	return [...]string{"hold-first", "hold-second", "hand-off"}[s]
}

// pollState 轮询状态：入口方向（决定所在轴）+ 步骤，共12个状态
type pollState struct {
	entry entity.Approach
	step  holdStep
}

// String 状态机中的状态ID
func (s pollState) String() string {
	return fmt.Sprintf("%v/%v/%v", s.entry.Axis(), s.entry, s.step)
}

// PollingController 周期占有率轮询策略（Antenna）
// 功能：每条轴先后放行入口方向与其对向，绿灯驻留满最短时间后，若另一方向检测到车辆则提前结束绿灯；
// 对向黄灯期间比较正交轴两个方向的车辆数，车多者作为下一条轴的入口方向
// 说明：每个宏周期（4次绿灯）中每个方向恰好获得一次绿灯；绿灯自然耗尽视为超时，同样推进步骤
type PollingController struct {
	bank     *Bank
	detector IDetector
	interval int32

	machine fluo.Machine
	states  map[string]pollState
	armed   int64 // 最近一次写入SetNext时的周期数
}

// NewPollingController 创建轮询策略
// 参数：signal-公共信号配置，conf-轮询配置，detector-占有检测器
func NewPollingController(signal config.Signal, conf config.Antenna, detector IDetector) (*PollingController, error) {
	if conf.MinGreen <= 0 || conf.MinGreen > conf.MaxGreen || conf.SampleInterval <= 0 {
		return nil, fmt.Errorf("%w: antenna bounds min=%d max=%d interval=%d",
			config.ErrInvalidConfig, conf.MinGreen, conf.MaxGreen, conf.SampleInterval)
	}
	if signal.Yellow < 2 {
		return nil, fmt.Errorf("%w: antenna hand-off needs a yellow of at least 2, got %d", config.ErrInvalidConfig, signal.Yellow)
	}
	c := &PollingController{
		bank: NewBank(Timing{
			Red: signal.DefaultRed, Yellow: signal.Yellow,
			Green: conf.MaxGreen, MinGreen: conf.MinGreen, MaxGreen: conf.MaxGreen,
		}),
		detector: detector,
		interval: conf.SampleInterval,
		states:   make(map[string]pollState, 3*entity.ApproachCount),
		armed:    -1,
	}
	c.machine = startMachine(c.define(), entity.Antenna)
	return c, nil
}

// define 构建状态机定义
// 算法说明：
// 1. hold-first(A) -> hold-second(A)：A方向放行结束（超时或驻留期满且对向有车），结束A的绿灯
// 2. hold-second(A) -> hand-off(A)：对向放行结束，结束对向的绿灯
// 3. hand-off(A) -> hold-first(B)：对向黄灯期间，B为正交轴上车辆较多的方向（相等时取第二个），设为下一绿灯方向
func (c *PollingController) define() fluo.MachineDefinition {
	b := fluo.NewMachine()
	for _, a := range entity.Approaches {
		first, second, hand := pollState{a, holdFirst}, pollState{a, holdSecond}, pollState{a, handOff}
		for _, s := range []pollState{first, second, hand} {
			c.states[s.String()] = s
		}

		sb := b.State(first.String())
		if a == entity.West {
			sb.Initial()
		}
		sb.To(second.String()).On(eventTick).
			When(c.release(a, a.Opposite())).
			Do(c.forceEnd(a))

		b.State(second.String()).
			To(hand.String()).On(eventTick).
			When(c.release(a.Opposite(), a)).
			Do(c.forceEnd(a.Opposite()))

		candidates := a.Axis().Orthogonal().Approaches()
		b.State(hand.String()).
			To(pollState{candidates[0], holdFirst}.String()).On(eventTick).
			When(c.handOff(a, candidates[0])).Do(c.handTo(candidates[0])).
			To(pollState{candidates[1], holdFirst}.String()).On(eventTick).
			When(c.handOff(a, candidates[1])).Do(c.handTo(candidates[1]))
	}
	return b.Build()
}

func (c *PollingController) Strategy() entity.Strategy { return entity.Antenna }
func (c *PollingController) Bank() *Bank               { return c.bank }
func (c *PollingController) State() string             { return c.machine.CurrentState() }

// Decide 每步驱动一次状态机
func (c *PollingController) Decide(step int32) {
	s := c.states[c.machine.CurrentState()]
	if s.step == holdFirst && c.bank.Current() == s.entry && !c.bank.InYellow() {
		c.arm(s.entry.Opposite())
	}
	tick(c.machine, step)
}

// arm 确保下一个绿灯方向为a，每个周期最多写入一次
func (c *PollingController) arm(a entity.Approach) {
	if c.bank.Next() == a || c.armed == c.bank.Cycle() {
		return
	}
	c.armed = c.bank.Cycle()
	c.bank.SetNext(a)
}

// release 当前方向a：驻留期满且另一方向有车（仅在采样步检测），或绿灯已自然结束
func (c *PollingController) release(a, other entity.Approach) fluo.GuardFunc {
	return func(ctx fluo.Context) bool {
		if c.bank.Current() != a {
			return false
		}
		if c.bank.InYellow() {
			return true
		}
		return eventStep(ctx)%c.interval == 0 && c.bank.Dwelled(a) && c.detector.Present(other)
	}
}

func (c *PollingController) forceEnd(a entity.Approach) fluo.ActionFunc {
	return func(fluo.Context) error {
		c.bank.ForceEndGreen(a)
		return nil
	}
}

// handOff 入口方向a的对向处于黄灯，且正交轴上车辆较多的方向为to
func (c *PollingController) handOff(a, to entity.Approach) fluo.GuardFunc {
	return func(fluo.Context) bool {
		if c.bank.Current() != a.Opposite() || !c.bank.InYellow() {
			return false
		}
		candidates := a.Axis().Orthogonal().Approaches()
		chosen := candidates[1]
		if c.detector.Count(candidates[0]) > c.detector.Count(candidates[1]) {
			chosen = candidates[0]
		}
		return chosen == to
	}
}

func (c *PollingController) handTo(a entity.Approach) fluo.ActionFunc {
	return func(fluo.Context) error {
		log.Debugf("antenna hand-off to %v", a)
		c.bank.SetNext(a)
		return nil
	}
}
