package trafficlight

import (
	"fmt"

	"github.com/anggasct/fluo"
	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/dynlight-sim/entity"
	"github.com/tsinghua-fib-lab/dynlight-sim/utils/config"
)

// pair 主从方向对
type pair struct {
	master entity.Approach
	slave  entity.Approach
}

// pairs 固定的轮换顺序
var pairs = [entity.ApproachCount]pair{
	{entity.West, entity.East},
	{entity.North, entity.South},
	{entity.East, entity.West},
	{entity.South, entity.North},
}

type role int

const (
	roleMaster role = iota
	roleSlave
)

// seqState 顺序检测状态：方向对下标 + 主/从，共8个状态
type seqState struct {
	pair int
	role role
}

// String 状态机中的状态ID
func (s seqState) String() string {
	p := pairs[s.pair]
	if s.role == roleMaster {
		return fmt.Sprintf("pair%d/master(%v)", s.pair, p.master)
	}
	return fmt.Sprintf("pair%d/slave(%v)", s.pair, p.slave)
}

// SequentialController 主从顺序检测策略（PIR）
// 功能：四个主从对依次轮换；主方向绿灯驻留期满且从方向检测到车辆时提前结束，放行从方向；
// 从方向驻留期满且主方向有车时结束，主方向记为已服务并进入下一对；四个主方向都服务后清空重来
type SequentialController struct {
	bank     *Bank
	detector IDetector

	machine  fluo.Machine
	states   map[string]seqState
	serviced [entity.ApproachCount]bool
	armed    int64
}

// NewSequentialController 创建顺序检测策略
func NewSequentialController(signal config.Signal, conf config.PIR, detector IDetector) (*SequentialController, error) {
	if conf.MinGreen <= 0 || conf.MinGreen > conf.MaxGreen {
		return nil, fmt.Errorf("%w: pir bounds min=%d max=%d", config.ErrInvalidConfig, conf.MinGreen, conf.MaxGreen)
	}
	c := &SequentialController{
		bank: NewBank(Timing{
			Red: signal.DefaultRed, Yellow: signal.Yellow,
			Green: conf.MaxGreen, MinGreen: conf.MinGreen, MaxGreen: conf.MaxGreen,
		}),
		detector: detector,
		states:   make(map[string]seqState, 2*len(pairs)),
		armed:    -1,
	}
	c.machine = startMachine(c.define(), entity.PIR)
	return c, nil
}

// define 构建状态机定义：pair(i)/master -> pair(i)/slave -> pair(i+1)/master
func (c *SequentialController) define() fluo.MachineDefinition {
	b := fluo.NewMachine()
	for i, p := range pairs {
		master, slave := seqState{i, roleMaster}, seqState{i, roleSlave}
		c.states[master.String()] = master
		c.states[slave.String()] = slave

		sb := b.State(master.String())
		if i == 0 {
			sb.Initial()
		}
		sb.To(slave.String()).On(eventTick).
			When(c.release(p.master, p.slave)).
			Do(func(fluo.Context) error {
				c.bank.ForceEndGreen(p.master)
				return nil
			})

		b.State(slave.String()).
			To(seqState{(i + 1) % len(pairs), roleMaster}.String()).On(eventTick).
			When(c.release(p.slave, p.master)).
			Do(func(fluo.Context) error {
				c.bank.ForceEndGreen(p.slave)
				c.service(p.master)
				return nil
			})
	}
	return b.Build()
}

func (c *SequentialController) Strategy() entity.Strategy { return entity.PIR }
func (c *SequentialController) Bank() *Bank               { return c.bank }
func (c *SequentialController) State() string             { return c.machine.CurrentState() }

// Decide 每步驱动一次状态机
func (c *SequentialController) Decide(step int32) {
	s := c.states[c.machine.CurrentState()]
	p := pairs[s.pair]
	if !c.bank.InYellow() {
		switch {
		case s.role == roleMaster && c.bank.Current() == p.master:
			c.arm(p.slave)
		case s.role == roleSlave && c.bank.Current() == p.slave:
			c.arm(pairs[(s.pair+1)%len(pairs)].master)
		}
	}
	tick(c.machine, step)
}

func (c *SequentialController) arm(a entity.Approach) {
	if c.bank.Next() == a || c.armed == c.bank.Cycle() {
		return
	}
	c.armed = c.bank.Cycle()
	c.bank.SetNext(a)
}

// release 当前方向a：驻留期满且另一方向有车，或绿灯已自然结束
func (c *SequentialController) release(a, other entity.Approach) fluo.GuardFunc {
	return func(fluo.Context) bool {
		if c.bank.Current() != a {
			return false
		}
		if c.bank.InYellow() {
			return true
		}
		return c.bank.Dwelled(a) && c.detector.Present(other)
	}
}

// service 将主方向a记为已服务，四个主方向都服务后清空
func (c *SequentialController) service(a entity.Approach) {
	c.serviced[a] = true
	if lo.EveryBy(c.serviced[:], func(s bool) bool { return s }) {
		log.Debugf("pir: all masters serviced, restart rotation")
		c.serviced = [entity.ApproachCount]bool{}
	}
}
