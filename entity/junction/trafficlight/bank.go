package trafficlight

import (
	"sync"
	"sync/atomic"

	mapv2 "git.fiblab.net/sim/protos/v2/go/city/map/v2"
	"github.com/tsinghua-fib-lab/dynlight-sim/entity"
)

type commandKind int

const (
	cmdForceEndGreen commandKind = iota
	cmdSetNext
	cmdSetGreen
)

// command 写入缓冲区的信控命令，在下一步Prepare时按顺序生效
type command struct {
	kind    commandKind
	a       entity.Approach
	cycle   int64
	seconds int32
}

// BankSnapshot 信号灯组的只读快照
type BankSnapshot struct {
	Current entity.Approach
	Next    entity.Approach
	Yellow  bool
	Cycle   int64
	Signals [entity.ApproachCount]entity.SignalView
}

// Bank 四个进口共用的信号灯组
// 功能：维护当前与下一个绿灯方向，按步递减计时器并完成 绿->黄->红 的切换
// 说明：控制策略只通过ForceEndGreen、SetNext、SetGreen写入命令缓冲区，命令在下一步Prepare时生效；
// 任意时刻恰好一个方向为绿灯或黄灯，违反即panic
type Bank struct {
	timing  Timing
	signals [entity.ApproachCount]*Signal
	current entity.Approach
	next    entity.Approach
	yellow  bool
	cycle   int64 // 已完成的绿灯周期数，每次切换绿灯方向+1

	buffer      []command
	bufferMutex sync.Mutex

	snapshot atomic.Pointer[BankSnapshot]

	onYellow func(a entity.Approach) // 方向a绿灯结束、进入黄灯时调用
	onGreen  func(a entity.Approach) // 方向a成为绿灯时调用
}

// NewBank 创建信号灯组
// 功能：West为绿灯，North红灯时长为黄灯+绿灯时长，East、South为默认红灯时长，下一个绿灯方向为North
func NewBank(t Timing) *Bank {
	b := &Bank{
		timing:  t,
		current: entity.West,
		next:    entity.North,
		buffer:  make([]command, 0),
	}
	b.signals[entity.West] = newSignal(t, mapv2.LightState_LIGHT_STATE_GREEN, 0)
	b.signals[entity.North] = newSignal(t, mapv2.LightState_LIGHT_STATE_RED, t.Yellow+t.Green)
	b.signals[entity.East] = newSignal(t, mapv2.LightState_LIGHT_STATE_RED, t.Red)
	b.signals[entity.South] = newSignal(t, mapv2.LightState_LIGHT_STATE_RED, t.Red)
	b.publish()
	return b
}

// OnYellow 设置绿灯结束回调
func (b *Bank) OnYellow(f func(a entity.Approach)) {
	b.onYellow = f
}

// OnGreen 设置绿灯开始回调
func (b *Bank) OnGreen(f func(a entity.Approach)) {
	b.onGreen = f
}

func (b *Bank) push(c command) {
	b.bufferMutex.Lock()
	defer b.bufferMutex.Unlock()
	b.buffer = append(b.buffer, c)
}

// ForceEndGreen 提前结束方向a的绿灯（a必须是当前绿灯方向，否则忽略）
func (b *Bank) ForceEndGreen(a entity.Approach) {
	b.push(command{kind: cmdForceEndGreen, a: a})
}

// SetNext 设置下一个绿灯方向
func (b *Bank) SetNext(a entity.Approach) {
	b.push(command{kind: cmdSetNext, a: a})
}

// SetGreen 设置下一个绿灯方向a的绿灯时长
// 说明：cycle为计算发起时的周期数，若生效时周期已变化（计算晚到）则丢弃并保留默认时长
func (b *Bank) SetGreen(cycle int64, a entity.Approach, seconds int32) {
	b.push(command{kind: cmdSetGreen, a: a, cycle: cycle, seconds: seconds})
}

// Prepare 准备阶段，按写入顺序应用缓冲区中的命令
func (b *Bank) Prepare() {
	b.bufferMutex.Lock()
	cmds := b.buffer
	b.buffer = make([]command, 0)
	b.bufferMutex.Unlock()

	for _, c := range cmds {
		switch c.kind {
		case cmdForceEndGreen:
			if c.a != b.current || b.yellow {
				log.Debugf("ignore force end of %v: current %v yellow=%v", c.a, b.current, b.yellow)
				continue
			}
			b.signals[c.a].Green = 0
		case cmdSetNext:
			if c.a == b.current {
				log.Warnf("ignore next %v: it is the current approach", c.a)
				continue
			}
			b.next = c.a
			cur := b.signals[b.current]
			if b.yellow {
				b.signals[c.a].Red = cur.Yellow
			} else {
				b.signals[c.a].Red = cur.Yellow + cur.Green
			}
		case cmdSetGreen:
			if c.cycle != b.cycle || c.a != b.next {
				log.Warnf("discard late green time %d for %v (cycle %d, now %d, next %v), keep %d",
					c.seconds, c.a, c.cycle, b.cycle, b.next, b.signals[c.a].Green)
				continue
			}
			b.signals[c.a].Green = c.seconds
		}
	}
}

// Update 更新阶段，推进一步
// 算法说明：
// 1. 当前方向在绿灯期递减绿灯并累计绿灯时间，在黄灯期递减黄灯；其他方向递减红灯
// 2. 绿灯耗尽：进入黄灯，调用onYellow
// 3. 黄灯耗尽：当前方向恢复默认计时并变红，next成为绿灯，新的next默认为其顺时针方向，
// 新next的红灯时长为新绿灯方向的黄灯+绿灯时长，周期数+1
// 4. 检查互斥不变量
func (b *Bank) Update() {
	cur := b.signals[b.current]
	if b.yellow {
		cur.Yellow--
	} else if cur.Green > 0 {
		cur.Green--
		cur.CumulativeGreen++
	}
	for _, a := range entity.Approaches {
		if s := b.signals[a]; a != b.current && s.Red > 0 {
			s.Red--
		}
	}
	switch {
	case !b.yellow && cur.Green <= 0:
		cur.Green = 0
		cur.State = mapv2.LightState_LIGHT_STATE_YELLOW
		b.yellow = true
		log.Debugf("%v green ends", b.current)
		if b.onYellow != nil {
			b.onYellow(b.current)
		}
	case b.yellow && cur.Yellow <= 0:
		b.promote()
	}
	b.assert()
	b.publish()
}

func (b *Bank) promote() {
	finished := b.current
	b.signals[finished].reset(b.timing)
	b.yellow = false
	b.current = b.next
	green := b.signals[b.current]
	green.State = mapv2.LightState_LIGHT_STATE_GREEN
	green.Red = 0
	b.next = b.current.Clockwise()
	b.signals[b.next].Red = green.Yellow + green.Green
	b.cycle++
	log.Debugf("cycle %d: %v -> %v green for %d, next %v", b.cycle, finished, b.current, green.Green, b.next)
	if b.onGreen != nil {
		b.onGreen(b.current)
	}
}

// assert 互斥不变量：恰好当前方向为绿灯或黄灯
func (b *Bank) assert() {
	for _, a := range entity.Approaches {
		active := b.signals[a].State != mapv2.LightState_LIGHT_STATE_RED
		if active != (a == b.current) {
			log.Panicf("mutual exclusion violated: current %v, states %v %v %v %v", b.current,
				b.signals[0].State, b.signals[1].State, b.signals[2].State, b.signals[3].State)
		}
	}
}

func (b *Bank) publish() {
	s := &BankSnapshot{Current: b.current, Next: b.next, Yellow: b.yellow, Cycle: b.cycle}
	for i, sig := range b.signals {
		s.Signals[i] = sig.View()
	}
	b.snapshot.Store(s)
}

// Timing 创建时的计时参数，之后不再改变（线程安全）
func (b *Bank) Timing() Timing {
	return b.timing
}

// Snapshot 最近一次Update后的只读快照（线程安全）
func (b *Bank) Snapshot() *BankSnapshot {
	return b.snapshot.Load()
}

// 以下读取方法只能在主循环goroutine中调用

func (b *Bank) Current() entity.Approach { return b.current }
func (b *Bank) Next() entity.Approach    { return b.next }
func (b *Bank) InYellow() bool           { return b.yellow }
func (b *Bank) Cycle() int64             { return b.cycle }

// Signal 方向a信号灯的副本
func (b *Bank) Signal(a entity.Approach) Signal {
	return *b.signals[a]
}

// IsGreen 方向a是否为绿灯
func (b *Bank) IsGreen(a entity.Approach) bool {
	return b.signals[a].State == mapv2.LightState_LIGHT_STATE_GREEN
}

// ActiveRemaining 当前方向剩余的绿灯或黄灯时间
func (b *Bank) ActiveRemaining() int32 {
	if b.yellow {
		return b.signals[b.current].Yellow
	}
	return b.signals[b.current].Green
}

// Dwelled 当前绿灯是否已持续至少MinGreen（剩余绿灯 <= MaxGreen - MinGreen）
func (b *Bank) Dwelled(a entity.Approach) bool {
	s := b.signals[a]
	return s.Green <= s.MaxGreen-s.MinGreen
}
