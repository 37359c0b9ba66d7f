package trafficlight_test

import (
	"sync"
	"testing"

	mapv2 "git.fiblab.net/sim/protos/v2/go/city/map/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tsinghua-fib-lab/dynlight-sim/entity"
	"github.com/tsinghua-fib-lab/dynlight-sim/entity/junction/trafficlight"
	"github.com/tsinghua-fib-lab/dynlight-sim/utils/config"
)

// stepDetector 按步数构造确定性的占有情况
type stepDetector struct {
	step *int32
	f    func(step int32, a entity.Approach) int
}

func (d stepDetector) Count(a entity.Approach) int    { return d.f(*d.step, a) }
func (d stepDetector) Present(a entity.Approach) bool { return d.Count(a) > 0 }

type staticSource struct{ s *entity.RegistrySnapshot }

func (s staticSource) Snapshot() *entity.RegistrySnapshot { return s.s }

type greenEvent struct {
	step int32
	a    entity.Approach
}

// run 按主循环顺序驱动策略，返回绿灯切换记录（首项为初始的West）
func run(t *testing.T, c trafficlight.IController, step *int32, steps int32) []greenEvent {
	events := []greenEvent{{0, entity.West}}
	c.Bank().OnGreen(func(a entity.Approach) { events = append(events, greenEvent{*step, a}) })
	for *step = 1; *step <= steps; *step++ {
		b := c.Bank()
		b.Prepare()
		b.Update()
		active := 0
		for _, a := range entity.Approaches {
			if b.Signal(a).State != mapv2.LightState_LIGHT_STATE_RED {
				active++
			}
		}
		require.Equal(t, 1, active, "step %d", *step)
		c.Decide(*step)
	}
	return events
}

// trace 按主循环顺序驱动策略，返回去除连续重复后的决策状态序列
func trace(c trafficlight.IController, step *int32, steps int32) []string {
	states := []string{c.State()}
	for *step = 1; *step <= steps; *step++ {
		c.Bank().Prepare()
		c.Bank().Update()
		c.Decide(*step)
		if s := c.State(); s != states[len(states)-1] {
			states = append(states, s)
		}
	}
	return states
}

func approaches(events []greenEvent) []entity.Approach {
	out := make([]entity.Approach, len(events))
	for i, e := range events {
		out[i] = e.a
	}
	return out
}

func assertFair(t *testing.T, events []greenEvent) {
	as := approaches(events)
	for i := 0; i+4 <= len(as); i += 4 {
		seen := map[entity.Approach]bool{}
		for _, a := range as[i : i+4] {
			seen[a] = true
		}
		assert.Len(t, seen, 4, "macro-cycle %d: %v", i/4, as[i:i+4])
	}
}

func TestBankInitialState(t *testing.T) {
	b := trafficlight.NewBank(trafficlight.Timing{Red: 150, Yellow: 5, Green: 20, MinGreen: 10, MaxGreen: 60})
	assert.Equal(t, entity.West, b.Current())
	assert.Equal(t, entity.North, b.Next())
	assert.True(t, b.IsGreen(entity.West))
	assert.Equal(t, int32(25), b.Signal(entity.North).Red)
	assert.Equal(t, int32(150), b.Signal(entity.East).Red)
	assert.Equal(t, int32(150), b.Signal(entity.South).Red)
}

func TestBankCycle(t *testing.T) {
	b := trafficlight.NewBank(trafficlight.Timing{Red: 150, Yellow: 5, Green: 20, MinGreen: 10, MaxGreen: 60})
	var yellowAt []entity.Approach
	b.OnYellow(func(a entity.Approach) { yellowAt = append(yellowAt, a) })
	for range 20 {
		b.Prepare()
		b.Update()
	}
	assert.True(t, b.InYellow())
	assert.Equal(t, []entity.Approach{entity.West}, yellowAt)
	assert.Equal(t, int32(20), b.Signal(entity.West).CumulativeGreen)
	for range 5 {
		b.Prepare()
		b.Update()
	}
	assert.Equal(t, entity.North, b.Current())
	assert.Equal(t, entity.East, b.Next())
	assert.Equal(t, int64(1), b.Cycle())
	assert.Equal(t, int32(25), b.Signal(entity.East).Red)
	assert.Equal(t, int32(150), b.Signal(entity.West).Red)
	assert.Equal(t, int32(20), b.Signal(entity.West).Green)
	assert.Equal(t, b.Cycle(), b.Snapshot().Cycle)
}

func TestBankCommands(t *testing.T) {
	b := trafficlight.NewBank(trafficlight.Timing{Red: 150, Yellow: 5, Green: 20, MinGreen: 10, MaxGreen: 60})
	b.SetNext(entity.South)
	b.SetGreen(0, entity.South, 33)
	b.SetGreen(7, entity.South, 44) // late
	b.ForceEndGreen(entity.North)   // not current
	b.Prepare()
	assert.Equal(t, entity.South, b.Next())
	assert.Equal(t, int32(33), b.Signal(entity.South).Green)
	assert.Equal(t, int32(25), b.Signal(entity.South).Red)
	assert.Equal(t, int32(20), b.Signal(entity.West).Green)

	b.ForceEndGreen(entity.West)
	b.Prepare()
	b.Update()
	assert.True(t, b.InYellow())
	assert.Equal(t, int32(5), b.ActiveRemaining())
}

func TestGreenTime(t *testing.T) {
	c := config.Default()
	cases := []struct {
		count entity.ClassCount
		want  int32
	}{
		{entity.ClassCount{2, 1, 0, 0}, 10},
		{entity.ClassCount{20, 0, 0, 0}, 14},
		{entity.ClassCount{10, 4, 4, 6}, 16},
		{entity.ClassCount{200, 0, 0, 0}, 60},
		{entity.ClassCount{}, 10},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, trafficlight.GreenTime(tc.count, c.Vehicle.Classes(), c.Camera), "%v", tc.count)
	}
}

func TestProportionalSetsNextGreen(t *testing.T) {
	c := config.Default()
	src := staticSource{&entity.RegistrySnapshot{}}
	src.s.Uncrossed[entity.North] = entity.ClassCount{20, 0, 0, 0}
	ctrl, err := trafficlight.NewProportionalController(c.Signal, c.Camera, c.Vehicle.Classes(), src, trafficlight.InlineRunner{})
	require.NoError(t, err)
	assert.Equal(t, "census idle", ctrl.State())
	var step int32
	var northGreen int32
	ctrl.Bank().OnGreen(func(a entity.Approach) {
		if a == entity.North && northGreen == 0 {
			northGreen = ctrl.Bank().Signal(entity.North).Green
		}
	})
	for step = 1; step <= 25; step++ {
		ctrl.Bank().Prepare()
		ctrl.Bank().Update()
		ctrl.Decide(step)
	}
	assert.Equal(t, entity.North, ctrl.Bank().Current())
	assert.Equal(t, int32(14), northGreen)
	assert.Contains(t, ctrl.State(), "census launched in cycle")
}

func TestProportionalRoundRobinOncePerCycle(t *testing.T) {
	c := config.Default()
	src := staticSource{&entity.RegistrySnapshot{}}
	for _, a := range entity.Approaches {
		src.s.Uncrossed[a] = entity.ClassCount{int(a) * 5, 1, 1, 1}
	}
	launches := 0
	runner := countingRunner{n: &launches}
	ctrl, err := trafficlight.NewProportionalController(c.Signal, c.Camera, c.Vehicle.Classes(), src, runner)
	require.NoError(t, err)
	var step int32
	events := run(t, ctrl, &step, 2000)
	for i := 1; i < len(events); i++ {
		assert.Equal(t, events[i-1].a.Clockwise(), events[i].a)
	}
	cycles := int(ctrl.Bank().Cycle())
	assert.GreaterOrEqual(t, launches, cycles)
	assert.LessOrEqual(t, launches, cycles+1)
}

type countingRunner struct{ n *int }

func (r countingRunner) Go(job func()) {
	*r.n++
	job()
}

type blockingSource struct {
	release chan struct{}
	s       *entity.RegistrySnapshot
}

func (b blockingSource) Snapshot() *entity.RegistrySnapshot {
	<-b.release
	return b.s
}

type waitRunner struct{ wg *sync.WaitGroup }

func (r waitRunner) Go(job func()) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		job()
	}()
}

func TestProportionalLateResultKeepsDefault(t *testing.T) {
	c := config.Default()
	src := blockingSource{release: make(chan struct{}), s: &entity.RegistrySnapshot{}}
	src.s.Uncrossed[entity.North] = entity.ClassCount{200, 0, 0, 0}
	wg := &sync.WaitGroup{}
	ctrl, err := trafficlight.NewProportionalController(c.Signal, c.Camera, c.Vehicle.Classes(), src, waitRunner{wg})
	require.NoError(t, err)
	b := ctrl.Bank()
	for step := int32(1); step <= 30; step++ {
		b.Prepare()
		b.Update()
		if step <= 20 {
			ctrl.Decide(step)
		}
	}
	require.Equal(t, entity.North, b.Current())
	close(src.release)
	wg.Wait()
	b.Prepare()
	b.Update()
	assert.Equal(t, int32(20-6), b.Signal(entity.North).Green)
}

func TestPollingWithoutTraffic(t *testing.T) {
	c := config.Default()
	var step int32
	det := stepDetector{step: &step, f: func(int32, entity.Approach) int { return 0 }}
	ctrl, err := trafficlight.NewPollingController(c.Signal, c.Antenna, det)
	require.NoError(t, err)
	events := run(t, ctrl, &step, 185*8)
	assert.Equal(t,
		[]entity.Approach{entity.West, entity.East, entity.South, entity.North, entity.East, entity.West, entity.South, entity.North, entity.East},
		approaches(events))
	assert.Equal(t, int32(185), events[1].step)
}

func TestPollingStates(t *testing.T) {
	c := config.Default()
	var step int32
	det := stepDetector{step: &step, f: func(int32, entity.Approach) int { return 0 }}
	ctrl, err := trafficlight.NewPollingController(c.Signal, c.Antenna, det)
	require.NoError(t, err)
	assert.Equal(t, "EastWest/West/hold-first", ctrl.State())
	states := trace(ctrl, &step, 185*8)
	require.GreaterOrEqual(t, len(states), 7)
	assert.Equal(t, []string{
		"EastWest/West/hold-first",
		"EastWest/West/hold-second",
		"EastWest/West/hand-off",
		"NorthSouth/South/hold-first",
		"NorthSouth/South/hold-second",
		"NorthSouth/South/hand-off",
		"EastWest/East/hold-first",
	}, states[:7])
}

func TestPollingEarlyRelease(t *testing.T) {
	c := config.Default()
	var step int32
	det := stepDetector{step: &step, f: func(_ int32, a entity.Approach) int {
		if a == entity.North {
			return 3
		}
		return 1
	}}
	ctrl, err := trafficlight.NewPollingController(c.Signal, c.Antenna, det)
	require.NoError(t, err)
	events := run(t, ctrl, &step, 400)
	require.GreaterOrEqual(t, len(events), 4)
	assert.Equal(t, []entity.Approach{entity.West, entity.East, entity.North, entity.South}, approaches(events)[:4])
	// West released once 60 steps of green dwell elapsed, then 5 yellow plus one command step
	assert.Equal(t, int32(66), events[1].step)
}

func TestPollingFairness(t *testing.T) {
	c := config.Default()
	var step int32
	det := stepDetector{step: &step, f: func(s int32, a entity.Approach) int {
		return int((s/13+int32(a)*7)%5) - 1
	}}
	ctrl, err := trafficlight.NewPollingController(c.Signal, c.Antenna, det)
	require.NoError(t, err)
	events := run(t, ctrl, &step, 20000)
	assert.Greater(t, len(events), 40)
	assertFair(t, events)
}

func TestSequentialRotation(t *testing.T) {
	c := config.Default()
	var step int32
	det := stepDetector{step: &step, f: func(int32, entity.Approach) int { return 1 }}
	ctrl, err := trafficlight.NewSequentialController(c.Signal, c.PIR, det)
	require.NoError(t, err)
	events := run(t, ctrl, &step, 66*9)
	assert.Equal(t,
		[]entity.Approach{entity.West, entity.East, entity.North, entity.South, entity.East, entity.West, entity.South, entity.North, entity.West},
		approaches(events)[:9])
	assertFair(t, events)
}

func TestSequentialStates(t *testing.T) {
	c := config.Default()
	var step int32
	det := stepDetector{step: &step, f: func(int32, entity.Approach) int { return 1 }}
	ctrl, err := trafficlight.NewSequentialController(c.Signal, c.PIR, det)
	require.NoError(t, err)
	assert.Equal(t, "pair0/master(West)", ctrl.State())
	states := trace(ctrl, &step, 66*9)
	require.GreaterOrEqual(t, len(states), 9)
	assert.Equal(t, []string{
		"pair0/master(West)", "pair0/slave(East)",
		"pair1/master(North)", "pair1/slave(South)",
		"pair2/master(East)", "pair2/slave(West)",
		"pair3/master(South)", "pair3/slave(North)",
		"pair0/master(West)",
	}, states[:9])
}

func TestSequentialFairnessWithSparseTraffic(t *testing.T) {
	c := config.Default()
	var step int32
	det := stepDetector{step: &step, f: func(s int32, a entity.Approach) int {
		return int((s/17+int32(a)*3)%4) - 2
	}}
	ctrl, err := trafficlight.NewSequentialController(c.Signal, c.PIR, det)
	require.NoError(t, err)
	events := run(t, ctrl, &step, 20000)
	assert.Greater(t, len(events), 40)
	assertFair(t, events)
}

func TestInvalidControllerConfig(t *testing.T) {
	c := config.Default()
	c.Antenna.MinGreen = 0
	_, err := trafficlight.NewPollingController(c.Signal, c.Antenna, nil)
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
	c.PIR.MaxGreen = 10
	_, err = trafficlight.NewSequentialController(c.Signal, c.PIR, nil)
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
	c.Camera.LanesPerApproach = 0
	_, err = trafficlight.NewProportionalController(c.Signal, c.Camera, c.Vehicle.Classes(), nil, trafficlight.InlineRunner{})
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
}
