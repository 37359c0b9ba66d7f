package junction_test

import (
	"context"
	"math"
	"testing"

	"connectrpc.com/connect"
	mapv2 "git.fiblab.net/sim/protos/v2/go/city/map/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tsinghua-fib-lab/dynlight-sim/clock"
	"github.com/tsinghua-fib-lab/dynlight-sim/entity"
	"github.com/tsinghua-fib-lab/dynlight-sim/entity/junction"
	"github.com/tsinghua-fib-lab/dynlight-sim/entity/lane"
	"github.com/tsinghua-fib-lab/dynlight-sim/utils/config"
)

type testContext struct {
	clock    *clock.Clock
	rc       *config.RuntimeConfig
	lanes    *lane.LaneManager
	junction *junction.JunctionManager
}

func (c *testContext) Clock() *clock.Clock                      { return c.clock }
func (c *testContext) RuntimeConfig() *config.RuntimeConfig     { return c.rc }
func (c *testContext) LaneManager() entity.ILaneManager         { return c.lanes }
func (c *testContext) JunctionManager() entity.IJunctionManager { return c.junction }

func newContext(t *testing.T, strategy entity.Strategy) *testContext {
	rc := config.NewRuntimeConfig(config.Default())
	ctx := &testContext{clock: clock.New(rc.C), rc: rc, lanes: lane.NewManager(rc)}
	m, err := junction.NewManager(ctx, strategy)
	require.NoError(t, err)
	ctx.junction = m
	return ctx
}

func (c *testContext) step() {
	c.clock.Advance()
	c.lanes.Prepare()
	c.junction.Prepare()
	c.junction.Update()
	c.lanes.Update(c.junction)
	c.lanes.Publish(c.clock.InternalStep)
	c.junction.Decide()
}

func TestNewManager(t *testing.T) {
	for _, s := range entity.Strategies {
		ctx := newContext(t, s)
		assert.Equal(t, s, ctx.junction.Strategy())
		assert.Equal(t, entity.West, ctx.junction.Current())
		assert.Equal(t, entity.North, ctx.junction.Next())
		assert.True(t, ctx.junction.IsGreen(entity.West))
		assert.Equal(t, int32(0), ctx.junction.Get(0).ID())
	}
	assert.Nil(t, newContext(t, entity.Camera).junction.Get(0).Detector())
	assert.NotNil(t, newContext(t, entity.PIR).junction.Get(0).Detector())

	rc := config.NewRuntimeConfig(config.Default())
	ctx := &testContext{clock: clock.New(rc.C), rc: rc, lanes: lane.NewManager(rc)}
	_, err := junction.NewManager(ctx, entity.Strategy(9))
	assert.ErrorIs(t, err, junction.ErrUnknownStrategy)

	_, err = newContext(t, entity.PIR).junction.GetOrError(3)
	assert.ErrorIs(t, err, junction.ErrNoSuchJunction)
}

func TestCameraCycleWithTraffic(t *testing.T) {
	ctx := newContext(t, entity.Camera)
	for range 20 {
		ctx.lanes.Enqueue(entity.Car, entity.North, 1, false)
	}
	for range 25 {
		ctx.step()
	}
	assert.Equal(t, entity.North, ctx.junction.Current())
	// 20 queued cars: ceil(20*2/3) = 14
	assert.Equal(t, int32(14), ctx.junction.ActiveRemaining())
	signals := ctx.junction.Signals()
	assert.Equal(t, mapv2.LightState_LIGHT_STATE_GREEN, signals[entity.North].State)
	assert.Equal(t, mapv2.LightState_LIGHT_STATE_RED, signals[entity.West].State)
	assert.Equal(t, int32(20), signals[entity.West].CumulativeGreen)
}

func TestGetTrafficLight(t *testing.T) {
	ctx := newContext(t, entity.Antenna)
	ctx.step()
	res, err := ctx.junction.GetTrafficLight(context.Background(), connect.NewRequest(&mapv2.GetTrafficLightRequest{JunctionId: 0}))
	require.NoError(t, err)
	assert.Equal(t, int32(entity.West), res.Msg.PhaseIndex)
	assert.InDelta(t, 179, res.Msg.TimeRemaining, 1e-9)

	_, err = ctx.junction.GetTrafficLight(context.Background(), connect.NewRequest(&mapv2.GetTrafficLightRequest{JunctionId: 5}))
	assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))
}

func TestSetTrafficLightPhase(t *testing.T) {
	ctx := newContext(t, entity.Camera)
	_, err := ctx.junction.SetTrafficLightPhase(context.Background(), connect.NewRequest(&mapv2.SetTrafficLightPhaseRequest{
		JunctionId: 0, PhaseIndex: 7,
	}))
	assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))
	_, err = ctx.junction.SetTrafficLightPhase(context.Background(), connect.NewRequest(&mapv2.SetTrafficLightPhaseRequest{
		JunctionId: 0, PhaseIndex: 1, TimeRemaining: -1,
	}))
	assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))

	_, err = ctx.junction.SetTrafficLightPhase(context.Background(), connect.NewRequest(&mapv2.SetTrafficLightPhaseRequest{
		JunctionId: 0, PhaseIndex: int32(entity.South), TimeRemaining: 30,
	}))
	require.NoError(t, err)
	for range 6 {
		ctx.step()
	}
	assert.Equal(t, entity.South, ctx.junction.Current())
	assert.Equal(t, int32(30), ctx.junction.ActiveRemaining())
}

func TestSetTrafficLightPhaseRejectsNonFinite(t *testing.T) {
	ctx := newContext(t, entity.Camera)
	for _, tr := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		_, err := ctx.junction.SetTrafficLightPhase(context.Background(), connect.NewRequest(&mapv2.SetTrafficLightPhaseRequest{
			JunctionId: 0, PhaseIndex: int32(entity.South), TimeRemaining: tr,
		}))
		assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err), "%v", tr)
	}
}

func TestSetTrafficLightPhaseClampsGreen(t *testing.T) {
	cases := []struct {
		remaining float64
		green     int32
	}{
		{1e12, 60},
		{1, 10},
		{45, 45},
	}
	for _, tc := range cases {
		ctx := newContext(t, entity.Camera)
		_, err := ctx.junction.SetTrafficLightPhase(context.Background(), connect.NewRequest(&mapv2.SetTrafficLightPhaseRequest{
			JunctionId: 0, PhaseIndex: int32(entity.South), TimeRemaining: tc.remaining,
		}))
		require.NoError(t, err)
		for range 6 {
			ctx.step()
		}
		assert.Equal(t, entity.South, ctx.junction.Current())
		assert.Equal(t, tc.green, ctx.junction.ActiveRemaining(), "%v", tc.remaining)
	}
}

func TestControllerState(t *testing.T) {
	ctx := newContext(t, entity.PIR)
	state, timing := ctx.junction.ControllerState()
	assert.Equal(t, "pair0/master(West)", state)
	assert.Equal(t, int32(60), timing.MinGreen)
	assert.Equal(t, int32(180), timing.MaxGreen)
}
