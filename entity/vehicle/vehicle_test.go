package vehicle_test

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/tsinghua-fib-lab/dynlight-sim/entity"
	"github.com/tsinghua-fib-lab/dynlight-sim/entity/vehicle"
	"github.com/tsinghua-fib-lab/dynlight-sim/utils/config"
)

var screen = orb.Bound{Min: orb.Point{-100, -100}, Max: orb.Point{1500, 1022}}

func westTrack() *vehicle.Track {
	return &vehicle.Track{
		Origin:      orb.Point{0, 388},
		Dir:         orb.Point{1, 0},
		Heading:     0,
		StopLine:    391,
		DefaultStop: 381,
		TurnPoint:   700,
		Sweep:       orb.Point{3, 2.8},
	}
}

func newCar(id int32, s, stop float64, willTurn bool) *vehicle.Vehicle {
	c := config.Default()
	return vehicle.New(id, entity.Car, c.Vehicle.Car, entity.West, 2, willTurn,
		westTrack(), s, stop, config.NewRuntimeConfig(c))
}

func TestStopsAtRed(t *testing.T) {
	v := newCar(0, 300, 381, false)
	for range 200 {
		v.Advance(vehicle.Env{Green: false, Gap: 15, Screen: screen})
	}
	assert.InDelta(t, 381, v.S(), 1e-9)
	assert.False(t, v.Crossed())
}

func TestCrossesOnceOnGreen(t *testing.T) {
	v := newCar(0, 300, 381, false)
	crossings := 0
	for range 300 {
		if v.Advance(vehicle.Env{Green: true, Gap: 15, Screen: screen}) {
			crossings++
		}
	}
	assert.Equal(t, 1, crossings)
	assert.True(t, v.Crossed())
}

func TestMovingVehicleCompletesCrossingOnRed(t *testing.T) {
	v := newCar(0, 400, 381, false)
	v.Advance(vehicle.Env{Green: false, Gap: 15, Screen: screen})
	assert.True(t, v.Crossed())
	s := v.S()
	v.Advance(vehicle.Env{Green: false, Gap: 15, Screen: screen})
	assert.Greater(t, v.S(), s)
}

func TestKeepsGap(t *testing.T) {
	pred := newCar(0, 381, 381, false)
	v := newCar(1, 0, 326, false)
	for range 500 {
		pred.Advance(vehicle.Env{Green: false, Gap: 15, Screen: screen})
		v.Advance(vehicle.Env{Green: true, Pred: pred, Gap: 15, Screen: screen})
		assert.LessOrEqual(t, v.S(), pred.S()-pred.Length()-15)
	}
	assert.InDelta(t, 326, v.S(), 2.25)
}

func TestRightTurn(t *testing.T) {
	v := newCar(0, 600, 381, true)
	env := vehicle.Env{Green: true, Gap: 15, Screen: screen}
	for !v.Turned() {
		v.Advance(env)
	}
	assert.Equal(t, 90., v.Heading())
	assert.Equal(t, 100., v.TurnProgress())
	before := v.Pos()
	v.Advance(env)
	assert.InDelta(t, before[0], v.Pos()[0], 1e-9)
	assert.Greater(t, v.Pos()[1], before[1])
}

func TestExitFreezes(t *testing.T) {
	v := newCar(0, 1400, 381, false)
	env := vehicle.Env{Green: true, Gap: 15, Screen: screen}
	for range 200 {
		v.Advance(env)
	}
	assert.True(t, v.Exited())
	pos := v.Pos()
	v.Advance(env)
	assert.Equal(t, pos, v.Pos())
}

func TestFootprint(t *testing.T) {
	v := newCar(0, 100, 381, false)
	b := v.Footprint()
	assert.InDelta(t, 60, b.Min[0], 1e-9)
	assert.InDelta(t, 100, b.Max[0], 1e-9)
	assert.InDelta(t, 378, b.Min[1], 1e-9)
	assert.InDelta(t, 398, b.Max[1], 1e-9)
}
