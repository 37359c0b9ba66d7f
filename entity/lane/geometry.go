package lane

import (
	"github.com/paulmach/orb"
	"github.com/tsinghua-fib-lab/dynlight-sim/entity"
	"github.com/tsinghua-fib-lab/dynlight-sim/entity/vehicle"
)

// 屏幕尺寸（像素）
const (
	ScreenWidth  = 1400
	ScreenHeight = 922
)

// approachGeometry 单个进口的屏幕几何，坐标均为沿行驶轴的屏幕坐标
type approachGeometry struct {
	dir         orb.Point
	heading     float64
	start       float64    // 生成位置
	stopLine    float64    // 停止线
	defaultStop float64    // 默认停车位置
	mid         float64    // 转弯点（路口中线）
	sweep       orb.Point  // 转弯时每帧位移
	offsets     [3]float64 // 各车道中心线的横向屏幕坐标
}

var geometries = [entity.ApproachCount]approachGeometry{
	entity.West: {
		dir: orb.Point{1, 0}, heading: 0,
		start: 0, stopLine: 391, defaultStop: 381, mid: 700,
		sweep:   orb.Point{3, 2.8},
		offsets: [3]float64{338, 360, 388},
	},
	entity.North: {
		dir: orb.Point{0, 1}, heading: 90,
		start: 0, stopLine: 200, defaultStop: 190, mid: 461,
		sweep:   orb.Point{-2.5, 2},
		offsets: [3]float64{775, 747, 717},
	},
	entity.East: {
		dir: orb.Point{-1, 0}, heading: 180,
		start: ScreenWidth, stopLine: 1011, defaultStop: 1021, mid: 700,
		sweep:   orb.Point{-1.8, -2.5},
		offsets: [3]float64{508, 476, 446},
	},
	entity.South: {
		dir: orb.Point{0, -1}, heading: 270,
		start: 800, stopLine: 665, defaultStop: 675, mid: 461,
		sweep:   orb.Point{2, -2},
		offsets: [3]float64{602, 627, 657},
	},
}

// axisPoint 沿轴坐标c与横向坐标offset对应的屏幕点
func (g approachGeometry) axisPoint(c, offset float64) orb.Point {
	if g.dir[0] != 0 {
		return orb.Point{c, offset}
	}
	return orb.Point{offset, c}
}

// NewTrack 构造进口a第lane条车道的几何
// 说明：停止线、默认停车位置、转弯点均换算为该车道的S坐标
func NewTrack(a entity.Approach, lane int32) *vehicle.Track {
	g := geometries[a]
	offset := g.offsets[lane]
	t := &vehicle.Track{
		Origin:  g.axisPoint(g.start, offset),
		Dir:     g.dir,
		Heading: g.heading,
		Sweep:   g.sweep,
	}
	t.StopLine = t.Project(g.axisPoint(g.stopLine, offset))
	t.DefaultStop = t.Project(g.axisPoint(g.defaultStop, offset))
	t.TurnPoint = t.Project(g.axisPoint(g.mid, offset))
	return t
}

// ScreenBound 外扩margin后的屏幕范围
func ScreenBound(margin float64) orb.Bound {
	return orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{ScreenWidth, ScreenHeight}}.Pad(margin)
}
