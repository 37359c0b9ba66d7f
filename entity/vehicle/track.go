package vehicle

import (
	"math"

	"github.com/paulmach/orb"
)

// Track 一条进口车道的几何
// 功能：描述车道中心线的起点、行驶方向以及停止线、转弯点等位置
// 说明：S坐标为车头沿行驶方向相对起点的投影距离
type Track struct {
	Origin      orb.Point // 车道起点（S=0处的车头位置）
	Dir         orb.Point // 行驶方向单位向量
	Heading     float64   // 行驶方向角度（度，屏幕坐标系，0为+x，90为+y）
	StopLine    float64   // 停止线S坐标
	DefaultStop float64   // 默认停车S坐标
	TurnPoint   float64   // 开始右转的S坐标
	Sweep       orb.Point // 转弯时每帧的位移
}

// Project 将点投影到车道方向上，得到S坐标
func (t *Track) Project(p orb.Point) float64 {
	return project(p, t.Origin, t.Dir)
}

// Position S坐标对应的车头位置
func (t *Track) Position(s float64) orb.Point {
	return orb.Point{t.Origin[0] + t.Dir[0]*s, t.Origin[1] + t.Dir[1]*s}
}

func project(p, origin, dir orb.Point) float64 {
	return (p[0]-origin[0])*dir[0] + (p[1]-origin[1])*dir[1]
}

// unit 角度对应的单位向量
func unit(heading float64) orb.Point {
	rad := heading * math.Pi / 180
	return orb.Point{math.Cos(rad), math.Sin(rad)}
}

// footprint 以车头中点、朝向、长宽计算外接矩形
func footprint(front orb.Point, heading, length, width float64) orb.Bound {
	d := unit(heading)
	n := orb.Point{-d[1], d[0]}
	hw := width / 2
	rear := orb.Point{front[0] - d[0]*length, front[1] - d[1]*length}
	return orb.MultiPoint{
		{front[0] + n[0]*hw, front[1] + n[1]*hw},
		{front[0] - n[0]*hw, front[1] - n[1]*hw},
		{rear[0] + n[0]*hw, rear[1] + n[1]*hw},
		{rear[0] - n[0]*hw, rear[1] - n[1]*hw},
	}.Bound()
}
