package vehicle

import (
	"git.fiblab.net/general/common/v2/mathutil"
	"github.com/paulmach/orb"
)

// Env 单帧运动所需的外部环境
type Env struct {
	Green  bool      // 本进口是否为绿灯（黄灯视为非绿灯）
	Pred   *Vehicle  // 同车道同方向最近的未冻结前车，nil表示没有
	Gap    float64   // 最小车间距
	Screen orb.Bound // 外扩后的屏幕范围，驶出则冻结
}

// Advance 推进一帧
// 功能：按信号、前车间距与转弯状态移动车辆，并判断通过停止线与驶离屏幕
// 参数：env-本帧环境
// 返回：本帧是否首次通过停止线
// 算法说明：
// 1. 已转弯完成：沿新方向行驶，只与同样已转弯的前车保持间距
// 2. 已通过停止线且到达转弯点的右转车辆：每帧旋转rotationStep并按固定位移斜向移动
// 3. 其余情况沿原方向直行：未通过停止线且非绿灯时不越过停车坐标；前车仍在原方向时保持间距
// 4. 车头越过停止线即记为通过，与信号无关
// 5. 已通过停止线且外接矩形离开屏幕范围的车辆冻结
func (v *Vehicle) Advance(env Env) (crossedNow bool) {
	if v.exited {
		return false
	}
	speed := v.attr.Speed
	switch {
	case v.Turned():
		dir := unit(v.heading)
		limit := mathutil.INF
		if p := env.Pred; p != nil && p.Turned() && !p.exited {
			limit = p.along(dir) - p.attr.Length - env.Gap
		}
		if v.along(dir)+speed > limit {
			break
		}
		v.pos = orb.Point{v.pos[0] + dir[0]*speed, v.pos[1] + dir[1]*speed}
	case v.turning() || (v.willTurn && v.crossed && v.S() >= v.track.TurnPoint):
		v.heading += v.rotationStep
		v.pos = orb.Point{v.pos[0] + v.track.Sweep[0], v.pos[1] + v.track.Sweep[1]}
		v.turnFrames++
	default:
		limit := mathutil.INF // 本帧车头S的上限
		if !v.crossed && !env.Green {
			limit = v.stop
		}
		if p := env.Pred; p != nil && !p.Turned() && !p.exited {
			limit = min(limit, p.S()-p.attr.Length-env.Gap)
		}
		if v.S()+speed > limit {
			break
		}
		dir := v.track.Dir
		v.pos = orb.Point{v.pos[0] + dir[0]*speed, v.pos[1] + dir[1]*speed}
	}
	if !v.crossed && v.S() > v.track.StopLine {
		v.crossed = true
		crossedNow = true
	}
	if v.crossed && !v.Footprint().Intersects(env.Screen) {
		v.exited = true
		log.Tracef("%v exited", v)
	}
	return crossedNow
}
