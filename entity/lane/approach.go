package lane

import (
	"github.com/tsinghua-fib-lab/dynlight-sim/entity"
	"github.com/tsinghua-fib-lab/dynlight-sim/entity/vehicle"
)

// Approach 进口
// 功能：聚合三条车道并累计通过停止线的车辆数（单调不减）
type Approach struct {
	id          entity.Approach
	lanes       [3]*Lane
	crossed     int32
	laneCrossed [3]int32
}

func newApproach(a entity.Approach) *Approach {
	ap := &Approach{id: a}
	for i := range ap.lanes {
		ap.lanes[i] = newLane(a, int32(i))
	}
	return ap
}

// update 按帧推进本进口所有车道
// 参数：green-本进口是否为绿灯，frames-帧数，env-公共环境
func (ap *Approach) update(green bool, frames int32, env vehicle.Env) {
	env.Green = green
	for range frames {
		for i, l := range ap.lanes {
			if n := l.frame(env); n > 0 {
				ap.crossed += n
				ap.laneCrossed[i] += n
			}
		}
	}
}

// Lane 第i条车道
func (ap *Approach) Lane(i int32) *Lane {
	return ap.lanes[i]
}

// Crossed 已通过停止线的车辆数
func (ap *Approach) Crossed() int32 {
	return ap.crossed
}
