package trafficlight

import (
	mapv2 "git.fiblab.net/sim/protos/v2/go/city/map/v2"
	"github.com/tsinghua-fib-lab/dynlight-sim/entity"
)

// Timing 信控策略的默认计时参数（单位：步）
type Timing struct {
	Red      int32 // 默认红灯时长
	Yellow   int32 // 黄灯时长
	Green    int32 // 默认绿灯时长
	MinGreen int32 // 最短绿灯
	MaxGreen int32 // 最长绿灯
}

// Signal 单个进口的信号灯
type Signal struct {
	State           mapv2.LightState
	Red             int32 // 剩余红灯时间
	Yellow          int32 // 剩余黄灯时间
	Green           int32 // 剩余绿灯时间
	MinGreen        int32
	MaxGreen        int32
	CumulativeGreen int32 // 累计绿灯时间
}

func newSignal(t Timing, state mapv2.LightState, red int32) *Signal {
	return &Signal{
		State:    state,
		Red:      red,
		Yellow:   t.Yellow,
		Green:    t.Green,
		MinGreen: t.MinGreen,
		MaxGreen: t.MaxGreen,
	}
}

// reset 绿灯周期结束后恢复默认计时
func (s *Signal) reset(t Timing) {
	s.State = mapv2.LightState_LIGHT_STATE_RED
	s.Red = t.Red
	s.Yellow = t.Yellow
	s.Green = t.Green
}

// View 只读视图
func (s *Signal) View() entity.SignalView {
	return entity.SignalView{
		State:           s.State,
		Red:             s.Red,
		Yellow:          s.Yellow,
		Green:           s.Green,
		CumulativeGreen: s.CumulativeGreen,
	}
}
