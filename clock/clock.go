package clock

import (
	"fmt"
	"math"
	"sync/atomic"

	"git.fiblab.net/sim/protos/v2/go/city/clock/v1/clockv1connect"
	"github.com/tsinghua-fib-lab/dynlight-sim/utils/config"
)

// Clock 仿真时钟
// 功能：管理仿真时间推进，每步内部再划分为若干运动学帧
// 说明：模拟区间为[START_STEP, END_STEP)，只由主循环goroutine推进
type Clock struct {
	clockv1connect.UnimplementedClockServiceHandler

	DT         float64 // 每步时间间隔（秒）
	FRAMES     int32   // 每步内部的运动学帧数
	START_STEP int32   // 起始步
	END_STEP   int32   // 结束步

	T            float64 // 当前时间（秒）
	InternalStep int32   // 当前步数

	published atomic.Uint64 // 供RPC读取的T
}

// New 根据配置创建时钟
// 参数：control-全局控制配置
// 返回：初始化完成的时钟实例
func New(control config.Control) *Clock {
	c := &Clock{
		DT:         control.Step.Interval,
		FRAMES:     control.Substeps,
		START_STEP: control.Step.Start,
		END_STEP:   control.Step.Start + control.Step.Total,
	}
	c.Init()
	return c
}

// Init 重置时钟到起始步
func (c *Clock) Init() {
	c.InternalStep = c.START_STEP
	c.T = float64(c.InternalStep) * c.DT
	c.published.Store(math.Float64bits(c.T))
}

// Advance 推进一步
func (c *Clock) Advance() {
	c.InternalStep++
	c.T = float64(c.InternalStep) * c.DT
	c.published.Store(math.Float64bits(c.T))
}

// Elapsed 已经完成的步数
func (c *Clock) Elapsed() int32 {
	return c.InternalStep - c.START_STEP
}

// Done 是否已到达结束步
func (c *Clock) Done() bool {
	return c.InternalStep >= c.END_STEP
}

// Seconds 仿真总时长（秒）
func (c *Clock) Seconds() float64 {
	return float64(c.END_STEP-c.START_STEP) * c.DT
}

// String 将当前时间格式化为HH:MM:SS
func (c *Clock) String() string {
	t := c.T
	h := int(t / 3600)
	t -= float64(h * 3600)
	m := int(t / 60)
	t -= float64(m * 60)
	s := int(t)
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// GetHourMinuteSecond 获取当前时间的小时、分钟、秒
func (c *Clock) GetHourMinuteSecond() (int, int, float64) {
	hour := int(c.T) / 3600
	minute := int(c.T) % 3600 / 60
	second := c.T - float64(hour*3600+minute*60)
	return hour, minute, second
}
