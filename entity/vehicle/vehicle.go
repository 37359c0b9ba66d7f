package vehicle

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/tsinghua-fib-lab/dynlight-sim/entity"
	"github.com/tsinghua-fib-lab/dynlight-sim/utils/config"
)

// Vehicle 车辆实体
// 功能：记录车型、所在进口与车道、位置朝向以及通过、转弯、驶离状态
// 说明：只由所在车道登记表在主循环中调用Advance修改，驶离屏幕后冻结但不删除
type Vehicle struct {
	id       int32
	class    entity.VehicleClass
	attr     config.VehicleClass
	approach entity.Approach
	lane     int32
	track    *Track

	pos     orb.Point // 车头中点
	heading float64   // 朝向（度）
	stop    float64   // 停车S坐标

	crossed  bool
	willTurn bool
	exited   bool

	turnFrames    int32   // 已完成的转弯帧数
	framesPerTurn int32   // 完成转弯所需帧数
	rotationStep  float64 // 每帧旋转角度
}

// New 创建车辆
// 参数：id-车辆ID，class-车型，attr-车型属性，a-进口，lane-车道，willTurn-是否右转，track-车道几何，
// s-车头初始S坐标，stop-停车S坐标，rc-运行时配置
func New(
	id int32, class entity.VehicleClass, attr config.VehicleClass,
	a entity.Approach, lane int32, willTurn bool,
	track *Track, s, stop float64, rc *config.RuntimeConfig,
) *Vehicle {
	return &Vehicle{
		id:            id,
		class:         class,
		attr:          attr,
		approach:      a,
		lane:          lane,
		track:         track,
		pos:           track.Position(s),
		heading:       track.Heading,
		stop:          stop,
		willTurn:      willTurn,
		framesPerTurn: rc.FramesPerTurn,
		rotationStep:  rc.All.Vehicle.RotationStep,
	}
}

func (v *Vehicle) String() string {
	return fmt.Sprintf("Vehicle{id=%d, class=%v, approach=%v, lane=%d, s=%.1f, stop=%.1f, crossed=%v}",
		v.id, v.class, v.approach, v.lane, v.S(), v.stop, v.crossed)
}

func (v *Vehicle) ID() int32                  { return v.id }
func (v *Vehicle) Class() entity.VehicleClass { return v.class }
func (v *Vehicle) Approach() entity.Approach  { return v.approach }
func (v *Vehicle) Lane() int32                { return v.lane }
func (v *Vehicle) Length() float64            { return v.attr.Length }
func (v *Vehicle) Speed() float64             { return v.attr.Speed }
func (v *Vehicle) Pos() orb.Point             { return v.pos }
func (v *Vehicle) Heading() float64           { return v.heading }
func (v *Vehicle) Stop() float64              { return v.stop }
func (v *Vehicle) Crossed() bool              { return v.crossed }
func (v *Vehicle) WillTurn() bool             { return v.willTurn }
func (v *Vehicle) Exited() bool               { return v.exited }
func (v *Vehicle) SetStop(stop float64)       { v.stop = stop }
func (v *Vehicle) Footprint() orb.Bound {
	return footprint(v.pos, v.heading, v.attr.Length, v.attr.Width)
}
func (v *Vehicle) Turned() bool                { return v.willTurn && v.turnFrames >= v.framesPerTurn }
func (v *Vehicle) turning() bool               { return v.turnFrames > 0 && !v.Turned() }
func (v *Vehicle) along(dir orb.Point) float64 { return v.pos[0]*dir[0] + v.pos[1]*dir[1] }

// S 车头沿原进口方向的S坐标
func (v *Vehicle) S() float64 {
	return v.track.Project(v.pos)
}

// TurnProgress 转弯进度（0未转弯，100转弯完成）
func (v *Vehicle) TurnProgress() float64 {
	if v.framesPerTurn == 0 {
		return 0
	}
	return float64(v.turnFrames) * 100 / float64(v.framesPerTurn)
}

// View 只读快照
func (v *Vehicle) View() entity.VehicleView {
	return entity.VehicleView{
		ID:        v.id,
		Class:     v.class,
		Approach:  v.approach,
		Lane:      v.lane,
		Pos:       v.pos,
		Heading:   v.heading,
		Footprint: v.Footprint(),
		Crossed:   v.crossed,
		Turned:    v.Turned(),
	}
}
