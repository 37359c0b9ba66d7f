package lane

import (
	"sync/atomic"

	"git.fiblab.net/general/common/v2/parallel"
	"github.com/paulmach/orb"
	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/dynlight-sim/entity"
	"github.com/tsinghua-fib-lab/dynlight-sim/entity/vehicle"
	"github.com/tsinghua-fib-lab/dynlight-sim/utils/config"
)

// LaneManager 车道登记表
// 功能：管理四个进口的车道与车辆，提供缓冲式车辆登记、按帧运动学推进与只读快照发布
// 说明：除Enqueue与Snapshot外，所有方法只能在主循环goroutine中调用
type LaneManager struct {
	rc *config.RuntimeConfig

	approaches []*Approach
	screen     orb.Bound

	nextID      atomic.Int32
	snapshot    atomic.Pointer[entity.RegistrySnapshot]
	lastCrossed [entity.ApproachCount]int32
}

// NewManager 创建空的车道登记表，并发布一份空快照
func NewManager(rc *config.RuntimeConfig) *LaneManager {
	m := &LaneManager{
		rc:         rc,
		approaches: lo.Map(entity.Approaches, func(a entity.Approach, _ int) *Approach { return newApproach(a) }),
		screen:     ScreenBound(rc.All.Vehicle.ExitMargin),
	}
	m.snapshot.Store(&entity.RegistrySnapshot{})
	return m
}

// Enqueue 分配车辆ID并写入对应车道的缓冲区，下一步Prepare时提交（线程安全）
func (m *LaneManager) Enqueue(class entity.VehicleClass, a entity.Approach, lane int32, willTurn bool) {
	id := m.nextID.Add(1) - 1
	m.approaches[a].lanes[lane].add(arrival{id: id, class: class, willTurn: willTurn})
}

// Prepare 准备阶段，提交所有车道缓冲区中的新车辆
func (m *LaneManager) Prepare() {
	parallel.GoFor(m.approaches, func(ap *Approach) {
		for _, l := range ap.lanes {
			l.prepare(m)
		}
	})
}

// Update 更新阶段，各进口并行推进control.substeps帧
// 参数：signals-信号灯读取接口
// 说明：不同进口之间的车辆互不影响，因此按进口并行
func (m *LaneManager) Update(signals entity.ISignalGetter) {
	frames := m.rc.C.Substeps
	env := vehicle.Env{Gap: m.rc.All.Vehicle.Gap, Screen: m.screen}
	green := lo.Map(entity.Approaches, func(a entity.Approach, _ int) bool { return signals.IsGreen(a) })
	parallel.GoFor(m.approaches, func(ap *Approach) {
		ap.update(green[ap.id], frames, env)
	})
}

// ResetStops 将进口a所有未通过车辆的停车坐标重置为默认值（该方向绿灯结束时调用）
func (m *LaneManager) ResetStops(a entity.Approach) {
	for _, l := range m.approaches[a].lanes {
		l.resetStops()
	}
}

// Publish 发布只读快照
// 功能：收集未冻结车辆的视图与各方向计数，原子地替换当前快照
// 说明：通过数减少属于程序错误，直接panic
func (m *LaneManager) Publish(step int32) {
	s := &entity.RegistrySnapshot{Step: step, Vehicles: make([]entity.VehicleView, 0)}
	for _, ap := range m.approaches {
		if ap.crossed < m.lastCrossed[ap.id] {
			log.Panicf("crossed count of %v decreased: %d -> %d", ap.id, m.lastCrossed[ap.id], ap.crossed)
		}
		m.lastCrossed[ap.id] = ap.crossed
		s.Crossed[ap.id] = ap.crossed
		for i, l := range ap.lanes {
			for _, v := range l.vehicles[l.firstActive:] {
				if v.Exited() {
					continue
				}
				s.Lanes[ap.id][i]++
				s.Vehicles = append(s.Vehicles, v.View())
				if !v.Crossed() {
					s.Uncrossed[ap.id][v.Class()]++
				}
			}
		}
	}
	m.snapshot.Store(s)
}

// Snapshot 最近一次发布的快照（线程安全）
func (m *LaneManager) Snapshot() *entity.RegistrySnapshot {
	return m.snapshot.Load()
}

// Crossed 各方向已通过停止线的车辆数
func (m *LaneManager) Crossed() [entity.ApproachCount]int32 {
	var c [entity.ApproachCount]int32
	for _, ap := range m.approaches {
		c[ap.id] = ap.crossed
	}
	return c
}

// LaneCrossed 各车道已通过停止线的车辆数
func (m *LaneManager) LaneCrossed() [entity.ApproachCount][3]int32 {
	var c [entity.ApproachCount][3]int32
	for _, ap := range m.approaches {
		c[ap.id] = ap.laneCrossed
	}
	return c
}

// Approach 获取进口
func (m *LaneManager) Approach(a entity.Approach) *Approach {
	return m.approaches[a]
}
