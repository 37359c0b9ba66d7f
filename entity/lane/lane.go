package lane

import (
	"sync"

	"github.com/tsinghua-fib-lab/dynlight-sim/entity"
	"github.com/tsinghua-fib-lab/dynlight-sim/entity/vehicle"
)

// arrival 等待提交的新车辆
type arrival struct {
	id       int32
	class    entity.VehicleClass
	willTurn bool
}

// Lane 车道
// 功能：按到达顺序保存车辆（下标0最早到达），新车辆先写入缓冲区，在prepare阶段提交
// 说明：车辆只追加不删除，驶离屏幕的车辆冻结；firstActive之前的车辆均已驶离
type Lane struct {
	index    int32
	approach entity.Approach
	track    *vehicle.Track

	vehicles    []*vehicle.Vehicle
	firstActive int

	buffer      []arrival
	bufferMutex sync.Mutex
}

func newLane(a entity.Approach, index int32) *Lane {
	return &Lane{
		index:    index,
		approach: a,
		track:    NewTrack(a, index),
		vehicles: make([]*vehicle.Vehicle, 0),
		buffer:   make([]arrival, 0),
	}
}

// add 添加到缓冲区（线程安全）
func (l *Lane) add(a arrival) {
	l.bufferMutex.Lock()
	defer l.bufferMutex.Unlock()
	l.buffer = append(l.buffer, a)
}

// last 最近到达的车辆
func (l *Lane) last() *vehicle.Vehicle {
	if len(l.vehicles) == 0 {
		return nil
	}
	return l.vehicles[len(l.vehicles)-1]
}

// ahead 下标i之前最近的、与车辆i行驶方向相同的未冻结车辆
// 参数：turned-车辆i是否已转弯完成
// 说明：转弯完成的车辆只与同样转弯完成的车辆同向，其余车辆仍沿进口方向行驶
func (l *Lane) ahead(i int, turned bool) *vehicle.Vehicle {
	for j := i - 1; j >= l.firstActive; j-- {
		if p := l.vehicles[j]; !p.Exited() && p.Turned() == turned {
			return p
		}
	}
	return nil
}

// prepare 提交缓冲区中的车辆
// 算法说明：
// 1. 最近到达的车辆存在且未通过停止线：停车坐标 = 其停车坐标 - 其车长 - gap，否则取默认停车坐标
// 2. 生成位置为车道起点，若与仍沿进口方向行驶的前车重叠则后移到 前车S - 前车车长 - gap
func (l *Lane) prepare(m *LaneManager) {
	l.bufferMutex.Lock()
	pending := l.buffer
	l.buffer = make([]arrival, 0)
	l.bufferMutex.Unlock()

	gap := m.rc.All.Vehicle.Gap
	classes := m.rc.All.Vehicle.Classes()
	for _, a := range pending {
		stop, s := l.track.DefaultStop, 0.
		if last := l.last(); last != nil && !last.Crossed() {
			stop = last.Stop() - last.Length() - gap
		}
		if pred := l.ahead(len(l.vehicles), false); pred != nil {
			s = min(s, pred.S()-pred.Length()-gap)
		}
		v := vehicle.New(a.id, a.class, classes[a.class], l.approach, l.index, a.willTurn, l.track, s, stop, m.rc)
		l.vehicles = append(l.vehicles, v)
		log.Debugf("commit %v", v)
	}
}

// frame 车道上所有未冻结车辆前进一帧
// 返回：本帧通过停止线的车辆数
// 说明：前车取同方向最近的未冻结车辆，中间已转离或仍在原方向的车辆不阻断间距约束
func (l *Lane) frame(env vehicle.Env) (crossed int32) {
	for l.firstActive < len(l.vehicles) && l.vehicles[l.firstActive].Exited() {
		l.firstActive++
	}
	for i := l.firstActive; i < len(l.vehicles); i++ {
		v := l.vehicles[i]
		env.Pred = l.ahead(i, v.Turned())
		if v.Advance(env) {
			crossed++
		}
	}
	return
}

// resetStops 将所有未通过停止线车辆的停车坐标重置为默认值
func (l *Lane) resetStops() {
	for i := l.firstActive; i < len(l.vehicles); i++ {
		if v := l.vehicles[i]; !v.Crossed() {
			v.SetStop(l.track.DefaultStop)
		}
	}
}

// Vehicles 车道上的全部车辆（含已冻结），只能在主循环中读取
func (l *Lane) Vehicles() []*vehicle.Vehicle {
	return l.vehicles
}

// Track 车道几何
func (l *Lane) Track() *vehicle.Track {
	return l.track
}
