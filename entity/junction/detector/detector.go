package detector

import (
	"github.com/paulmach/orb"
	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/dynlight-sim/entity"
	"github.com/tsinghua-fib-lab/dynlight-sim/utils/config"
)

// ISnapshotSource 提供车道登记表的只读快照
type ISnapshotSource interface {
	Snapshot() *entity.RegistrySnapshot
}

// Detector 占有检测器
// 功能：每个进口一个矩形检测区，车辆外接矩形与检测区相交即视为占有
// 说明：只读取已发布的快照，可在任意goroutine中调用
type Detector struct {
	source ISnapshotSource
	zones  [entity.ApproachCount]orb.Bound
}

// New 创建检测器
// 参数：source-快照来源，zones-按West North East South顺序的检测区（左上角+宽高）
func New(source ISnapshotSource, zones []config.Zone) *Detector {
	d := &Detector{source: source}
	for i, z := range zones[:entity.ApproachCount] {
		d.zones[i] = ZoneBound(z)
	}
	return d
}

// ZoneBound 将检测区配置转为矩形
func ZoneBound(z config.Zone) orb.Bound {
	return orb.Bound{Min: orb.Point{z.X, z.Y}, Max: orb.Point{z.X + z.W, z.Y + z.H}}
}

// Count 检测区a内的车辆数
func (d *Detector) Count(a entity.Approach) int {
	zone := d.zones[a]
	return lo.CountBy(d.source.Snapshot().Vehicles, func(v entity.VehicleView) bool {
		return v.Footprint.Intersects(zone)
	})
}

// Present 检测区a内是否有车辆
func (d *Detector) Present(a entity.Approach) bool {
	zone := d.zones[a]
	return lo.ContainsBy(d.source.Snapshot().Vehicles, func(v entity.VehicleView) bool {
		return v.Footprint.Intersects(zone)
	})
}
