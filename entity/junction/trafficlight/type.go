package trafficlight

import (
	"github.com/tsinghua-fib-lab/dynlight-sim/entity"
)

// 依赖倒置，表达信控策略对检测器与车道快照的需求

// IDetector 占有检测接口
type IDetector interface {
	Present(a entity.Approach) bool
	Count(a entity.Approach) int
}

// ISnapshotSource 车道登记表快照来源
type ISnapshotSource interface {
	Snapshot() *entity.RegistrySnapshot
}

// IController 信控策略
type IController interface {
	Strategy() entity.Strategy
	Bank() *Bank
	// 当前决策状态，用于日志
	State() string
	// 每步在车道快照发布后调用一次，产生的命令写入Bank缓冲区
	Decide(step int32)
}
