package entity

import (
	"github.com/tsinghua-fib-lab/dynlight-sim/clock"
	"github.com/tsinghua-fib-lab/dynlight-sim/utils/config"
)

type ITaskContext interface {
	Clock() *clock.Clock
	RuntimeConfig() *config.RuntimeConfig
	LaneManager() ILaneManager
	JunctionManager() IJunctionManager
}
