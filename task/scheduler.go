package task

import (
	"github.com/tsinghua-fib-lab/dynlight-sim/utils/container"
)

type eventKind int

const (
	eventArrival eventKind = iota
	eventTick
)

// scheduler 虚拟时间下的离散事件调度器
// 功能：按时间戳顺序弹出车辆到达与主循环步事件，同时刻按插入顺序
type scheduler struct {
	queue *container.PriorityQueue[eventKind]
}

func newScheduler() *scheduler {
	return &scheduler{queue: container.NewPriorityQueue[eventKind]()}
}

func (s *scheduler) at(t float64, e eventKind) {
	s.queue.HeapPush(e, t)
}

// next 弹出最早的事件
func (s *scheduler) next() (eventKind, float64) {
	e, t := s.queue.HeapPop()
	return e, t
}

func (s *scheduler) empty() bool {
	return s.queue.Len() == 0
}
