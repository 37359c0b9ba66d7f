// 随机数引擎，包装了golang.org/x/exp/rand，提供车辆生成所需的随机数方法
package randengine

import (
	"flag"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/exp/rand"
)

var (
	seedOffset = flag.Uint64("rand.seed_offset", 0, "seed offset") // 种子偏移量，用于调整随机数生成

	log = logrus.WithField("module", "randengine")
)

// Engine 随机数引擎
// 功能：提供可复现的随机数生成，非Safe方法只能在单个goroutine中调用
type Engine struct {
	*rand.Rand            // 底层随机数生成器
	mtx        sync.Mutex // 互斥锁，用于Safe方法
}

// New 以seed+rand.seed_offset为种子创建随机数引擎
func New(seed uint64) *Engine {
	return &Engine{Rand: rand.New(rand.NewSource(seed + *seedOffset))}
}

// CumulativeDistribution 按累积上界生成随机下标（非线程安全）
// 功能：在[0, bounds[last])内均匀抽取r，返回第一个大于r的上界的下标
// 参数：bounds-非递减的累积上界
// 返回：[0, len(bounds))范围内的下标
// 说明：[400,800,900,1000]对应40%/40%/10%/10%
func (e *Engine) CumulativeDistribution(bounds []float64) int32 {
	if len(bounds) == 0 {
		log.Panic("CumulativeDistribution: empty bounds")
	}
	r := e.Float64() * bounds[len(bounds)-1]
	for i, b := range bounds {
		if b > r {
			return int32(i)
		}
	}
	log.Panicf("CumulativeDistribution: bounds: %v random: %f", bounds, r)
	return -1
}

// PTrue 以指定概率返回true（非线程安全）
func (e *Engine) PTrue(p float64) bool {
	return e.Float64() < p
}

// PTrueSafe 以指定概率返回true（线程安全）
func (e *Engine) PTrueSafe(p float64) bool {
	e.mtx.Lock()
	defer e.mtx.Unlock()
	return e.PTrue(p)
}

// IntnSafe 随机生成[0, n)内的整数（线程安全）
func (e *Engine) IntnSafe(n int) int {
	e.mtx.Lock()
	defer e.mtx.Unlock()
	return e.Intn(n)
}

// CumulativeDistributionSafe 线程安全版本的CumulativeDistribution
func (e *Engine) CumulativeDistributionSafe(bounds []float64) int32 {
	e.mtx.Lock()
	defer e.mtx.Unlock()
	return e.CumulativeDistribution(bounds)
}
