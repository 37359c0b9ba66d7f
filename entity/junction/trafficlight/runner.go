package trafficlight

// IRunner 后台计算的执行方式
type IRunner interface {
	Go(job func())
}

// InlineRunner 在调用方goroutine中同步执行，用于虚拟时间下的确定性运行
type InlineRunner struct{}

func (InlineRunner) Go(job func()) { job() }

// AsyncRunner 在新goroutine中执行，主循环不等待其完成
type AsyncRunner struct{}

func (AsyncRunner) Go(job func()) { go job() }
