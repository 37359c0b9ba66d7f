package task

import (
	"sync/atomic"

	"git.fiblab.net/sim/syncer/v3"
	"github.com/sirupsen/logrus"
	"github.com/tsinghua-fib-lab/dynlight-sim/clock"
	"github.com/tsinghua-fib-lab/dynlight-sim/entity"
	"github.com/tsinghua-fib-lab/dynlight-sim/entity/arrival"
	"github.com/tsinghua-fib-lab/dynlight-sim/entity/junction"
	"github.com/tsinghua-fib-lab/dynlight-sim/entity/lane"
	"github.com/tsinghua-fib-lab/dynlight-sim/stats"
	"github.com/tsinghua-fib-lab/dynlight-sim/storage"
	"github.com/tsinghua-fib-lab/dynlight-sim/utils/config"
	"github.com/tsinghua-fib-lab/dynlight-sim/utils/randengine"
)

var log = logrus.WithField("module", "task")

// Context 仿真任务上下文
// 功能：包含一次仿真运行（一个信控策略）的所有组件与状态，替代全局变量
// 说明：除渲染goroutine与RPC读取快照外，所有组件只由主循环goroutine修改
type Context struct {
	// 任务名
	job string
	// 结果已写入
	recorded atomic.Bool
	// 关闭指令
	closed atomic.Bool

	// 时钟
	clock *clock.Clock

	// 辅助程序，处理分布式模式下相关调用，为nil时独立运行
	sidecar *syncer.Sidecar
	// sidecar close channel，只有启动了服务时非nil
	sidecarCloseCh chan struct{}

	// 运行时配置
	runtimeConfig *config.RuntimeConfig

	// 车道登记表
	laneManager *lane.LaneManager
	// Junction管理器
	junctionManager *junction.JunctionManager
	// 车辆生成器
	generator *arrival.Generator
	// 统计
	collector *stats.Collector

	// 结果写入
	sink storage.ISink
	// 渲染端与其单槽缓冲
	render entity.IRenderSink
	frames chan entity.Frame
	// 因渲染端繁忙被丢弃的帧数
	dropped atomic.Int64
}

// NewContext 创建新的仿真任务上下文
// 功能：按依赖顺序创建时钟、车道登记表、交叉口、车辆生成器与统计收集器
// 参数：
//   - job: 任务名称
//   - c: 配置，创建时校验
//   - strategy: 信控策略
//   - sink: 结果写入，可为nil
//   - sidecar: 外部sidecar，非nil时注册时钟与信号灯RPC
//   - startSidecarServe: 是否启动sidecar服务
//
// 返回：上下文与错误（配置或策略配置无效）
func NewContext(
	job string,
	c config.Config,
	strategy entity.Strategy,
	sink storage.ISink,
	sidecar *syncer.Sidecar,
	startSidecarServe bool,
) (*Context, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	ctx := &Context{
		job:     job,
		sidecar: sidecar,
		sink:    sink,
		frames:  make(chan entity.Frame, 1),
	}
	ctx.runtimeConfig = config.NewRuntimeConfig(c)
	ctx.clock = clock.New(c.Control)

	ctx.laneManager = lane.NewManager(ctx.runtimeConfig)
	jm, err := junction.NewManager(ctx, strategy)
	if err != nil {
		return nil, err
	}
	ctx.junctionManager = jm
	ctx.generator = arrival.New(c.Arrival, ctx.laneManager, randengine.New(c.Control.Seed))
	ctx.collector = stats.New(strategy, ctx.clock.DT)

	if ctx.sidecar != nil {
		ctx.clock.Register(ctx.sidecar)
		ctx.junctionManager.Register(ctx.sidecar)
		// sidecar协程，用于提供gRPC服务
		if startSidecarServe {
			ctx.sidecarCloseCh = make(chan struct{})
			go func() {
				if err := ctx.sidecar.Serve(); err != nil {
					log.Errorf("failed to serve: %v", err)
				}
				close(ctx.sidecarCloseCh)
			}()
		}
	}
	return ctx, nil
}

// Close 发出关闭指令，主循环在当前步结束后退出；本上下文启动了sidecar服务时关闭并等待其退出
func (ctx *Context) Close() {
	if ctx.closed.Swap(true) || ctx.sidecarCloseCh == nil {
		return
	}
	ctx.sidecar.Close()
	<-ctx.sidecarCloseCh
}

// SetRenderSink 设置渲染端，帧通过单槽缓冲非阻塞投递
func (ctx *Context) SetRenderSink(r entity.IRenderSink) {
	ctx.render = r
}

func (ctx *Context) Clock() *clock.Clock {
	return ctx.clock
}

func (ctx *Context) RuntimeConfig() *config.RuntimeConfig {
	return ctx.runtimeConfig
}

func (ctx *Context) LaneManager() entity.ILaneManager {
	return ctx.laneManager
}

func (ctx *Context) JunctionManager() entity.IJunctionManager {
	return ctx.junctionManager
}

func (ctx *Context) Generator() *arrival.Generator {
	return ctx.generator
}

// DroppedFrames 被丢弃的渲染帧数
func (ctx *Context) DroppedFrames() int64 {
	return ctx.dropped.Load()
}
