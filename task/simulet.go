package task

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tsinghua-fib-lab/dynlight-sim/entity"
	"github.com/tsinghua-fib-lab/dynlight-sim/stats"
	"github.com/tsinghua-fib-lab/dynlight-sim/storage"
)

const (
	SelfName = "dynlight" // 本程序在模拟任务集群中的名字
)

var (
	ErrIncomplete = errors.New("run closed before the last step")
)

// step 主循环的一步
// 功能：按固定顺序推进所有组件
// 算法说明：
// 1. 时钟+1，提交新到达车辆，应用信控命令
// 2. 信号灯计时与切换，车辆运动学（按进口并行）
// 3. 统计，发布车道快照
// 4. 信控策略决策（命令在下一步生效），投递渲染帧
// 返回：sidecar要求结束或收到关闭指令时为true
func (ctx *Context) step() (close bool) {
	ctx.clock.Advance()
	if ctx.clock.InternalStep%ctx.runtimeConfig.C.HeartbeatInterval == 0 {
		hour, minute, second := ctx.clock.GetHourMinuteSecond()
		state, timing := ctx.junctionManager.ControllerState()
		log.Infof(
			"STEP: %d(%d:%d:%.2f) current %v crossed %v controller %s timing %+v",
			ctx.clock.InternalStep, hour, minute, second,
			ctx.junctionManager.Current(), ctx.laneManager.Crossed(), state, timing,
		)
	}

	ctx.laneManager.Prepare()
	ctx.junctionManager.Prepare()
	if ctx.sidecar != nil {
		ctx.sidecar.NotifyStepReady()
	}

	ctx.junctionManager.Update()
	ctx.laneManager.Update(ctx.junctionManager)
	ctx.collector.Observe(
		ctx.junctionManager.ActiveRemaining(),
		ctx.junctionManager.Signals(),
		ctx.laneManager.Snapshot().Uncrossed,
	)
	ctx.laneManager.Publish(ctx.clock.InternalStep)
	ctx.junctionManager.Decide()
	ctx.emit()

	if ctx.sidecar != nil {
		close = ctx.sidecar.Step(ctx.clock.Done())
	}
	return close || ctx.closed.Load()
}

// emit 非阻塞地投递渲染帧，渲染端未取走上一帧时丢弃本帧
func (ctx *Context) emit() {
	if ctx.render == nil {
		return
	}
	snapshot := ctx.laneManager.Snapshot()
	f := entity.Frame{
		Strategy: ctx.junctionManager.Strategy(),
		Step:     ctx.clock.InternalStep,
		T:        ctx.clock.T,
		Current:  ctx.junctionManager.Current(),
		Next:     ctx.junctionManager.Next(),
		Signals:  ctx.junctionManager.Signals(),
		Crossed:  snapshot.Crossed,
		Vehicles: snapshot.Vehicles,
	}
	select {
	case ctx.frames <- f:
	default:
		ctx.dropped.Add(1)
	}
}

func (ctx *Context) renderLoop(c context.Context) {
	for {
		select {
		case <-c.Done():
			return
		case f := <-ctx.frames:
			ctx.render.Render(f)
		}
	}
}

// runVirtual 虚拟时间：按时间戳顺序处理车辆到达与主循环步，不等待墙钟
func (ctx *Context) runVirtual(c context.Context) error {
	s := newScheduler()
	dt := ctx.clock.DT
	period := ctx.generator.PeriodSeconds()
	s.at(ctx.clock.T+period, eventArrival)
	s.at(ctx.clock.T+dt, eventTick)
	for !ctx.clock.Done() && !s.empty() {
		if err := c.Err(); err != nil {
			return err
		}
		e, t := s.next()
		switch e {
		case eventArrival:
			ctx.generator.Fire()
			s.at(t+period, eventArrival)
		case eventTick:
			if ctx.step() {
				return nil
			}
			s.at(t+dt, eventTick)
		}
	}
	return nil
}

// runRealtime 墙钟时间：主循环等待ticker，车辆生成器在独立goroutine中按自身周期运行
func (ctx *Context) runRealtime(c context.Context) error {
	go ctx.generator.Run(c)
	ticker := time.NewTicker(time.Duration(ctx.clock.DT * float64(time.Second)))
	defer ticker.Stop()
	for !ctx.clock.Done() {
		select {
		case <-c.Done():
			return c.Err()
		case <-ticker.C:
			if ctx.step() {
				return nil
			}
		}
	}
	return nil
}

// Run 运行一次仿真
// 功能：从起始步运行到结束步，生成统计结果并恰好写入一次结果
// 说明：结束后取消内部context，车辆生成与后台计数goroutine不等待其完成
// 返回：统计结果；c被取消时返回其错误且不写入结果；
// sidecar或关闭指令使运行在结束步之前停止时，返回截至该步的统计与ErrIncomplete，同样不写入结果
func (ctx *Context) Run(c context.Context) (stats.Report, error) {
	ctx.clock.Init()
	runCtx, cancel := context.WithCancel(c)
	defer cancel()
	if ctx.render != nil {
		go ctx.renderLoop(runCtx)
	}
	if ctx.sidecar != nil {
		ctx.sidecar.Step(false)
	}

	var err error
	if ctx.runtimeConfig.C.Realtime {
		err = ctx.runRealtime(runCtx)
	} else {
		err = ctx.runVirtual(runCtx)
	}
	if err != nil {
		log.Warnf("%v run interrupted at step %d: %v", ctx.junctionManager.Strategy(), ctx.clock.InternalStep, err)
		return stats.Report{}, err
	}

	complete := ctx.clock.Done()
	seconds := ctx.clock.Seconds()
	if !complete {
		seconds = float64(ctx.clock.Elapsed()) * ctx.clock.DT
	}
	r := ctx.collector.Report(ctx.laneManager.Crossed(), ctx.laneManager.LaneCrossed(), seconds)
	r.Log()
	log.Infof("%d arrivals generated, %d frames dropped", ctx.generator.Fired(), ctx.dropped.Load())
	if !complete {
		log.Warnf("%v run closed at step %d of %d, result not recorded",
			ctx.junctionManager.Strategy(), ctx.clock.InternalStep, ctx.clock.END_STEP)
		return r, fmt.Errorf("%w: step %d of %d", ErrIncomplete, ctx.clock.InternalStep, ctx.clock.END_STEP)
	}
	if !ctx.recorded.CompareAndSwap(false, true) {
		log.Panicf("result of job %s recorded twice", ctx.job)
	}
	if ctx.sink != nil {
		if err := ctx.sink.RecordResult(c, storage.NewResult(r)); err != nil {
			return r, err
		}
	}
	log.Infof("engine complete")
	return r, nil
}
