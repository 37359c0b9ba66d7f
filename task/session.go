package task

import (
	"context"
	"io"

	"git.fiblab.net/sim/syncer/v3"
	"github.com/tsinghua-fib-lab/dynlight-sim/entity"
	"github.com/tsinghua-fib-lab/dynlight-sim/report"
	"github.com/tsinghua-fib-lab/dynlight-sim/stats"
	"github.com/tsinghua-fib-lab/dynlight-sim/storage"
	"github.com/tsinghua-fib-lab/dynlight-sim/utils/config"
)

// Session 输入端
// 功能：按请求启动某个信控策略的一次运行，或输出三种策略的对比表
// 说明：RPC服务只能注册一次，sidecar只交给第一次运行
type Session struct {
	job     string
	conf    config.Config
	store   storage.IStore
	sink    storage.ISink
	sidecar *syncer.Sidecar
	render  entity.IRenderSink

	serving *Context // 启动了sidecar服务的运行
}

// NewSession 创建会话
// 参数：job-任务名，conf-已校验的配置，store-结果读写，extra-额外的结果写入（可为空），sidecar-可为nil
func NewSession(job string, conf config.Config, store storage.IStore, extra []storage.ISink, sidecar *syncer.Sidecar) *Session {
	var sink storage.ISink = store
	if len(extra) > 0 {
		sink = append(storage.MultiSink{store}, extra...)
	}
	return &Session{job: job, conf: conf, store: store, sink: sink, sidecar: sidecar}
}

// SetRenderSink 设置之后每次运行使用的渲染端
func (s *Session) SetRenderSink(r entity.IRenderSink) {
	s.render = r
}

// StartStrategy 运行一次指定策略的仿真并写入结果
func (s *Session) StartStrategy(ctx context.Context, kind entity.Strategy) (stats.Report, error) {
	log.Infof("job %s: start %v", s.job, kind)
	t, err := NewContext(s.job, s.conf, kind, s.sink, s.sidecar, s.sidecar != nil)
	if err != nil {
		return stats.Report{}, err
	}
	if s.sidecar != nil {
		s.serving = t
		s.sidecar = nil
	}
	t.SetRenderSink(s.render)
	return t.Run(ctx)
}

// Close 关闭sidecar服务
func (s *Session) Close() {
	if s.serving != nil {
		s.serving.Close()
	}
}

// RequestPlot 输出已保存结果的对比表
func (s *Session) RequestPlot(ctx context.Context, w io.Writer) error {
	c, err := report.Compare(ctx, s.store)
	if err != nil {
		return err
	}
	return report.Write(w, c)
}
