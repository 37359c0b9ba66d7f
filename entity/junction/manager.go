package junction

import (
	"fmt"

	mapv2connect "git.fiblab.net/sim/protos/v2/go/city/map/v2/mapv2connect"
	"github.com/tsinghua-fib-lab/dynlight-sim/entity"
	"github.com/tsinghua-fib-lab/dynlight-sim/entity/junction/trafficlight"
)

// Junction管理器
// 说明：场景只有一个交叉口，ID为0；保留按ID查找以服务RPC
type JunctionManager struct {
	mapv2connect.UnimplementedTrafficLightServiceHandler

	ctx entity.ITaskContext

	data     map[int32]*Junction
	junction *Junction
}

// NewManager 创建Junction管理器实例
// 功能：按所选策略初始化唯一的交叉口
// 参数：ctx-任务上下文（车道登记表必须已创建），strategy-信控策略
// 返回：管理器与错误（配置无效或策略未知）
func NewManager(ctx entity.ITaskContext, strategy entity.Strategy) (*JunctionManager, error) {
	j, err := newJunction(ctx, 0, strategy)
	if err != nil {
		return nil, err
	}
	return &JunctionManager{
		ctx:      ctx,
		data:     map[int32]*Junction{j.id: j},
		junction: j,
	}, nil
}

// Get 根据ID获取Junction实例，不存在则panic
func (m *JunctionManager) Get(id int32) *Junction {
	if junction, ok := m.data[id]; !ok {
		log.Panicf("no id %d in junction data", id)
		return nil
	} else {
		return junction
	}
}

// GetOrError 根据ID获取Junction实例（带错误处理）
func (m *JunctionManager) GetOrError(id int32) (*Junction, error) {
	if junction, ok := m.data[id]; !ok {
		return nil, fmt.Errorf("%w: %d", ErrNoSuchJunction, id)
	} else {
		return junction, nil
	}
}

// Prepare 准备阶段，应用缓冲区中的信控命令
func (m *JunctionManager) Prepare() {
	m.junction.prepare()
}

// Update 更新阶段，计时器递减与相位切换
func (m *JunctionManager) Update() {
	m.junction.update()
}

// Decide 决策阶段，在车道快照发布后调用
func (m *JunctionManager) Decide() {
	m.junction.decide(m.ctx.Clock().InternalStep)
}

// ControllerState 信控策略的决策状态与计时参数，用于心跳日志（主循环goroutine）
func (m *JunctionManager) ControllerState() (string, trafficlight.Timing) {
	c := m.junction.controller
	return c.State(), c.Bank().Timing()
}

func (m *JunctionManager) Strategy() entity.Strategy {
	return m.junction.controller.Strategy()
}

// IsGreen 方向a是否为绿灯（主循环goroutine）
func (m *JunctionManager) IsGreen(a entity.Approach) bool {
	return m.junction.controller.Bank().IsGreen(a)
}

func (m *JunctionManager) Current() entity.Approach {
	return m.junction.controller.Bank().Snapshot().Current
}

func (m *JunctionManager) Next() entity.Approach {
	return m.junction.controller.Bank().Snapshot().Next
}

func (m *JunctionManager) ActiveRemaining() int32 {
	return remaining(m.junction.controller.Bank().Snapshot())
}

// Signals 信号灯快照（线程安全）
func (m *JunctionManager) Signals() [entity.ApproachCount]entity.SignalView {
	return m.junction.controller.Bank().Snapshot().Signals
}
