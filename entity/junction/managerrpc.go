package junction

import (
	"context"
	"errors"
	"math"
	"net/http"

	"connectrpc.com/connect"
	mapv2 "git.fiblab.net/sim/protos/v2/go/city/map/v2"
	mapv2connect "git.fiblab.net/sim/protos/v2/go/city/map/v2/mapv2connect"
	"git.fiblab.net/sim/syncer/v3"
	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/dynlight-sim/entity"
)

// Register 将信号灯服务注册到sidecar
// 说明：相位索引即进口方向编号（West=0 North=1 East=2 South=3）
func (m *JunctionManager) Register(sidecar *syncer.Sidecar) {
	sidecar.Register(
		mapv2connect.TrafficLightServiceName,
		func(opts ...connect.HandlerOption) (pattern string, handler http.Handler) {
			return mapv2connect.NewTrafficLightServiceHandler(m, opts...)
		},
	)
}

// GetTrafficLight RPC接口：获取信号灯状态
// 返回：当前绿灯/黄灯方向作为相位索引，以及其剩余时间（秒）
func (m *JunctionManager) GetTrafficLight(
	ctx context.Context, in *connect.Request[mapv2.GetTrafficLightRequest],
) (*connect.Response[mapv2.GetTrafficLightResponse], error) {
	j, err := m.GetOrError(in.Msg.JunctionId)
	if err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}
	s := j.controller.Bank().Snapshot()
	return connect.NewResponse(&mapv2.GetTrafficLightResponse{
		PhaseIndex:    int32(s.Current),
		TimeRemaining: float64(remaining(s)) * m.ctx.Clock().DT,
	}), nil
}

// SetTrafficLightPhase RPC接口：人工指定下一个绿灯方向
// 功能：相位索引为当前方向时提前结束其绿灯；否则将其设为下一个绿灯方向并结束当前绿灯，
// TimeRemaining大于0时作为该方向的绿灯时长，按策略的最短、最长绿灯截断
// 说明：命令在下一步Prepare时生效，之后策略按自身规则继续运行
func (m *JunctionManager) SetTrafficLightPhase(
	ctx context.Context, in *connect.Request[mapv2.SetTrafficLightPhaseRequest],
) (*connect.Response[mapv2.SetTrafficLightPhaseResponse], error) {
	req := in.Msg
	j, err := m.GetOrError(req.JunctionId)
	if err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}
	if req.PhaseIndex < 0 || req.PhaseIndex >= entity.ApproachCount {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("phase index must be an approach in [0,4)"))
	}
	if math.IsNaN(req.TimeRemaining) || math.IsInf(req.TimeRemaining, 0) || req.TimeRemaining < 0 {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("remaining time must be finite and non-negative"))
	}
	a := entity.Approach(req.PhaseIndex)
	bank := j.controller.Bank()
	s := bank.Snapshot()
	if a == s.Current {
		bank.ForceEndGreen(a)
		return connect.NewResponse(&mapv2.SetTrafficLightPhaseResponse{}), nil
	}
	bank.SetNext(a)
	if req.TimeRemaining > 0 {
		t := bank.Timing()
		ticks := lo.Clamp(math.Ceil(req.TimeRemaining/m.ctx.Clock().DT), float64(t.MinGreen), float64(t.MaxGreen))
		bank.SetGreen(s.Cycle, a, int32(ticks))
		log.Infof("operator override: next %v, green %d steps", a, int32(ticks))
	} else {
		log.Infof("operator override: next %v", a)
	}
	bank.ForceEndGreen(s.Current)
	return connect.NewResponse(&mapv2.SetTrafficLightPhaseResponse{}), nil
}
