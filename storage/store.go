package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/tsinghua-fib-lab/dynlight-sim/entity"
	"github.com/tsinghua-fib-lab/dynlight-sim/stats"
)

var log = logrus.WithField("module", "storage")

var (
	ErrNoData = errors.New("no simulation data for strategy")
)

// Result 一次运行的持久化结果
type Result struct {
	RunID             uuid.UUID `bson:"run_id"`
	Strategy          string    `bson:"strategy"`
	CarsServiced      int32     `bson:"cars_serviced"`
	SimulationSeconds float64   `bson:"simulation_seconds"`
	AverageWaitTime   float64   `bson:"awt"`
	EastWest          int32     `bson:"east_west,omitempty"` // 仅Antenna
	NorthSouth        int32     `bson:"north_south,omitempty"`
	RecordedAt        time.Time `bson:"recorded_at"`
}

// NewResult 由统计结果生成持久化结果
// 说明：Antenna的通过总数为东西向与南北向之和
func NewResult(r stats.Report) Result {
	res := Result{
		RunID:             uuid.New(),
		Strategy:          r.Strategy.String(),
		CarsServiced:      r.TotalCrossed,
		SimulationSeconds: r.SimulationSeconds,
		AverageWaitTime:   r.AverageWaitTime,
		RecordedAt:        time.Now(),
	}
	if r.Strategy == entity.Antenna {
		res.EastWest = r.EastWest
		res.NorthSouth = r.NorthSouth
		res.CarsServiced = r.EastWest + r.NorthSouth
	}
	return res
}

// ISink 结果写入接口
type ISink interface {
	RecordResult(ctx context.Context, r Result) error
}

// IStore 结果读取接口，每个策略保留最近一次结果
type IStore interface {
	ISink
	Get(ctx context.Context, strategy string) (Result, error)
	All(ctx context.Context) (map[string]Result, error)
}

// MultiSink 依次写入多个sink，返回合并后的错误
type MultiSink []ISink

func (m MultiSink) RecordResult(ctx context.Context, r Result) error {
	var errs []error
	for _, s := range m {
		if err := s.RecordResult(ctx, r); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
