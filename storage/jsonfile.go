package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/google/uuid"
	"github.com/tsinghua-fib-lab/dynlight-sim/entity"
)

// fileEntry 结果文件中一个策略的记录
type fileEntry struct {
	RunID          string  `json:"runId,omitempty"`
	CarsServiced   int32   `json:"carsServiced"`
	SimulationTime float64 `json:"simulationTime,omitempty"`
	AWT            float64 `json:"AWT"`
	EastToWest     *int32  `json:"EastToWest,omitempty"`
	NorthToSouth   *int32  `json:"NorthToSouth,omitempty"`
}

// JSONFileStore 结果文件
// 功能：以策略名（PIR、Camera、Antenna）为键的JSON对象，每次写入时读-改-写整个文件
// 说明：Antenna记录东西向与南北向通过数，不记录仿真时长
type JSONFileStore struct {
	path string
	mu   sync.Mutex
}

func NewJSONFileStore(path string) *JSONFileStore {
	return &JSONFileStore{path: path}
}

func (s *JSONFileStore) load() (map[string]fileEntry, error) {
	data := make(map[string]fileEntry)
	b, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return data, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}
	if err := json.Unmarshal(b, &data); err != nil {
		return nil, fmt.Errorf("parse %s: %w", s.path, err)
	}
	return data, nil
}

func (s *JSONFileStore) RecordResult(ctx context.Context, r Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := s.load()
	if err != nil {
		return err
	}
	e := fileEntry{RunID: r.RunID.String(), CarsServiced: r.CarsServiced, AWT: r.AverageWaitTime}
	if r.Strategy == entity.Antenna.String() {
		ew, ns := r.EastWest, r.NorthSouth
		e.EastToWest, e.NorthToSouth = &ew, &ns
	} else {
		e.SimulationTime = r.SimulationSeconds
	}
	data[r.Strategy] = e
	b, err := json.MarshalIndent(data, "", "     ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(s.path, b, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", s.path, err)
	}
	log.Infof("%s result written to %s", r.Strategy, s.path)
	return nil
}

func (s *JSONFileStore) Get(ctx context.Context, strategy string) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := s.load()
	if err != nil {
		return Result{}, err
	}
	e, ok := data[strategy]
	if !ok {
		return Result{}, fmt.Errorf("%w: %s", ErrNoData, strategy)
	}
	return e.result(strategy), nil
}

func (s *JSONFileStore) All(ctx context.Context) (map[string]Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := s.load()
	if err != nil {
		return nil, err
	}
	res := make(map[string]Result, len(data))
	for k, e := range data {
		res[k] = e.result(k)
	}
	return res, nil
}

func (e fileEntry) result(strategy string) Result {
	r := Result{
		Strategy:          strategy,
		CarsServiced:      e.CarsServiced,
		SimulationSeconds: e.SimulationTime,
		AverageWaitTime:   e.AWT,
	}
	if id, err := uuid.Parse(e.RunID); err == nil {
		r.RunID = id
	}
	if e.EastToWest != nil {
		r.EastWest = *e.EastToWest
	}
	if e.NorthToSouth != nil {
		r.NorthSouth = *e.NorthToSouth
	}
	return r
}
