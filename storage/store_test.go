package storage_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tsinghua-fib-lab/dynlight-sim/entity"
	"github.com/tsinghua-fib-lab/dynlight-sim/stats"
	"github.com/tsinghua-fib-lab/dynlight-sim/storage"
)

func antennaResult() storage.Result {
	return storage.NewResult(stats.Report{
		Strategy:          entity.Antenna,
		SimulationSeconds: 300,
		AverageWaitTime:   5,
		TotalCrossed:      99,
		EastWest:          30,
		NorthSouth:        12,
	})
}

func TestNewResult(t *testing.T) {
	r := antennaResult()
	assert.Equal(t, "Antenna", r.Strategy)
	assert.Equal(t, int32(42), r.CarsServiced)
	assert.NotEqual(t, [16]byte{}, [16]byte(r.RunID))

	pir := storage.NewResult(stats.Report{Strategy: entity.PIR, TotalCrossed: 7, EastWest: 3})
	assert.Equal(t, int32(7), pir.CarsServiced)
	assert.Zero(t, pir.EastWest)
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := storage.NewMemoryStore()
	_, err := s.Get(ctx, "Camera")
	assert.ErrorIs(t, err, storage.ErrNoData)

	require.NoError(t, s.RecordResult(ctx, antennaResult()))
	r, err := s.Get(ctx, "Antenna")
	require.NoError(t, err)
	assert.Equal(t, int32(42), r.CarsServiced)
	all, err := s.All(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestJSONFileStore(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "simulation_data.json")
	s := storage.NewJSONFileStore(path)

	all, err := s.All(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)

	require.NoError(t, s.RecordResult(ctx, antennaResult()))
	require.NoError(t, s.RecordResult(ctx, storage.NewResult(stats.Report{
		Strategy: entity.Camera, SimulationSeconds: 300, AverageWaitTime: 4.5, TotalCrossed: 50,
	})))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"EastToWest": 30`)
	assert.Contains(t, string(b), `"carsServiced": 50`)
	assert.Contains(t, string(b), `"simulationTime": 300`)

	r, err := s.Get(ctx, "Antenna")
	require.NoError(t, err)
	assert.Equal(t, int32(30), r.EastWest)
	assert.Equal(t, int32(12), r.NorthSouth)
	assert.Equal(t, 5.0, r.AverageWaitTime)

	_, err = s.Get(ctx, "PIR")
	assert.ErrorIs(t, err, storage.ErrNoData)

	all, err = s.All(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
	assert.Equal(t, 4.5, all["Camera"].AverageWaitTime)
}

func TestJSONFileStoreCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{"), 0o644))
	_, err := storage.NewJSONFileStore(path).All(context.Background())
	assert.Error(t, err)
}

type failingSink struct{}

func (failingSink) RecordResult(context.Context, storage.Result) error { return assert.AnError }

func TestMultiSink(t *testing.T) {
	mem := storage.NewMemoryStore()
	err := storage.MultiSink{failingSink{}, mem}.RecordResult(context.Background(), antennaResult())
	assert.ErrorIs(t, err, assert.AnError)
	_, err = mem.Get(context.Background(), "Antenna")
	assert.NoError(t, err)
}
