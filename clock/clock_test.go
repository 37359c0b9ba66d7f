package clock_test

import (
	"context"
	"testing"

	"connectrpc.com/connect"
	clockv1 "git.fiblab.net/sim/protos/v2/go/city/clock/v1"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tsinghua-fib-lab/dynlight-sim/clock"
	"github.com/tsinghua-fib-lab/dynlight-sim/utils/config"
)

func TestClockAdvance(t *testing.T) {
	c := clock.New(config.Control{
		Step:     config.ControlStep{Start: 0, Total: 3, Interval: 1},
		Substeps: 60,
	})
	assert.False(t, c.Done())
	for range 3 {
		c.Advance()
	}
	assert.True(t, c.Done())
	assert.Equal(t, int32(3), c.Elapsed())
	assert.Equal(t, 3., c.Seconds())
	assert.Equal(t, "00:00:03", c.String())
}

func TestClockNow(t *testing.T) {
	c := clock.New(config.Control{
		Step:     config.ControlStep{Start: 3600, Total: 10, Interval: 1},
		Substeps: 1,
	})
	c.Advance()
	res, err := c.Now(context.Background(), connect.NewRequest(&clockv1.NowRequest{}))
	require.NoError(t, err)
	assert.Equal(t, 3601., res.Msg.T)
	assert.Equal(t, "01:00:01", c.String())
}
