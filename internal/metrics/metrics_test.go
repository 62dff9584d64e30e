package metrics

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNewCollectorStartsAtZero(t *testing.T) {
	c := NewCollector()
	snap := c.Snapshot()
	require.Zero(t, snap.JobsStarted)
	require.Zero(t, snap.JobsFinished)
	require.Zero(t, snap.JobsFailed)
	require.Zero(t, snap.AvgDuration)
}

func TestRecordStarted(t *testing.T) {
	c := NewCollector()
	c.RecordStarted()
	c.RecordStarted()
	c.RecordStarted()

	require.Equal(t, int64(3), c.Snapshot().JobsStarted)
}

func TestRecordFinishedAndFailedAverage(t *testing.T) {
	c := NewCollector()

	c.RecordFinished(100 * time.Millisecond)
	c.RecordFinished(200 * time.Millisecond)
	c.RecordFailed(300 * time.Millisecond)

	snap := c.Snapshot()
	require.Equal(t, int64(2), snap.JobsFinished)
	require.Equal(t, int64(1), snap.JobsFailed)
	require.Equal(t, 200*time.Millisecond, snap.AvgDuration)
}

func TestUptimeAdvances(t *testing.T) {
	c := NewCollector()
	time.Sleep(5 * time.Millisecond)

	snap := c.Snapshot()
	require.GreaterOrEqual(t, snap.Uptime, 5*time.Millisecond)
	require.Less(t, snap.Uptime, time.Second)
}

func TestConcurrentRecording(t *testing.T) {
	c := NewCollector()
	var wg sync.WaitGroup

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c.RecordStarted()
				c.RecordFinished(time.Millisecond)
			}
		}()
	}
	wg.Wait()

	snap := c.Snapshot()
	require.Equal(t, int64(1000), snap.JobsStarted)
	require.Equal(t, int64(1000), snap.JobsFinished)
}
