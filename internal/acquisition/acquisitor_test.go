// internal/acquisition/acquisitor_test.go
package acquisition

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type fakeProvider struct {
	fakeSession
	items   []*ConfigItem
	fetches int
}

func (p *fakeProvider) ConfigurationItems() []*ConfigItem {
	p.fetches++
	return p.items
}

func TestNew_FetchesItemsOnceAndRuns(t *testing.T) {
	prov := &fakeProvider{items: items(1, 2)}
	trig := make(chanTrigger, 1)
	sink := newReportSink()
	exec := &recordingExecutor{}

	a, err := New(trig, prov, exec,
		WithAcquisitorLogger(zaptest.NewLogger(t)),
		WithSchedulerOptions(WithObserver(sink)),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	for i := 0; i < 4; i++ {
		trig <- struct{}{}
		sink.waitTick(t)
	}

	assert.Equal(t, 1, prov.fetches)
	assert.Len(t, exec.ticksFor("a"), 4)
	assert.Len(t, exec.ticksFor("b"), 2)
}

func TestNew_RequiresProvider(t *testing.T) {
	_, err := New(make(chanTrigger), nil, &recordingExecutor{})
	assert.Error(t, err)
}

func TestNew_PropagatesStartupFailure(t *testing.T) {
	prov := &fakeProvider{items: items(0)}
	_, err := New(make(chanTrigger), prov, &recordingExecutor{})
	assert.Error(t, err)
}

func TestClose_StopsAndIsIdempotent(t *testing.T) {
	prov := &fakeProvider{items: items(1)}
	trig := make(chanTrigger, 1)
	exec := &recordingExecutor{}

	a, err := New(trig, prov, exec, WithStopTimeout(time.Second))
	require.NoError(t, err)

	require.NoError(t, a.Close())
	require.NoError(t, a.Close())
	assert.Equal(t, StateStopped, a.State())

	select {
	case trig <- struct{}{}:
	default:
	}
	time.Sleep(20 * time.Millisecond)
	assert.Empty(t, exec.snapshot())

	select {
	case <-a.Done():
	default:
		t.Fatal("done not closed")
	}
}

func TestClose_TimesOutOnStuckDispatch(t *testing.T) {
	prov := &fakeProvider{items: items(1)}
	trig := make(chanTrigger, 1)
	release := make(chan struct{})
	entered := make(chan struct{}, 1)

	exec := ExecutorFunc(func(*ConfigItem, uint16, uint8, uint16, uint16) error {
		entered <- struct{}{}
		<-release
		return nil
	})

	a, err := New(trig, prov, exec, WithStopTimeout(10*time.Millisecond))
	require.NoError(t, err)

	trig <- struct{}{}
	<-entered

	assert.Error(t, a.Close())
	// the cached result is returned on repeated calls
	assert.Error(t, a.Close())

	close(release)
	select {
	case <-a.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not exit after dispatch returned")
	}
}
