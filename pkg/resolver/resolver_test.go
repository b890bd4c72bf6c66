package resolver_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/vaudio/internal/testutils"
	"github.com/aretw0/vaudio/pkg/domain"
	"github.com/aretw0/vaudio/pkg/resolver"
)

type recorder struct {
	mu   sync.Mutex
	cmds []domain.Command
}

func (r *recorder) handle(c domain.Command) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cmds = append(r.cmds, c)
}

func (r *recorder) keys() []domain.CommandKey {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.CommandKey, 0, len(r.cmds))
	for _, c := range r.cmds {
		out = append(out, c.Key)
	}
	return out
}

func setup(t *testing.T, opts ...resolver.Option) (*resolver.Resolver, *testutils.ManualClock, *recorder) {
	t.Helper()
	clock := testutils.NewManualClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	r := resolver.New(append([]resolver.Option{resolver.WithScheduler(clock)}, opts...)...)
	rec := &recorder{}
	r.Subscribe(rec.handle)
	return r, clock, rec
}

func press(t *testing.T, r *resolver.Resolver, s domain.Signal) {
	t.Helper()
	require.NoError(t, r.Accept(s, domain.SourceKeyboard, time.Time{}))
}

func TestResolver_LegalPairsInEitherOrder(t *testing.T) {
	tests := []struct {
		a, b domain.Signal
		want domain.CommandKey
	}{
		{domain.Signal1, domain.Signal2, domain.KeyOneTwo},
		{domain.Signal2, domain.Signal1, domain.KeyOneTwo},
		{domain.Signal1, domain.Signal4, domain.KeyOneFour},
		{domain.Signal4, domain.Signal1, domain.KeyOneFour},
		{domain.Signal3, domain.Signal2, domain.KeyThreeTwo},
		{domain.Signal2, domain.Signal3, domain.KeyThreeTwo},
		{domain.Signal3, domain.Signal4, domain.KeyThreeFour},
		{domain.Signal4, domain.Signal3, domain.KeyThreeFour},
	}

	for _, tt := range tests {
		t.Run(string(tt.want)+"/"+tt.a.String()+tt.b.String(), func(t *testing.T) {
			r, clock, rec := setup(t)

			press(t, r, tt.a)
			clock.Advance(200 * time.Millisecond)
			assert.Empty(t, rec.keys())

			press(t, r, tt.b)
			assert.Equal(t, []domain.CommandKey{tt.want}, rec.keys())

			// the countdown of the first signal must not fire afterwards
			clock.Advance(time.Second)
			assert.Equal(t, []domain.CommandKey{tt.want}, rec.keys())
			assert.Zero(t, clock.Pending())
		})
	}
}

func TestResolver_IllegalPairsSplitAscending(t *testing.T) {
	tests := []struct {
		a, b domain.Signal
		want []domain.CommandKey
	}{
		{domain.Signal1, domain.Signal3, []domain.CommandKey{domain.KeyOne, domain.KeyThree}},
		{domain.Signal3, domain.Signal1, []domain.CommandKey{domain.KeyOne, domain.KeyThree}},
		{domain.Signal2, domain.Signal4, []domain.CommandKey{domain.KeyTwo, domain.KeyFour}},
		{domain.Signal4, domain.Signal2, []domain.CommandKey{domain.KeyTwo, domain.KeyFour}},
	}

	for _, tt := range tests {
		t.Run(tt.a.String()+tt.b.String(), func(t *testing.T) {
			r, clock, rec := setup(t)

			press(t, r, tt.a)
			press(t, r, tt.b)
			assert.Equal(t, tt.want, rec.keys())

			clock.Advance(time.Second)
			assert.Len(t, rec.keys(), 2, "no pair and no extra single")
		})
	}
}

func TestResolver_SingleAfterWindow(t *testing.T) {
	r, clock, rec := setup(t)

	press(t, r, domain.Signal2)
	clock.Advance(499 * time.Millisecond)
	assert.Empty(t, rec.keys())

	clock.Advance(time.Millisecond)
	assert.Equal(t, []domain.CommandKey{domain.KeyTwo}, rec.keys())

	clock.Advance(5 * time.Second)
	assert.Len(t, rec.keys(), 1)
}

func TestResolver_DuplicatesIgnored(t *testing.T) {
	r, clock, rec := setup(t)

	press(t, r, domain.Signal1)
	clock.Advance(300 * time.Millisecond)
	press(t, r, domain.Signal1)
	press(t, r, domain.Signal1)
	assert.Empty(t, rec.keys())
	assert.Equal(t, []domain.Signal{domain.Signal1}, r.Pending())

	// the countdown is not restarted by duplicates
	clock.Advance(200 * time.Millisecond)
	assert.Equal(t, []domain.CommandKey{domain.KeyOne}, rec.keys())
}

func TestResolver_PairAfterDuplicate(t *testing.T) {
	r, _, rec := setup(t)

	press(t, r, domain.Signal3)
	press(t, r, domain.Signal3)
	press(t, r, domain.Signal4)
	assert.Equal(t, []domain.CommandKey{domain.KeyThreeFour}, rec.keys())
}

func TestResolver_Force(t *testing.T) {
	r, clock, rec := setup(t)

	press(t, r, domain.Signal1)
	require.NoError(t, r.Force("2+3", ""))

	clock.Advance(time.Second)
	require.Len(t, rec.cmds, 1)
	assert.Equal(t, domain.KeyThreeTwo, rec.cmds[0].Key)
	assert.Equal(t, domain.SourceManual, rec.cmds[0].Source)
	assert.Empty(t, r.Pending())

	assert.ErrorIs(t, r.Force("1+3", ""), domain.ErrIllegalCommand)
	assert.ErrorIs(t, r.Force("7", ""), domain.ErrInvalidSignal)
}

func TestResolver_Cancel(t *testing.T) {
	r, clock, rec := setup(t)

	press(t, r, domain.Signal4)
	r.Cancel()
	clock.Advance(time.Second)
	assert.Empty(t, rec.keys())

	// a fresh combination starts cleanly after cancel
	press(t, r, domain.Signal4)
	press(t, r, domain.Signal1)
	assert.Equal(t, []domain.CommandKey{domain.KeyOneFour}, rec.keys())
}

func TestResolver_Stop(t *testing.T) {
	r, clock, rec := setup(t)

	press(t, r, domain.Signal1)
	r.Stop()
	clock.Advance(time.Second)
	assert.Empty(t, rec.keys())

	assert.ErrorIs(t, r.Accept(domain.Signal1, "test", time.Time{}), domain.ErrResolverStopped)
	assert.ErrorIs(t, r.Force(domain.KeyOne, ""), domain.ErrResolverStopped)
}

func TestResolver_InvalidSignal(t *testing.T) {
	r, _, _ := setup(t)
	assert.ErrorIs(t, r.Accept(domain.SignalNone, "test", time.Time{}), domain.ErrInvalidSignal)
	assert.ErrorIs(t, r.Accept(domain.Signal(9), "test", time.Time{}), domain.ErrInvalidSignal)
}

func TestResolver_CombinationsDisabled(t *testing.T) {
	r, clock, rec := setup(t, resolver.WithCombinations(false))

	press(t, r, domain.Signal1)
	press(t, r, domain.Signal2)
	assert.Equal(t, []domain.CommandKey{domain.KeyOne, domain.KeyTwo}, rec.keys())
	assert.Zero(t, clock.Pending())
}

func TestResolver_CustomWindow(t *testing.T) {
	r, clock, rec := setup(t, resolver.WithWindow(100*time.Millisecond))
	assert.Equal(t, 100*time.Millisecond, r.Window())

	press(t, r, domain.Signal1)
	clock.Advance(100 * time.Millisecond)
	press(t, r, domain.Signal2)
	clock.Advance(100 * time.Millisecond)
	assert.Equal(t, []domain.CommandKey{domain.KeyOne, domain.KeyTwo}, rec.keys())
}

func TestResolver_ReentrantSubscriber(t *testing.T) {
	clock := testutils.NewManualClock(time.Unix(0, 0))
	r := resolver.New(resolver.WithScheduler(clock))

	var order []domain.CommandKey
	r.Subscribe(func(c domain.Command) {
		order = append(order, c.Key)
		if c.Key == domain.KeyOne {
			// Injected from inside delivery: queued behind the split's second single.
			require.NoError(t, r.Force(domain.KeyThreeFour, ""))
		}
	})
	var second []domain.CommandKey
	r.Subscribe(func(c domain.Command) {
		second = append(second, c.Key)
	})

	require.NoError(t, r.Accept(domain.Signal1, "test", time.Time{}))
	require.NoError(t, r.Accept(domain.Signal3, "test", time.Time{}))

	want := []domain.CommandKey{domain.KeyOne, domain.KeyThree, domain.KeyThreeFour}
	assert.Equal(t, want, order)
	assert.Equal(t, want, second, "every subscriber sees the same order exactly once")
}

func TestResolver_SubscriberPanicDoesNotStopDelivery(t *testing.T) {
	r, _, rec := setup(t)
	r.Subscribe(func(domain.Command) { panic("boom") })
	after := &recorder{}
	r.Subscribe(after.handle)

	require.NoError(t, r.Force(domain.KeyTwo, ""))
	assert.Equal(t, []domain.CommandKey{domain.KeyTwo}, rec.keys())
	assert.Equal(t, []domain.CommandKey{domain.KeyTwo}, after.keys())
}

func TestResolver_Unsubscribe(t *testing.T) {
	r, _, rec := setup(t)
	other := &recorder{}
	unsubscribe := r.Subscribe(other.handle)

	require.NoError(t, r.Force(domain.KeyOne, ""))
	unsubscribe()
	require.NoError(t, r.Force(domain.KeyTwo, ""))

	assert.Equal(t, []domain.CommandKey{domain.KeyOne, domain.KeyTwo}, rec.keys())
	assert.Equal(t, []domain.CommandKey{domain.KeyOne}, other.keys())
}

func TestResolver_SystemScheduler(t *testing.T) {
	r := resolver.New(resolver.WithWindow(20 * time.Millisecond))
	rec := &recorder{}
	r.Subscribe(rec.handle)

	require.NoError(t, r.Accept(domain.Signal4, domain.SourceTouch, time.Time{}))
	require.Eventually(t, func() bool {
		return len(rec.keys()) == 1
	}, time.Second, 5*time.Millisecond)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	assert.Equal(t, domain.KeyFour, rec.cmds[0].Key)
	assert.Equal(t, domain.SourceTouch, rec.cmds[0].Source)
}
