package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ggonzalez94/defi-explorer/internal/model"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func sample(apy float64) []model.YieldData {
	return []model.YieldData{{Protocol: "aave-v3", APY: apy, Type: model.YieldTypeLending}}
}

func TestKeyIsCaseInsensitive(t *testing.T) {
	assert.Equal(t, "0xabc:42161", Key("0xABC", 42161))
	assert.Equal(t, Key("0xabc", 42161), Key(" 0xAbC ", 42161))
	assert.NotEqual(t, Key("0xabc", 42161), Key("0xabc", 1))
	assert.Equal(t, "<none>:42161", Key("", 42161))
}

func TestSetGetFreshAndExpired(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	store := New(DefaultTTL).WithClock(clock.Now)

	store.Set("0xABC", 42161, sample(4.5))

	res := store.Get("0xabc", 42161)
	require.True(t, res.Hit)
	assert.Equal(t, sample(4.5), res.Value)

	clock.Advance(DefaultTTL)
	res = store.Get("0xabc", 42161)
	require.True(t, res.Hit, "entry exactly at TTL is still fresh")
	assert.Equal(t, DefaultTTL, res.Age)

	clock.Advance(time.Millisecond)
	res = store.Get("0xabc", 42161)
	assert.False(t, res.Hit)
	assert.Equal(t, 0, store.Len(), "expired entry is deleted on read")
}

func TestAbsentTokenNeverTouchesStore(t *testing.T) {
	store := New(time.Minute)
	store.Set("", 42161, sample(1))
	store.Set("   ", 42161, sample(1))
	assert.Equal(t, 0, store.Len())
	assert.False(t, store.Get("", 42161).Hit)
}

func TestSetOverwrites(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	store := New(time.Minute).WithClock(clock.Now)
	store.Set("0xabc", 1, sample(1))
	clock.Advance(50 * time.Second)
	store.Set("0xABC", 1, sample(2))
	clock.Advance(30 * time.Second)

	res := store.Get("0xabc", 1)
	require.True(t, res.Hit)
	assert.Equal(t, 2.0, res.Value[0].APY)
	assert.Equal(t, 30*time.Second, res.Age)
	assert.Equal(t, 1, store.Len())
}

func TestConcurrentSetGet(t *testing.T) {
	store := New(time.Minute)
	var wg sync.WaitGroup
	for worker := 0; worker < 16; worker++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for i := 0; i < 40; i++ {
				token := fmt.Sprintf("0xworker%d", i)
				store.Set(token, int64(workerID), sample(float64(i)))
				if !store.Get(token, int64(workerID)).Hit {
					t.Errorf("worker %d iter %d: expected hit", workerID, i)
					return
				}
			}
		}(worker)
	}
	wg.Wait()
	assert.Equal(t, 16*40, store.Len())
}

func TestNonPositiveTTLFallsBackToDefault(t *testing.T) {
	assert.Equal(t, DefaultTTL, New(0).TTL())
}
