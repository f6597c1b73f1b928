package partition_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/junction/pkg/junction"
	"github.com/randalmurphal/junction/pkg/junction/event"
	"github.com/randalmurphal/junction/pkg/junction/partition"
	"github.com/randalmurphal/junction/pkg/junction/pattern"
)

// counter is an Automaton counting events per batch.
type counter struct {
	mu      sync.Mutex
	key     string
	seen    []int64
	batches []int
	partial int
}

func (c *counter) Process(ev *event.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seen = append(c.seen, ev.Timestamp)
	c.partial++
	return nil
}

func (c *counter) ResetAndUpdate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.batches = append(c.batches, c.partial)
	c.partial = 0
}

func (c *counter) state() ([]int64, []int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]int64(nil), c.seen...), append([]int(nil), c.batches...)
}

type fixture struct {
	mu       sync.Mutex
	automata map[string]*counter
	router   *partition.Router
}

func newFixture() *fixture {
	f := &fixture{automata: map[string]*counter{}}
	tmpl := pattern.NewSequenceReceiver("Seq", func(key string) pattern.Automaton {
		c := &counter{key: key}
		f.mu.Lock()
		f.automata[key] = c
		f.mu.Unlock()
		return c
	})
	f.router = partition.NewRouter("Seq", tmpl, partition.AttributeKey(0))
	return f
}

func (f *fixture) automaton(key string) *counter {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.automata[key]
}

func TestRouter_CreatesOneClonePerKey(t *testing.T) {
	f := newFixture()
	r := f.router

	require.NoError(t, r.ReceiveEndOfBatch(event.New(1, "IBM"), false))
	require.NoError(t, r.ReceiveEndOfBatch(event.New(2, "WSO2"), false))
	require.NoError(t, r.ReceiveEndOfBatch(event.New(3, "IBM"), true))

	assert.Equal(t, []string{"IBM", "WSO2"}, r.Keys())
	assert.Equal(t, 2, r.Len())

	clone, ok := r.Clone("IBM")
	require.True(t, ok)
	assert.Equal(t, "SeqIBM", clone.StreamID())

	ibmSeen, ibmBatches := f.automaton("IBM").state()
	wso2Seen, wso2Batches := f.automaton("WSO2").state()
	assert.Equal(t, []int64{1, 3}, ibmSeen)
	assert.Equal(t, []int{2}, ibmBatches)
	assert.Equal(t, []int64{2}, wso2Seen)
	assert.Equal(t, []int{1}, wso2Batches)
}

func TestRouter_OnlyTouchedKeysStabilize(t *testing.T) {
	f := newFixture()
	r := f.router

	require.NoError(t, r.ReceiveBatch([]*event.Event{event.New(1, "A"), event.New(2, "B")}))
	require.NoError(t, r.ReceiveBatch([]*event.Event{event.New(3, "A")}))

	_, aBatches := f.automaton("A").state()
	_, bBatches := f.automaton("B").state()
	assert.Equal(t, []int{1, 1}, aBatches)
	assert.Equal(t, []int{1}, bBatches)
}

func TestRouter_AllForms(t *testing.T) {
	f := newFixture()
	r := f.router

	require.NoError(t, r.ReceiveChain(event.Chain(event.New(1, "A"), event.New(2, "B"), event.New(3, "A"))))
	require.NoError(t, r.ReceiveEvent(event.New(4, "A")))
	require.NoError(t, r.ReceiveData(5, []any{"B"}))

	aSeen, aBatches := f.automaton("A").state()
	bSeen, bBatches := f.automaton("B").state()
	assert.Equal(t, []int64{1, 3, 4}, aSeen)
	assert.Equal(t, []int{2, 1}, aBatches)
	assert.Equal(t, []int64{2, 5}, bSeen)
	assert.Equal(t, []int{1, 1}, bBatches)
}

func TestRouter_Evict(t *testing.T) {
	f := newFixture()
	r := f.router

	require.NoError(t, r.ReceiveEndOfBatch(event.New(1, "A"), false))
	first := f.automaton("A")

	assert.True(t, r.Evict("A"))
	assert.False(t, r.Evict("A"))
	assert.Zero(t, r.Len())

	_, batches := first.state()
	assert.Equal(t, []int{1}, batches, "pending events flushed on eviction")

	require.NoError(t, r.ReceiveEndOfBatch(event.New(2, "A"), true))
	second := f.automaton("A")
	assert.NotSame(t, first, second, "evicted keys get a fresh clone")
	seen, _ := second.state()
	assert.Equal(t, []int64{2}, seen)
}

// Behind an async junction the router sees every event exactly once per key.
func TestRouter_WithAsyncJunction(t *testing.T) {
	f := newFixture()

	def := junction.NewStreamDefinition("Trades", "symbol", "price").
		Annotate(junction.AnnotationAsync, junction.Element{Key: junction.ElementBufferSize, Value: "4"})
	j, err := junction.New(def, nil)
	require.NoError(t, err)
	j.Subscribe(f.router)
	j.StartProcessing()

	symbols := []string{"IBM", "WSO2", "ORCL"}
	var wg sync.WaitGroup
	for p, sym := range symbols {
		wg.Add(1)
		go func() {
			defer wg.Done()
			pub := j.ConstructPublisher()
			for i := range 100 {
				if err := pub.SendData(int64(p*1000+i), []any{sym, float64(i)}); err != nil {
					t.Errorf("send: %v", err)
					return
				}
			}
		}()
	}
	wg.Wait()
	j.StopProcessing()

	assert.ElementsMatch(t, symbols, f.router.Keys())
	for p, sym := range symbols {
		seen, batches := f.automaton(sym).state()
		require.Len(t, seen, 100, sym)
		for i, ts := range seen {
			assert.Equal(t, int64(p*1000+i), ts)
		}
		total := 0
		for _, n := range batches {
			total += n
		}
		assert.Equal(t, 100, total, "every event belongs to a stabilized batch")
	}
}

func TestAttributeKey(t *testing.T) {
	key := partition.AttributeKey(1)
	assert.Equal(t, "42", key(event.New(0, "x", 42)))
	assert.Equal(t, "", key(event.New(0, "x")))
	assert.Equal(t, "", partition.AttributeKey(-1)(event.New(0, "x")))
}
