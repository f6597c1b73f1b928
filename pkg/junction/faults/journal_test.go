package faults_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/junction/pkg/junction"
	"github.com/randalmurphal/junction/pkg/junction/event"
	"github.com/randalmurphal/junction/pkg/junction/faults"
)

// picky fails on events whose first attribute is "bad".
type picky struct {
	seen []int64
}

func (p *picky) StreamID() string                      { return "picky" }
func (p *picky) ReceiveChain(event.ComplexEvent) error { return nil }
func (p *picky) ReceiveEvent(*event.Event) error       { return nil }
func (p *picky) ReceiveData(int64, []any) error        { return nil }
func (p *picky) ReceiveBatch([]*event.Event) error     { return nil }
func (p *picky) ReceiveEndOfBatch(ev *event.Event, _ bool) error {
	if ev.Data[0] == "bad" {
		return errors.New("rejected " + ev.Data[0].(string))
	}
	p.seen = append(p.seen, ev.Timestamp)
	return nil
}

func TestJournalPolicy_RecordsAndDelegates(t *testing.T) {
	store := faults.NewMemoryStore()
	policy := faults.NewJournalPolicy(store, junction.AbortOnFault(), nil)

	fault := &junction.DeliveryFault{
		StreamID: "S",
		Receiver: "r",
		Sequence: 4,
		Event:    event.New(40, "x", 1),
		Err:      errors.New("boom"),
	}
	assert.Equal(t, junction.Abort, policy.HandleFault(context.Background(), fault))

	recs, err := store.List("S")
	require.NoError(t, err)
	require.Len(t, recs, 1)
	rec := recs[0]
	assert.Len(t, rec.ID, 36)
	assert.Equal(t, "r", rec.Receiver)
	assert.Equal(t, int64(4), rec.Sequence)
	assert.Equal(t, int64(40), rec.EventTimestamp)
	assert.Equal(t, []any{"x", 1}, rec.Attributes)
	assert.Equal(t, "boom", rec.Error)
	assert.True(t, rec.Aborted)
}

func TestJournalPolicy_StoreFailureKeepsDecision(t *testing.T) {
	store := faults.NewMemoryStore()
	require.NoError(t, store.Close())
	policy := faults.NewJournalPolicy(store, nil, nil)

	d := policy.HandleFault(context.Background(), &junction.DeliveryFault{StreamID: "S", Err: errors.New("x")})
	assert.Equal(t, junction.Continue, d)
}

func TestJournalPolicy_WithAsyncJunction(t *testing.T) {
	store, err := faults.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer store.Close()

	def := junction.NewStreamDefinition("Orders", "status").
		Annotate(junction.AnnotationAsync, junction.Element{Key: junction.ElementBufferSize, Value: "4"})
	j, err := junction.New(def, nil, junction.WithExceptionPolicy(faults.NewJournalPolicy(store, nil, nil)))
	require.NoError(t, err)

	r := &picky{}
	j.Subscribe(r)
	j.StartProcessing()
	for i, status := range []string{"ok", "bad", "ok", "bad", "ok"} {
		require.NoError(t, j.SendData(int64(i), []any{status}))
	}
	j.StopProcessing()

	assert.Equal(t, []int64{0, 2, 4}, r.seen)

	recs, err := store.List("Orders")
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, int64(1), recs[0].Sequence)
	assert.Equal(t, int64(3), recs[1].Sequence)
	assert.Equal(t, "picky", recs[0].Receiver)
	assert.Equal(t, []any{"bad"}, recs[0].Attributes)
	assert.Equal(t, "rejected bad", recs[0].Error)
	assert.False(t, recs[0].Aborted)
}
