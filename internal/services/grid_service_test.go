package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yeargrid/internal/amqp"
	"yeargrid/internal/core"
	"yeargrid/internal/session/memory"
)

type fakePublisher struct {
	msgs []*amqp.ResultMessage
	err  error
}

func (p *fakePublisher) PublishResult(_ context.Context, msg *amqp.ResultMessage) error {
	if p.err != nil {
		return p.err
	}
	p.msgs = append(p.msgs, msg)
	return nil
}

type failingStore struct {
	*memory.Store
}

func (failingStore) Save(context.Context, string, core.State) error {
	return errors.New("disk full")
}

func fixedClock() time.Time {
	return time.Date(2024, 6, 15, 9, 0, 0, 0, time.UTC)
}

func newTestService(pub ResultPublisher) (*GridService, *memory.Store) {
	store := memory.New()
	return NewGridService(store, WithClock(fixedClock), WithPublisher(pub)), store
}

func TestGridService_InitialGrid(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(nil)

	g, err := svc.Grid(ctx, "sid")
	require.NoError(t, err)
	require.Len(t, g.Tables, 1)
	require.Len(t, g.Tables[0].Rows, 1)
	assert.Equal(t, 2024, g.Tables[0].Rows[0].Year)

	st, ok, _ := store.Load(ctx, "sid")
	require.True(t, ok, "initial state is stored on first touch")
	assert.Equal(t, "1:1", st.Key())
}

func TestGridService_StructuralCommands(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(nil)

	g, id, err := svc.Apply(ctx, "sid", core.Command{Kind: core.CommandAddTable})
	require.NoError(t, err)
	assert.Equal(t, core.TableID(2), id)
	assert.Len(t, g.Tables, 2)

	g, _, err = svc.Apply(ctx, "sid", core.Command{Kind: core.CommandAddRow, Table: 2})
	require.NoError(t, err)
	tbl, ok := g.Table(2)
	require.True(t, ok)
	assert.Len(t, tbl.Rows, 2)
	assert.Equal(t, 2023, tbl.Rows[0].Year)

	_, _, err = svc.Apply(ctx, "sid", core.Command{Kind: core.CommandAddRow, Table: 9})
	assert.ErrorIs(t, err, core.ErrUnknownTable)

	st, _, _ := store.Load(ctx, "sid")
	assert.Equal(t, "1:1,2:2", st.Key(), "failed command leaves state untouched")

	_, id, err = svc.Apply(ctx, "sid", core.Command{Kind: core.CommandAddRow, Table: 1})
	require.NoError(t, err)
	assert.Equal(t, core.TableID(1), id)
	st, _, _ = store.Load(ctx, "sid")
	assert.Equal(t, "1:2,2:2", st.Key())

	_, _, err = svc.Apply(ctx, "sid", core.Command{Kind: "drop-table"})
	assert.Error(t, err)
	st, _, _ = store.Load(ctx, "sid")
	assert.Equal(t, "1:2,2:2", st.Key())
}

func TestGridService_SessionsAreIsolated(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(nil)

	_, _, err := svc.Apply(ctx, "a", core.Command{Kind: core.CommandAddTable})
	require.NoError(t, err)

	g, err := svc.Grid(ctx, "b")
	require.NoError(t, err)
	assert.Len(t, g.Tables, 1)
}

func TestGridService_SubmitPublishesOnSuccess(t *testing.T) {
	ctx := context.Background()
	pub := &fakePublisher{}
	svc, _ := newTestService(pub)

	g, err := svc.Submit(ctx, "sid", core.Submission{1: {1: {"2", "2", "2"}}})
	require.NoError(t, err)
	assert.True(t, g.Computed())
	assert.Equal(t, 2.33, g.Tables[0].Rows[0].Quarters[0].Value)

	require.Len(t, pub.msgs, 1)
	assert.Equal(t, "sid", pub.msgs[0].SessionID)
	assert.Equal(t, 2024, pub.msgs[0].Year)
	assert.Equal(t, fixedClock(), pub.msgs[0].Timestamp)
}

func TestGridService_SubmitRejected(t *testing.T) {
	ctx := context.Background()
	pub := &fakePublisher{}
	svc, _ := newTestService(pub)

	g, err := svc.Submit(ctx, "sid", core.Submission{1: {1: {"5", "", "7"}}})
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrInvalidSubmission)
	assert.False(t, g.Computed())
	assert.Equal(t, "5", g.Tables[0].Rows[0].Cells[0].Raw)
	assert.Empty(t, pub.msgs)
}

func TestGridService_PreviewNeverPublishes(t *testing.T) {
	ctx := context.Background()
	pub := &fakePublisher{}
	svc, _ := newTestService(pub)

	g, err := svc.Preview(ctx, "sid", core.Submission{1: {1: {"2", "2", "2"}}})
	require.NoError(t, err)
	assert.True(t, g.Computed())

	_, err = svc.Preview(ctx, "sid", core.Submission{})
	assert.ErrorIs(t, err, core.ErrInvalidSubmission)
	assert.Empty(t, pub.msgs)
}

func TestGridService_PublishFailureDoesNotFailSubmit(t *testing.T) {
	svc, _ := newTestService(&fakePublisher{err: errors.New("broker down")})

	_, err := svc.Submit(context.Background(), "sid", core.Submission{1: {1: {"1"}}})
	assert.NoError(t, err)
}

func TestGridService_Reset(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(nil)

	_, _, err := svc.Apply(ctx, "sid", core.Command{Kind: core.CommandAddTable})
	require.NoError(t, err)

	g, err := svc.Reset(ctx, "sid")
	require.NoError(t, err)
	assert.Len(t, g.Tables, 1)
}

func TestGridService_StoreErrors(t *testing.T) {
	svc := NewGridService(failingStore{memory.New()}, WithClock(fixedClock))

	_, err := svc.Grid(context.Background(), "sid")
	assert.ErrorContains(t, err, "disk full")
}
