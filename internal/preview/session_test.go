package preview

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"billgen/internal/preview/mocks"
	"billgen/internal/render"
	"billgen/pkg/models"
)

func testBill(id int64, number string) models.Bill {
	return models.Bill{ID: id, BillNumber: number, CustomerName: "Nimal"}
}

func waitForStatus(t *testing.T, s *Session, want Status) Snapshot {
	t.Helper()
	require.Eventually(t, func() bool {
		return s.Snapshot().Status == want
	}, 2*time.Second, 5*time.Millisecond)
	return s.Snapshot()
}

func fakePDF(b models.Bill) ([]byte, error) {
	return []byte("pdf:" + b.BillNumber), nil
}

func TestSessionShowsLatestBillOnly(t *testing.T) {
	ctrl := gomock.NewController(t)
	renderer := mocks.NewMockRenderer(ctrl)

	release := make(chan struct{})
	renderer.EXPECT().Render(gomock.Any()).DoAndReturn(func(b models.Bill) ([]byte, error) {
		if b.ID == 1 {
			<-release
		}
		return fakePDF(b)
	}).Times(2)

	store := NewStore()
	s := NewSession("s1", renderer, store)

	_, err := s.Show(testBill(1, "INV-24-0001"))
	require.NoError(t, err)
	assert.Equal(t, StatusLoading, s.Snapshot().Status)

	_, err = s.Show(testBill(2, "INV-24-0002"))
	require.NoError(t, err)

	snap := waitForStatus(t, s, StatusReady)
	assert.Equal(t, int64(2), snap.BillID)

	// The first bill's document finishes late and must not replace the second.
	close(release)
	s.Wait()

	snap = s.Snapshot()
	assert.Equal(t, StatusReady, snap.Status)
	assert.Equal(t, int64(2), snap.BillID)

	doc, ok := s.Document()
	require.True(t, ok)
	assert.Equal(t, "pdf:INV-24-0002", string(doc.Data))
	assert.Equal(t, "Invoice-INV-24-0002.pdf", doc.FileName)
	assert.Equal(t, 1, store.Len())
}

func TestSessionSameBillReshownUsesLatestGeneration(t *testing.T) {
	ctrl := gomock.NewController(t)
	renderer := mocks.NewMockRenderer(ctrl)

	var calls atomic.Int32
	started := make(chan struct{})
	release := make(chan struct{})
	renderer.EXPECT().Render(gomock.Any()).DoAndReturn(func(b models.Bill) ([]byte, error) {
		if calls.Add(1) == 1 {
			close(started)
			<-release
			return []byte("stale"), nil
		}
		return []byte("fresh"), nil
	}).Times(2)

	store := NewStore()
	s := NewSession("s1", renderer, store)

	first, err := s.Show(testBill(1, "INV-24-0001"))
	require.NoError(t, err)
	<-started
	second, err := s.Show(testBill(1, "INV-24-0001"))
	require.NoError(t, err)
	assert.Greater(t, second, first)

	waitForStatus(t, s, StatusReady)
	close(release)
	s.Wait()

	doc, ok := s.Document()
	require.True(t, ok)
	assert.Equal(t, "fresh", string(doc.Data))
	assert.Equal(t, 1, store.Len())
}

func TestSessionFailureOffersRetry(t *testing.T) {
	ctrl := gomock.NewController(t)
	renderer := mocks.NewMockRenderer(ctrl)

	gomock.InOrder(
		renderer.EXPECT().Render(gomock.Any()).Return(nil, &render.RenderError{Op: "Render", BillNumber: "INV-24-0003", Err: errors.New("font missing")}),
		renderer.EXPECT().Render(gomock.Any()).DoAndReturn(fakePDF),
	)

	store := NewStore()
	s := NewSession("s1", renderer, store)

	_, err := s.Show(testBill(3, "INV-24-0003"))
	require.NoError(t, err)

	snap := waitForStatus(t, s, StatusFailed)
	assert.Contains(t, snap.Error, "font missing")
	assert.Equal(t, "Invoice-INV-24-0003.pdf", snap.FileName)
	assert.Empty(t, snap.ArtifactID)
	assert.Zero(t, store.Len())

	_, err = s.Retry()
	require.NoError(t, err)
	snap = waitForStatus(t, s, StatusReady)
	assert.Empty(t, snap.Error)
	assert.NotEmpty(t, snap.ArtifactID)
}

func TestSessionRecoversFromPanickingRenderer(t *testing.T) {
	ctrl := gomock.NewController(t)
	renderer := mocks.NewMockRenderer(ctrl)
	renderer.EXPECT().Render(gomock.Any()).DoAndReturn(func(models.Bill) ([]byte, error) {
		panic("boom")
	})

	s := NewSession("s1", renderer, NewStore())
	_, err := s.Show(testBill(4, "INV-24-0004"))
	require.NoError(t, err)

	snap := waitForStatus(t, s, StatusFailed)
	assert.Contains(t, snap.Error, "boom")
}

func TestSessionCloseDiscardsInFlightResult(t *testing.T) {
	ctrl := gomock.NewController(t)
	renderer := mocks.NewMockRenderer(ctrl)

	release := make(chan struct{})
	renderer.EXPECT().Render(gomock.Any()).DoAndReturn(func(b models.Bill) ([]byte, error) {
		<-release
		return fakePDF(b)
	})

	store := NewStore()
	s := NewSession("s1", renderer, store)
	_, err := s.Show(testBill(5, "INV-24-0005"))
	require.NoError(t, err)

	s.Close()
	close(release)
	s.Wait()

	assert.Equal(t, StatusIdle, s.Snapshot().Status)
	assert.Zero(t, store.Len())

	_, err = s.Show(testBill(5, "INV-24-0005"))
	assert.ErrorIs(t, err, ErrSessionClosed)
	_, err = s.Retry()
	assert.ErrorIs(t, err, ErrSessionClosed)
}

func TestSessionReleasesSupersededArtifacts(t *testing.T) {
	ctrl := gomock.NewController(t)
	renderer := mocks.NewMockRenderer(ctrl)
	renderer.EXPECT().Render(gomock.Any()).DoAndReturn(fakePDF).Times(10)

	store := NewStore()
	s := NewSession("s1", renderer, store)

	for i := int64(1); i <= 10; i++ {
		_, err := s.Show(testBill(i, "INV"))
		require.NoError(t, err)
		s.Wait()
		require.Equal(t, StatusReady, s.Snapshot().Status)
		assert.Equal(t, 1, store.Len())
	}

	s.Close()
	assert.Zero(t, store.Len())
}

func TestSessionBeginReservesBeforeLoad(t *testing.T) {
	ctrl := gomock.NewController(t)
	renderer := mocks.NewMockRenderer(ctrl)
	renderer.EXPECT().Render(gomock.Any()).DoAndReturn(fakePDF).Times(2)

	store := NewStore()
	s := NewSession("s1", renderer, store)

	_, err := s.Show(testBill(3, "INV-24-0003"))
	require.NoError(t, err)
	s.Wait()
	require.Equal(t, 1, store.Len())

	first, err := s.Begin(1)
	require.NoError(t, err)
	snap := s.Snapshot()
	assert.Equal(t, StatusLoading, snap.Status)
	assert.Equal(t, int64(1), snap.BillID)
	assert.Empty(t, snap.BillNumber)
	assert.Zero(t, store.Len(), "previous document is released on Begin")

	second, err := s.Begin(2)
	require.NoError(t, err)

	// The first bill arrives after the second was requested.
	started, err := s.ShowIf(first, testBill(1, "INV-24-0001"))
	require.NoError(t, err)
	assert.False(t, started)
	assert.False(t, s.Fail(first, errors.New("late failure")))

	started, err = s.ShowIf(second, testBill(2, "INV-24-0002"))
	require.NoError(t, err)
	assert.True(t, started)

	snap = waitForStatus(t, s, StatusReady)
	assert.Equal(t, int64(2), snap.BillID)
	doc, ok := s.Document()
	require.True(t, ok)
	assert.Equal(t, "pdf:INV-24-0002", string(doc.Data))
}

func TestSessionFailBeforeLoad(t *testing.T) {
	s := NewSession("s1", mocks.NewMockRenderer(gomock.NewController(t)), NewStore())

	gen, err := s.Begin(4)
	require.NoError(t, err)
	assert.True(t, s.Fail(gen, errors.New("Bill not found")))

	snap := s.Snapshot()
	assert.Equal(t, StatusFailed, snap.Status)
	assert.Equal(t, int64(4), snap.BillID)
	assert.Equal(t, "Bill not found", snap.Error)

	// Nothing was loaded, so there is nothing to render again.
	_, err = s.Retry()
	assert.ErrorIs(t, err, ErrNothingToRetry)

	s.Close()
	_, err = s.Begin(4)
	assert.ErrorIs(t, err, ErrSessionClosed)
	_, err = s.ShowIf(gen, testBill(4, "INV-24-0004"))
	assert.ErrorIs(t, err, ErrSessionClosed)
}

func TestRetryWithoutBill(t *testing.T) {
	s := NewSession("s1", mocks.NewMockRenderer(gomock.NewController(t)), NewStore())

	_, err := s.Retry()
	assert.ErrorIs(t, err, ErrNothingToRetry)
	assert.Equal(t, StatusIdle, s.Snapshot().Status)
}

func TestManager(t *testing.T) {
	ctrl := gomock.NewController(t)
	renderer := mocks.NewMockRenderer(ctrl)
	renderer.EXPECT().Render(gomock.Any()).DoAndReturn(fakePDF).AnyTimes()

	m := NewManager(renderer, NewStore())
	a := m.Open()
	b := m.Open()
	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, 2, m.Len())

	got, ok := m.Get(a.ID)
	require.True(t, ok)
	assert.Same(t, a, got)

	_, err := a.Show(testBill(1, "INV-24-0001"))
	require.NoError(t, err)
	a.Wait()
	assert.Equal(t, 1, m.Store().Len())

	assert.True(t, m.CloseSession(a.ID))
	assert.False(t, m.CloseSession(a.ID))
	assert.Zero(t, m.Store().Len())

	m.CloseAll()
	assert.Zero(t, m.Len())
}

func TestStore(t *testing.T) {
	store := NewStore()
	a := store.Put(1, "Invoice-1.pdf", []byte("x"))

	got, ok := store.Get(a.ID)
	require.True(t, ok)
	assert.Equal(t, []byte("x"), got.Data)

	assert.True(t, store.Release(a.ID))
	assert.False(t, store.Release(a.ID))
	assert.False(t, store.Release(""))
	assert.Zero(t, store.Len())
}
