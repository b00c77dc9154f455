package services

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"rental-backend/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type settlementStub struct {
	srv      *httptest.Server
	calls    int32
	failing  int32
	lastPath atomic.Value
}

func newSettlementStub(t *testing.T) *settlementStub {
	t.Helper()
	stub := &settlementStub{}
	stub.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&stub.calls, 1)
		stub.lastPath.Store(r.URL.Path)
		if atomic.LoadInt32(&stub.failing) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(stub.srv.Close)
	return stub
}

func (s *settlementStub) setFailing(failing bool) {
	if failing {
		atomic.StoreInt32(&s.failing, 1)
	} else {
		atomic.StoreInt32(&s.failing, 0)
	}
}

func seedPayout(t *testing.T, db *gorm.DB, bookingID uint) models.SettlementPayout {
	t.Helper()
	p := models.SettlementPayout{BookingID: bookingID, Status: models.PayoutPending}
	require.NoError(t, db.Create(&p).Error)
	return p
}

func TestDispatchSuccess(t *testing.T) {
	db := newTestDB(t)
	stub := newSettlementStub(t)
	svc := NewSettlementService(db, stub.srv.URL, newTestLogger())

	payout := seedPayout(t, db, 42)

	sent, err := svc.Dispatch(payout.ID)
	require.NoError(t, err)

	assert.Equal(t, models.PayoutSent, sent.Status)
	assert.Equal(t, 1, sent.Attempts)
	assert.NotNil(t, sent.SentAt)
	assert.Empty(t, sent.LastError)
	assert.Equal(t, "/bookings/42/complete", stub.lastPath.Load())
	assert.EqualValues(t, 1, atomic.LoadInt32(&stub.calls))
}

func TestDispatchIsIdempotentOnceSent(t *testing.T) {
	db := newTestDB(t)
	stub := newSettlementStub(t)
	svc := NewSettlementService(db, stub.srv.URL, newTestLogger())

	payout := seedPayout(t, db, 7)

	_, err := svc.Dispatch(payout.ID)
	require.NoError(t, err)

	again, err := svc.Dispatch(payout.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PayoutSent, again.Status)
	assert.Equal(t, 1, again.Attempts)
	assert.EqualValues(t, 1, atomic.LoadInt32(&stub.calls), "SENT payouts are never re-sent")
}

func TestDispatchFailureThenRetry(t *testing.T) {
	db := newTestDB(t)
	stub := newSettlementStub(t)
	svc := NewSettlementService(db, stub.srv.URL, newTestLogger())

	payout := seedPayout(t, db, 9)

	stub.setFailing(true)
	failed, err := svc.Dispatch(payout.ID)
	require.Error(t, err)
	require.NotNil(t, failed)
	assert.Equal(t, models.PayoutFailed, failed.Status)
	assert.Equal(t, 1, failed.Attempts)
	assert.NotEmpty(t, failed.LastError)
	assert.Nil(t, failed.SentAt)

	stub.setFailing(false)
	sent, err := svc.Dispatch(payout.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PayoutSent, sent.Status)
	assert.Equal(t, 2, sent.Attempts)
	assert.Empty(t, sent.LastError)
	assert.NotNil(t, sent.SentAt)
}

func TestDispatchUnknownPayout(t *testing.T) {
	db := newTestDB(t)
	stub := newSettlementStub(t)
	svc := NewSettlementService(db, stub.srv.URL, newTestLogger())

	_, err := svc.Dispatch(9999)
	assert.ErrorIs(t, err, models.ErrPayoutNotFound)
}

func TestDispatchPendingSweep(t *testing.T) {
	db := newTestDB(t)
	stub := newSettlementStub(t)
	svc := NewSettlementService(db, stub.srv.URL, newTestLogger())

	first := seedPayout(t, db, 1)
	second := seedPayout(t, db, 2)

	// One already failed once; the sweep picks up PENDING and FAILED alike.
	require.NoError(t, db.Model(&models.SettlementPayout{}).
		Where("id = ?", second.ID).
		Updates(map[string]interface{}{"status": models.PayoutFailed, "attempts": 1}).Error)

	svc.DispatchPending()

	for _, id := range []uint{first.ID, second.ID} {
		var p models.SettlementPayout
		require.NoError(t, db.First(&p, id).Error)
		assert.Equalf(t, models.PayoutSent, p.Status, "payout %d", id)
	}
	assert.EqualValues(t, 2, atomic.LoadInt32(&stub.calls))
}

func TestListPayoutsByStatus(t *testing.T) {
	db := newTestDB(t)
	stub := newSettlementStub(t)
	svc := NewSettlementService(db, stub.srv.URL, newTestLogger())

	seedPayout(t, db, 1)
	done := seedPayout(t, db, 2)
	_, err := svc.Dispatch(done.ID)
	require.NoError(t, err)

	pending, err := svc.ListByStatus(models.PayoutPending)
	require.NoError(t, err)
	assert.Len(t, pending, 1)

	sent, err := svc.ListByStatus(models.PayoutSent)
	require.NoError(t, err)
	assert.Len(t, sent, 1)

	all, err := svc.ListByStatus("")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, err = svc.ListByStatus("DONE")
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestCircuitBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	db := newTestDB(t)
	stub := newSettlementStub(t)
	svc := NewSettlementService(db, stub.srv.URL, newTestLogger())

	stub.setFailing(true)
	payout := seedPayout(t, db, 5)

	for i := 0; i < 3; i++ {
		_, err := svc.Dispatch(payout.ID)
		require.Error(t, err)
	}
	callsSoFar := atomic.LoadInt32(&stub.calls)

	// The breaker is open now; the next dispatch fails fast without a call.
	failed, err := svc.Dispatch(payout.ID)
	require.Error(t, err)
	assert.Equal(t, models.PayoutFailed, failed.Status)
	assert.Equal(t, callsSoFar, atomic.LoadInt32(&stub.calls))
}
