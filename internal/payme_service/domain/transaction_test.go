package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPaymeState(t *testing.T) {
	cases := []struct {
		status TransactionStatus
		want   int32
	}{
		{StatusWaiting, PaymeStateCreated},
		{StatusPerformed, PaymeStatePerformed},
		{StatusCancelled, PaymeStateCancelled},
		{StatusCancelledAfterPerform, PaymeStateCancelledAfterPerform},
	}
	for _, c := range cases {
		tr := Transaction{Status: c.status}
		assert.Equal(t, c.want, tr.PaymeState(), "status %s", c.status)
	}
}

func TestTiyinScaling(t *testing.T) {
	tr := Transaction{Price: 10000} // 10 000 soum
	assert.Equal(t, int64(1000000), tr.Tiyin())
}

func TestPaymeTransactionID_FallsBackToOrderID(t *testing.T) {
	tr := Transaction{ID: "order-5"}
	assert.Equal(t, "order-5", tr.PaymeTransactionID())

	paymeID := "payme-tx-1"
	tr.PaymeID = &paymeID
	assert.Equal(t, "payme-tx-1", tr.PaymeTransactionID())
}

func TestToPaymeTime(t *testing.T) {
	assert.Equal(t, int64(0), ToPaymeTime(nil), "nil timestamp uses the unset sentinel")

	zero := time.Time{}
	assert.Equal(t, int64(0), ToPaymeTime(&zero))

	ts := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, ts.UnixMilli(), ToPaymeTime(&ts))
}

func TestFromPaymeTime_RoundTrip(t *testing.T) {
	ts := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	got := FromPaymeTime(ts.UnixMilli())
	assert.True(t, got.Equal(ts))
}

func TestCancelledPredicates(t *testing.T) {
	assert.False(t, (&Transaction{Status: StatusWaiting}).IsCancelled())
	assert.False(t, (&Transaction{Status: StatusPerformed}).IsCancelled())
	assert.True(t, (&Transaction{Status: StatusCancelled}).IsCancelled())
	assert.True(t, (&Transaction{Status: StatusCancelledAfterPerform}).IsCancelled())

	assert.True(t, (&Transaction{Status: StatusPerformed}).IsPerformed())
	assert.False(t, (&Transaction{Status: StatusCancelledAfterPerform}).IsPerformed())
}
