package http

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uzshop/payme-merchant/internal/payme_service/app"
)

// failingDispatcher errors on every method, standing in for a storage outage.
type failingDispatcher struct {
	err error
}

func (s *failingDispatcher) CheckPerformTransaction(context.Context, app.Params) (*app.CheckPerformTransactionResult, error) {
	return nil, s.err
}

func (s *failingDispatcher) CreateTransaction(context.Context, app.Params) (*app.CreateTransactionResult, error) {
	return nil, s.err
}

func (s *failingDispatcher) PerformTransaction(context.Context, app.Params) (*app.PerformTransactionResult, error) {
	return nil, s.err
}

func (s *failingDispatcher) CancelTransaction(context.Context, app.Params) (*app.CancelTransactionResult, error) {
	return nil, s.err
}

func (s *failingDispatcher) CheckTransaction(context.Context, app.Params) (*app.CheckTransactionResult, error) {
	return nil, s.err
}

func (s *failingDispatcher) GetStatement(context.Context, app.Params) (*app.GetStatementResult, error) {
	return nil, s.err
}

type openAuthorizer struct{}

func (openAuthorizer) Authorize(string) error { return nil }

func TestHandleWebhook_DurationObservedOnError(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := NewWebhookHandler(&failingDispatcher{err: errors.New("storage offline")}, openAuthorizer{}, logger)

	before := testutil.CollectAndCount(webhookDurationHist)

	body := bytes.NewBufferString(`{"method":"PerformTransaction","params":{"id":"ext1"}}`)
	req := httptest.NewRequest(http.MethodPost, WebhookRoute, body)
	rr := httptest.NewRecorder()
	handler.HandleWebhook(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Greater(t, testutil.CollectAndCount(webhookDurationHist), before,
		"error outcomes must record a duration sample too")
}
