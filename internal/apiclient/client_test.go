package apiclient

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/patient-companion/internal/model"
	apperrors "github.com/jwalitptl/patient-companion/pkg/errors"
	"github.com/jwalitptl/patient-companion/pkg/metrics"
)

func newTestClient(t *testing.T, h http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c, err := New(Config{
		BaseURL:            srv.URL + "/api",
		Timeout:            time.Second,
		BreakerMaxFailures: 2,
		BreakerTimeout:     time.Minute,
	}, nil, metrics.NewTestMetrics())
	require.NoError(t, err)
	return c, srv
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func TestGetMedicationsUnwrapsEnvelopeAndSendsToken(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/medications", r.URL.Path)
		assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"data": []map[string]any{
				{"_id": "m1", "drugName": "Aspirin", "dosage": "1 pill", "frequency": "daily", "time": "09:00", "enabled": true},
			},
		})
	})

	meds, err := c.GetMedications(WithToken(context.Background(), "tok-1"))
	require.NoError(t, err)
	require.Len(t, meds, 1)
	assert.Equal(t, "m1", meds[0].ID)
	assert.Equal(t, model.FrequencyDaily, meds[0].Frequency)
}

func TestBareResponseBody(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"status": "pending"})
	})

	status, err := c.GetKYCStatus(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "pending", status.Status)
}

func TestStatusErrorsMapToKinds(t *testing.T) {
	tests := []struct {
		status int
		kind   apperrors.Kind
	}{
		{http.StatusBadRequest, apperrors.KindValidation},
		{http.StatusUnauthorized, apperrors.KindUnauthorized},
		{http.StatusForbidden, apperrors.KindPermission},
		{http.StatusNotFound, apperrors.KindNotFound},
		{http.StatusConflict, apperrors.KindConflict},
		{http.StatusBadGateway, apperrors.KindNetwork},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, tt.status, map[string]any{"success": false, "message": "server says no"})
			})

			_, err := c.GetDoctor(context.Background(), "d1")
			require.Error(t, err)
			assert.Equal(t, tt.kind, apperrors.KindOf(err))

			var statusErr *StatusError
			require.ErrorAs(t, err, &statusErr)
			assert.Equal(t, tt.status, statusErr.StatusCode)
		})
	}
}

func TestBreakerOpensOnNetworkErrors(t *testing.T) {
	var calls int32
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	for i := 0; i < 2; i++ {
		_, err := c.GetEarningsStats(context.Background())
		require.Error(t, err)
	}
	_, err := c.GetEarningsStats(context.Background())
	assert.True(t, apperrors.Is(err, apperrors.KindNetwork))
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestValidationFailuresDoNotTripBreaker(t *testing.T) {
	var calls int32
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		writeJSON(w, http.StatusBadRequest, map[string]any{"message": "bad"})
	})

	for i := 0; i < 4; i++ {
		_, err := c.GetConditions(context.Background())
		assert.True(t, apperrors.Is(err, apperrors.KindValidation))
	}
	assert.Equal(t, int32(4), atomic.LoadInt32(&calls))
}

func TestClientSideValidation(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("unexpected request to %s", r.URL.Path)
	})
	ctx := context.Background()

	_, err := c.RequestWithdrawal(ctx, 0)
	assert.True(t, apperrors.Is(err, apperrors.KindValidation))

	_, err = c.RejectDoctor(ctx, "d1", "  ")
	assert.True(t, apperrors.Is(err, apperrors.KindValidation))

	_, err = c.AddMedication(ctx, model.Medication{DrugName: "x", Dosage: "1", Frequency: model.FrequencyWeekly, Time: "09:00"})
	assert.True(t, apperrors.Is(err, apperrors.KindValidation))

	_, err = c.ResolveAccount(ctx, "123", "044")
	assert.True(t, apperrors.Is(err, apperrors.KindValidation))
}

func TestRejectDoctorSendsReason(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/api/admin/doctors/d1/reject", r.URL.Path)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "license expired", body["reason"])
		writeJSON(w, http.StatusOK, map[string]any{"data": map[string]any{"_id": "d1", "status": "rejected"}})
	})

	doc, err := c.RejectDoctor(context.Background(), "d1", "license expired")
	require.NoError(t, err)
	assert.Equal(t, model.AccountRejected, doc.Status)
}

func TestGetBanksIsCached(t *testing.T) {
	var calls int32
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		writeJSON(w, http.StatusOK, map[string]any{"data": []map[string]string{{"name": "Bank A", "code": "044"}}})
	})

	for i := 0; i < 3; i++ {
		banks, err := c.GetBanks(context.Background())
		require.NoError(t, err)
		require.Len(t, banks, 1)
		assert.Equal(t, "044", banks[0].Code)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestTransactionsPager(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "5", r.URL.Query().Get("limit"))
		page := r.URL.Query().Get("page")
		writeJSON(w, http.StatusOK, map[string]any{"data": map[string]any{
			"items":   []map[string]any{{"_id": "t" + page, "amount": 10}},
			"hasMore": page == "1",
		}})
	})

	pager := c.TransactionsPager(5)
	first, err := pager.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "t1", first[0].ID)
	assert.True(t, pager.HasMore())

	second, err := pager.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "t2", second[0].ID)
	assert.False(t, pager.HasMore())
	assert.Equal(t, 2, pager.Page())

	_, err = pager.Next(context.Background())
	assert.ErrorIs(t, err, ErrNoMorePages)

	pager.Reset()
	again, err := pager.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "t1", again[0].ID)
}

func TestSubmitKYCSendsMultipart(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "passport", r.FormValue("documentType"))
		assert.Equal(t, "A123", r.FormValue("documentNumber"))

		f, hdr, err := r.FormFile("selfieImage")
		require.NoError(t, err)
		defer f.Close()
		data, _ := io.ReadAll(f)
		assert.Equal(t, "selfie.jpg", hdr.Filename)
		assert.Equal(t, []byte("jpeg"), data)

		_, _, err = r.FormFile("addressProofImage")
		assert.ErrorIs(t, err, http.ErrMissingFile)

		writeJSON(w, http.StatusCreated, map[string]any{"data": map[string]any{"status": "submitted"}})
	})

	status, err := c.SubmitKYCDocuments(context.Background(), model.KYCSubmission{
		DocumentType:   model.DocumentPassport,
		DocumentNumber: "A123",
		IDImage:        &model.File{Name: "id.jpg", ContentType: "image/jpeg", Data: []byte("id")},
		SelfieImage:    &model.File{Name: "selfie.jpg", ContentType: "image/jpeg", Data: []byte("jpeg")},
	})
	require.NoError(t, err)
	assert.Equal(t, "submitted", status.Status)
}
