package earnings

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/patient-companion/internal/model"
	apperrors "github.com/jwalitptl/patient-companion/pkg/errors"
)

type fakeAPI struct {
	transactions [][]model.Transaction
	failPage     int
	requested    []int
	withdrawn    float64
	details      *model.BankDetails
}

func (f *fakeAPI) GetEarningsStats(context.Context) (*model.EarningsStats, error) {
	return &model.EarningsStats{}, nil
}

func (f *fakeAPI) GetTransactions(_ context.Context, page, _ int) (model.Page[model.Transaction], error) {
	f.requested = append(f.requested, page)
	if page == f.failPage {
		return model.Page[model.Transaction]{}, apperrors.New(apperrors.KindNetwork, "remote unavailable", nil)
	}
	if page > len(f.transactions) {
		return model.Page[model.Transaction]{Page: page}, nil
	}
	return model.Page[model.Transaction]{
		Items:   f.transactions[page-1],
		Page:    page,
		HasMore: page < len(f.transactions),
	}, nil
}

func (f *fakeAPI) GetWithdrawals(_ context.Context, page, _ int) (model.Page[model.Withdrawal], error) {
	return model.Page[model.Withdrawal]{Page: page}, nil
}

func (f *fakeAPI) GetBanks(context.Context) ([]model.Bank, error) {
	return []model.Bank{{}}, nil
}

func (f *fakeAPI) ResolveAccount(_ context.Context, accountNumber, bankCode string) (*model.ResolvedAccount, error) {
	return &model.ResolvedAccount{}, nil
}

func (f *fakeAPI) AddBankDetails(_ context.Context, details model.BankDetails) error {
	f.details = &details
	return nil
}

func (f *fakeAPI) RequestWithdrawal(_ context.Context, amount float64) (*model.Withdrawal, error) {
	f.withdrawn = amount
	return &model.Withdrawal{}, nil
}

type pageResponse struct {
	Data struct {
		Items      []model.Transaction `json:"items"`
		Pagination struct {
			Page    int  `json:"page"`
			HasMore bool `json:"has_more"`
		} `json:"pagination"`
	} `json:"data"`
}

func newEngine(api RemoteAPI) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewHandler(api).RegisterRoutes(r.Group(""))
	return r
}

func makeRequest(r http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestExportTransactionsWalksAllPages(t *testing.T) {
	api := &fakeAPI{transactions: [][]model.Transaction{
		{{ID: "t1"}, {ID: "t2"}},
		{{ID: "t3"}},
	}}

	w := makeRequest(newEngine(api), http.MethodGet, "/earnings/transactions/export?limit=2", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp pageResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Data.Items, 3)
	assert.Equal(t, 2, resp.Data.Pagination.Page)
	assert.False(t, resp.Data.Pagination.HasMore)
	assert.Equal(t, []int{1, 2}, api.requested)
}

func TestExportTransactionsStopsOnError(t *testing.T) {
	api := &fakeAPI{
		transactions: [][]model.Transaction{{{ID: "t1"}}, {{ID: "t2"}}, {{ID: "t3"}}},
		failPage:     2,
	}
	w := makeRequest(newEngine(api), http.MethodGet, "/earnings/transactions/export", nil)
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestTransactionsPage(t *testing.T) {
	api := &fakeAPI{transactions: [][]model.Transaction{{{ID: "t1"}}, {{ID: "t2"}}}}
	w := makeRequest(newEngine(api), http.MethodGet, "/earnings/transactions?page=1&limit=1", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp pageResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Data.Pagination.HasMore)
	assert.Equal(t, "t1", resp.Data.Items[0].ID)
}

func TestRequestWithdrawalValidatesAmount(t *testing.T) {
	api := &fakeAPI{}
	r := newEngine(api)

	assert.Equal(t, http.StatusBadRequest, makeRequest(r, http.MethodPost, "/earnings/withdrawals", map[string]float64{"amount": 0}).Code)
	assert.Equal(t, http.StatusCreated, makeRequest(r, http.MethodPost, "/earnings/withdrawals", map[string]float64{"amount": 2500}).Code)
	assert.Equal(t, 2500.0, api.withdrawn)
}

func TestBankEndpoints(t *testing.T) {
	api := &fakeAPI{}
	r := newEngine(api)

	w := makeRequest(r, http.MethodGet, "/earnings/banks", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "private, max-age=3600", w.Header().Get("Cache-Control"))

	w = makeRequest(r, http.MethodPost, "/earnings/banks/resolve", map[string]string{"accountNumber": "12345", "bankCode": "058"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = makeRequest(r, http.MethodPost, "/earnings/banks/resolve", map[string]string{"accountNumber": "0123456789", "bankCode": "058"})
	assert.Equal(t, http.StatusOK, w.Code)

	w = makeRequest(r, http.MethodPost, "/earnings/bank-details", model.BankDetails{
		BankName: "GTBank", BankCode: "058", AccountNumber: "0123456789", AccountName: "Dr Ada",
	})
	assert.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, api.details)
	assert.Equal(t, "Dr Ada", api.details.AccountName)
}
