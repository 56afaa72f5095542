package earnings

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/patient-companion/internal/apiclient"
	"github.com/jwalitptl/patient-companion/internal/handler"
	"github.com/jwalitptl/patient-companion/internal/middleware"
	"github.com/jwalitptl/patient-companion/internal/model"
	"github.com/jwalitptl/patient-companion/pkg/httputil"
)

// exportPageLimit bounds how many remote pages one export walks.
const exportPageLimit = 50

type RemoteAPI interface {
	GetEarningsStats(ctx context.Context) (*model.EarningsStats, error)
	GetTransactions(ctx context.Context, page, pageSize int) (model.Page[model.Transaction], error)
	GetWithdrawals(ctx context.Context, page, pageSize int) (model.Page[model.Withdrawal], error)
	GetBanks(ctx context.Context) ([]model.Bank, error)
	ResolveAccount(ctx context.Context, accountNumber, bankCode string) (*model.ResolvedAccount, error)
	AddBankDetails(ctx context.Context, details model.BankDetails) error
	RequestWithdrawal(ctx context.Context, amount float64) (*model.Withdrawal, error)
}

type Handler struct {
	api RemoteAPI
}

func NewHandler(api RemoteAPI) *Handler {
	return &Handler{api: api}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	earnings := r.Group("/earnings")
	{
		earnings.GET("/stats", h.Stats)
		earnings.GET("/transactions", h.Transactions)
		earnings.GET("/transactions/export", h.ExportTransactions)
		earnings.GET("/withdrawals", h.Withdrawals)
		earnings.POST("/withdrawals", h.RequestWithdrawal)
		earnings.GET("/banks", middleware.CachePrivate(3600), h.Banks)
		earnings.POST("/banks/resolve", h.ResolveAccount)
		earnings.POST("/bank-details", h.AddBankDetails)
	}
}

func (h *Handler) Stats(c *gin.Context) {
	stats, err := h.api.GetEarningsStats(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, stats)
}

func (h *Handler) Transactions(c *gin.Context) {
	page, limit := handler.Paging(c, 20)
	out, err := h.api.GetTransactions(c.Request.Context(), page, limit)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithPage(c, out.Items, httputil.PageMeta{Page: out.Page, PageSize: limit, HasMore: out.HasMore})
}

// ExportTransactions walks every page of the doctor's transactions.
func (h *Handler) ExportTransactions(c *gin.Context) {
	_, limit := handler.Paging(c, 100)
	pager := apiclient.NewPager[model.Transaction](limit, h.api.GetTransactions)

	var all []model.Transaction
	for i := 0; i < exportPageLimit && pager.HasMore(); i++ {
		items, err := pager.Next(c.Request.Context())
		if errors.Is(err, apiclient.ErrNoMorePages) {
			break
		}
		if err != nil {
			httputil.RespondWithError(c, err)
			return
		}
		all = append(all, items...)
	}
	httputil.RespondWithPage(c, all, httputil.PageMeta{Page: pager.Page(), PageSize: limit, HasMore: pager.HasMore()})
}

func (h *Handler) Withdrawals(c *gin.Context) {
	page, limit := handler.Paging(c, 20)
	out, err := h.api.GetWithdrawals(c.Request.Context(), page, limit)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithPage(c, out.Items, httputil.PageMeta{Page: out.Page, PageSize: limit, HasMore: out.HasMore})
}

func (h *Handler) RequestWithdrawal(c *gin.Context) {
	var req model.WithdrawalRequest
	if !handler.BindJSON(c, &req) {
		return
	}
	w, err := h.api.RequestWithdrawal(c.Request.Context(), req.Amount)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondCreated(c, w)
}

func (h *Handler) Banks(c *gin.Context) {
	banks, err := h.api.GetBanks(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, banks)
}

type resolveRequest struct {
	AccountNumber string `json:"accountNumber" binding:"required,numeric,len=10"`
	BankCode      string `json:"bankCode" binding:"required"`
}

func (h *Handler) ResolveAccount(c *gin.Context) {
	var req resolveRequest
	if !handler.BindJSON(c, &req) {
		return
	}
	account, err := h.api.ResolveAccount(c.Request.Context(), req.AccountNumber, req.BankCode)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, account)
}

func (h *Handler) AddBankDetails(c *gin.Context) {
	var details model.BankDetails
	if !handler.BindJSON(c, &details) {
		return
	}
	if err := h.api.AddBankDetails(c.Request.Context(), details); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithMessage(c, "Bank details saved")
}

