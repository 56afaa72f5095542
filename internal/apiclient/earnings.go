package apiclient

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/jwalitptl/patient-companion/internal/model"
	apperrors "github.com/jwalitptl/patient-companion/pkg/errors"
)

const banksCacheKey = "banks"

// ErrNoMorePages is returned by Pager.Next after the server reported the last page.
var ErrNoMorePages = errors.New("no more pages")

func (c *Client) GetEarningsStats(ctx context.Context) (*model.EarningsStats, error) {
	var stats model.EarningsStats
	if err := c.getJSON(ctx, "earnings.stats", "/doctors/earnings/stats", nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

func (c *Client) GetTransactions(ctx context.Context, page, pageSize int) (model.Page[model.Transaction], error) {
	var out model.Page[model.Transaction]
	err := c.getJSON(ctx, "earnings.transactions", "/doctors/earnings/transactions", pageQuery(page, pageSize), &out)
	if out.Page == 0 {
		out.Page = page
	}
	return out, err
}

func (c *Client) GetWithdrawals(ctx context.Context, page, pageSize int) (model.Page[model.Withdrawal], error) {
	var out model.Page[model.Withdrawal]
	err := c.getJSON(ctx, "earnings.withdrawals", "/doctors/earnings/withdrawals", pageQuery(page, pageSize), &out)
	if out.Page == 0 {
		out.Page = page
	}
	return out, err
}

// GetBanks returns the supported banks. The list rarely changes, so it is cached.
func (c *Client) GetBanks(ctx context.Context) ([]model.Bank, error) {
	if cached, ok := c.cache.Get(banksCacheKey); ok {
		return cached.([]model.Bank), nil
	}

	var banks []model.Bank
	if err := c.getJSON(ctx, "earnings.banks", "/doctors/banks", nil, &banks); err != nil {
		return nil, err
	}
	c.cache.Set(banksCacheKey, banks, c.bankTTL)
	return banks, nil
}

func (c *Client) ResolveAccount(ctx context.Context, accountNumber, bankCode string) (*model.ResolvedAccount, error) {
	if len(accountNumber) != 10 || bankCode == "" {
		return nil, apperrors.Validation("a 10 digit account number and a bank are required", nil)
	}
	in := map[string]string{"accountNumber": accountNumber, "bankCode": bankCode}
	var account model.ResolvedAccount
	if err := c.sendJSON(ctx, http.MethodPost, "earnings.resolve_account", "/doctors/banks/resolve", in, &account); err != nil {
		return nil, err
	}
	return &account, nil
}

func (c *Client) AddBankDetails(ctx context.Context, details model.BankDetails) error {
	return c.sendJSON(ctx, http.MethodPost, "earnings.bank_details", "/doctors/bank-details", details, nil)
}

func (c *Client) RequestWithdrawal(ctx context.Context, amount float64) (*model.Withdrawal, error) {
	if amount <= 0 {
		return nil, apperrors.Validation("withdrawal amount must be positive", nil)
	}
	var w model.Withdrawal
	if err := c.sendJSON(ctx, http.MethodPost, "earnings.withdraw", "/doctors/withdrawals", model.WithdrawalRequest{Amount: amount}, &w); err != nil {
		return nil, err
	}
	return &w, nil
}

func (c *Client) TransactionsPager(pageSize int) *Pager[model.Transaction] {
	return NewPager[model.Transaction](pageSize, c.GetTransactions)
}

func (c *Client) WithdrawalsPager(pageSize int) *Pager[model.Withdrawal] {
	return NewPager[model.Withdrawal](pageSize, c.GetWithdrawals)
}

type FetchFunc[T any] func(ctx context.Context, page, pageSize int) (model.Page[T], error)

// Pager walks a paginated list using the server's hasMore flag.
type Pager[T any] struct {
	mu       sync.Mutex
	fetch    FetchFunc[T]
	pageSize int
	page     int
	hasMore  bool
}

func NewPager[T any](pageSize int, fetch FetchFunc[T]) *Pager[T] {
	if pageSize <= 0 {
		pageSize = 10
	}
	return &Pager[T]{fetch: fetch, pageSize: pageSize, hasMore: true}
}

// Next fetches the following page. The counter only moves on success.
func (p *Pager[T]) Next(ctx context.Context) ([]T, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.hasMore {
		return nil, ErrNoMorePages
	}
	res, err := p.fetch(ctx, p.page+1, p.pageSize)
	if err != nil {
		return nil, err
	}
	p.page++
	p.hasMore = res.HasMore
	return res.Items, nil
}

func (p *Pager[T]) HasMore() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.hasMore
}

func (p *Pager[T]) Page() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.page
}

// Reset starts over from the first page, as a pull-to-refresh does.
func (p *Pager[T]) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.page = 0
	p.hasMore = true
}
