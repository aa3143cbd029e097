package transport

import (
	"context"

	"connectrpc.com/connect"
	"github.com/samber/lo"

	"github.com/eslsoft/skillswap/internal/core"
	skillswapv1 "github.com/eslsoft/skillswap/pkg/api/skillswap/v1"
	"github.com/eslsoft/skillswap/pkg/api/skillswap/v1/skillswapv1connect"
)

// CreditHandler serves read access to the caller's own ledger. Credits and
// debits are only posted by enrollment settlement and progress rewards.
type CreditHandler struct {
	ledger core.LedgerService
}

var _ skillswapv1connect.CreditServiceHandler = (*CreditHandler)(nil)

// NewCreditHandler builds a new credit handler.
func NewCreditHandler(ledger core.LedgerService) *CreditHandler {
	return &CreditHandler{ledger: ledger}
}

func (h *CreditHandler) OpenAccount(ctx context.Context, req *connect.Request[skillswapv1.OpenAccountRequest]) (*connect.Response[skillswapv1.OpenAccountResponse], error) {
	user, err := h.ledger.OpenAccount(ctx, req.Msg.GetName())
	if err != nil {
		return nil, err
	}
	return connect.NewResponse(&skillswapv1.OpenAccountResponse{Account: toAccount(user)}), nil
}

func (h *CreditHandler) GetAccount(ctx context.Context, req *connect.Request[skillswapv1.GetAccountRequest]) (*connect.Response[skillswapv1.GetAccountResponse], error) {
	userID, err := subjectOrActor(ctx, req.Msg.GetUserId())
	if err != nil {
		return nil, err
	}
	user, err := h.ledger.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return connect.NewResponse(&skillswapv1.GetAccountResponse{Account: toAccount(user)}), nil
}

func (h *CreditHandler) GetBalance(ctx context.Context, req *connect.Request[skillswapv1.GetBalanceRequest]) (*connect.Response[skillswapv1.GetBalanceResponse], error) {
	userID, err := subjectOrActor(ctx, req.Msg.GetUserId())
	if err != nil {
		return nil, err
	}
	balance, err := h.ledger.GetBalance(ctx, userID)
	if err != nil {
		return nil, err
	}
	return connect.NewResponse(&skillswapv1.GetBalanceResponse{UserId: userID.String(), Balance: balance}), nil
}

func (h *CreditHandler) GetHistory(ctx context.Context, req *connect.Request[skillswapv1.GetHistoryRequest]) (*connect.Response[skillswapv1.GetHistoryResponse], error) {
	userID, err := subjectOrActor(ctx, req.Msg.GetUserId())
	if err != nil {
		return nil, err
	}
	txs, err := h.ledger.History(ctx, userID, int(req.Msg.GetLimit()))
	if err != nil {
		return nil, err
	}
	return connect.NewResponse(&skillswapv1.GetHistoryResponse{Transactions: lo.Map(txs, toTransaction)}), nil
}

func (h *CreditHandler) Reconcile(ctx context.Context, req *connect.Request[skillswapv1.ReconcileRequest]) (*connect.Response[skillswapv1.ReconcileResponse], error) {
	userID, err := subjectOrActor(ctx, req.Msg.GetUserId())
	if err != nil {
		return nil, err
	}
	rec, err := h.ledger.Reconcile(ctx, userID)
	if err != nil {
		return nil, err
	}
	return connect.NewResponse(&skillswapv1.ReconcileResponse{
		UserId:     rec.UserID.String(),
		Balance:    rec.Balance,
		LedgerSum:  rec.LedgerSum,
		Consistent: rec.Consistent,
	}), nil
}
