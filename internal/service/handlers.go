package service

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"
)

const (
	AccountServiceName     = "finova.v1.AccountService"
	TransactionServiceName = "finova.v1.TransactionService"
	UserServiceName        = "finova.v1.UserService"
	BudgetServiceName      = "finova.v1.BudgetService"
)

const (
	AccountServiceCreateAccountProcedure         = "/finova.v1.AccountService/CreateAccount"
	AccountServiceGetUserAccountsProcedure       = "/finova.v1.AccountService/GetUserAccounts"
	AccountServiceGetDashboardDataProcedure      = "/finova.v1.AccountService/GetDashboardData"
	TransactionServiceCreateTransactionProcedure = "/finova.v1.TransactionService/CreateTransaction"
	UserServiceSyncUserProcedure                 = "/finova.v1.UserService/SyncUser"
	BudgetServiceSetBudgetProcedure              = "/finova.v1.BudgetService/SetBudget"
	BudgetServiceGetBudgetProcedure              = "/finova.v1.BudgetService/GetBudget"
)

// Procedures lists every RPC served by this package. All of them require a
// resolved identity.
func Procedures() []string {
	return []string{
		AccountServiceCreateAccountProcedure,
		AccountServiceGetUserAccountsProcedure,
		AccountServiceGetDashboardDataProcedure,
		TransactionServiceCreateTransactionProcedure,
		UserServiceSyncUserProcedure,
		BudgetServiceSetBudgetProcedure,
		BudgetServiceGetBudgetProcedure,
	}
}

func handlerOptions(opts []connect.HandlerOption) []connect.HandlerOption {
	return append([]connect.HandlerOption{WithJSON()}, opts...)
}

func clientOptions(opts []connect.ClientOption) []connect.ClientOption {
	return append([]connect.ClientOption{WithJSON()}, opts...)
}

// route dispatches on the exact procedure path.
func route(handlers map[string]http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h, ok := handlers[r.URL.Path]; ok {
			h.ServeHTTP(w, r)
			return
		}
		http.NotFound(w, r)
	})
}

// NewAccountServiceHandler builds an HTTP handler for svc and returns the
// path to mount it on.
func NewAccountServiceHandler(svc *AccountService, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	return "/" + AccountServiceName + "/", route(map[string]http.Handler{
		AccountServiceCreateAccountProcedure:    connect.NewUnaryHandler(AccountServiceCreateAccountProcedure, svc.CreateAccount, opts...),
		AccountServiceGetUserAccountsProcedure:  connect.NewUnaryHandler(AccountServiceGetUserAccountsProcedure, svc.GetUserAccounts, opts...),
		AccountServiceGetDashboardDataProcedure: connect.NewUnaryHandler(AccountServiceGetDashboardDataProcedure, svc.GetDashboardData, opts...),
	})
}

// NewTransactionServiceHandler builds an HTTP handler for svc.
func NewTransactionServiceHandler(svc *TransactionService, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	return "/" + TransactionServiceName + "/", route(map[string]http.Handler{
		TransactionServiceCreateTransactionProcedure: connect.NewUnaryHandler(TransactionServiceCreateTransactionProcedure, svc.CreateTransaction, opts...),
	})
}

// NewUserServiceHandler builds an HTTP handler for svc.
func NewUserServiceHandler(svc *UserService, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	return "/" + UserServiceName + "/", route(map[string]http.Handler{
		UserServiceSyncUserProcedure: connect.NewUnaryHandler(UserServiceSyncUserProcedure, svc.SyncUser, opts...),
	})
}

// NewBudgetServiceHandler builds an HTTP handler for svc.
func NewBudgetServiceHandler(svc *BudgetService, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	return "/" + BudgetServiceName + "/", route(map[string]http.Handler{
		BudgetServiceSetBudgetProcedure: connect.NewUnaryHandler(BudgetServiceSetBudgetProcedure, svc.SetBudget, opts...),
		BudgetServiceGetBudgetProcedure: connect.NewUnaryHandler(BudgetServiceGetBudgetProcedure, svc.GetBudget, opts...),
	})
}

// Client calls every Finova RPC over HTTP.
type Client struct {
	createAccount     *connect.Client[CreateAccountRequest, CreateAccountResponse]
	getUserAccounts   *connect.Client[GetUserAccountsRequest, GetUserAccountsResponse]
	getDashboardData  *connect.Client[GetDashboardDataRequest, GetDashboardDataResponse]
	createTransaction *connect.Client[CreateTransactionRequest, CreateTransactionResponse]
	syncUser          *connect.Client[SyncUserRequest, SyncUserResponse]
	setBudget         *connect.Client[SetBudgetRequest, SetBudgetResponse]
	getBudget         *connect.Client[GetBudgetRequest, GetBudgetResponse]
}

// NewClient creates a client for the server at baseURL.
func NewClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *Client {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = clientOptions(opts)
	return &Client{
		createAccount: connect.NewClient[CreateAccountRequest, CreateAccountResponse](
			httpClient, baseURL+AccountServiceCreateAccountProcedure, opts...),
		getUserAccounts: connect.NewClient[GetUserAccountsRequest, GetUserAccountsResponse](
			httpClient, baseURL+AccountServiceGetUserAccountsProcedure, opts...),
		getDashboardData: connect.NewClient[GetDashboardDataRequest, GetDashboardDataResponse](
			httpClient, baseURL+AccountServiceGetDashboardDataProcedure, opts...),
		createTransaction: connect.NewClient[CreateTransactionRequest, CreateTransactionResponse](
			httpClient, baseURL+TransactionServiceCreateTransactionProcedure, opts...),
		syncUser: connect.NewClient[SyncUserRequest, SyncUserResponse](
			httpClient, baseURL+UserServiceSyncUserProcedure, opts...),
		setBudget: connect.NewClient[SetBudgetRequest, SetBudgetResponse](
			httpClient, baseURL+BudgetServiceSetBudgetProcedure, opts...),
		getBudget: connect.NewClient[GetBudgetRequest, GetBudgetResponse](
			httpClient, baseURL+BudgetServiceGetBudgetProcedure, opts...),
	}
}

func (c *Client) CreateAccount(ctx context.Context, req *connect.Request[CreateAccountRequest]) (*connect.Response[CreateAccountResponse], error) {
	return c.createAccount.CallUnary(ctx, req)
}

func (c *Client) GetUserAccounts(ctx context.Context, req *connect.Request[GetUserAccountsRequest]) (*connect.Response[GetUserAccountsResponse], error) {
	return c.getUserAccounts.CallUnary(ctx, req)
}

func (c *Client) GetDashboardData(ctx context.Context, req *connect.Request[GetDashboardDataRequest]) (*connect.Response[GetDashboardDataResponse], error) {
	return c.getDashboardData.CallUnary(ctx, req)
}

func (c *Client) CreateTransaction(ctx context.Context, req *connect.Request[CreateTransactionRequest]) (*connect.Response[CreateTransactionResponse], error) {
	return c.createTransaction.CallUnary(ctx, req)
}

func (c *Client) SyncUser(ctx context.Context, req *connect.Request[SyncUserRequest]) (*connect.Response[SyncUserResponse], error) {
	return c.syncUser.CallUnary(ctx, req)
}

func (c *Client) SetBudget(ctx context.Context, req *connect.Request[SetBudgetRequest]) (*connect.Response[SetBudgetResponse], error) {
	return c.setBudget.CallUnary(ctx, req)
}

func (c *Client) GetBudget(ctx context.Context, req *connect.Request[GetBudgetRequest]) (*connect.Response[GetBudgetResponse], error) {
	return c.getBudget.CallUnary(ctx, req)
}
