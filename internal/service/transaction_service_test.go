package service

import (
	"context"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateTransaction(t *testing.T) {
	env := setupTestServer(t)
	token := env.signIn(t, "idp|alice")
	ctx := context.Background()

	account := createAccount(t, env, token, &CreateAccountRequest{Name: "Checking", Type: "CHECKING", Balance: "50"})

	t.Run("expense reduces the balance", func(t *testing.T) {
		resp, err := env.client.CreateTransaction(ctx, authed(token, &CreateTransactionRequest{
			AccountID:   account.ID,
			Type:        "EXPENSE",
			Amount:      "20.25",
			Description: "Weekly shop",
			Category:    "Groceries",
			Date:        time.Date(2026, time.February, 1, 12, 0, 0, 0, time.UTC),
		}))
		require.NoError(t, err)
		assert.True(t, resp.Msg.Success)
		assert.Equal(t, 20.25, resp.Msg.Data.Amount)
		assert.Equal(t, "groceries", resp.Msg.Data.Category)
		assert.Equal(t, account.ID, resp.Msg.Data.AccountID)

		accounts := listAccounts(t, env, token)
		require.Len(t, accounts, 1)
		assert.Equal(t, 29.75, accounts[0].Balance)
	})

	t.Run("income increases the balance", func(t *testing.T) {
		_, err := env.client.CreateTransaction(ctx, authed(token, &CreateTransactionRequest{
			AccountID: account.ID,
			Type:      "income",
			Amount:    "0.25",
			Category:  "interest",
		}))
		require.NoError(t, err)

		accounts := listAccounts(t, env, token)
		assert.Equal(t, 30.0, accounts[0].Balance)
	})

	t.Run("invalidates dashboard and account views", func(t *testing.T) {
		assert.Contains(t, env.invalidated.Paths(), AccountPath(account.ID))
		assert.Contains(t, env.invalidated.Paths(), DashboardPath)
	})
}

func TestCreateTransaction_Errors(t *testing.T) {
	env := setupTestServer(t)
	alice := env.signIn(t, "idp|alice")
	bob := env.signIn(t, "idp|bob")
	ctx := context.Background()

	account := createAccount(t, env, alice, &CreateAccountRequest{Name: "Checking", Type: "CHECKING", Balance: "50"})

	tests := []struct {
		name  string
		token string
		msg   *CreateTransactionRequest
		want  connect.Code
	}{
		{
			name:  "another user's account",
			token: bob,
			msg:   &CreateTransactionRequest{AccountID: account.ID, Type: "EXPENSE", Amount: "1", Category: "food"},
			want:  connect.CodeNotFound,
		},
		{
			name:  "unknown account",
			token: alice,
			msg:   &CreateTransactionRequest{AccountID: "missing", Type: "EXPENSE", Amount: "1", Category: "food"},
			want:  connect.CodeNotFound,
		},
		{
			name:  "negative amount",
			token: alice,
			msg:   &CreateTransactionRequest{AccountID: account.ID, Type: "EXPENSE", Amount: "-1", Category: "food"},
			want:  connect.CodeInvalidArgument,
		},
		{
			name:  "amount out of range",
			token: alice,
			msg:   &CreateTransactionRequest{AccountID: account.ID, Type: "INCOME", Amount: "1e400", Category: "salary"},
			want:  connect.CodeInvalidArgument,
		},
		{
			name:  "amount below one cent",
			token: alice,
			msg:   &CreateTransactionRequest{AccountID: account.ID, Type: "EXPENSE", Amount: "0.001", Category: "food"},
			want:  connect.CodeInvalidArgument,
		},
		{
			name:  "unknown type",
			token: alice,
			msg:   &CreateTransactionRequest{AccountID: account.ID, Type: "TRANSFER", Amount: "1", Category: "food"},
			want:  connect.CodeInvalidArgument,
		},
		{
			name:  "missing category",
			token: alice,
			msg:   &CreateTransactionRequest{AccountID: account.ID, Type: "EXPENSE", Amount: "1"},
			want:  connect.CodeInvalidArgument,
		},
		{
			name:  "missing token",
			token: "",
			msg:   &CreateTransactionRequest{AccountID: account.ID, Type: "EXPENSE", Amount: "1", Category: "food"},
			want:  connect.CodeUnauthenticated,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.client.CreateTransaction(ctx, authed(tt.token, tt.msg))
			require.Error(t, err)
			assert.Equal(t, tt.want, connect.CodeOf(err))
		})
	}

	accounts := listAccounts(t, env, alice)
	assert.Equal(t, 50.0, accounts[0].Balance, "failed requests must not change the balance")
	assert.Zero(t, accounts[0].TransactionCount)
}

func TestCreateTransaction_BalanceOutOfRange(t *testing.T) {
	env := setupTestServer(t)
	token := env.signIn(t, "idp|alice")
	ctx := context.Background()

	account := createAccount(t, env, token, &CreateAccountRequest{Name: "Vault", Type: "SAVINGS", Balance: "9999999999999000"})

	_, err := env.client.CreateTransaction(ctx, authed(token, &CreateTransactionRequest{
		AccountID: account.ID,
		Type:      "INCOME",
		Amount:    "1000",
		Category:  "interest",
	}))
	require.Error(t, err)
	assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))

	accounts := listAccounts(t, env, token)
	require.Len(t, accounts, 1)
	assert.Equal(t, 9999999999999000.0, accounts[0].Balance)
	assert.Zero(t, accounts[0].TransactionCount)

	_, err = env.client.CreateTransaction(ctx, authed(token, &CreateTransactionRequest{
		AccountID: account.ID,
		Type:      "EXPENSE",
		Amount:    "0.50",
		Category:  "fees",
	}))
	require.NoError(t, err)
}
