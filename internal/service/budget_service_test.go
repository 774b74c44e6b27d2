package service

import (
	"context"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBudget(t *testing.T) {
	env := setupTestServer(t)
	token := env.signIn(t, "idp|alice")
	ctx := context.Background()

	t.Run("no budget yet", func(t *testing.T) {
		resp, err := env.client.GetBudget(ctx, authed(token, &GetBudgetRequest{}))
		require.NoError(t, err)
		assert.Nil(t, resp.Msg.Budget)
		assert.Zero(t, resp.Msg.PercentageUsed)
	})

	t.Run("rejects non-positive amounts", func(t *testing.T) {
		_, err := env.client.SetBudget(ctx, authed(token, &SetBudgetRequest{Amount: "0"}))
		require.Error(t, err)
		assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))
	})

	t.Run("usage reflects this month's expenses", func(t *testing.T) {
		resp, err := env.client.SetBudget(ctx, authed(token, &SetBudgetRequest{Amount: "400"}))
		require.NoError(t, err)
		assert.Equal(t, 400.0, resp.Msg.Data.Amount)

		account := createAccount(t, env, token, &CreateAccountRequest{Name: "Checking", Type: "CHECKING", Balance: "1000"})
		now := time.Now().UTC()
		for _, msg := range []*CreateTransactionRequest{
			{AccountID: account.ID, Type: "EXPENSE", Amount: "100", Category: "rent", Date: now},
			{AccountID: account.ID, Type: "INCOME", Amount: "900", Category: "salary", Date: now},
			{AccountID: account.ID, Type: "EXPENSE", Amount: "500", Category: "rent", Date: now.AddDate(0, -2, 0)},
		} {
			_, err := env.client.CreateTransaction(ctx, authed(token, msg))
			require.NoError(t, err)
		}

		got, err := env.client.GetBudget(ctx, authed(token, &GetBudgetRequest{}))
		require.NoError(t, err)
		require.NotNil(t, got.Msg.Budget)
		assert.Equal(t, 400.0, got.Msg.Budget.Amount)
		assert.Equal(t, 100.0, got.Msg.Expenses)
		assert.Equal(t, 25.0, got.Msg.PercentageUsed)
	})
}
