package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/finova/internal/auth"
	"github.com/mmynk/finova/internal/metrics"
	"github.com/mmynk/finova/internal/service"
)

const (
	whoAmIProcedure = "/test.v1.TestService/WhoAmI"
	openProcedure   = "/test.v1.TestService/Open"
)

type whoAmIRequest struct{}

type whoAmIResponse struct {
	Subject string `json:"subject"`
	Email   string `json:"email"`
}

func whoAmI(ctx context.Context, req *connect.Request[whoAmIRequest]) (*connect.Response[whoAmIResponse], error) {
	id, _ := auth.IdentityFromContext(ctx)
	return connect.NewResponse(&whoAmIResponse{Subject: id.Subject, Email: id.Email}), nil
}

func newTestServer(t *testing.T, opts ...connect.HandlerOption) (call func(procedure, header string) (*whoAmIResponse, error)) {
	t.Helper()

	opts = append(opts, service.WithJSON())
	mux := http.NewServeMux()
	mux.Handle(whoAmIProcedure, connect.NewUnaryHandler(whoAmIProcedure, whoAmI, opts...))
	mux.Handle(openProcedure, connect.NewUnaryHandler(openProcedure, whoAmI, opts...))
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	return func(procedure, header string) (*whoAmIResponse, error) {
		client := connect.NewClient[whoAmIRequest, whoAmIResponse](server.Client(), server.URL+procedure, service.WithJSON())
		req := connect.NewRequest(&whoAmIRequest{})
		if header != "" {
			req.Header().Set("Authorization", header)
		}
		resp, err := client.CallUnary(context.Background(), req)
		if err != nil {
			return nil, err
		}
		return resp.Msg, nil
	}
}

func TestResolveIdentity(t *testing.T) {
	jwtManager := auth.NewJWTManager("test-secret", "", time.Hour)
	token, err := jwtManager.Generate(auth.Identity{Subject: "idp|alice", Email: "alice@example.com"})
	require.NoError(t, err)

	call := newTestServer(t, connect.WithInterceptors(ResolveIdentity(jwtManager)))

	tests := []struct {
		name        string
		header      string
		wantSubject string
	}{
		{name: "valid token", header: "Bearer " + token, wantSubject: "idp|alice"},
		{name: "lowercase scheme", header: "bearer " + token, wantSubject: "idp|alice"},
		{name: "no header", header: ""},
		{name: "wrong scheme", header: "Basic " + token},
		{name: "garbage token", header: "Bearer not-a-jwt"},
		{name: "empty token", header: "Bearer "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := call(whoAmIProcedure, tt.header)
			require.NoError(t, err, "identity resolution never rejects")
			assert.Equal(t, tt.wantSubject, resp.Subject)
		})
	}
}

func TestRequireIdentity(t *testing.T) {
	jwtManager := auth.NewJWTManager("test-secret", "", time.Hour)
	token, err := jwtManager.Generate(auth.Identity{Subject: "idp|alice"})
	require.NoError(t, err)

	call := newTestServer(t, connect.WithInterceptors(
		ResolveIdentity(jwtManager),
		RequireIdentity(whoAmIProcedure),
	))

	_, err = call(whoAmIProcedure, "")
	require.Error(t, err)
	assert.Equal(t, connect.CodeUnauthenticated, connect.CodeOf(err))

	resp, err := call(whoAmIProcedure, "Bearer "+token)
	require.NoError(t, err)
	assert.Equal(t, "idp|alice", resp.Subject)

	_, err = call(openProcedure, "")
	assert.NoError(t, err, "procedures not listed stay open")
}

func TestMetricsInterceptor(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	call := newTestServer(t, connect.WithInterceptors(
		LoggingInterceptor(),
		MetricsInterceptor(m),
		RequireIdentity(whoAmIProcedure),
	))

	_, err := call(openProcedure, "")
	require.NoError(t, err)
	_, err = call(whoAmIProcedure, "")
	require.Error(t, err)

	n, err := testutil.GatherAndCount(reg, "finova_rpc_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 2, n, "one series per procedure and code")
}
