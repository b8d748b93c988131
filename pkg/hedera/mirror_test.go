package hedera

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatTinybars(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{123456789, "1.23"},
		{0, "0.00"},
		{100000000, "1.00"},
		{199999999, "2.00"},
		{5000, "0.00"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatTinybars(tt.in), "input %d", tt.in)
	}
}

func TestMirrorClient_Balance(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/accounts/0.0.1001" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"account":"0.0.1001","balance":{"balance":123456789,"timestamp":"1700000000.000000000"}}`))
	}))
	defer srv.Close()

	c := NewMirrorClient(srv.URL+"/", nil)

	bal, err := c.Balance(context.Background(), "0.0.1001")
	require.NoError(t, err)
	assert.Equal(t, int64(123456789), bal)
	assert.Equal(t, "1.23", c.DisplayBalance(context.Background(), "0.0.1001"))

	// 404 -> 降级为占位余额
	assert.Equal(t, ZeroBalance, c.DisplayBalance(context.Background(), "0.0.2002"))

	// 非法 ID 不发请求
	_, err = c.Balance(context.Background(), "1.2.3")
	assert.ErrorIs(t, err, ErrInvalidAccountID)
}
