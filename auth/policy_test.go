package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdminPolicy(t *testing.T) {
	ctx := context.Background()
	policy, err := NewAdminPolicy(ctx)
	require.NoError(t, err)

	tests := []struct {
		name  string
		input AdminInput
		want  bool
	}{
		{"valid key creates train", AdminInput{APIKeyValid: true, Method: "POST", Path: "/api/trains"}, true},
		{"valid key updates seats", AdminInput{APIKeyValid: true, Method: "PUT", Path: "/api/trains/:train_id/seats"}, true},
		{"admin role", AdminInput{Role: "admin", Method: "PUT", Path: "/api/trains/:train_id/seats"}, true},
		{"rider role", AdminInput{Role: "rider", Method: "POST", Path: "/api/trains"}, false},
		{"bad key", AdminInput{Method: "POST", Path: "/api/trains"}, false},
		{"valid key, read method", AdminInput{APIKeyValid: true, Method: "DELETE", Path: "/api/trains"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			allowed, err := policy.Allow(ctx, tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, allowed)
		})
	}
}
