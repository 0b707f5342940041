package service

import (
	"testing"

	"github.com/gin-gonic/gin/binding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdateImageOrderRequestAcceptsAnyInteger(t *testing.T) {
	var req UpdateImageOrderRequest
	require.NoError(t, binding.JSON.BindBody([]byte(`{"order": 0}`), &req))
	require.NotNil(t, req.Order)
	assert.Equal(t, 0, *req.Order)

	req = UpdateImageOrderRequest{}
	require.NoError(t, binding.JSON.BindBody([]byte(`{"order": -5}`), &req))
	require.NotNil(t, req.Order)
	assert.Equal(t, -5, *req.Order)
}

func TestUpdateImageOrderRequestRequiresOrder(t *testing.T) {
	var req UpdateImageOrderRequest
	assert.Error(t, binding.JSON.BindBody([]byte(`{}`), &req))
}
