package proxy

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient(t *testing.T) {
	direct, err := NewClient("")
	require.NoError(t, err)
	assert.Nil(t, direct.Transport)
	assert.Equal(t, clientTimeout, direct.Timeout)

	socks, err := NewClient("127.0.0.1:8888")
	require.NoError(t, err)
	tr, ok := socks.Transport.(*http.Transport)
	require.True(t, ok)
	assert.NotNil(t, tr.DialContext)
}
