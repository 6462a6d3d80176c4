package redisx

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNew_AppliesCommandTimeout(t *testing.T) {
	c := New("localhost:6379")
	defer c.Close()

	require.Equal(t, 2*time.Second, c.Options().ReadTimeout)
	require.Equal(t, 2*time.Second, c.Options().WriteTimeout)
}
