package orchestrator

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_LiteProfileReturnsStandalone(t *testing.T) {
	o, err := New(false, "org-1", func(ctx context.Context, now time.Time) error { return nil }, time.Second, ClientConfig{}, nil)
	require.NoError(t, err)
	_, ok := o.(*Standalone)
	assert.True(t, ok)
}

func TestLeaseName(t *testing.T) {
	assert.Equal(t, "sentinel-scheduler", leaseName(""))
	assert.Equal(t, "sentinel-scheduler-org-1", leaseName("org-1"))
}
