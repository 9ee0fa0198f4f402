package configuration

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConfiguration_Defaults(t *testing.T) {
	cfg := NewConfiguration()

	require.NotEmpty(t, cfg.Log.Level)
	require.NotEmpty(t, cfg.Log.Formatter)
	require.NotEmpty(t, cfg.Storage.DataDirectory)
	require.Greater(t, cfg.Storage.CandidateLimit, 0)
	require.NotEmpty(t, cfg.Chain.RPCURL)
	require.NotEmpty(t, cfg.Artifacts.Directory)
}

func TestConfiguration_ToString(t *testing.T) {
	cfg := NewConfiguration()

	out := ToString(&cfg)
	require.Contains(t, out, "log:")
	require.Contains(t, out, "storage:")
	require.Contains(t, out, "chain:")
	require.Contains(t, out, "artifacts:")
}
