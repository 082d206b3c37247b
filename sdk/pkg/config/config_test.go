package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	solanarpc "github.com/gagliardetto/solana-go/rpc"
	"github.com/stretchr/testify/require"

	"github.com/malbeclabs/atomid/sdk/pkg/atomid"
	"github.com/malbeclabs/atomid/sdk/pkg/ledger"
)

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestAtomID_Config_Load(t *testing.T) {
	t.Parallel()

	t.Run("defaults when nothing is set", func(t *testing.T) {
		t.Parallel()

		cfg, err := load(envMap(nil))
		require.NoError(t, err)
		require.Equal(t, ledger.DefaultRPCURL, cfg.RPCURL)
		require.Equal(t, atomid.DefaultProgramID, cfg.ProgramID)
		require.Equal(t, 5*time.Minute, cfg.CacheTTL)
		require.Equal(t, solanarpc.CommitmentConfirmed, cfg.Commitment)
		require.Equal(t, DefaultCacheMaxEntries, cfg.CacheMaxEntries)
		require.Equal(t, 1, cfg.RPCMaxAttempts)
	})

	t.Run("reads overrides", func(t *testing.T) {
		t.Parallel()

		cfg, err := load(envMap(map[string]string{
			EnvRPCURL:          "http://localhost:8899",
			EnvProgramID:       "FM3RuwjHdDHyhXbMCucVaoM512wkjGvePxgefZ4C7gGM",
			EnvCacheTTL:        "30s",
			EnvCommitment:      "finalized",
			EnvCacheMaxEntries: "50",
			EnvRPCMaxAttempts:  "3",
		}))
		require.NoError(t, err)
		require.Equal(t, "http://localhost:8899", cfg.RPCURL)
		require.Equal(t, "FM3RuwjHdDHyhXbMCucVaoM512wkjGvePxgefZ4C7gGM", cfg.ProgramID.String())
		require.Equal(t, 30*time.Second, cfg.CacheTTL)
		require.Equal(t, solanarpc.CommitmentFinalized, cfg.Commitment)
		require.Equal(t, 50, cfg.CacheMaxEntries)
		require.Equal(t, 3, cfg.RPCMaxAttempts)
	})

	t.Run("rejects invalid values", func(t *testing.T) {
		t.Parallel()

		for k, v := range map[string]string{
			EnvProgramID:       "not-a-key",
			EnvCacheTTL:        "-1s",
			EnvCommitment:      "recent",
			EnvCacheMaxEntries: "0",
			EnvRPCMaxAttempts:  "x",
		} {
			_, err := load(envMap(map[string]string{k: v}))
			require.Error(t, err, "%s=%s", k, v)
		}
	})
}

func TestAtomID_Config_LoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "atomid.env")
	require.NoError(t, os.WriteFile(path, []byte("ATOMID_TEST_DOTENV_VALUE=from-file\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("ATOMID_TEST_DOTENV_VALUE") })

	require.NoError(t, LoadDotEnv(path, filepath.Join(dir, "missing.env")))
	require.Equal(t, "from-file", os.Getenv("ATOMID_TEST_DOTENV_VALUE"))
}
