package config_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/worgue/magic-pocket/internal/config"
	dserrors "github.com/worgue/magic-pocket/internal/errors"
	"github.com/worgue/magic-pocket/internal/providers"
	"github.com/worgue/magic-pocket/tests/testutil"
)

func TestDocumentPathSearchesUpward(t *testing.T) {
	t.Parallel()

	root := filepath.Dir(testutil.WritePocketFile(t, testutil.MinimalPocketTOML))
	nested := filepath.Join(root, "app", "handlers")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	cfg := &config.Config{Dir: nested}
	path, err := cfg.DocumentPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "pocket.toml"), path)

	resolved, err := cfg.Load("dev")
	require.NoError(t, err)
	assert.Equal(t, "dev-testprj", resolved.Slug)
}

func TestDocumentPathExplicit(t *testing.T) {
	t.Parallel()

	path := testutil.WriteFile(t, "custom.yaml", "general:\n  region: us-east-1\n  project_name: yamlprj\n")
	cfg := &config.Config{Path: path}

	general, err := cfg.LoadGeneral()
	require.NoError(t, err)
	assert.Equal(t, "yamlprj", general.ProjectName)
	assert.Equal(t, "us-east-1", general.Region)
}

func TestDocumentPathNotFound(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{Dir: t.TempDir()}
	_, err := cfg.Load("dev")

	var configErr dserrors.ConfigError
	require.ErrorAs(t, err, &configErr)
	assert.Equal(t, "path", configErr.Field)
}

func TestAWSOptions(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{Endpoint: "http://localhost:4566", Profile: "dev"}
	opts := cfg.AWSOptions()
	assert.Equal(t, "http://localhost:4566", opts.Endpoint)
	assert.Equal(t, "dev", opts.Profile)
	assert.Empty(t, opts.AccessKeyID)
}

func TestFromEnv(t *testing.T) {
	t.Parallel()

	cfg := config.FromEnv(testutil.MapGetenv(map[string]string{
		"POCKET_CONFIG":                "/srv/app/pocket.toml",
		"POCKET_AWS_ENDPOINT":          "http://localhost:4566",
		"AWS_PROFILE":                  "staging",
		"POCKET_AWS_ACCESS_KEY_ID":     "test",
		"POCKET_AWS_SECRET_ACCESS_KEY": "test-secret",
	}))

	assert.Equal(t, "/srv/app/pocket.toml", cfg.Path)
	assert.Equal(t, providers.AWSOptions{
		Endpoint:        "http://localhost:4566",
		Profile:         "staging",
		AccessKeyID:     "test",
		SecretAccessKey: "test-secret",
	}, cfg.AWSOptions())
}

func TestProvidersUseStaticCredentials(t *testing.T) {
	t.Setenv("AWS_CONFIG_FILE", "/nonexistent")
	t.Setenv("AWS_SHARED_CREDENTIALS_FILE", "/nonexistent")
	t.Setenv("AWS_PROFILE", "")

	cfg := config.FromEnv(testutil.MapGetenv(map[string]string{
		"POCKET_AWS_ENDPOINT":          "http://localhost:4566",
		"POCKET_AWS_ACCESS_KEY_ID":     "test",
		"POCKET_AWS_SECRET_ACCESS_KEY": "test-secret",
	}))

	awsCfg, err := providers.LoadAWSConfig(context.Background(), "us-east-1", cfg.AWSOptions())
	require.NoError(t, err)
	creds, err := awsCfg.Credentials.Retrieve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "test", creds.AccessKeyID)
	assert.Equal(t, "test-secret", creds.SecretAccessKey)
}
