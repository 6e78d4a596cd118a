package secrets_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	dserrors "github.com/worgue/magic-pocket/internal/errors"
	"github.com/worgue/magic-pocket/internal/project"
	"github.com/worgue/magic-pocket/internal/secrets"
	"github.com/worgue/magic-pocket/pkg/secretstore"
	"github.com/worgue/magic-pocket/tests/testutil"
)

const devPocketKey = "dev-testprj-pocket"

func TestGetSecretsWithoutSecretsSection(t *testing.T) {
	t.Parallel()

	fake := testutil.NewFakeAWS(t)
	orch := secrets.New(fake.Factory)

	got, err := orch.GetSecrets(context.Background(), &project.Config{Stage: "dev"})
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Empty(t, fake.SecretsManager.GetSecretValueCalls)
}

func TestGetSecretsManagedAndUser(t *testing.T) {
	t.Parallel()

	fake := testutil.NewFakeAWS(t)
	fake.SecretsManager.AddSecretString(devPocketKey, `{
		"dev": {"testprj": {
			"SECRET_KEY": "s3cret",
			"RSA_KEY": {"pem": "UEVN", "pub": "UFVC"},
			"UNDECLARED": "ignored"
		}},
		"prod": {"testprj": {"SECRET_KEY": "prod"}}
	}`)
	fake.SecretsManager.AddSecretString("testprj-database-url", "postgres://db/testprj")

	cfg := testutil.ResolveFixture(t, testutil.MinimalPocketTOML, "dev")
	got, err := secrets.New(fake.Factory).GetSecrets(context.Background(), cfg)
	require.NoError(t, err)

	assert.Equal(t, map[string]string{
		"SECRET_KEY":         "s3cret",
		"RSA_KEY_PEM_BASE64": "UEVN",
		"RSA_KEY_PUB_BASE64": "UFVC",
		"DATABASE_URL":       "postgres://db/testprj",
	}, got)
	assert.Equal(t, []string{devPocketKey, "testprj-database-url"}, fake.SecretsManager.GetSecretValueCalls)
}

func TestGetSecretsMissingPocketSecretIsEmpty(t *testing.T) {
	t.Parallel()

	fake := testutil.NewFakeAWS(t)
	fake.SecretsManager.AddSecretString("testprj-database-url", "postgres://db/testprj")

	cfg := testutil.ResolveFixture(t, testutil.MinimalPocketTOML, "dev")
	got, err := secrets.New(fake.Factory).GetSecrets(context.Background(), cfg)
	require.NoError(t, err)

	assert.Equal(t, map[string]string{"DATABASE_URL": "postgres://db/testprj"}, got)
	assert.Empty(t, fake.SecretsManager.RestoreSecretCalls)
}

func TestGetSecretsRestoresDeletedSecret(t *testing.T) {
	t.Parallel()

	fake := testutil.NewFakeAWS(t)
	fake.SecretsManager.AddSecretString(devPocketKey, `{"dev": {"testprj": {"SECRET_KEY": "restored-s3cret"}}}`)
	fake.SecretsManager.AddSecretString("testprj-database-url", "postgres://db/testprj")
	fake.SecretsManager.MarkDeleted(devPocketKey)

	logs := testutil.NewTestLogger(t, true)
	cfg := testutil.ResolveFixture(t, testutil.MinimalPocketTOML, "dev")
	got, err := secrets.New(fake.Factory, secrets.WithLogger(logs.Logger())).GetSecrets(context.Background(), cfg)
	require.NoError(t, err)

	assert.Equal(t, "restored-s3cret", got["SECRET_KEY"])
	assert.Equal(t, []string{devPocketKey}, fake.SecretsManager.RestoreSecretCalls)
	assert.Equal(t, []string{devPocketKey, devPocketKey, "testprj-database-url"}, fake.SecretsManager.GetSecretValueCalls)

	logs.AssertContains(t, "restoring: "+devPocketKey)
	logs.AssertNotContains(t, "restored-s3cret")
	logs.AssertNotContains(t, "postgres://db/testprj")
}

func TestGetSecretsRetryFailureSurfaces(t *testing.T) {
	t.Parallel()

	// Restoring succeeds but the secret is gone on retry; that error is not
	// swallowed a second time.
	fake := testutil.NewFakeAWS(t)
	fake.SecretsManager.MarkDeleted(devPocketKey)

	cfg := testutil.ResolveFixture(t, testutil.MinimalPocketTOML, "dev")
	_, err := secrets.New(fake.Factory).GetSecrets(context.Background(), cfg)
	require.Error(t, err)

	assert.ErrorIs(t, err, secretstore.ErrNotFound)
	assert.Len(t, fake.SecretsManager.RestoreSecretCalls, 1)
	assert.Len(t, fake.SecretsManager.GetSecretValueCalls, 2)
}

func TestGetSecretsRestoreFailure(t *testing.T) {
	t.Parallel()

	fake := testutil.NewFakeAWS(t)
	fake.SecretsManager.MarkDeleted(devPocketKey)
	fake.SecretsManager.RestoreErr = errors.New("AccessDeniedException: not allowed")

	cfg := testutil.ResolveFixture(t, testutil.MinimalPocketTOML, "dev")
	_, err := secrets.New(fake.Factory).GetSecrets(context.Background(), cfg)
	require.Error(t, err)

	assert.Contains(t, err.Error(), "not allowed")
	assert.Len(t, fake.SecretsManager.GetSecretValueCalls, 1)
}

func TestGetSecretsUserOverridesManaged(t *testing.T) {
	t.Parallel()

	fake := testutil.NewFakeAWS(t)
	fake.SecretsManager.AddSecretString("dev-app-pocket", `{"dev": {"app": {"DATABASE_URL": "managed"}}}`)
	fake.SecretsManager.AddSecretString("app-db", "user")

	cfg := &project.Config{
		Stage: "dev",
		Secrets: &project.SecretsSpec{
			Store:       secretstore.SecretsManager,
			PocketKey:   "dev-app-pocket",
			Stage:       "dev",
			ProjectName: "app",
			Region:      "us-east-1",
			Managed:     map[string]project.ManagedSecretSpec{"DATABASE_URL": {Type: "password"}},
			User:        map[string]project.UserSecretSpec{"DATABASE_URL": {Name: "app-db"}},
		},
	}

	got, err := secrets.New(fake.Factory).GetSecrets(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"DATABASE_URL": "user"}, got)
}

func TestGetSecretsFromParameterStore(t *testing.T) {
	t.Parallel()

	fake := testutil.NewFakeAWS(t)
	fake.SSM.AddParameter("/dev-app-pocket/SECRET_KEY", "from-ssm")
	fake.SSM.AddParameter("/dev-app-pocket/RSA_KEY/pem", "UEVN")
	fake.SSM.AddParameter("/dev-app-pocket/RSA_KEY/pub", "UFVC")
	fake.SSM.AddParameter("/shared/api-token", "tok")
	fake.SecretsManager.AddSecretString("app-sm-only", "from-sm")

	sm := secretstore.SecretsManager
	cfg := &project.Config{
		Stage: "dev",
		Secrets: &project.SecretsSpec{
			Store:       secretstore.ParameterStore,
			PocketKey:   "dev-app-pocket",
			Stage:       "dev",
			ProjectName: "app",
			Region:      "us-east-1",
			Managed: map[string]project.ManagedSecretSpec{
				"SECRET_KEY": {Type: "password"},
				"RSA_KEY":    {Type: secrets.TypeRSAPEMBase64},
			},
			User: map[string]project.UserSecretSpec{
				"API_TOKEN": {Name: "/shared/api-token"},
				"SM_ONLY":   {Name: "app-sm-only", Store: &sm},
			},
		},
	}

	got, err := secrets.New(fake.Factory).GetSecrets(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"SECRET_KEY":         "from-ssm",
		"RSA_KEY_PEM_BASE64": "UEVN",
		"RSA_KEY_PUB_BASE64": "UFVC",
		"API_TOKEN":          "tok",
		"SM_ONLY":            "from-sm",
	}, got)
}

func TestGetSecretsMissingUserSecret(t *testing.T) {
	t.Parallel()

	fake := testutil.NewFakeAWS(t)
	cfg := &project.Config{
		Stage: "dev",
		Secrets: &project.SecretsSpec{
			Store:  secretstore.SecretsManager,
			Region: "us-east-1",
			User:   map[string]project.UserSecretSpec{"DATABASE_URL": {Name: "nowhere"}},
		},
	}

	_, err := secrets.New(fake.Factory).GetSecrets(context.Background(), cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, secretstore.ErrNotFound)
	assert.Contains(t, err.Error(), "user secret DATABASE_URL")
}

func TestGetSecretsUnsupportedManagedValue(t *testing.T) {
	t.Parallel()

	fake := testutil.NewFakeAWS(t)
	fake.SecretsManager.AddSecretString(devPocketKey, `{"dev": {"testprj": {"SECRET_KEY": {"nested": "x"}}}}`)

	cfg := testutil.ResolveFixture(t, testutil.MinimalPocketTOML, "dev")
	_, err := secrets.New(fake.Factory).GetSecrets(context.Background(), cfg)

	var typeErr *dserrors.UnsupportedSecretTypeError
	require.ErrorAs(t, err, &typeErr)
	assert.Equal(t, "SECRET_KEY", typeErr.Name)
}

// blockingStore never answers until its context is done.
type blockingStore struct{}

func (blockingStore) Kind() secretstore.Kind { return secretstore.SecretsManager }

func (blockingStore) BulkFetch(ctx context.Context, _ secretstore.Scope) (map[string]any, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (blockingStore) FetchOne(ctx context.Context, _ string) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func (blockingStore) Restore(ctx context.Context, _ string) error {
	<-ctx.Done()
	return ctx.Err()
}

func TestGetSecretsCallTimeout(t *testing.T) {
	t.Parallel()

	opener := secretstore.OpenerFunc(func(context.Context, secretstore.Kind, string) (secretstore.Store, error) {
		return blockingStore{}, nil
	})
	cfg := &project.Config{
		Stage: "dev",
		Secrets: &project.SecretsSpec{
			Store:     secretstore.SecretsManager,
			PocketKey: "dev-app-pocket",
			Managed:   map[string]project.ManagedSecretSpec{"SECRET_KEY": {Type: "password"}},
		},
	}

	_, err := secrets.New(opener, secrets.WithCallTimeout(20*time.Millisecond)).GetSecrets(context.Background(), cfg)
	require.Error(t, err)

	var userErr dserrors.UserError
	require.ErrorAs(t, err, &userErr)
	assert.Equal(t, "Secrets Manager request timed out", userErr.Message)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

// deadlineStore records whether calls arrive with a deadline.
type deadlineStore struct {
	sawDeadline *bool
}

func (deadlineStore) Kind() secretstore.Kind { return secretstore.SecretsManager }

func (d deadlineStore) BulkFetch(ctx context.Context, _ secretstore.Scope) (map[string]any, error) {
	_, *d.sawDeadline = ctx.Deadline()
	return map[string]any{"SECRET_KEY": "s3cret"}, nil
}

func (d deadlineStore) FetchOne(ctx context.Context, _ string) (string, error) {
	_, *d.sawDeadline = ctx.Deadline()
	return "", nil
}

func (deadlineStore) Restore(context.Context, string) error { return nil }

func TestGetSecretsImposesNoDeadlineByDefault(t *testing.T) {
	t.Parallel()

	var sawDeadline bool
	opener := secretstore.OpenerFunc(func(context.Context, secretstore.Kind, string) (secretstore.Store, error) {
		return deadlineStore{sawDeadline: &sawDeadline}, nil
	})
	cfg := &project.Config{
		Stage: "dev",
		Secrets: &project.SecretsSpec{
			Store:     secretstore.SecretsManager,
			PocketKey: "dev-app-pocket",
			Managed:   map[string]project.ManagedSecretSpec{"SECRET_KEY": {Type: "password"}},
		},
	}

	got, err := secrets.New(opener).GetSecrets(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"SECRET_KEY": "s3cret"}, got)
	assert.False(t, sawDeadline)
}

func TestGetSecretsOpenFailure(t *testing.T) {
	t.Parallel()

	opener := secretstore.OpenerFunc(func(context.Context, secretstore.Kind, string) (secretstore.Store, error) {
		return nil, errors.New("no credentials")
	})
	cfg := &project.Config{
		Secrets: &project.SecretsSpec{
			Store:   secretstore.SecretsManager,
			Managed: map[string]project.ManagedSecretSpec{"SECRET_KEY": {Type: "password"}},
		},
	}

	_, err := secrets.New(opener).GetSecrets(context.Background(), cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open sm store: no credentials")
}
