package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/worgue/magic-pocket/internal/project"
)

// MinimalPocketTOML declares a project with secrets and two handlers: one
// fronted by API Gateway and one listening on SQS.
const MinimalPocketTOML = `
[general]
region = "ap-southeast-1"
project_name = "testprj"
stages = ["dev", "prod"]

[secrets]
store = "sm"

[secrets.managed.SECRET_KEY]
type = "password"
options = { length = 50 }

[secrets.managed.RSA_KEY]
type = "rsa_pem_base64"

[secrets.user.DATABASE_URL]
name = "testprj-database-url"

[awscontainer.handlers.wsgi]
apigateway = {}

[awscontainer.handlers.worker]
sqs = {}
timeout = 60
`

// DomainPocketTOML pins the wsgi host with an explicit domain for prod only.
const DomainPocketTOML = `
[general]
region = "ap-northeast-1"
project_name = "shop"
stages = ["dev", "prod"]

[awscontainer.handlers.wsgi]
apigateway = {}

[prod.awscontainer.handlers.wsgi]
apigateway = { domain = "shop.example.com" }
`

// WritePocketFile writes content as pocket.toml in a fresh temp directory and
// returns its path.
func WritePocketFile(t *testing.T, content string) string {
	t.Helper()
	return WriteFile(t, "pocket.toml", content)
}

// WriteFile writes content as name in a fresh temp directory and returns its path.
func WriteFile(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("Failed to write fixture %s: %v", name, err)
	}
	return path
}

// ResolveFixture resolves content for stage or fails the test.
func ResolveFixture(t *testing.T, content, stage string) *project.Config {
	t.Helper()

	cfg, err := project.LoadFile(WritePocketFile(t, content), stage)
	if err != nil {
		t.Fatalf("Failed to resolve fixture for stage %s: %v", stage, err)
	}
	return cfg
}
