// Package fakes provides test doubles for the AWS SDK clients used by
// internal/providers.
//
// Fakes are manually implemented (not generated) to provide precise control
// over test behavior. Each one records the calls it receives and is safe for
// concurrent use, since resource discovery issues lookups in parallel.
//
// Usage:
//
//	sm := fakes.NewFakeSecretsManagerClient()
//	sm.AddSecretString("dev-myapp-pocket", `{"dev":{"myapp":{"SECRET_KEY":"x"}}}`)
//	factory := providers.NewFactory(providers.WithSecretsManagerClient(sm))
//	// Test stores and lookups...
package fakes
