package providers

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
)

// AWSOptions tunes how SDK configuration is loaded. The zero value uses the
// default credential chain against the real AWS endpoints.
type AWSOptions struct {
	// Endpoint overrides every service endpoint (LocalStack, moto).
	Endpoint string

	// Profile selects a shared config profile.
	Profile string

	// Static credentials, used only when both are set.
	AccessKeyID     string
	SecretAccessKey string
}

// LoadAWSConfig loads SDK configuration for region.
func LoadAWSConfig(ctx context.Context, region string, opts AWSOptions) (aws.Config, error) {
	var configOpts []func(*awsconfig.LoadOptions) error

	if region != "" {
		configOpts = append(configOpts, awsconfig.WithRegion(region))
	}
	if opts.Profile != "" {
		configOpts = append(configOpts, awsconfig.WithSharedConfigProfile(opts.Profile))
	}
	if opts.AccessKeyID != "" && opts.SecretAccessKey != "" {
		configOpts = append(configOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, ""),
		))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, configOpts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to load AWS config: %w", err)
	}
	if opts.Endpoint != "" {
		cfg.BaseEndpoint = aws.String(opts.Endpoint)
	}
	return cfg, nil
}
