package awslib

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	sm "github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

// SecretsManager wraps the AWS Secrets Manager client.
type SecretsManager struct {
	client *sm.Client
}

func NewSecretsManager(ctx context.Context, region string, optFns ...func(*config.LoadOptions) error) (*SecretsManager, error) {
	loadOpts := []func(*config.LoadOptions) error{}

	if region != "" {
		loadOpts = append(loadOpts, config.WithRegion(region))
	}
	loadOpts = append(loadOpts, optFns...)

	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, err
	}
	return &SecretsManager{client: sm.NewFromConfig(cfg)}, nil
}

// GetSecretString fetches the AWSCURRENT value of the named secret.
func (m *SecretsManager) GetSecretString(ctx context.Context, secretID string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	out, err := m.client.GetSecretValue(ctx, &sm.GetSecretValueInput{
		SecretId:     aws.String(secretID),
		VersionStage: aws.String("AWSCURRENT"),
	})
	if err != nil {
		return "", fmt.Errorf("get secret %q: %w", secretID, err)
	}

	if out.SecretString == nil {
		return "", fmt.Errorf("secret %q has no string value", secretID)
	}
	return *out.SecretString, nil
}
