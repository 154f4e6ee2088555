package db

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/rs/zerolog"
)

// Client is the DynamoDB-backed store, for deployments where the links
// should live outside the serving host.
type Client struct {
	Client      aws.Config
	Table       string
	Region      string
	DDBEndpoint string
	DDB         *dynamodb.Client
	Logger      *zerolog.Logger
}

// LinkItem represents a go-link entry in DynamoDB
type LinkItem struct {
	Key       string `dynamodbav:"key"`        // Short token (partition key)
	Target    string `dynamodbav:"target"`     // Destination URL, scheme-less
	HitCount  int64  `dynamodbav:"hit_count"`  // Number of times the link has been resolved
	CreatedAt int64  `dynamodbav:"created_at"` // Unix timestamp of creation
}

// Setup loads AWS configuration, wires the optional local endpoint, and
// creates the links table if it doesn't exist.
func Setup(ctx context.Context, c *Client) error {
	cfg, err := config.LoadDefaultConfig(ctx, func(o *config.LoadOptions) error {
		o.Region = c.Region

		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to load AWS config: %w", err)
	}

	c.Client = cfg
	if c.DDBEndpoint != "" {
		// Create DynamoDB client with custom endpoint (dynamodb-local)
		c.DDB = dynamodb.NewFromConfig(c.Client, func(o *dynamodb.Options) {
			o.BaseEndpoint = aws.String(c.DDBEndpoint)
		})
		c.Client.Credentials = credentials.NewStaticCredentialsProvider("dummy1", "dummy2", "dummy3")
		c.Logger.Info().Str("endpoint", c.DDBEndpoint).Msg("Using custom DynamoDB endpoint")
	} else {
		c.DDB = dynamodb.NewFromConfig(c.Client)
	}

	// Test connection by describing the table
	_, err = c.DDB.DescribeTable(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(c.Table),
	})

	if err != nil {
		// Table doesn't exist, create it. Only the partition key needs
		// to appear in AttributeDefinitions; target/hit_count/created_at
		// are plain attributes.
		c.Logger.Info().Str("table", c.Table).Msg("Table not found, creating")

		_, err = c.DDB.CreateTable(ctx, &dynamodb.CreateTableInput{
			TableName: aws.String(c.Table),
			KeySchema: []types.KeySchemaElement{
				{
					AttributeName: aws.String("key"),
					KeyType:       types.KeyTypeHash,
				},
			},
			AttributeDefinitions: []types.AttributeDefinition{
				{
					AttributeName: aws.String("key"),
					AttributeType: types.ScalarAttributeTypeS,
				},
			},
			BillingMode: types.BillingModePayPerRequest,
		})

		if err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}

	return nil
}

// Close satisfies store.Store; the DynamoDB client holds no connection
// state worth releasing.
func (client *Client) Close() error {
	return nil
}
