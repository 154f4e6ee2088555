package db

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/undeadops/golinks/internal/store"
)

// Implements the store.Store interface
func (client *Client) Get(ctx context.Context, key string) (string, error) {
	result, err := client.DDB.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(client.Table),
		Key: map[string]types.AttributeValue{
			"key": &types.AttributeValueMemberS{Value: key},
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to get item: %w", err)
	}

	if result.Item == nil {
		return "", store.ErrNotFound
	}

	var item LinkItem
	err = attributevalue.UnmarshalMap(result.Item, &item)
	if err != nil {
		return "", fmt.Errorf("failed to unmarshal item: %w", err)
	}

	// Increment hit count
	update := expression.Add(expression.Name("hit_count"), expression.Value(1))
	expr, err := expression.NewBuilder().WithUpdate(update).Build()
	if err != nil {
		return "", fmt.Errorf("failed to build update expression: %w", err)
	}

	_, err = client.DDB.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(client.Table),
		Key: map[string]types.AttributeValue{
			"key": &types.AttributeValueMemberS{Value: key},
		},
		UpdateExpression:          expr.Update(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		// Log error but don't fail the lookup
		client.Logger.Debug().Err(err).Str("key", key).Msg("failed to increment hit count")
	}

	return item.Target, nil
}

func (client *Client) Put(ctx context.Context, key string, target string) error {
	// PutItem overwrites any existing item for the key, which is exactly
	// the last-write-wins contract. The hit count starts over.
	item := LinkItem{
		Key:       key,
		Target:    target,
		HitCount:  0,
		CreatedAt: time.Now().Unix(),
	}

	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("failed to marshal item: %w", err)
	}

	_, err = client.DDB.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(client.Table),
		Item:      av,
	})
	if err != nil {
		return fmt.Errorf("failed to put item: %w", err)
	}

	return nil
}

func (client *Client) List(ctx context.Context) (map[string]string, error) {
	result, err := client.DDB.Scan(ctx, &dynamodb.ScanInput{
		TableName: aws.String(client.Table),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan table: %w", err)
	}

	links := make(map[string]string, len(result.Items))
	for _, raw := range result.Items {
		var item LinkItem
		err := attributevalue.UnmarshalMap(raw, &item)
		if err != nil {
			// Skip items that can't be unmarshaled
			client.Logger.Debug().Err(err).Msg("failed to unmarshal item")
			continue
		}

		links[item.Key] = item.Target
	}

	return links, nil
}
