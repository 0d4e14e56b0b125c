/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package dynamo stores groups in a DynamoDB table keyed by "code" (S).
//
// Every write is a conditional PutItem: creation requires the key to be
// absent, updates require the stored version to match.
package dynamo

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/Seednode/secretsanta/models"
	"github.com/Seednode/secretsanta/storage"
)

var _ storage.Store = (*Store)(nil)

// API is the subset of *dynamodb.Client the store uses.
type API interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

type Options struct {
	Table    string
	Region   string
	Endpoint string
}

type Store struct {
	client API
	table  string
}

// Open loads the default AWS configuration and connects to the table.
// Endpoint overrides the service URL, e.g. for DynamoDB Local.
func Open(ctx context.Context, opts Options) (*Store, error) {
	if opts.Table == "" {
		return nil, errors.New("dynamodb table name is required")
	}

	var loaders []func(*config.LoadOptions) error
	if opts.Region != "" {
		loaders = append(loaders, config.WithRegion(opts.Region))
	}

	cfg, err := config.LoadDefaultConfig(ctx, loaders...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := dynamodb.NewFromConfig(cfg, func(o *dynamodb.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
		}
	})

	return New(client, opts.Table), nil
}

func New(client API, table string) *Store {
	return &Store{client: client, table: table}
}

func (s *Store) key(code string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"code": &types.AttributeValueMemberS{Value: code},
	}
}

func (s *Store) Create(ctx context.Context, g *models.Group) error {
	rec := g.Clone()
	rec.Version = 1

	item, err := attributevalue.MarshalMap(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal group: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                aws.String(s.table),
		Item:                     item,
		ConditionExpression:      aws.String("attribute_not_exists(#code)"),
		ExpressionAttributeNames: map[string]string{"#code": "code"},
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return storage.ErrExists
		}
		return fmt.Errorf("failed to put item in table '%s': %w", s.table, err)
	}

	g.Version = 1

	return nil
}

func (s *Store) Get(ctx context.Context, code string) (*models.Group, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.table),
		Key:            s.key(code),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get item from table '%s': %w", s.table, err)
	}
	if out.Item == nil {
		return nil, storage.ErrNotFound
	}

	var g models.Group
	if err := attributevalue.UnmarshalMap(out.Item, &g); err != nil {
		return nil, fmt.Errorf("failed to unmarshal group: %w", err)
	}

	return &g, nil
}

func (s *Store) Update(ctx context.Context, g *models.Group) error {
	rec := g.Clone()
	rec.Version = g.Version + 1

	item, err := attributevalue.MarshalMap(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal group: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.table),
		Item:                item,
		ConditionExpression: aws.String("attribute_exists(#code) AND #version = :expected"),
		ExpressionAttributeNames: map[string]string{
			"#code":    "code",
			"#version": "version",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":expected": &types.AttributeValueMemberN{Value: strconv.FormatInt(g.Version, 10)},
		},
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if !errors.As(err, &ccf) {
			return fmt.Errorf("failed to put item in table '%s': %w", s.table, err)
		}
		if _, err := s.Get(ctx, g.Code); errors.Is(err, storage.ErrNotFound) {
			return storage.ErrNotFound
		}
		return storage.ErrConflict
	}

	g.Version = rec.Version

	return nil
}

func (s *Store) DeleteBefore(ctx context.Context, cutoff time.Time) (int, error) {
	paginator := dynamodb.NewScanPaginator(s.client, &dynamodb.ScanInput{
		TableName:            aws.String(s.table),
		FilterExpression:     aws.String("#createdAt < :cutoff"),
		ProjectionExpression: aws.String("#code"),
		ExpressionAttributeNames: map[string]string{
			"#code":      "code",
			"#createdAt": "createdAt",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":cutoff": &types.AttributeValueMemberN{Value: strconv.FormatInt(cutoff.Unix(), 10)},
		},
	})

	removed := 0
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return removed, fmt.Errorf("failed to scan table '%s': %w", s.table, err)
		}

		for _, item := range page.Items {
			_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
				TableName: aws.String(s.table),
				Key:       map[string]types.AttributeValue{"code": item["code"]},
			})
			if err != nil {
				return removed, fmt.Errorf("failed to delete item from table '%s': %w", s.table, err)
			}
			removed++
		}
	}

	return removed, nil
}

func (s *Store) Close() error {
	return nil
}
