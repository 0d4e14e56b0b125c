/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package dynamo

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/Seednode/secretsanta/storage/storagetest"
)

// fakeAPI understands exactly the condition and filter expressions Store
// sends.
type fakeAPI struct {
	mu    sync.Mutex
	items map[string]map[string]types.AttributeValue
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{items: make(map[string]map[string]types.AttributeValue)}
}

func code(item map[string]types.AttributeValue) string {
	if v, ok := item["code"].(*types.AttributeValueMemberS); ok {
		return v.Value
	}
	return ""
}

func number(item map[string]types.AttributeValue, field string) int64 {
	if v, ok := item[field].(*types.AttributeValueMemberN); ok {
		n, _ := strconv.ParseInt(v.Value, 10, 64)
		return n
	}
	return 0
}

func (f *fakeAPI) GetItem(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	return &dynamodb.GetItemOutput{Item: f.items[code(in.Key)]}, nil
}

func (f *fakeAPI) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	k := code(in.Item)
	cur, exists := f.items[k]

	switch aws.ToString(in.ConditionExpression) {
	case "attribute_not_exists(#code)":
		if exists {
			return nil, &types.ConditionalCheckFailedException{Message: aws.String("exists")}
		}
	case "attribute_exists(#code) AND #version = :expected":
		expected := number(in.ExpressionAttributeValues, ":expected")
		if !exists || number(cur, "version") != expected {
			return nil, &types.ConditionalCheckFailedException{Message: aws.String("version")}
		}
	case "":
	default:
		return nil, errors.New("unexpected condition " + aws.ToString(in.ConditionExpression))
	}

	f.items[k] = in.Item

	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeAPI) DeleteItem(_ context.Context, in *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	delete(f.items, code(in.Key))

	return &dynamodb.DeleteItemOutput{}, nil
}

func (f *fakeAPI) Scan(_ context.Context, in *dynamodb.ScanInput, _ ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	cutoff := number(in.ExpressionAttributeValues, ":cutoff")

	var out []map[string]types.AttributeValue
	for k, item := range f.items {
		if number(item, "createdAt") < cutoff {
			out = append(out, map[string]types.AttributeValue{
				"code": &types.AttributeValueMemberS{Value: k},
			})
		}
	}

	return &dynamodb.ScanOutput{Items: out, Count: int32(len(out))}, nil
}

func TestDynamoStore(t *testing.T) {
	storagetest.Run(t, New(newFakeAPI(), "groups"))
}

func TestDynamoStore_ItemShape(t *testing.T) {
	api := newFakeAPI()
	s := New(api, "groups")

	storagetest.Run(t, s)

	item := api.items["UPDATE"]
	if item == nil {
		t.Fatal("expected UPDATE item to be stored")
	}
	for _, field := range []string{"code", "members", "pairs", "started", "createdAt", "version"} {
		if _, ok := item[field]; !ok {
			t.Errorf("item missing attribute %q", field)
		}
	}
	if _, ok := item["createdAt"].(*types.AttributeValueMemberN); !ok {
		t.Errorf("createdAt should be stored as a unix timestamp, got %T", item["createdAt"])
	}
}
