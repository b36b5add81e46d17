package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"incidentcore/internal/config"
	"incidentcore/internal/core"
)

func init() {
	RegisterFactory(dynamoFactory{})
	config.RegisterCacheValidator(dynamoValidator{})
}

// DynamoDBKVStore implements the core.KVStore interface using AWS DynamoDB.
type DynamoDBKVStore struct {
	client    *dynamodb.Client
	tableName string
	closed    bool
}

// NewDynamoDBKVStore creates a new DynamoDB KV store implementation.
func NewDynamoDBKVStore(region, tableName, endpoint, accessKeyID, secretAccessKey string) (*DynamoDBKVStore, error) {
	if region == "" {
		return nil, fmt.Errorf("region is required")
	}
	if tableName == "" {
		return nil, fmt.Errorf("table name is required")
	}

	// Load AWS config
	cfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(region),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	// Override credentials if provided
	if accessKeyID != "" && secretAccessKey != "" {
		cfg.Credentials = credentials.NewStaticCredentialsProvider(accessKeyID, secretAccessKey, "")
	}

	// Custom endpoint (e.g., for LocalStack)
	clientOptions := []func(*dynamodb.Options){}
	if endpoint != "" {
		clientOptions = append(clientOptions, func(o *dynamodb.Options) {
			o.BaseEndpoint = aws.String(endpoint)
		})
	}

	client := dynamodb.NewFromConfig(cfg, clientOptions...)

	// Test connection by describing the table
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_, err = client.DescribeTable(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(tableName),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to DynamoDB table %s: %w", tableName, err)
	}

	return &DynamoDBKVStore{
		client:    client,
		tableName: tableName,
		closed:    false,
	}, nil
}

// Get retrieves a value by key from the store.
func (d *DynamoDBKVStore) Get(ctx context.Context, key string) ([]byte, error) {
	if d.closed {
		return nil, fmt.Errorf("KV store is closed")
	}

	input := &dynamodb.GetItemInput{
		TableName: aws.String(d.tableName),
		Key: map[string]types.AttributeValue{
			"key": &types.AttributeValueMemberS{Value: key},
		},
	}

	result, err := d.client.GetItem(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to get key %s: %w", key, err)
	}
	if result.Item == nil {
		return nil, core.ErrCacheMiss
	}

	// DynamoDB expires TTL'd items lazily; treat an expired item as a miss.
	if ttlAttr, ok := result.Item["ttl"]; ok {
		if ttlMember, ok := ttlAttr.(*types.AttributeValueMemberN); ok {
			var ttl int64
			if _, err := fmt.Sscanf(ttlMember.Value, "%d", &ttl); err == nil {
				if time.Now().Unix() > ttl {
					return nil, core.ErrCacheMiss
				}
			}
		}
	}

	valueAttr, ok := result.Item["value"]
	if !ok {
		return nil, core.ErrCacheMiss
	}
	valueMember, ok := valueAttr.(*types.AttributeValueMemberB)
	if !ok {
		return nil, fmt.Errorf("unexpected value attribute type for key %s", key)
	}
	return valueMember.Value, nil
}

// Set stores a key-value pair with an optional TTL.
func (d *DynamoDBKVStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if d.closed {
		return fmt.Errorf("KV store is closed")
	}

	item := map[string]types.AttributeValue{
		"key":        &types.AttributeValueMemberS{Value: key},
		"value":      &types.AttributeValueMemberB{Value: value},
		"created_at": &types.AttributeValueMemberS{Value: time.Now().UTC().Format(time.RFC3339)},
	}
	if ttl > 0 {
		expiry := time.Now().Add(ttl).Unix()
		item["ttl"] = &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", expiry)}
	}

	_, err := d.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(d.tableName),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("failed to set key %s: %w", key, err)
	}
	return nil
}

// Delete removes a key from the store.
func (d *DynamoDBKVStore) Delete(ctx context.Context, key string) error {
	if d.closed {
		return fmt.Errorf("KV store is closed")
	}

	_, err := d.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(d.tableName),
		Key: map[string]types.AttributeValue{
			"key": &types.AttributeValueMemberS{Value: key},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to delete key %s: %w", key, err)
	}
	return nil
}

// Close marks the store closed. The DynamoDB client holds no persistent
// connection to release.
func (d *DynamoDBKVStore) Close() error {
	d.closed = true
	return nil
}

// dynamoFactory creates DynamoDB-backed KV stores.
type dynamoFactory struct{}

func (dynamoFactory) Type() string { return "dynamodb" }

func (dynamoFactory) Create(cfg *config.CacheConfig) (core.KVStore, error) {
	dc := cfg.DynamoDBConfig
	return NewDynamoDBKVStore(dc.Region, dc.TableName, dc.Endpoint, dc.AccessKeyID, dc.SecretAccessKey)
}

// dynamoValidator validates the DynamoDB cache configuration.
type dynamoValidator struct{}

func (dynamoValidator) Type() string { return "dynamodb" }

func (dynamoValidator) Validate(cfg *config.CacheConfig) error {
	if cfg.DynamoDBConfig.Region == "" {
		return fmt.Errorf("dynamodb_config.region is required")
	}
	if cfg.DynamoDBConfig.TableName == "" {
		return fmt.Errorf("dynamodb_config.table_name is required")
	}
	return nil
}
