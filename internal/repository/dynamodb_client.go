package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"welfare-advisor/internal/domain"
)

const (
	skUser      = "USER#"
	skProfile   = "PROFILE#"
	ttlDuration = 30 * 24 * time.Hour // 30-day TTL
)

// dynamodbAPI is the minimal DynamoDB interface required by Client.
// Defined here for testability.
type dynamodbAPI interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	TransactWriteItems(ctx context.Context, in *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error)
}

// Client stores one owner's session keys in a DynamoDB table. It satisfies
// session.Store.
type Client struct {
	api       dynamodbAPI
	tableName string
	owner     string
}

// New creates a new repository Client for the session of owner.
func New(api dynamodbAPI, tableName, owner string) (*Client, error) {
	if api == nil {
		return nil, errors.New("repository: api must not be nil")
	}
	if strings.TrimSpace(tableName) == "" {
		return nil, errors.New("repository: table name must not be empty")
	}
	if strings.TrimSpace(owner) == "" {
		return nil, errors.New("repository: owner must not be empty")
	}
	return &Client{api: api, tableName: tableName, owner: strings.TrimSpace(owner)}, nil
}

// sessionPK returns the DynamoDB partition key for an owner's session.
func sessionPK(owner string) string {
	return "SESSION#" + owner
}

// ttlValue returns a Unix timestamp 30 days in the future.
func ttlValue() int64 {
	return time.Now().Add(ttlDuration).Unix()
}

func (c *Client) key(sk string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: sessionPK(c.owner)},
		"SK": &types.AttributeValueMemberS{Value: sk},
	}
}

func (c *Client) getItem(ctx context.Context, sk string) (map[string]types.AttributeValue, error) {
	out, err := c.api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(c.tableName),
		Key:            c.key(sk),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, err
	}
	if out == nil || len(out.Item) == 0 {
		return nil, nil
	}
	return out.Item, nil
}

// LoadUserID returns the stored user id, or "" when none is stored.
func (c *Client) LoadUserID(ctx context.Context) (domain.UserID, error) {
	item, err := c.getItem(ctx, skUser)
	if err != nil {
		return "", fmt.Errorf("repository: LoadUserID get item: %w", err)
	}
	if item == nil {
		return "", nil
	}
	id, err := strAttr(item, "userId")
	if err != nil {
		return "", fmt.Errorf("repository: LoadUserID decode: %w", err)
	}
	return domain.UserID(id), nil
}

// SaveUserID writes or replaces the user id record.
func (c *Client) SaveUserID(ctx context.Context, id domain.UserID) error {
	item := c.key(skUser)
	item["userId"] = &types.AttributeValueMemberS{Value: string(id)}
	item["ttl"] = &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", ttlValue())}

	_, err := c.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(c.tableName),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("repository: SaveUserID: %w", err)
	}
	return nil
}

// LoadProfile returns the stored profile and whether one exists.
func (c *Client) LoadProfile(ctx context.Context) (domain.Profile, bool, error) {
	item, err := c.getItem(ctx, skProfile)
	if err != nil {
		return domain.Profile{}, false, fmt.Errorf("repository: LoadProfile get item: %w", err)
	}
	if item == nil {
		return domain.Profile{}, false, nil
	}
	p, err := itemToProfile(item)
	if err != nil {
		return domain.Profile{}, false, fmt.Errorf("repository: LoadProfile decode: %w", err)
	}
	return p, true, nil
}

// SaveProfile writes or replaces the profile record.
func (c *Client) SaveProfile(ctx context.Context, p domain.Profile) error {
	_, err := c.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(c.tableName),
		Item:      c.profileItem(p),
	})
	if err != nil {
		return fmt.Errorf("repository: SaveProfile: %w", err)
	}
	return nil
}

// Clear deletes both session records in one transaction.
func (c *Client) Clear(ctx context.Context) error {
	_, err := c.api.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{Delete: &types.Delete{TableName: aws.String(c.tableName), Key: c.key(skUser)}},
			{Delete: &types.Delete{TableName: aws.String(c.tableName), Key: c.key(skProfile)}},
		},
	})
	if err != nil {
		return fmt.Errorf("repository: Clear: %w", err)
	}
	return nil
}

func (c *Client) profileItem(p domain.Profile) map[string]types.AttributeValue {
	tags := make([]types.AttributeValue, 0, len(p.BaseTags))
	for _, t := range p.BaseTags {
		tags = append(tags, &types.AttributeValueMemberS{Value: t})
	}
	item := c.key(skProfile)
	item["userName"] = &types.AttributeValueMemberS{Value: p.UserName}
	item["residence"] = &types.AttributeValueMemberS{Value: p.Residence}
	item["baseTags"] = &types.AttributeValueMemberL{Value: tags}
	item["ttl"] = &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", ttlValue())}
	return item
}

// itemToProfile converts a DynamoDB attribute map to a Profile.
func itemToProfile(item map[string]types.AttributeValue) (domain.Profile, error) {
	name, _ := strAttr(item, "userName")       // allow empty
	residence, _ := strAttr(item, "residence") // allow empty
	tags, err := strListAttr(item, "baseTags")
	if err != nil {
		return domain.Profile{}, err
	}
	return domain.Profile{UserName: name, Residence: residence, BaseTags: tags}, nil
}

func strAttr(item map[string]types.AttributeValue, key string) (string, error) {
	v, ok := item[key]
	if !ok {
		return "", fmt.Errorf("repository: missing attribute %q", key)
	}
	s, ok := v.(*types.AttributeValueMemberS)
	if !ok {
		return "", fmt.Errorf("repository: attribute %q is not a string", key)
	}
	return s.Value, nil
}

func strListAttr(item map[string]types.AttributeValue, key string) ([]string, error) {
	v, ok := item[key]
	if !ok {
		return []string{}, nil
	}
	l, ok := v.(*types.AttributeValueMemberL)
	if !ok {
		return nil, fmt.Errorf("repository: attribute %q is not a list", key)
	}
	out := make([]string, 0, len(l.Value))
	for i, el := range l.Value {
		s, ok := el.(*types.AttributeValueMemberS)
		if !ok {
			return nil, fmt.Errorf("repository: attribute %q[%d] is not a string", key, i)
		}
		out = append(out, s.Value)
	}
	return out, nil
}
