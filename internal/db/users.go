package db

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/spacesedan/sentigate/internal/models"
)

var (
	ErrUserExists   = errors.New("user already exists")
	ErrUserNotFound = errors.New("user not found")
)

type DynamoDBAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
}

// UserStore keeps account records in a DynamoDB table keyed by username.
type UserStore struct {
	client DynamoDBAPI
	table  string
}

func NewUserStore(client DynamoDBAPI, table string) *UserStore {
	return &UserStore{
		client: client,
		table:  table,
	}
}

// CreateUser inserts a new account. The conditional write keeps usernames
// unique without a separate existence check.
func (s *UserStore) CreateUser(ctx context.Context, user models.User) error {
	item, err := attributevalue.MarshalMap(user)
	if err != nil {
		return fmt.Errorf("[UserStore] Failed to marshal user: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.table),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(username)"),
	})
	if err != nil {
		var conditionFailed *types.ConditionalCheckFailedException
		if errors.As(err, &conditionFailed) {
			return ErrUserExists
		}
		return fmt.Errorf("[UserStore] Failed to put user: %w", err)
	}

	slog.Info("[UserStore] Created user",
		slog.String("username", user.Username))
	return nil
}

// GetUser looks up an account by username. Returns ErrUserNotFound when the
// table has no matching item.
func (s *UserStore) GetUser(ctx context.Context, username string) (models.User, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.table),
		Key: map[string]types.AttributeValue{
			"username": &types.AttributeValueMemberS{Value: username},
		},
	})
	if err != nil {
		return models.User{}, fmt.Errorf("[UserStore] Failed to get user: %w", err)
	}
	if len(out.Item) == 0 {
		return models.User{}, ErrUserNotFound
	}

	var user models.User
	if err := attributevalue.UnmarshalMap(out.Item, &user); err != nil {
		return models.User{}, fmt.Errorf("[UserStore] Failed to unmarshal user: %w", err)
	}
	return user, nil
}
