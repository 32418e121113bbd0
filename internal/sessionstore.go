package internal

import (
	"context"
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// sessionListAttribute is the list-valued column holding session records.
const sessionListAttribute = "data"

// RowStoreAPI is the subset of the row store client used by SessionStore.
type RowStoreAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
}

// SessionStore keeps the per-user session list in one remote row, keyed by
// identity ID, as a list of JSON-serialized {sessionId, timestamp} strings.
type SessionStore struct {
	client RowStoreAPI
	table  string
}

// NewSessionStore creates a store authenticated with temporary service
// credentials.
func NewSessionStore(cfg *Config, creds *ServiceCredentials) *SessionStore {
	provider := credentials.NewStaticCredentialsProvider(
		creds.AccessKeyID, creds.SecretAccessKey, creds.SessionToken)
	client := dynamodb.New(dynamodb.Options{
		Region:      cfg.Region,
		Credentials: provider,
	})
	return &SessionStore{client: client, table: cfg.SessionTable}
}

// NewSessionStoreWithClient creates a store with an injected client.
func NewSessionStoreWithClient(client RowStoreAPI, table string) *SessionStore {
	return &SessionStore{client: client, table: table}
}

// List returns the user's sessions, validated and sorted descending by
// timestamp. Malformed list elements are dropped.
func (s *SessionStore) List(ctx context.Context, identityID string) ([]ChatSession, error) {
	values, err := s.rawList(ctx, identityID)
	if err != nil {
		return nil, err
	}
	return ParseSessionRecords(values), nil
}

// Append adds one session record to the end of the list. The update is a
// single atomic list-append; the row is created on first use.
func (s *SessionStore) Append(ctx context.Context, identityID string, session ChatSession) error {
	value, err := session.Encode()
	if err != nil {
		return &StoreError{Op: "append", Table: s.table, Err: err}
	}

	_, err = s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:        aws.String(s.table),
		Key:              s.rowKey(identityID),
		UpdateExpression: aws.String("SET #d = list_append(if_not_exists(#d, :empty_list), :new_item)"),
		ExpressionAttributeNames: map[string]string{
			"#d": sessionListAttribute,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":new_item": &types.AttributeValueMemberL{
				Value: []types.AttributeValue{&types.AttributeValueMemberS{Value: value}},
			},
			":empty_list": &types.AttributeValueMemberL{Value: []types.AttributeValue{}},
		},
	})
	if err != nil {
		return &StoreError{Op: "append", Table: s.table, Err: err}
	}
	return nil
}

// Delete removes the session with the given ID by reading the list,
// filtering it, and rewriting it. The rewrite is conditional on the list
// still having the length that was read, so a concurrent writer fails the
// update loudly instead of being silently overwritten. Elements that fail to
// parse are kept, not dropped.
func (s *SessionStore) Delete(ctx context.Context, identityID, sessionID string) error {
	current, err := s.rawList(ctx, identityID)
	if err != nil {
		return err
	}

	updated := make([]types.AttributeValue, 0, len(current))
	for _, value := range current {
		session, err := ParseSessionRecord(value)
		if err == nil && session.SessionID == sessionID {
			continue
		}
		updated = append(updated, &types.AttributeValueMemberS{Value: value})
	}

	input := &dynamodb.UpdateItemInput{
		TableName:        aws.String(s.table),
		Key:              s.rowKey(identityID),
		UpdateExpression: aws.String("SET #d = :new_list"),
		ExpressionAttributeNames: map[string]string{
			"#d": sessionListAttribute,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":new_list": &types.AttributeValueMemberL{Value: updated},
		},
	}
	if len(current) == 0 {
		// The read cannot distinguish a missing row from a present-but-empty
		// list (both read back as zero elements), so the guard accepts either.
		input.ConditionExpression = aws.String("attribute_not_exists(#d) OR size(#d) = :prev_size")
		input.ExpressionAttributeValues[":prev_size"] = &types.AttributeValueMemberN{Value: "0"}
	} else {
		input.ConditionExpression = aws.String("size(#d) = :prev_size")
		input.ExpressionAttributeValues[":prev_size"] = &types.AttributeValueMemberN{
			Value: strconv.Itoa(len(current)),
		}
	}

	if _, err := s.client.UpdateItem(ctx, input); err != nil {
		return &StoreError{Op: "delete", Table: s.table, Err: fmt.Errorf("conditional rewrite failed: %w", err)}
	}
	return nil
}

// rawList reads the stored list elements for an identity. A missing row is
// an empty list.
func (s *SessionStore) rawList(ctx context.Context, identityID string) ([]string, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.table),
		Key:       s.rowKey(identityID),
	})
	if err != nil {
		return nil, &StoreError{Op: "get", Table: s.table, Err: err}
	}

	attr, ok := out.Item[sessionListAttribute]
	if !ok {
		return nil, nil
	}
	list, ok := attr.(*types.AttributeValueMemberL)
	if !ok {
		return nil, &StoreError{Op: "get", Table: s.table, Err: fmt.Errorf("attribute %q is not a list", sessionListAttribute)}
	}

	values := make([]string, 0, len(list.Value))
	for _, item := range list.Value {
		if s, ok := item.(*types.AttributeValueMemberS); ok {
			values = append(values, s.Value)
		}
	}
	return values, nil
}

func (s *SessionStore) rowKey(identityID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"userId": &types.AttributeValueMemberS{Value: identityID},
	}
}
