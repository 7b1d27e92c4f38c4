package booking

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
)

type dynamoAPI interface {
	PutItem(context.Context, *dynamodb.PutItemInput, ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(context.Context, *dynamodb.GetItemInput, ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	Scan(context.Context, *dynamodb.ScanInput, ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

// slotItem is the stored shape: a booking keyed by its slot key.
type slotItem struct {
	SlotKey     string    `dynamodbav:"slotKey"`
	ID          string    `dynamodbav:"id"`
	Name        string    `dynamodbav:"name"`
	Contact     string    `dynamodbav:"contact"`
	SlotText    string    `dynamodbav:"slotText"`
	CallerPhone string    `dynamodbav:"callerPhone"`
	CreatedAt   time.Time `dynamodbav:"createdAt"`
}

func (i slotItem) booking() Booking {
	return Booking{
		ID:          i.ID,
		Name:        i.Name,
		Contact:     i.Contact,
		SlotText:    i.SlotText,
		CallerPhone: i.CallerPhone,
		CreatedAt:   i.CreatedAt,
	}
}

// DynamoLedger stores one item per slot in a table whose partition key is
// slotKey. A conditional put makes the reservation atomic.
type DynamoLedger struct {
	client    dynamoAPI
	tableName string
	now       func() time.Time
}

var _ Ledger = (*DynamoLedger)(nil)

// NewDynamoLedger builds a ledger backed by the provided DynamoDB client.
func NewDynamoLedger(client dynamoAPI, tableName string) *DynamoLedger {
	if client == nil {
		panic("booking: dynamodb client cannot be nil")
	}
	if tableName == "" {
		panic("booking: table name cannot be empty")
	}
	return &DynamoLedger{
		client:    client,
		tableName: tableName,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (l *DynamoLedger) slotKeyAttr(slotText string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"slotKey": &types.AttributeValueMemberS{Value: SlotKey(slotText)},
	}
}

func (l *DynamoLedger) IsAvailable(ctx context.Context, slotText string) (bool, error) {
	out, err := l.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(l.tableName),
		Key:            l.slotKeyAttr(slotText),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return false, fmt.Errorf("booking: get slot: %w", err)
	}
	return len(out.Item) == 0, nil
}

// Reserve writes the slot item only if no item holds the key yet.
func (l *DynamoLedger) Reserve(ctx context.Context, req Request) (Booking, error) {
	rec := slotItem{
		SlotKey:     SlotKey(req.SlotText),
		ID:          uuid.NewString(),
		Name:        req.Name,
		Contact:     req.Contact,
		SlotText:    req.SlotText,
		CallerPhone: req.CallerPhone,
		CreatedAt:   l.now(),
	}
	item, err := attributevalue.MarshalMap(rec)
	if err != nil {
		return Booking{}, fmt.Errorf("booking: failed to marshal booking: %w", err)
	}

	_, err = l.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(l.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(slotKey)"),
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return Booking{}, ErrSlotTaken
		}
		return Booking{}, fmt.Errorf("booking: failed to persist booking: %w", err)
	}
	return rec.booking(), nil
}

// List scans the whole table and returns bookings oldest first.
func (l *DynamoLedger) List(ctx context.Context) ([]Booking, error) {
	var (
		out       []Booking
		startKey  map[string]types.AttributeValue
		firstPage = true
	)
	for firstPage || len(startKey) > 0 {
		firstPage = false
		page, err := l.client.Scan(ctx, &dynamodb.ScanInput{
			TableName:         aws.String(l.tableName),
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return nil, fmt.Errorf("booking: scan: %w", err)
		}
		var items []slotItem
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &items); err != nil {
			return nil, fmt.Errorf("booking: failed to unmarshal bookings: %w", err)
		}
		for _, it := range items {
			out = append(out, it.booking())
		}
		startKey = page.LastEvaluatedKey
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}
