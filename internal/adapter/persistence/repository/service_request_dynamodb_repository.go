package repository

import (
	"context"
	"fmt"
	"strings"

	"homequote/internal/domain/entities"
	"homequote/internal/usecase/interfaces"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

const defaultClientIndexName = "client_id-index"

type serviceRequestItem struct {
	ID              string   `dynamodbav:"id"`
	ClientID        string   `dynamodbav:"client_id"`
	Category        string   `dynamodbav:"category"`
	Description     string   `dynamodbav:"description"`
	Location        string   `dynamodbav:"location"`
	DesiredDeadline string   `dynamodbav:"desired_deadline,omitempty"`
	AdditionalInfo  string   `dynamodbav:"additional_info,omitempty"`
	Status          string   `dynamodbav:"status"`
	CreatedAt       string   `dynamodbav:"created_at"`
	UpdatedAt       string   `dynamodbav:"updated_at"`
	Version         int64    `dynamodbav:"version"`
	AcceptedQuoteID string   `dynamodbav:"accepted_quote_id,omitempty"`
	QuoteIDs        []string `dynamodbav:"quote_ids,stringset,omitempty"`
}

// ServiceRequestDynamoRepository persists ServiceRequest entities in DynamoDB.
//
// Table requirements:
//   - PK: id (string)
//   - GSI client_id-index: PK client_id (string)
//
// Besides the entity fields the item carries the bookkeeping the quote
// repository uses for atomic transitions: a version counter bumped on every
// write, the accepted quote id once there is a winner, and the set of quote ids.
type ServiceRequestDynamoRepository struct {
	ddb         DynamoDBAPI
	tableName   string
	quotesTable string
	clientIndex string
}

var _ interfaces.IServiceRequestRepository = (*ServiceRequestDynamoRepository)(nil)

func NewServiceRequestDynamoRepository(ddb DynamoDBAPI, tableName, quotesTable string) *ServiceRequestDynamoRepository {
	return &ServiceRequestDynamoRepository{
		ddb:         ddb,
		tableName:   tableNameOrEnv(tableName, "SERVICE_REQUESTS_TABLE", defaultServiceRequestsTableName),
		quotesTable: tableNameOrEnv(quotesTable, "QUOTES_TABLE", defaultQuotesTableName),
		clientIndex: getenvDefault("SERVICE_REQUESTS_CLIENT_INDEX", defaultClientIndexName),
	}
}

func (r *ServiceRequestDynamoRepository) Create(ctx context.Context, sr entities.ServiceRequest) (entities.ServiceRequest, error) {
	av, err := attributevalue.MarshalMap(toServiceRequestItem(sr))
	if err != nil {
		return entities.ServiceRequest{}, err
	}

	_, err = r.ddb.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                av,
		ConditionExpression: aws.String("attribute_not_exists(#id)"),
		ExpressionAttributeNames: map[string]string{
			"#id": "id",
		},
	})
	if err != nil {
		if isConditionalFailure(err) {
			return entities.ServiceRequest{}, interfaces.ErrConditionFailed
		}
		return entities.ServiceRequest{}, err
	}
	return sr, nil
}

func (r *ServiceRequestDynamoRepository) GetByID(ctx context.Context, id string) (entities.ServiceRequest, error) {
	it, err := getServiceRequestItem(ctx, r.ddb, r.tableName, id)
	if err != nil {
		return entities.ServiceRequest{}, err
	}
	return fromServiceRequestItem(it), nil
}

func (r *ServiceRequestDynamoRepository) ListByClientID(ctx context.Context, clientID string) ([]entities.ServiceRequest, error) {
	p := dynamodb.NewQueryPaginator(r.ddb, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String(r.clientIndex),
		KeyConditionExpression: aws.String("#client_id = :client_id"),
		ExpressionAttributeNames: map[string]string{
			"#client_id": "client_id",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":client_id": strAV(clientID),
		},
	})

	out := make([]entities.ServiceRequest, 0)
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		var items []serviceRequestItem
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &items); err != nil {
			return nil, err
		}
		for _, it := range items {
			out = append(out, fromServiceRequestItem(it))
		}
	}
	sortRequestsNewestFirst(out)
	return out, nil
}

// ListOpenByCategories scans for open requests. Categories are split into
// groups that fit one IN clause; each group is its own scan.
func (r *ServiceRequestDynamoRepository) ListOpenByCategories(ctx context.Context, categories []string) ([]entities.ServiceRequest, error) {
	if len(categories) == 0 {
		out, err := r.scanOpen(ctx, nil)
		if err != nil {
			return nil, err
		}
		sortRequestsNewestFirst(out)
		return out, nil
	}

	out := make([]entities.ServiceRequest, 0)
	seen := make(map[string]struct{})
	for start := 0; start < len(categories); start += maxInOperands {
		end := start + maxInOperands
		if end > len(categories) {
			end = len(categories)
		}
		found, err := r.scanOpen(ctx, categories[start:end])
		if err != nil {
			return nil, err
		}
		for _, sr := range found {
			if _, ok := seen[sr.ID]; ok {
				continue
			}
			seen[sr.ID] = struct{}{}
			out = append(out, sr)
		}
	}
	sortRequestsNewestFirst(out)
	return out, nil
}

func (r *ServiceRequestDynamoRepository) scanOpen(ctx context.Context, categories []string) ([]entities.ServiceRequest, error) {
	names := map[string]string{"#status": "status"}
	values := map[string]types.AttributeValue{}
	filter := "#status IN (" + inPlaceholders("st", statusStrings(entities.OpenServiceRequestStatuses), values) + ")"
	if len(categories) > 0 {
		names["#category"] = "category"
		filter += " AND #category IN (" + inPlaceholders("cat", categories, values) + ")"
	}

	p := dynamodb.NewScanPaginator(r.ddb, &dynamodb.ScanInput{
		TableName:                 aws.String(r.tableName),
		FilterExpression:          aws.String(filter),
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
	})

	out := make([]entities.ServiceRequest, 0)
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		var items []serviceRequestItem
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &items); err != nil {
			return nil, err
		}
		for _, it := range items {
			out = append(out, fromServiceRequestItem(it))
		}
	}
	return out, nil
}

func (r *ServiceRequestDynamoRepository) UpdateStatus(ctx context.Context, id string, from []entities.ServiceRequestStatus, to entities.ServiceRequestStatus) (entities.ServiceRequest, error) {
	values := map[string]types.AttributeValue{
		":to":         strAV(string(to)),
		":updated_at": strAV(formatTime(nowUTC())),
		":one":        numAV(1),
	}
	cond := "attribute_exists(#id) AND #status IN (" + inPlaceholders("from", statusStrings(from), values) + ")"

	out, err := r.ddb.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 idKey(id),
		ConditionExpression: aws.String(cond),
		UpdateExpression:    aws.String("SET #status = :to, #updated_at = :updated_at ADD #version :one"),
		ExpressionAttributeNames: map[string]string{
			"#id":         "id",
			"#status":     "status",
			"#updated_at": "updated_at",
			"#version":    "version",
		},
		ExpressionAttributeValues: values,
		ReturnValues:              types.ReturnValueAllNew,
	})
	if err != nil {
		if !isConditionalFailure(err) {
			return entities.ServiceRequest{}, err
		}
		current, getErr := r.GetByID(ctx, id)
		if getErr != nil {
			return entities.ServiceRequest{}, getErr
		}
		if current.ID == "" {
			return entities.ServiceRequest{}, nil
		}
		return entities.ServiceRequest{}, interfaces.ErrConditionFailed
	}

	var it serviceRequestItem
	if err := attributevalue.UnmarshalMap(out.Attributes, &it); err != nil {
		return entities.ServiceRequest{}, err
	}
	return fromServiceRequestItem(it), nil
}

// Delete removes the request and every quote listed on it in one transaction,
// guarded by the version read and the absence of an accepted quote.
func (r *ServiceRequestDynamoRepository) Delete(ctx context.Context, id string) error {
	it, err := getServiceRequestItem(ctx, r.ddb, r.tableName, id)
	if err != nil {
		return err
	}
	if it.ID == "" {
		return nil
	}
	if it.AcceptedQuoteID != "" {
		return interfaces.ErrConditionFailed
	}

	items := make([]types.TransactWriteItem, 0, len(it.QuoteIDs)+1)
	items = append(items, types.TransactWriteItem{
		Delete: &types.Delete{
			TableName:           aws.String(r.tableName),
			Key:                 idKey(id),
			ConditionExpression: aws.String("#version = :version AND attribute_not_exists(#accepted)"),
			ExpressionAttributeNames: map[string]string{
				"#version":  "version",
				"#accepted": "accepted_quote_id",
			},
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":version": numAV(it.Version),
			},
		},
	})
	for _, qid := range it.QuoteIDs {
		items = append(items, types.TransactWriteItem{
			Delete: &types.Delete{
				TableName: aws.String(r.quotesTable),
				Key:       idKey(qid),
			},
		})
	}
	return transactWrite(ctx, r.ddb, items)
}

func getServiceRequestItem(ctx context.Context, ddb DynamoDBAPI, table, id string) (serviceRequestItem, error) {
	out, err := ddb.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(table),
		Key:            idKey(id),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return serviceRequestItem{}, err
	}
	if len(out.Item) == 0 {
		return serviceRequestItem{}, nil
	}
	var it serviceRequestItem
	if err := attributevalue.UnmarshalMap(out.Item, &it); err != nil {
		return serviceRequestItem{}, err
	}
	return it, nil
}

// inPlaceholders registers one value per entry under prefix and returns the
// comma separated placeholder list for an IN clause.
func inPlaceholders(prefix string, vals []string, values map[string]types.AttributeValue) string {
	ph := make([]string, 0, len(vals))
	for i, v := range vals {
		key := fmt.Sprintf(":%s%d", prefix, i)
		values[key] = strAV(v)
		ph = append(ph, key)
	}
	return strings.Join(ph, ", ")
}

func statusStrings(statuses []entities.ServiceRequestStatus) []string {
	out := make([]string, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, string(s))
	}
	return out
}

func toServiceRequestItem(sr entities.ServiceRequest) serviceRequestItem {
	return serviceRequestItem{
		ID:              sr.ID,
		ClientID:        sr.ClientID,
		Category:        sr.Category,
		Description:     sr.Description,
		Location:        sr.Location,
		DesiredDeadline: sr.DesiredDeadline,
		AdditionalInfo:  sr.AdditionalInfo,
		Status:          string(sr.Status),
		CreatedAt:       formatTime(sr.CreatedAt),
		UpdatedAt:       formatTime(sr.UpdatedAt),
	}
}

func fromServiceRequestItem(it serviceRequestItem) entities.ServiceRequest {
	if it.ID == "" {
		return entities.ServiceRequest{}
	}
	return entities.ServiceRequest{
		ID:              it.ID,
		ClientID:        it.ClientID,
		Category:        it.Category,
		Description:     it.Description,
		Location:        it.Location,
		DesiredDeadline: it.DesiredDeadline,
		AdditionalInfo:  it.AdditionalInfo,
		Status:          entities.ServiceRequestStatus(it.Status),
		CreatedAt:       parseTime(it.CreatedAt),
		UpdatedAt:       parseTime(it.UpdatedAt),
	}
}
