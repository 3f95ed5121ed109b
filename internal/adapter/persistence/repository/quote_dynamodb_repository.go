package repository

import (
	"context"
	"fmt"
	"time"

	"homequote/internal/domain/entities"
	"homequote/internal/usecase/interfaces"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

const (
	defaultProviderIndexName = "provider_id-index"
	deleteRetries            = 3
)

// errQuoteDecided stops the delete retry loop: the quote itself moved on.
var errQuoteDecided = fmt.Errorf("%w: quote is not awaiting", interfaces.ErrConditionFailed)

type quoteItem struct {
	ID                string `dynamodbav:"id"`
	ServiceRequestID  string `dynamodbav:"service_request_id"`
	ProviderID        string `dynamodbav:"provider_id"`
	MinPrice          string `dynamodbav:"min_price"`
	SuggestedPrice    string `dynamodbav:"suggested_price"`
	MaxPrice          string `dynamodbav:"max_price"`
	PredictedCategory string `dynamodbav:"predicted_category,omitempty"`
	ProposedValue     string `dynamodbav:"proposed_value"`
	ExecutionDeadline string `dynamodbav:"execution_deadline"`
	Remarks           string `dynamodbav:"remarks,omitempty"`
	Conditions        string `dynamodbav:"conditions,omitempty"`
	Status            string `dynamodbav:"status"`
	StartedAt         string `dynamodbav:"started_at,omitempty"`
	FinishedAt        string `dynamodbav:"finished_at,omitempty"`
	CreatedAt         string `dynamodbav:"created_at"`
	UpdatedAt         string `dynamodbav:"updated_at"`
}

// QuoteDynamoRepository persists Quote entities in DynamoDB.
//
// Table requirements:
//   - PK: id (string)
//   - GSI provider_id-index: PK provider_id (string)
//
// Every write that touches a quote also updates its parent request item in the
// same TransactWriteItems call, so the request status, its quote_ids set and
// the accepted quote id never drift from the quotes themselves.
type QuoteDynamoRepository struct {
	ddb           DynamoDBAPI
	tableName     string
	requestsTable string
	providerIndex string
}

var _ interfaces.IQuoteRepository = (*QuoteDynamoRepository)(nil)

func NewQuoteDynamoRepository(ddb DynamoDBAPI, tableName, requestsTable string) *QuoteDynamoRepository {
	return &QuoteDynamoRepository{
		ddb:           ddb,
		tableName:     tableNameOrEnv(tableName, "QUOTES_TABLE", defaultQuotesTableName),
		requestsTable: tableNameOrEnv(requestsTable, "SERVICE_REQUESTS_TABLE", defaultServiceRequestsTableName),
		providerIndex: getenvDefault("QUOTES_PROVIDER_INDEX", defaultProviderIndexName),
	}
}

func (r *QuoteDynamoRepository) Create(ctx context.Context, q entities.Quote) (entities.Quote, error) {
	av, err := attributevalue.MarshalMap(toQuoteItem(q))
	if err != nil {
		return entities.Quote{}, err
	}

	err = transactWrite(ctx, r.ddb, []types.TransactWriteItem{
		{
			Put: &types.Put{
				TableName:           aws.String(r.tableName),
				Item:                av,
				ConditionExpression: aws.String("attribute_not_exists(#id)"),
				ExpressionAttributeNames: map[string]string{
					"#id": "id",
				},
			},
		},
		{
			Update: &types.Update{
				TableName:           aws.String(r.requestsTable),
				Key:                 idKey(q.ServiceRequestID),
				ConditionExpression: aws.String("attribute_exists(#id) AND #status IN (:awaiting, :with_quotes) AND attribute_not_exists(#accepted) AND (attribute_not_exists(#quote_ids) OR size(#quote_ids) < :cap)"),
				UpdateExpression:    aws.String("SET #status = :with_quotes, #updated_at = :now ADD #version :one, #quote_ids :qid"),
				ExpressionAttributeNames: map[string]string{
					"#id":         "id",
					"#status":     "status",
					"#accepted":   "accepted_quote_id",
					"#updated_at": "updated_at",
					"#version":    "version",
					"#quote_ids":  "quote_ids",
				},
				ExpressionAttributeValues: map[string]types.AttributeValue{
					":awaiting":    strAV(string(entities.ServiceRequestStatusAwaiting)),
					":with_quotes": strAV(string(entities.ServiceRequestStatusWithQuotes)),
					":now":         strAV(formatTime(q.CreatedAt)),
					":one":         numAV(1),
					":qid":         &types.AttributeValueMemberSS{Value: []string{q.ID}},
					":cap":         numAV(maxQuotesPerRequest),
				},
			},
		},
	})
	if err == interfaces.ErrConditionFailed {
		return entities.Quote{}, r.explainCreateFailure(ctx, q.ServiceRequestID)
	}
	if err != nil {
		return entities.Quote{}, err
	}
	return q, nil
}

// explainCreateFailure tells a full request apart from a closed or decided one.
// The cancellation reasons of a transaction do not say which clause failed.
func (r *QuoteDynamoRepository) explainCreateFailure(ctx context.Context, serviceRequestID string) error {
	sr, err := getServiceRequestItem(ctx, r.ddb, r.requestsTable, serviceRequestID)
	if err != nil {
		return err
	}
	if sr.ID != "" && sr.AcceptedQuoteID == "" && entities.ServiceRequestStatus(sr.Status).IsOpen() &&
		len(sr.QuoteIDs) >= maxQuotesPerRequest {
		return interfaces.ErrQuoteLimitReached
	}
	return interfaces.ErrConditionFailed
}

func (r *QuoteDynamoRepository) GetByID(ctx context.Context, id string) (entities.Quote, error) {
	out, err := r.ddb.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            idKey(id),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return entities.Quote{}, err
	}
	if len(out.Item) == 0 {
		return entities.Quote{}, nil
	}

	var it quoteItem
	if err := attributevalue.UnmarshalMap(out.Item, &it); err != nil {
		return entities.Quote{}, err
	}
	return fromQuoteItem(it), nil
}

func (r *QuoteDynamoRepository) ListByProviderID(ctx context.Context, providerID string) ([]entities.Quote, error) {
	p := dynamodb.NewQueryPaginator(r.ddb, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String(r.providerIndex),
		KeyConditionExpression: aws.String("#provider_id = :provider_id"),
		ExpressionAttributeNames: map[string]string{
			"#provider_id": "provider_id",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":provider_id": strAV(providerID),
		},
	})

	out := make([]entities.Quote, 0)
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		var items []quoteItem
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &items); err != nil {
			return nil, err
		}
		for _, it := range items {
			out = append(out, fromQuoteItem(it))
		}
	}
	sortQuotesNewestFirst(out)
	return out, nil
}

// ListByServiceRequestID resolves the quote ids recorded on the request item
// and fetches them with consistent reads.
func (r *QuoteDynamoRepository) ListByServiceRequestID(ctx context.Context, serviceRequestID string) ([]entities.Quote, error) {
	sr, err := getServiceRequestItem(ctx, r.ddb, r.requestsTable, serviceRequestID)
	if err != nil {
		return nil, err
	}
	out, err := r.batchGet(ctx, sr.QuoteIDs)
	if err != nil {
		return nil, err
	}
	sortQuotesCheapestFirst(out)
	return out, nil
}

func (r *QuoteDynamoRepository) CountByServiceRequestID(ctx context.Context, serviceRequestID string) (int, error) {
	sr, err := getServiceRequestItem(ctx, r.ddb, r.requestsTable, serviceRequestID)
	if err != nil {
		return 0, err
	}
	return len(sr.QuoteIDs), nil
}

// Accept marks the quote accepted, rejects every sibling still awaiting and
// records the winner on the request. The request update is guarded by the
// version read here, so any concurrent create, delete or accept cancels it.
func (r *QuoteDynamoRepository) Accept(ctx context.Context, id string, at time.Time) (entities.Quote, error) {
	q, err := r.GetByID(ctx, id)
	if err != nil || q.ID == "" {
		return entities.Quote{}, err
	}
	if q.Status != entities.QuoteStatusAwaiting {
		return entities.Quote{}, interfaces.ErrConditionFailed
	}
	sr, err := getServiceRequestItem(ctx, r.ddb, r.requestsTable, q.ServiceRequestID)
	if err != nil {
		return entities.Quote{}, err
	}
	if sr.ID == "" || sr.AcceptedQuoteID != "" || !entities.ServiceRequestStatus(sr.Status).IsOpen() {
		return entities.Quote{}, interfaces.ErrConditionFailed
	}

	siblingIDs := make([]string, 0, len(sr.QuoteIDs))
	for _, qid := range sr.QuoteIDs {
		if qid != id {
			siblingIDs = append(siblingIDs, qid)
		}
	}
	siblings, err := r.batchGet(ctx, siblingIDs)
	if err != nil {
		return entities.Quote{}, err
	}

	now := formatTime(at)
	awaiting := strAV(string(entities.QuoteStatusAwaiting))
	items := []types.TransactWriteItem{
		{
			Update: &types.Update{
				TableName:           aws.String(r.tableName),
				Key:                 idKey(id),
				ConditionExpression: aws.String("#status = :awaiting"),
				UpdateExpression:    aws.String("SET #status = :accepted, #started_at = :now, #updated_at = :now"),
				ExpressionAttributeNames: map[string]string{
					"#status":     "status",
					"#started_at": "started_at",
					"#updated_at": "updated_at",
				},
				ExpressionAttributeValues: map[string]types.AttributeValue{
					":awaiting": awaiting,
					":accepted": strAV(string(entities.QuoteStatusAccepted)),
					":now":      strAV(now),
				},
			},
		},
		{
			Update: &types.Update{
				TableName:           aws.String(r.requestsTable),
				Key:                 idKey(sr.ID),
				ConditionExpression: aws.String("#version = :version AND attribute_not_exists(#accepted)"),
				UpdateExpression:    aws.String("SET #accepted = :qid, #status = :with_quotes, #updated_at = :now ADD #version :one"),
				ExpressionAttributeNames: map[string]string{
					"#version":    "version",
					"#accepted":   "accepted_quote_id",
					"#status":     "status",
					"#updated_at": "updated_at",
				},
				ExpressionAttributeValues: map[string]types.AttributeValue{
					":version":     numAV(sr.Version),
					":qid":         strAV(id),
					":with_quotes": strAV(string(entities.ServiceRequestStatusWithQuotes)),
					":now":         strAV(now),
					":one":         numAV(1),
				},
			},
		},
	}
	for _, s := range siblings {
		if s.Status != entities.QuoteStatusAwaiting {
			continue
		}
		items = append(items, types.TransactWriteItem{
			Update: &types.Update{
				TableName:           aws.String(r.tableName),
				Key:                 idKey(s.ID),
				ConditionExpression: aws.String("#status = :awaiting"),
				UpdateExpression:    aws.String("SET #status = :rejected, #updated_at = :now"),
				ExpressionAttributeNames: map[string]string{
					"#status":     "status",
					"#updated_at": "updated_at",
				},
				ExpressionAttributeValues: map[string]types.AttributeValue{
					":awaiting": awaiting,
					":rejected": strAV(string(entities.QuoteStatusRejected)),
					":now":      strAV(now),
				},
			},
		})
	}

	if err := transactWrite(ctx, r.ddb, items); err != nil {
		return entities.Quote{}, err
	}

	started := at
	q.Status = entities.QuoteStatusAccepted
	q.StartedAt = &started
	q.UpdatedAt = at
	return q, nil
}

func (r *QuoteDynamoRepository) Complete(ctx context.Context, id string, at time.Time) (entities.Quote, error) {
	q, err := r.GetByID(ctx, id)
	if err != nil || q.ID == "" {
		return entities.Quote{}, err
	}
	if q.Status != entities.QuoteStatusAccepted {
		return entities.Quote{}, interfaces.ErrConditionFailed
	}

	now := formatTime(at)
	err = transactWrite(ctx, r.ddb, []types.TransactWriteItem{
		{
			Update: &types.Update{
				TableName:           aws.String(r.tableName),
				Key:                 idKey(id),
				ConditionExpression: aws.String("#status = :accepted"),
				UpdateExpression:    aws.String("SET #status = :completed, #finished_at = :now, #updated_at = :now"),
				ExpressionAttributeNames: map[string]string{
					"#status":      "status",
					"#finished_at": "finished_at",
					"#updated_at":  "updated_at",
				},
				ExpressionAttributeValues: map[string]types.AttributeValue{
					":accepted":  strAV(string(entities.QuoteStatusAccepted)),
					":completed": strAV(string(entities.QuoteStatusCompleted)),
					":now":       strAV(now),
				},
			},
		},
		{
			Update: &types.Update{
				TableName:           aws.String(r.requestsTable),
				Key:                 idKey(q.ServiceRequestID),
				ConditionExpression: aws.String("#accepted = :qid AND #status IN (:awaiting, :with_quotes)"),
				UpdateExpression:    aws.String("SET #status = :closed, #updated_at = :now ADD #version :one"),
				ExpressionAttributeNames: map[string]string{
					"#accepted":   "accepted_quote_id",
					"#status":     "status",
					"#updated_at": "updated_at",
					"#version":    "version",
				},
				ExpressionAttributeValues: map[string]types.AttributeValue{
					":qid":         strAV(id),
					":awaiting":    strAV(string(entities.ServiceRequestStatusAwaiting)),
					":with_quotes": strAV(string(entities.ServiceRequestStatusWithQuotes)),
					":closed":      strAV(string(entities.ServiceRequestStatusClosed)),
					":now":         strAV(now),
					":one":         numAV(1),
				},
			},
		},
	})
	if err != nil {
		return entities.Quote{}, err
	}

	finished := at
	q.Status = entities.QuoteStatusCompleted
	q.FinishedAt = &finished
	q.UpdatedAt = at
	return q, nil
}

// Delete removes an awaiting quote. When it is the last quote of a request in
// with_quotes, the same transaction moves the request back to awaiting. The
// request write is version guarded; a lost race is retried a few times before
// surfacing as a condition failure.
func (r *QuoteDynamoRepository) Delete(ctx context.Context, id string) error {
	var err error
	for attempt := 0; attempt < deleteRetries; attempt++ {
		err = r.deleteOnce(ctx, id)
		if err != interfaces.ErrConditionFailed {
			return err
		}
	}
	return err
}

func (r *QuoteDynamoRepository) deleteOnce(ctx context.Context, id string) error {
	q, err := r.GetByID(ctx, id)
	if err != nil || q.ID == "" {
		return err
	}
	if q.Status != entities.QuoteStatusAwaiting {
		return errQuoteDecided
	}
	sr, err := getServiceRequestItem(ctx, r.ddb, r.requestsTable, q.ServiceRequestID)
	if err != nil {
		return err
	}
	if sr.ID == "" {
		return interfaces.ErrConditionFailed
	}

	last := len(sr.QuoteIDs) == 1 && sr.QuoteIDs[0] == id
	update := "SET #updated_at = :now ADD #version :one DELETE #quote_ids :qid"
	values := map[string]types.AttributeValue{
		":version": numAV(sr.Version),
		":now":     strAV(formatTime(nowUTC())),
		":one":     numAV(1),
		":qid":     &types.AttributeValueMemberSS{Value: []string{id}},
	}
	names := map[string]string{
		"#version":    "version",
		"#updated_at": "updated_at",
		"#quote_ids":  "quote_ids",
	}
	if last && entities.ServiceRequestStatus(sr.Status) == entities.ServiceRequestStatusWithQuotes {
		update = "SET #updated_at = :now, #status = :awaiting ADD #version :one DELETE #quote_ids :qid"
		values[":awaiting"] = strAV(string(entities.ServiceRequestStatusAwaiting))
		names["#status"] = "status"
	}

	return transactWrite(ctx, r.ddb, []types.TransactWriteItem{
		{
			Delete: &types.Delete{
				TableName:           aws.String(r.tableName),
				Key:                 idKey(id),
				ConditionExpression: aws.String("#status = :awaiting_quote"),
				ExpressionAttributeNames: map[string]string{
					"#status": "status",
				},
				ExpressionAttributeValues: map[string]types.AttributeValue{
					":awaiting_quote": strAV(string(entities.QuoteStatusAwaiting)),
				},
			},
		},
		{
			Update: &types.Update{
				TableName:                 aws.String(r.requestsTable),
				Key:                       idKey(sr.ID),
				ConditionExpression:       aws.String("#version = :version"),
				UpdateExpression:          aws.String(update),
				ExpressionAttributeNames:  names,
				ExpressionAttributeValues: values,
			},
		},
	})
}

func (r *QuoteDynamoRepository) batchGet(ctx context.Context, ids []string) ([]entities.Quote, error) {
	out := make([]entities.Quote, 0, len(ids))
	for start := 0; start < len(ids); start += batchGetLimit {
		end := start + batchGetLimit
		if end > len(ids) {
			end = len(ids)
		}
		keys := make([]map[string]types.AttributeValue, 0, end-start)
		for _, id := range ids[start:end] {
			keys = append(keys, idKey(id))
		}

		request := map[string]types.KeysAndAttributes{
			r.tableName: {Keys: keys, ConsistentRead: aws.Bool(true)},
		}
		for len(request) > 0 {
			res, err := r.ddb.BatchGetItem(ctx, &dynamodb.BatchGetItemInput{RequestItems: request})
			if err != nil {
				return nil, err
			}
			var items []quoteItem
			if err := attributevalue.UnmarshalListOfMaps(res.Responses[r.tableName], &items); err != nil {
				return nil, err
			}
			for _, it := range items {
				out = append(out, fromQuoteItem(it))
			}
			request = res.UnprocessedKeys
		}
	}
	return out, nil
}

func toQuoteItem(q entities.Quote) quoteItem {
	return quoteItem{
		ID:                q.ID,
		ServiceRequestID:  q.ServiceRequestID,
		ProviderID:        q.ProviderID,
		MinPrice:          floatToString(q.Limits.Minimum),
		SuggestedPrice:    floatToString(q.Limits.Suggested),
		MaxPrice:          floatToString(q.Limits.Maximum),
		PredictedCategory: q.Limits.PredictedCategory,
		ProposedValue:     floatToString(q.ProposedValue),
		ExecutionDeadline: q.ExecutionDeadline,
		Remarks:           q.Remarks,
		Conditions:        q.Conditions,
		Status:            string(q.Status),
		StartedAt:         formatTimePtr(q.StartedAt),
		FinishedAt:        formatTimePtr(q.FinishedAt),
		CreatedAt:         formatTime(q.CreatedAt),
		UpdatedAt:         formatTime(q.UpdatedAt),
	}
}

func fromQuoteItem(it quoteItem) entities.Quote {
	return entities.Quote{
		ID:               it.ID,
		ServiceRequestID: it.ServiceRequestID,
		ProviderID:       it.ProviderID,
		Limits: entities.PriceRange{
			Minimum:           parseFloat(it.MinPrice),
			Suggested:         parseFloat(it.SuggestedPrice),
			Maximum:           parseFloat(it.MaxPrice),
			PredictedCategory: it.PredictedCategory,
		},
		ProposedValue:     parseFloat(it.ProposedValue),
		ExecutionDeadline: it.ExecutionDeadline,
		Remarks:           it.Remarks,
		Conditions:        it.Conditions,
		Status:            entities.QuoteStatus(it.Status),
		StartedAt:         parseTimePtr(it.StartedAt),
		FinishedAt:        parseTimePtr(it.FinishedAt),
		CreatedAt:         parseTime(it.CreatedAt),
		UpdatedAt:         parseTime(it.UpdatedAt),
	}
}
