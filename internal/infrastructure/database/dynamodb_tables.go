package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	log "github.com/sirupsen/logrus"
)

// tableAPI is the subset of the DynamoDB client used to bootstrap tables.
type tableAPI interface {
	CreateTable(ctx context.Context, params *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error)
}

// EnsureDynamoDBTables creates the request and quote tables with their GSIs.
// Tables that already exist are left untouched. Meant for DynamoDB Local;
// real deployments provision tables outside the service.
func EnsureDynamoDBTables(ctx context.Context, ddb tableAPI, requestsTable, quotesTable string) error {
	for _, in := range []*dynamodb.CreateTableInput{
		tableWithIndex(requestsTable, "client_id-index", "client_id"),
		tableWithIndex(quotesTable, "provider_id-index", "provider_id"),
	} {
		_, err := ddb.CreateTable(ctx, in)
		var inUse *types.ResourceInUseException
		switch {
		case err == nil:
			log.Infof("[database][dynamodb] created table=%s", aws.ToString(in.TableName))
		case errors.As(err, &inUse):
		default:
			return fmt.Errorf("database: create table %s: %w", aws.ToString(in.TableName), err)
		}
	}
	return nil
}

func tableWithIndex(table, index, indexKey string) *dynamodb.CreateTableInput {
	return &dynamodb.CreateTableInput{
		TableName:   aws.String(table),
		BillingMode: types.BillingModePayPerRequest,
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String("id"), AttributeType: types.ScalarAttributeTypeS},
			{AttributeName: aws.String(indexKey), AttributeType: types.ScalarAttributeTypeS},
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String("id"), KeyType: types.KeyTypeHash},
		},
		GlobalSecondaryIndexes: []types.GlobalSecondaryIndex{{
			IndexName:  aws.String(index),
			KeySchema:  []types.KeySchemaElement{{AttributeName: aws.String(indexKey), KeyType: types.KeyTypeHash}},
			Projection: &types.Projection{ProjectionType: types.ProjectionTypeAll},
		}},
	}
}
