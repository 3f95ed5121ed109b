package database

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

type fakeTableAPI struct {
	created []string
	errs    map[string]error
}

func (f *fakeTableAPI) CreateTable(_ context.Context, in *dynamodb.CreateTableInput, _ ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error) {
	name := aws.ToString(in.TableName)
	if err := f.errs[name]; err != nil {
		return nil, err
	}
	f.created = append(f.created, name)
	return &dynamodb.CreateTableOutput{}, nil
}

func TestEnsureDynamoDBTables(t *testing.T) {
	t.Run("creates both tables", func(t *testing.T) {
		f := &fakeTableAPI{}
		if err := EnsureDynamoDBTables(context.Background(), f, "sr", "q"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(f.created) != 2 || f.created[0] != "sr" || f.created[1] != "q" {
			t.Fatalf("unexpected tables: %v", f.created)
		}
	})

	t.Run("existing table is fine", func(t *testing.T) {
		f := &fakeTableAPI{errs: map[string]error{"sr": &types.ResourceInUseException{}}}
		if err := EnsureDynamoDBTables(context.Background(), f, "sr", "q"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(f.created) != 1 {
			t.Fatalf("expected only quotes table created, got %v", f.created)
		}
	})

	t.Run("other errors surface", func(t *testing.T) {
		f := &fakeTableAPI{errs: map[string]error{"q": errors.New("throttled")}}
		if err := EnsureDynamoDBTables(context.Background(), f, "sr", "q"); err == nil {
			t.Fatalf("expected error")
		}
	})
}

func TestTableWithIndex(t *testing.T) {
	in := tableWithIndex("quotes", "provider_id-index", "provider_id")
	if aws.ToString(in.GlobalSecondaryIndexes[0].IndexName) != "provider_id-index" {
		t.Fatalf("unexpected index: %+v", in.GlobalSecondaryIndexes)
	}
	if in.BillingMode != types.BillingModePayPerRequest {
		t.Fatalf("unexpected billing mode %s", in.BillingMode)
	}
}
