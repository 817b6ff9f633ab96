package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"github.com/liveq-app/backend/internal/models"
)

// DynamoConfig holds the remote store settings.
type DynamoConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	EventsTable     string
	QuestionsTable  string
	// TopIndex is a GSI on the questions table keyed by eid and sorted by
	// votes, so listings come back votes-descending without a table scan.
	TopIndex string
}

// Dynamo is the DynamoDB-backed Store. It needs no in-process locking:
// counter atomicity and the vote floor are condition expressions evaluated
// by DynamoDB itself, so any number of server instances can share it.
type Dynamo struct {
	client *dynamodb.Client
	cfg    DynamoConfig
	logger *zap.Logger
}

// NewDynamo creates a DynamoDB client using static credentials from config
// or the default credential chain.
func NewDynamo(ctx context.Context, cfg DynamoConfig, logger *zap.Logger) (*Dynamo, error) {
	accessKey := cfg.AccessKeyID
	secretKey := cfg.SecretAccessKey
	if accessKey == "" || secretKey == "" {
		accessKey = os.Getenv("AWS_ACCESS_KEY_ID")
		secretKey = os.Getenv("AWS_SECRET_ACCESS_KEY")
	}
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if accessKey != "" && secretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			accessKey, secretKey, "",
		)))
	} else if logger != nil {
		logger.Warn("DynamoDB client using default credential chain (AWS_ACCESS_KEY_ID/AWS_SECRET_ACCESS_KEY not set)")
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return &Dynamo{
		client: dynamodb.NewFromConfig(awsCfg),
		cfg:    cfg,
		logger: logger,
	}, nil
}

func key(id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"id": &types.AttributeValueMemberS{Value: id},
	}
}

func number(n int) types.AttributeValue {
	return &types.AttributeValueMemberN{Value: strconv.Itoa(n)}
}

// CreateEvent upserts the event record.
func (d *Dynamo) CreateEvent(ctx context.Context, eid, secret string) error {
	now := time.Now()
	item, err := attributevalue.MarshalMap(models.Event{
		ID:     eid,
		Secret: secret,
		When:   now.Unix(),
		Expire: now.Add(EventTTL).Unix(),
	})
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	_, err = d.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(d.cfg.EventsTable),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("put event: %w", err)
	}
	return nil
}

// CreateQuestion inserts a question with one self-vote.
//
// TODO: reject questions for events that do not exist; today a question can
// be written against an id the events table has never seen.
func (d *Dynamo) CreateQuestion(ctx context.Context, eid, qid, text string, asker *string) error {
	now := time.Now()
	item, err := attributevalue.MarshalMap(models.Question{
		ID:      qid,
		EventID: eid,
		Votes:   1,
		Text:    text,
		Who:     asker,
		When:    now.Unix(),
		Expire:  now.Add(QuestionTTL).Unix(),
		Hidden:  false,
	})
	if err != nil {
		return fmt.Errorf("marshal question: %w", err)
	}
	_, err = d.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(d.cfg.QuestionsTable),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("put question: %w", err)
	}
	return nil
}

// Vote adjusts the vote count through an atomic update. The zero floor on
// down-votes is a condition expression; a failed condition means the count
// was already zero and resolves to success.
func (d *Dynamo) Vote(ctx context.Context, qid string, dir Direction) (int, error) {
	in := &dynamodb.UpdateItemInput{
		TableName:    aws.String(d.cfg.QuestionsTable),
		Key:          key(qid),
		ReturnValues: types.ReturnValueAllNew,
	}
	switch dir {
	case Up:
		in.UpdateExpression = aws.String("SET votes = votes + :one")
		in.ExpressionAttributeValues = map[string]types.AttributeValue{
			":one": number(1),
		}
	case Down:
		in.UpdateExpression = aws.String("SET votes = votes - :one")
		in.ConditionExpression = aws.String("votes > :zero")
		in.ExpressionAttributeValues = map[string]types.AttributeValue{
			":one":  number(1),
			":zero": number(0),
		}
	default:
		return 0, fmt.Errorf("unknown vote direction %q", dir)
	}

	out, err := d.client.UpdateItem(ctx, in)
	if err != nil {
		var cond *types.ConditionalCheckFailedException
		if errors.As(err, &cond) {
			return 0, nil
		}
		return 0, fmt.Errorf("update votes: %w", err)
	}

	n, ok := out.Attributes["votes"].(*types.AttributeValueMemberN)
	if !ok {
		return 0, fmt.Errorf("question %s: vote count is not numeric", qid)
	}
	votes, err := strconv.Atoi(n.Value)
	if err != nil {
		return 0, fmt.Errorf("question %s: vote count %q: %w", qid, n.Value, err)
	}
	return votes, nil
}

// Toggle applies a hidden/answered change. Clearing an answered mark removes
// the attribute entirely rather than writing a sentinel.
func (d *Dynamo) Toggle(ctx context.Context, qid string, t Toggle) (ToggleResult, error) {
	in := &dynamodb.UpdateItemInput{
		TableName: aws.String(d.cfg.QuestionsTable),
		Key:       key(qid),
	}
	var res ToggleResult
	switch t.Property {
	case Hidden:
		in.UpdateExpression = aws.String("SET #field = :set")
		in.ExpressionAttributeNames = map[string]string{"#field": "hidden"}
		in.ExpressionAttributeValues = map[string]types.AttributeValue{
			":set": &types.AttributeValueMemberBOOL{Value: t.On},
		}
		set := t.On
		res.Hidden = &set
	case Answered:
		if t.On {
			now := time.Now().Unix()
			in.UpdateExpression = aws.String("SET #field = :set")
			in.ExpressionAttributeNames = map[string]string{"#field": "answered"}
			in.ExpressionAttributeValues = map[string]types.AttributeValue{
				":set": &types.AttributeValueMemberN{Value: strconv.FormatInt(now, 10)},
			}
			res.Answered = &now
		} else {
			in.UpdateExpression = aws.String("REMOVE #field")
			in.ExpressionAttributeNames = map[string]string{"#field": "answered"}
		}
	default:
		return ToggleResult{}, fmt.Errorf("unknown toggle property %q", t.Property)
	}

	if _, err := d.client.UpdateItem(ctx, in); err != nil {
		return ToggleResult{}, fmt.Errorf("toggle %s: %w", t.Property, err)
	}
	return res, nil
}

// GetQuestion fetches only the text attribute.
func (d *Dynamo) GetQuestion(ctx context.Context, qid string) (string, error) {
	out, err := d.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:                aws.String(d.cfg.QuestionsTable),
		Key:                      key(qid),
		ProjectionExpression:     aws.String("#text"),
		ExpressionAttributeNames: map[string]string{"#text": "text"},
	})
	if err != nil {
		return "", fmt.Errorf("get question: %w", err)
	}
	if len(out.Item) == 0 {
		return "", fmt.Errorf("get question %s: %w", qid, ErrQuestionNotFound)
	}
	text, ok := out.Item["text"].(*types.AttributeValueMemberS)
	if !ok {
		return "", fmt.Errorf("question %s: text attribute missing or not a string", qid)
	}
	return text.Value, nil
}

// GetEvent reports whether the event exists.
func (d *Dynamo) GetEvent(ctx context.Context, eid string) error {
	out, err := d.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:            aws.String(d.cfg.EventsTable),
		Key:                  key(eid),
		ProjectionExpression: aws.String("id"),
	})
	if err != nil {
		return fmt.Errorf("get event: %w", err)
	}
	if len(out.Item) == 0 {
		return fmt.Errorf("get event %s: %w", eid, ErrEventNotFound)
	}
	return nil
}

// ListQuestions queries the top index so results arrive votes-descending.
func (d *Dynamo) ListQuestions(ctx context.Context, eid string, includeHidden bool) ([]models.Question, error) {
	in := &dynamodb.QueryInput{
		TableName:              aws.String(d.cfg.QuestionsTable),
		IndexName:              aws.String(d.cfg.TopIndex),
		ScanIndexForward:       aws.Bool(false),
		KeyConditionExpression: aws.String("eid = :eid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":eid": &types.AttributeValueMemberS{Value: eid},
		},
	}
	if !includeHidden {
		in.FilterExpression = aws.String("#hidden = :false")
		in.ExpressionAttributeNames = map[string]string{"#hidden": "hidden"}
		in.ExpressionAttributeValues[":false"] = &types.AttributeValueMemberBOOL{Value: false}
	}

	out, err := d.client.Query(ctx, in)
	if err != nil {
		var nf *types.ResourceNotFoundException
		if errors.As(err, &nf) {
			return nil, fmt.Errorf("list questions for event %s: %w", eid, ErrEventNotFound)
		}
		return nil, fmt.Errorf("query questions: %w", err)
	}

	qs := make([]models.Question, 0, len(out.Items))
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &qs); err != nil {
		return nil, fmt.Errorf("unmarshal questions: %w", err)
	}
	return qs, nil
}

// BatchGetQuestions bulk-fetches (id, text, when, who) projections. Keys
// DynamoDB did not get to are reported back as unprocessed so the caller can
// retry them.
func (d *Dynamo) BatchGetQuestions(ctx context.Context, qids []string) (*BatchResult, error) {
	keys := make([]map[string]types.AttributeValue, 0, len(qids))
	for _, qid := range qids {
		keys = append(keys, key(qid))
	}
	out, err := d.client.BatchGetItem(ctx, &dynamodb.BatchGetItemInput{
		RequestItems: map[string]types.KeysAndAttributes{
			d.cfg.QuestionsTable: {
				Keys:                 keys,
				ProjectionExpression: aws.String("id, #text, #when, who"),
				ExpressionAttributeNames: map[string]string{
					"#text": "text",
					"#when": "when",
				},
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("batch get questions: %w", err)
	}

	res := &BatchResult{}
	if items, ok := out.Responses[d.cfg.QuestionsTable]; ok {
		res.Found = make([]models.Question, 0, len(items))
		if err := attributevalue.UnmarshalListOfMaps(items, &res.Found); err != nil {
			return nil, fmt.Errorf("unmarshal questions: %w", err)
		}
	}
	if pending, ok := out.UnprocessedKeys[d.cfg.QuestionsTable]; ok {
		for _, k := range pending.Keys {
			if id, ok := k["id"].(*types.AttributeValueMemberS); ok {
				res.Unprocessed = append(res.Unprocessed, id.Value)
			}
		}
	}
	return res, nil
}

// GetSecret fetches only the event's secret attribute.
func (d *Dynamo) GetSecret(ctx context.Context, eid string) (string, error) {
	out, err := d.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:            aws.String(d.cfg.EventsTable),
		Key:                  key(eid),
		ProjectionExpression: aws.String("secret"),
	})
	if err != nil {
		return "", fmt.Errorf("get secret: %w", err)
	}
	secret, ok := out.Item["secret"].(*types.AttributeValueMemberS)
	if !ok {
		return "", fmt.Errorf("get secret for event %s: %w", eid, ErrEventNotFound)
	}
	return secret.Value, nil
}

// DeleteEvent removes the event and its questions one item at a time. Only
// tests call this; production records leave through TTL expiry.
func (d *Dynamo) DeleteEvent(ctx context.Context, eid string) error {
	qs, err := d.ListQuestions(ctx, eid, true)
	if err != nil {
		return err
	}
	for _, q := range qs {
		_, err := d.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
			TableName: aws.String(d.cfg.QuestionsTable),
			Key:       key(q.ID),
		})
		if err != nil {
			return fmt.Errorf("delete question %s: %w", q.ID, err)
		}
	}
	_, err = d.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(d.cfg.EventsTable),
		Key:       key(eid),
	})
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	return nil
}
