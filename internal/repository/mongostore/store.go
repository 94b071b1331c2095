package mongostore

/*
Файл store.go - backend Ledger поверх MongoDB (коллекции policyholders, policies, claims).

Транзакции MongoDB доступны только на replica set, поэтому они включаются флагом.
Без транзакций гонку параллельных создателей закрывают уникальные индексы
(см. EnsureIndexes), а остальные операции затрагивают один документ.
*/

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/xela07ax/claims-ledger/internal/domain"
	"github.com/xela07ax/claims-ledger/internal/ledger"
)

// labelUnknownCommitResult - метка сервера: результат commitTransaction неизвестен
const labelUnknownCommitResult = "UnknownTransactionCommitResult"

const (
	collPolicyholders = "policyholders"
	collPolicies      = "policies"
	collClaims        = "claims"
)

type Options struct {
	Database       string
	MaxPoolSize    uint64
	ConnectTimeout time.Duration
	Transactions   bool
}

type Store struct {
	client       *mongo.Client
	db           *mongo.Database
	transactions bool
	logger       *zap.Logger
}

var _ ledger.Store = (*Store)(nil)

// Connect подключается к MongoDB и проверяет соединение пингом.
func Connect(ctx context.Context, uri string, opts Options, logger *zap.Logger) (*Store, error) {
	timeout := opts.ConnectTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	clientOptions := options.Client().ApplyURI(uri)
	if opts.MaxPoolSize > 0 {
		clientOptions.SetMaxPoolSize(opts.MaxPoolSize)
	}
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	logger = logger.Named("mongo-store")
	logger.Info("connected to MongoDB",
		zap.String("database", opts.Database),
		zap.Bool("transactions", opts.Transactions))

	return &Store{
		client:       client,
		db:           client.Database(opts.Database),
		transactions: opts.Transactions,
		logger:       logger,
	}, nil
}

// EnsureIndexes создает уникальные индексы по бизнес-id. Повторный вызов безопасен.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := map[string]string{
		collPolicyholders: "policyholder_id",
		collPolicies:      "policy_id",
		collClaims:        "claim_id",
	}
	for coll, field := range indexes {
		_, err := s.db.Collection(coll).Indexes().CreateOne(ctx, mongo.IndexModel{
			Keys:    bson.D{{Key: field, Value: 1}},
			Options: options.Index().SetUnique(true),
		})
		if err != nil {
			return fmt.Errorf("mongo: create index %s.%s: %w", coll, field, err)
		}
	}
	return nil
}

func (s *Store) Atomically(ctx context.Context, fn func(ctx context.Context, tx ledger.Tx) error) error {
	if !s.transactions {
		return fn(ctx, &tx{db: s.db})
	}

	session, err := s.client.StartSession()
	if err != nil {
		return fmt.Errorf("mongo: start session: %w", err)
	}
	defer session.EndSession(ctx)

	// WithTransaction сам повторяет fn на TransientTransactionError
	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc, &tx{db: s.db})
	})
	return commitOutcome(err)
}

// commitOutcome помечает ошибки, после которых драйвер не знает, зафиксирован ли COMMIT.
func commitOutcome(err error) error {
	var se mongo.ServerError
	if errors.As(err, &se) && se.HasErrorLabel(labelUnknownCommitResult) {
		return fmt.Errorf("mongo: commit: %w: %w", ledger.ErrCommitUnknown, err)
	}
	return err
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

type tx struct {
	db *mongo.Database
}

func findOne[T any](ctx context.Context, coll *mongo.Collection, field, id string) (*T, error) {
	var doc T
	err := coll.FindOne(ctx, bson.M{field: id}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("mongo: find %s in %s: %w", id, coll.Name(), err)
	}
	return &doc, nil
}

func findAll[T any](ctx context.Context, coll *mongo.Collection) ([]T, error) {
	cursor, err := coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("mongo: list %s: %w", coll.Name(), err)
	}
	docs := make([]T, 0)
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("mongo: decode %s: %w", coll.Name(), err)
	}
	return docs, nil
}

func insertOne(ctx context.Context, coll *mongo.Collection, id string, doc any) error {
	if _, err := coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("mongo: insert %s into %s: %w", id, coll.Name(), domain.ErrDuplicateID)
		}
		return fmt.Errorf("mongo: insert into %s: %w", coll.Name(), err)
	}
	return nil
}

func (t *tx) GetPolicyholder(ctx context.Context, id string) (*domain.Policyholder, error) {
	doc, err := findOne[policyholderDoc](ctx, t.db.Collection(collPolicyholders), "policyholder_id", id)
	if err != nil || doc == nil {
		return nil, err
	}
	p := doc.toDomain()
	return &p, nil
}

func (t *tx) InsertPolicyholder(ctx context.Context, p domain.Policyholder) error {
	return insertOne(ctx, t.db.Collection(collPolicyholders), p.ID, toPolicyholderDoc(p))
}

func (t *tx) ListPolicyholders(ctx context.Context) ([]domain.Policyholder, error) {
	docs, err := findAll[policyholderDoc](ctx, t.db.Collection(collPolicyholders))
	if err != nil {
		return nil, err
	}
	list := make([]domain.Policyholder, 0, len(docs))
	for _, d := range docs {
		list = append(list, d.toDomain())
	}
	return list, nil
}

func (t *tx) GetPolicy(ctx context.Context, id string) (*domain.Policy, error) {
	doc, err := findOne[policyDoc](ctx, t.db.Collection(collPolicies), "policy_id", id)
	if err != nil || doc == nil {
		return nil, err
	}
	p := doc.toDomain()
	return &p, nil
}

func (t *tx) InsertPolicy(ctx context.Context, p domain.Policy) error {
	return insertOne(ctx, t.db.Collection(collPolicies), p.ID, toPolicyDoc(p))
}

func (t *tx) ListPolicies(ctx context.Context) ([]domain.Policy, error) {
	docs, err := findAll[policyDoc](ctx, t.db.Collection(collPolicies))
	if err != nil {
		return nil, err
	}
	list := make([]domain.Policy, 0, len(docs))
	for _, d := range docs {
		list = append(list, d.toDomain())
	}
	return list, nil
}

func (t *tx) GetClaim(ctx context.Context, id string) (*domain.Claim, error) {
	doc, err := findOne[claimDoc](ctx, t.db.Collection(collClaims), "claim_id", id)
	if err != nil || doc == nil {
		return nil, err
	}
	c := doc.toDomain()
	return &c, nil
}

func (t *tx) InsertClaim(ctx context.Context, c domain.Claim) error {
	return insertOne(ctx, t.db.Collection(collClaims), c.ID, toClaimDoc(c))
}

func (t *tx) ListClaims(ctx context.Context) ([]domain.Claim, error) {
	docs, err := findAll[claimDoc](ctx, t.db.Collection(collClaims))
	if err != nil {
		return nil, err
	}
	list := make([]domain.Claim, 0, len(docs))
	for _, d := range docs {
		list = append(list, d.toDomain())
	}
	return list, nil
}

func (t *tx) UpdateClaimStatus(ctx context.Context, id string, status domain.ClaimStatus) error {
	res, err := t.db.Collection(collClaims).UpdateOne(ctx,
		bson.M{"claim_id": id},
		bson.M{"$set": bson.M{"status": string(status)}})
	if err != nil {
		return fmt.Errorf("mongo: update claim status: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("mongo: claim %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

func (t *tx) DeleteClaim(ctx context.Context, id string) error {
	res, err := t.db.Collection(collClaims).DeleteOne(ctx, bson.M{"claim_id": id})
	if err != nil {
		return fmt.Errorf("mongo: delete claim: %w", err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("mongo: claim %s: %w", id, domain.ErrNotFound)
	}
	return nil
}
