package storage

import (
	"context"
	"errors"
	"fmt"

	"git.fiblab.net/general/common/v2/mongoutil"
	"github.com/tsinghua-fib-lab/dynlight-sim/entity"
	"github.com/tsinghua-fib-lab/dynlight-sim/utils/config"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore MongoDB结果集合
// 功能：每次运行插入一条文档，读取时按策略取最近一条
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// NewMongoStore 按output.uri/db/col连接MongoDB
func NewMongoStore(conf config.Output) *MongoStore {
	client := mongoutil.NewClient(conf.URI)
	return &MongoStore{
		client: client,
		coll:   client.Database(conf.DB).Collection(conf.Col),
	}
}

func (s *MongoStore) RecordResult(ctx context.Context, r Result) error {
	if _, err := s.coll.InsertOne(ctx, r); err != nil {
		return fmt.Errorf("insert %s result: %w", r.Strategy, err)
	}
	log.Infof("%s result %v inserted into %s.%s", r.Strategy, r.RunID, s.coll.Database().Name(), s.coll.Name())
	return nil
}

func (s *MongoStore) Get(ctx context.Context, strategy string) (Result, error) {
	var r Result
	opts := options.FindOne().SetSort(bson.D{{Key: "recorded_at", Value: -1}})
	err := s.coll.FindOne(ctx, bson.M{"strategy": strategy}, opts).Decode(&r)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Result{}, fmt.Errorf("%w: %s", ErrNoData, strategy)
	}
	if err != nil {
		return Result{}, fmt.Errorf("find %s result: %w", strategy, err)
	}
	return r, nil
}

func (s *MongoStore) All(ctx context.Context) (map[string]Result, error) {
	res := make(map[string]Result)
	for _, strategy := range entity.Strategies {
		name := strategy.String()
		r, err := s.Get(ctx, name)
		if errors.Is(err, ErrNoData) {
			continue
		}
		if err != nil {
			return nil, err
		}
		res[name] = r
	}
	return res, nil
}

// Close 断开连接
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
