// Package mongostore 是 domain 仓储接口的 MongoDB 实现（db.driver=mongo）
package mongostore

import (
	"errors"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"tour-booking-api/internal/domain"
)

const (
	defaultLimit = 100
	maxLimit     = 1000
)

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return domain.ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return domain.ErrDuplicate
	}
	return err
}

func matched(res *mongo.UpdateResult, err error) error {
	if err != nil {
		return translate(err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func deleted(res *mongo.DeleteResult, err error) error {
	if err != nil {
		return translate(err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func pageOpts(offset, limit int) *options.FindOptions {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return options.Find().SetSkip(int64(offset)).SetLimit(int64(limit))
}
