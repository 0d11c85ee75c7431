package mongostore

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"tour-booking-api/internal/domain"
)

func TestTranslate(t *testing.T) {
	assert.NoError(t, translate(nil))
	assert.ErrorIs(t, translate(fmt.Errorf("find: %w", mongo.ErrNoDocuments)), domain.ErrNotFound)

	dup := mongo.WriteException{WriteErrors: []mongo.WriteError{{Code: 11000, Message: "E11000 duplicate key error"}}}
	assert.ErrorIs(t, translate(dup), domain.ErrDuplicate)
}

func TestMatchedAndDeleted(t *testing.T) {
	assert.ErrorIs(t, matched(&mongo.UpdateResult{MatchedCount: 0}, nil), domain.ErrNotFound)
	assert.NoError(t, matched(&mongo.UpdateResult{MatchedCount: 1, ModifiedCount: 0}, nil))
	assert.ErrorIs(t, deleted(&mongo.DeleteResult{DeletedCount: 0}, nil), domain.ErrNotFound)
}

func TestPageOpts(t *testing.T) {
	o := pageOpts(-1, 0)
	assert.Equal(t, int64(0), *o.Skip)
	assert.Equal(t, int64(defaultLimit), *o.Limit)
	assert.Equal(t, int64(maxLimit), *pageOpts(0, 1e6).Limit)
}

func TestVisibleHidesSecretTours(t *testing.T) {
	f := visible(bson.M{"_id": "x"})
	assert.Equal(t, bson.M{"$ne": true}, f["secret"])
}

func TestUserRegexIsQuoted(t *testing.T) {
	re := ciRegex("a.b+")
	assert.Equal(t, `a\.b\+`, re["$regex"])
}
