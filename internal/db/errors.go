package db

import (
	"errors"

	"github.com/uptrace/bun/driver/pgdriver"
	"go.mongodb.org/mongo-driver/mongo"
)

const pgUniqueViolation = "23505"

// IsDuplicateKey reports whether err is a unique constraint violation from
// either store.
func IsDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	var pgErr pgdriver.Error
	if errors.As(err, &pgErr) {
		return pgErr.Field('C') == pgUniqueViolation
	}
	return mongo.IsDuplicateKeyError(err)
}
