package mongo

import (
	"errors"

	"go.mongodb.org/mongo-driver/mongo"
)

const writeConflictCode = 112

// isWriteConflict reports a transaction write conflict, which mongo raises
// when two sessions modify the same document.
func isWriteConflict(err error) bool {
	var labeled mongo.LabeledError
	if errors.As(err, &labeled) && labeled.HasErrorLabel("TransientTransactionError") {
		return true
	}
	var server mongo.ServerError
	return errors.As(err, &server) && server.HasErrorCode(writeConflictCode)
}
