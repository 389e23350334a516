// internal/app/system/txn/txn.go
// Package txn runs multi-step MongoDB writes in a transaction when the
// deployment supports one.
//
// Standalone servers and some DocumentDB clusters reject transactions. On
// those, Run executes the same function without a session so callers get
// best-effort atomicity on every deployment.
package txn

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Func receives either a mongo.SessionContext (inside a transaction) or the
// caller's context. All database calls in it must use that context.
type Func func(ctx context.Context) error

// Run executes fn in a transaction on db's client, falling back to a plain
// call when sessions or transactions are unavailable. log may be nil.
func Run(ctx context.Context, db *mongo.Database, log *zap.Logger, fn Func) error {
	if log == nil {
		log = zap.NewNop()
	}

	session, err := db.Client().StartSession()
	if err != nil {
		log.Warn("failed to start session, running without transaction", zap.Error(err))
		return fn(ctx)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (any, error) {
		return nil, fn(sc)
	})
	if err != nil && IsNotSupported(err) {
		log.Warn("transactions not supported, running without transaction", zap.Error(err))
		return fn(ctx)
	}
	return err
}

// notSupportedCodes are server codes for "no transactions here":
// 20 IllegalOperation on standalone, 51 and 263 on restricted deployments.
var notSupportedCodes = map[int32]bool{20: true, 51: true, 263: true}

var notSupportedKeywords = []string{
	"transaction",
	"replica set",
	"session",
	"not supported",
	"illegal operation",
}

// IsNotSupported reports whether err means the deployment cannot run
// multi-document transactions. Message matching needs two keywords so an
// ordinary write error inside the transaction is not mistaken for one.
func IsNotSupported(err error) bool {
	if err == nil {
		return false
	}

	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) && notSupportedCodes[cmdErr.Code] {
		return true
	}

	msg := strings.ToLower(err.Error())
	matches := 0
	for _, kw := range notSupportedKeywords {
		if strings.Contains(msg, kw) {
			matches++
		}
	}
	return matches >= 2
}
