package firebasedb

import (
	"context"
	"encoding/json"

	"firebase.google.com/go/db"
)

// Tree is the slice of the Realtime Database API the store needs. Values
// are raw JSON; a missing node reads as "null".
type Tree interface {
	Get(ctx context.Context, path string) ([]byte, error)
	Set(ctx context.Context, path string, doc []byte) error
	Keys(ctx context.Context, path string) ([]string, error)
	// Transaction retries fn on contention. Returning an error aborts it.
	Transaction(ctx context.Context, path string, fn func(current []byte) ([]byte, error)) error
}

// RTDB adapts *db.Client to Tree.
type RTDB struct{ Client *db.Client }

func (r RTDB) Get(ctx context.Context, path string) ([]byte, error) {
	var raw json.RawMessage
	if err := r.Client.NewRef(path).Get(ctx, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

func (r RTDB) Set(ctx context.Context, path string, doc []byte) error {
	return r.Client.NewRef(path).Set(ctx, json.RawMessage(doc))
}

func (r RTDB) Keys(ctx context.Context, path string) ([]string, error) {
	var shallow map[string]interface{}
	if err := r.Client.NewRef(path).GetShallow(ctx, &shallow); err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(shallow))
	for k := range shallow {
		keys = append(keys, k)
	}
	return keys, nil
}

func (r RTDB) Transaction(ctx context.Context, path string, fn func([]byte) ([]byte, error)) error {
	return r.Client.NewRef(path).Transaction(ctx, func(tn db.TransactionNode) (interface{}, error) {
		var raw json.RawMessage
		if err := tn.Unmarshal(&raw); err != nil {
			return nil, err
		}
		next, err := fn(raw)
		if err != nil {
			return nil, err
		}
		return json.RawMessage(next), nil
	})
}
