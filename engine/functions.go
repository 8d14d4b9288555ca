package engine

import (
	"database/sql"
	"database/sql/driver"
	"fmt"
	"sync"

	sqlite "modernc.org/sqlite"
)

var (
	registerOnce sync.Once
	registerErr  error
)

// RegisterVectorFunctions makes the image-vector SQL functions available on
// connections opened after the call:
//
//	vec_dim(a)  INT  number of float32 values in a BLOB, -1 when torn
//
// NULL arguments yield NULL. Open calls it; repeated calls are no-ops.
func RegisterVectorFunctions(_ *sql.DB) error {
	registerOnce.Do(func() {
		if err := sqlite.RegisterDeterministicScalarFunction("vec_dim", 1, vecDim); err != nil {
			registerErr = fmt.Errorf("engine: register vec_dim: %w", err)
		}
	})
	return registerErr
}

func vecDim(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("vec_dim: expected 1 argument, got %d", len(args))
	}
	switch v := args[0].(type) {
	case nil:
		return nil, nil
	case []byte:
		if len(v)%4 != 0 {
			return int64(-1), nil
		}
		return int64(len(v) / 4), nil
	}
	return nil, fmt.Errorf("vec_dim: unsupported argument type %T; want BLOB", args[0])
}
