package storage

import "fmt"

const (
	KindMemory = "memory"
	KindSQLite = "sqlite"
)

func DefaultStoreKind() string {
	return KindSQLite
}

func NewStore(kind, sqlitePath string) (Store, error) {
	switch kind {
	case "", KindMemory:
		return NewMemoryStore(), nil
	case KindSQLite:
		if sqlitePath == "" {
			return nil, fmt.Errorf("sqlite backend requires a database path")
		}
		return NewSQLiteStore(sqlitePath), nil
	default:
		return nil, fmt.Errorf("unsupported store backend: %s", kind)
	}
}

func CloseIfSupported(store Store) error {
	closer, ok := store.(interface{ Close() error })
	if !ok {
		return nil
	}
	return closer.Close()
}
