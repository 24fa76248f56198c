package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// JSONField wraps an arbitrary struct so it can be stored as a single JSON
// column. Postgres gets a jsonb column, other dialects plain json text.
type JSONField[T any] struct {
	Data T
}

func MakeJSONField[T any](data T) *JSONField[T] {
	return &JSONField[T]{Data: data}
}

func (f JSONField[T]) Value() (driver.Value, error) {
	return json.Marshal(f.Data)
}

func (f *JSONField[T]) Scan(value interface{}) error {
	var data []byte
	switch v := value.(type) {
	case nil:
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type %T for JSONField", value)
	}
	return json.Unmarshal(data, &f.Data)
}

func (f JSONField[T]) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.Data)
}

func (f *JSONField[T]) UnmarshalJSON(data []byte) error {
	return json.Unmarshal(data, &f.Data)
}

func (JSONField[T]) GormDataType() string {
	return "json"
}

func (JSONField[T]) GormDBDataType(db *gorm.DB, field *schema.Field) string {
	if db.Dialector.Name() == "postgres" {
		return "jsonb"
	}
	return "json"
}

// JSONMap is a map stored as a single JSON column.
type JSONMap[K comparable, V any] map[K]V

func (m JSONMap[K, V]) Value() (driver.Value, error) {
	return json.Marshal(m)
}

func (m *JSONMap[K, V]) Scan(value interface{}) error {
	var data []byte
	switch v := value.(type) {
	case nil:
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type %T for JSONMap", value)
	}
	return json.Unmarshal(data, m)
}

func (JSONMap[K, V]) GormDataType() string {
	return "json"
}

func (JSONMap[K, V]) GormDBDataType(db *gorm.DB, field *schema.Field) string {
	if db.Dialector.Name() == "postgres" {
		return "jsonb"
	}
	return "json"
}
