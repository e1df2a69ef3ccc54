package cache

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// Encode serialises a cache value with msgpack.
func Encode(value any) ([]byte, error) {
	data, err := msgpack.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("cache: encode value: %w", err)
	}
	return data, nil
}

// Decode reverses Encode into target.
func Decode(data []byte, target any) error {
	if err := msgpack.Unmarshal(data, target); err != nil {
		return fmt.Errorf("cache: decode value: %w", err)
	}
	return nil
}
