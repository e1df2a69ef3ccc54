package cache

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// Key builds "<prefix><digest>" where digest is the hex xxhash64 of the JSON
// encoding of params. Struct fields marshal in declaration order, so equal
// parameter values always produce the same key.
func Key(prefix string, params any) (string, error) {
	payload, err := json.Marshal(params)
	if err != nil {
		return "", fmt.Errorf("cache: serialise key params: %w", err)
	}
	return prefix + strconv.FormatUint(xxhash.Sum64(payload), 16), nil
}
