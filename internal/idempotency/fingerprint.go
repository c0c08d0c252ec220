// Copyright (c) 2025 PawHaven
// SPDX-License-Identifier: MIT

package idempotency

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strconv"
)

// Fingerprint derives a deterministic key from an operation name and its
// parameters. Parameter key order never changes the result: maps are
// serialized with sorted keys, recursively.
func Fingerprint(operation string, params map[string]any) string {
	h := sha256.New()
	h.Write([]byte(operation))
	h.Write([]byte{0})
	h.Write([]byte(canonicalize(params)))
	return hex.EncodeToString(h.Sum(nil))
}

// canonicalize renders a value into a stable textual form. It is not
// JSON: it only needs to be deterministic and collision-resistant for
// the parameter shapes callers pass (strings, numbers, bools, nested
// maps and slices).
func canonicalize(v any) string {
	switch val := v.(type) {
	case nil:
		return "null"
	case string:
		return strconv.Quote(val)
	case bool:
		return strconv.FormatBool(val)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'g', -1, 64)
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := "{"
		for i, k := range keys {
			if i > 0 {
				out += ","
			}
			out += strconv.Quote(k) + ":" + canonicalize(val[k])
		}
		return out + "}"
	case []any:
		out := "["
		for i, item := range val {
			if i > 0 {
				out += ","
			}
			out += canonicalize(item)
		}
		return out + "]"
	default:
		return fmt.Sprintf("%#v", val)
	}
}
