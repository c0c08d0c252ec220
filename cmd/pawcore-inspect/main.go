// Copyright (c) 2025 PawHaven
// SPDX-License-Identifier: MIT

// pawcore-inspect dumps persisted transaction records from a pawcore
// store for support and debugging.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/pawhaven/pawcore/internal/store"
	"github.com/pawhaven/pawcore/internal/txn"
)

func main() {
	path := flag.String("path", "/var/lib/pawcore", "badger data directory")
	id := flag.String("id", "", "dump a single transaction id instead of all records")
	flag.Parse()

	if err := run(*path, *id); err != nil {
		fmt.Fprintf(os.Stderr, "pawcore-inspect: %v\n", err)
		os.Exit(1)
	}
}

func run(path, id string) error {
	kv, err := store.OpenBadger(path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() { _ = kv.Close() }()

	ctx := context.Background()

	if id != "" {
		return dump(ctx, kv, txn.RecordKey(id))
	}

	keys, err := kv.Keys(ctx, txn.KeyPrefix)
	if err != nil {
		return fmt.Errorf("list records: %w", err)
	}
	if len(keys) == 0 {
		fmt.Println("no transaction records")
		return nil
	}
	for _, key := range keys {
		if err := dump(ctx, kv, key); err != nil {
			return err
		}
	}
	return nil
}

func dump(ctx context.Context, kv store.KV, key string) error {
	raw, err := kv.Get(ctx, key)
	if err != nil {
		return fmt.Errorf("read %s: %w", key, err)
	}
	var pretty json.RawMessage = raw
	out, err := json.MarshalIndent(pretty, "", "  ")
	if err != nil {
		return err
	}
	fmt.Printf("%s\n%s\n", key, out)
	return nil
}
