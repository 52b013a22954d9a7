/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package feed

// Dedupe removes duplicate entries by extracted key, keeping the first
// occurrence and preserving input order. Entries whose key extracts to the
// empty string are dropped entirely; they cannot be deduplicated safely.
func Dedupe[T any](items []T, key func(T) string) []T {
	seen := make(map[string]struct{}, len(items))
	out := make([]T, 0, len(items))
	for _, item := range items {
		k := key(item)
		if k == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, item)
	}
	return out
}

// RawItemKey keys a raw upstream item by its content hash.
func RawItemKey(item RawItem) string {
	return item.VideoHash
}

// VideoKey keys a canonical record by hash, falling back to id and txid.
func VideoKey(v Video) string {
	if v.Hash != "" {
		return v.Hash
	}
	if v.ID != "" {
		return v.ID
	}
	return v.TxID
}
