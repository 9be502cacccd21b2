// Package dictcache implements a cache-aside layer in front of relational
// reference data ("dictionary tables").
//
// Two read paths are served:
//   - ConvertByDictionary: single value lookup (table, fromColumn -> toColumn),
//     cached as raw UTF-8 text.
//   - GetCachingDateList: validity intervals matching a set of equality filters,
//     cached as a store-native list of codec-encoded Interval values.
//
// Components:
//   - Provider: key-value store with scalar and list primitives (Redis, Ristretto, BigCache).
//   - Codec[Interval]: (de)serializes Interval <-> []byte. JSON by default.
//   - Source: the authoritative repository (see package repository).
//
// Keys:
//
//	dict#<table>#<fromColumn>#<toColumn>#<value>  - scalar conversions
//	<table>#<col1>#<val1>#<col2>#<val2>...        - filtered lists, columns sorted
//
// Any provider failure is absorbed: the call is answered directly from the
// Source and the degradation is logged. Source failures propagate.
package dictcache
