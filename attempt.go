package dictcache

// attempt is the outcome of the cache path. Exactly one of three states holds:
//   - served: val is the answer (err == nil, cacheErr == nil)
//   - failed: err is a Source failure and is final
//   - unavailable: cacheErr is set; the call must be answered directly by the Source,
//     unless loaded is true, in which case val already came from the Source.
type attempt[T any] struct {
	val      T
	err      error
	cacheErr *CacheError
	loaded   bool
}

func served[T any](v T) attempt[T] { return attempt[T]{val: v} }

func failed[T any](err error) attempt[T] { return attempt[T]{err: err} }

func unavailable[T any](op, key string, err error) attempt[T] {
	return attempt[T]{cacheErr: &CacheError{Op: op, Key: key, Err: err}}
}

// degraded reports a store failure that happened after v was loaded from the Source.
// orElse answers with v and does not query the Source a second time.
func degraded[T any](v T, op, key string, err error) attempt[T] {
	return attempt[T]{val: v, loaded: true, cacheErr: &CacheError{Op: op, Key: key, Err: err}}
}

// orElse resolves a. Cache failures are reported to onDegraded and answered by
// direct; a Source failure from either path propagates unchanged.
func orElse[T any](a attempt[T], direct func() (T, error), onDegraded func(*CacheError)) (T, error) {
	if a.cacheErr == nil {
		return a.val, a.err
	}
	onDegraded(a.cacheErr)
	if a.loaded {
		return a.val, nil
	}
	return direct()
}
