package dictcache

// Kind of cached entry.
const (
	KindScalar = "scalar"
	KindList   = "list"
)

// Hooks are callbacks for cache events.
// Implementations MUST be cheap and non-blocking; they run on the request path.
type Hooks interface {
	// Key was found in the store and decoded.
	CacheHit(key, kind string)

	// Key was absent; the Source was queried and a non-empty result stored.
	CacheMiss(key, kind string)

	// A provider primitive (or decoding a cached entry) failed and the call
	// was answered directly from the Source.
	// op ∈ {"exists", "get", "set", "append", "range", "expire", "decode", "encode"}
	CacheDegraded(key, op string, err error)

	// A miss was served by a Source call already in flight for the same key (Dedup).
	LoadShared(key string)
}

// NopHooks is the default no-op
type NopHooks struct{}

func (NopHooks) CacheHit(string, string)             {}
func (NopHooks) CacheMiss(string, string)            {}
func (NopHooks) CacheDegraded(string, string, error) {}
func (NopHooks) LoadShared(string)                   {}
