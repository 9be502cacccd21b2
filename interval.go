package dictcache

// Interval is a validity window of a dictionary row.
// Dates are kept as "yyyy-MM-dd" text and never parsed by the cache layer.
type Interval struct {
	ValidFrom string `json:"validFrom" cbor:"validFrom" msgpack:"validFrom"`
	ValidTo   string `json:"validTo" cbor:"validTo" msgpack:"validTo"`
}

// Filters maps column names to equality values. All entries are AND-ed.
type Filters map[string]any
