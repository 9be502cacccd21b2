package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unkn0wn-root/dictcache"
	c "github.com/unkn0wn-root/dictcache/codec"
	"github.com/unkn0wn-root/dictcache/codec/intervalpb"
	"github.com/unkn0wn-root/dictcache/config"
	pr "github.com/unkn0wn-root/dictcache/provider"
	redisprovider "github.com/unkn0wn-root/dictcache/provider/redis"
	"github.com/unkn0wn-root/dictcache/repository"
)

func newStack(t *testing.T) (dictcache.Service, sqlmock.Sqlmock, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr(), MaxRetries: -1})
	store, err := redisprovider.New(redisprovider.Config{Client: rdb, CloseClient: true})
	require.NoError(t, err)

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	svc, err := dictcache.New(dictcache.Options{
		Store:  store,
		Source: repository.New(sqlx.NewDb(db, "sqlmock"), repository.Options{}),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = svc.Close(context.Background()) })
	return svc, mock, mr
}

func TestConvertCommandCachesResult(t *testing.T) {
	svc, mock, mr := newStack(t)
	ctx := context.Background()

	mock.ExpectQuery(`SELECT "name" FROM "currency" WHERE "code" = $1 LIMIT 1`).
		WithArgs("USD").
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("US Dollar"))

	args := []string{"-table", "currency", "-from", "code", "-to", "name", "-value", "USD", "-date", "2024-03-01"}
	for i := 0; i < 2; i++ {
		var out bytes.Buffer
		require.NoError(t, convert(ctx, svc, args, &out))
		assert.Equal(t, "US Dollar\n", out.String())
	}
	require.NoError(t, mock.ExpectationsWereMet())

	got, err := mr.Get("dict#currency#code#name#USD")
	require.NoError(t, err)
	assert.Equal(t, "US Dollar", got)
	assert.Greater(t, mr.TTL("dict#currency#code#name#USD").Seconds(), 0.0)
}

func TestConvertCommandValidation(t *testing.T) {
	svc, _, _ := newStack(t)
	ctx := context.Background()

	err := convert(ctx, svc, []string{"-table", "currency"}, &bytes.Buffer{})
	assert.ErrorIs(t, err, errUsage)

	err = convert(ctx, svc, []string{"-table", "t", "-from", "a", "-to", "b", "-date", "01/03/2024"}, &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad -date")
}

func TestDatesCommand(t *testing.T) {
	svc, mock, mr := newStack(t)
	ctx := context.Background()

	mock.ExpectQuery(`SELECT to_char("tech_date_from", 'YYYY-MM-DD') AS date_from, ` +
		`to_char("tech_date_to", 'YYYY-MM-DD') AS date_to FROM "fx_rate" WHERE "currency" = $1`).
		WithArgs("EUR").
		WillReturnRows(sqlmock.NewRows([]string{"date_from", "date_to"}).
			AddRow("2020-01-01", "2020-12-31").
			AddRow("2021-01-01", "2021-12-31"))

	args := []string{"-table", "fx_rate", "-filter", "currency=EUR"}
	want := "2020-01-01\t2020-12-31\n2021-01-01\t2021-12-31\n"
	for i := 0; i < 2; i++ {
		var out bytes.Buffer
		require.NoError(t, dates(ctx, svc, args, &out))
		assert.Equal(t, want, out.String())
	}
	require.NoError(t, mock.ExpectationsWereMet())

	list, err := mr.List("fx_rate#currency#EUR")
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestDatesCommandNeedsFilters(t *testing.T) {
	svc, _, _ := newStack(t)
	err := dates(context.Background(), svc, []string{"-table", "fx_rate"}, &bytes.Buffer{})
	assert.ErrorIs(t, err, dictcache.ErrEmptyFilterSet)

	err = dates(context.Background(), svc, []string{"-table", "fx_rate", "-filter", "currency"}, &bytes.Buffer{})
	require.Error(t, err)
}

func TestDemoJSON(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, demo(&out, c.JSON[dictcache.Interval]{}))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 8)
	values := "[{param1 value1} {param2 value2} {param3 value3} {param4 value4}]"
	assert.Equal(t, values, lines[0])
	assert.Equal(t, "=========", lines[1])
	assert.Equal(t, `{"validFrom":"param1","validTo":"value1"}`, lines[2])
	assert.Equal(t, `{"validFrom":"param4","validTo":"value4"}`, lines[5])
	assert.Equal(t, "=========", lines[6])
	assert.Equal(t, values, lines[7])
}

func TestDemoBinaryCodecs(t *testing.T) {
	for name, codec := range map[string]c.Codec[dictcache.Interval]{
		"cbor":     c.MustCBOR[dictcache.Interval](),
		"msgpack":  c.Msgpack[dictcache.Interval]{},
		"protobuf": intervalpb.Codec{},
	} {
		t.Run(name, func(t *testing.T) {
			var out bytes.Buffer
			require.NoError(t, demo(&out, codec))
			lines := strings.Split(strings.TrimSpace(out.String()), "\n")
			require.Len(t, lines, 8)
			assert.Equal(t, lines[0], lines[7])
			assert.NotContains(t, lines[2], "{")
		})
	}
}

func TestBuildCodec(t *testing.T) {
	for _, name := range []string{"json", "cbor", "msgpack", "protobuf"} {
		codec, err := buildCodec(config.Cache{Codec: name})
		require.NoError(t, err, name)
		r := dictcache.Interval{ValidFrom: "2020-01-01", ValidTo: "2020-12-31"}
		b, err := codec.Encode(r)
		require.NoError(t, err, name)
		back, err := codec.Decode(b)
		require.NoError(t, err, name)
		assert.Equal(t, r, back, name)
	}

	codec, err := buildCodec(config.Cache{Codec: "json", MaxPayload: 8})
	require.NoError(t, err)
	_, isLimit := codec.(c.Limited[dictcache.Interval])
	assert.True(t, isLimit)
	_, err = codec.Decode([]byte(`{"validFrom":"2020-01-01"}`))
	assert.ErrorIs(t, err, c.ErrTooLarge)

	_, err = buildCodec(config.Cache{Codec: "xml"})
	assert.Error(t, err)
}

func TestBuildLogger(t *testing.T) {
	for _, format := range []string{"zap", "logrus", "slog"} {
		log, flush, err := buildLogger(config.Log{Level: "warn", Format: format})
		require.NoError(t, err, format)
		log.Debug("hidden", nil)
		flush()
	}
	_, _, err := buildLogger(config.Log{Level: "loud", Format: "zap"})
	assert.Error(t, err)
	_, _, err = buildLogger(config.Log{Level: "info", Format: "glog"})
	assert.Error(t, err)
}

func TestBuildStoreInProcess(t *testing.T) {
	for _, provider := range []string{"ristretto", "bigcache"} {
		cfg := &config.Config{
			Redis: config.Redis{RecordDeleteTime: 60},
			Cache: config.Cache{Provider: provider, MaxSizeMB: 1},
		}
		store, err := buildStore(cfg)
		require.NoError(t, err, provider)

		ctx := context.Background()
		require.NoError(t, store.SetScalar(ctx, "k", []byte("v")), provider)
		ok, err := store.Exists(ctx, "k")
		require.NoError(t, err, provider)
		assert.True(t, ok, provider)
		require.NoError(t, store.Close(ctx))
	}
}

func TestBuildHooks(t *testing.T) {
	h, err := buildHooks(config.Log{Format: "zap"}, prometheus.NewRegistry())
	require.NoError(t, err)
	_, isFanout := h.(fanout)
	assert.False(t, isFanout)

	h, err = buildHooks(config.Log{Format: "slog"}, prometheus.NewRegistry())
	require.NoError(t, err)
	f, isFanout := h.(fanout)
	require.True(t, isFanout)
	assert.Len(t, f, 2)
	f.CacheDegraded("k", "exists", errors.New("down"))
}

func TestRunUsage(t *testing.T) {
	ctx := context.Background()
	assert.ErrorIs(t, run(ctx, nil, &bytes.Buffer{}), errUsage)
	assert.ErrorIs(t, run(ctx, []string{"bogus"}, &bytes.Buffer{}), errUsage)

	var out bytes.Buffer
	require.NoError(t, run(ctx, []string{"demo"}, &out))
	assert.Contains(t, out.String(), `{"validFrom":"param1","validTo":"value1"}`)
}

type closeRecorder struct {
	pr.Provider
	closed int
}

func (s *closeRecorder) Close(ctx context.Context) error {
	s.closed++
	return s.Provider.Close(ctx)
}

func stubStore(t *testing.T) *closeRecorder {
	t.Helper()
	inner, err := buildStore(&config.Config{
		Redis: config.Redis{RecordDeleteTime: 60},
		Cache: config.Cache{Provider: "ristretto", MaxSizeMB: 1},
	})
	require.NoError(t, err)
	rec := &closeRecorder{Provider: inner}
	prev := openStore
	openStore = func(*config.Config) (pr.Provider, error) { return rec, nil }
	t.Cleanup(func() { openStore = prev })
	return rec
}

func bootstrapConfig() *config.Config {
	return &config.Config{
		Redis:    config.Redis{RecordDeleteTime: 60},
		Database: config.Database{DSN: "postgres://app@127.0.0.1:1/dict?sslmode=disable&connect_timeout=1"},
		Cache:    config.Cache{Provider: "ristretto", Codec: "json", MaxSizeMB: 1},
		Log:      config.Log{Level: "error", Format: "logrus"},
	}
}

func TestBootstrapClosesStoreWhenHooksFail(t *testing.T) {
	store := stubStore(t)
	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewGauge(prometheus.GaugeOpts{Name: "dictcache_hits_total", Help: "taken"}))

	app, err := bootstrap(context.Background(), bootstrapConfig(), reg)
	require.Error(t, err)
	assert.Nil(t, app)
	assert.Equal(t, 1, store.closed)
}

func TestBootstrapClosesStoreWhenDatabaseFails(t *testing.T) {
	store := stubStore(t)

	app, err := bootstrap(context.Background(), bootstrapConfig(), prometheus.NewRegistry())
	require.Error(t, err)
	assert.Nil(t, app)
	assert.Equal(t, 1, store.closed)
}

func TestBuildTracer(t *testing.T) {
	tp, err := buildTracer(config.Trace{})
	require.NoError(t, err)
	assert.Nil(t, tp)

	tp, err = buildTracer(config.Trace{Enabled: true})
	require.NoError(t, err)
	require.NotNil(t, tp)
	require.NoError(t, tp.Shutdown(context.Background()))
}
