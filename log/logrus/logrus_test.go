package logrus

import (
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/unkn0wn-root/dictcache"
)

func TestLogrusLoggerFields(t *testing.T) {
	base, hook := test.NewNullLogger()
	base.SetLevel(logrus.DebugLevel)
	l := New(base)

	boom := errors.New("i/o timeout")
	l.Warn("cache unavailable, querying source directly", dictcache.Fields{"op": "get", "err": boom})

	e := hook.LastEntry()
	if e == nil {
		t.Fatal("no entry")
	}
	if e.Level != logrus.WarnLevel {
		t.Fatalf("level %v", e.Level)
	}
	if e.Data["component"] != "dictcache" || e.Data["op"] != "get" {
		t.Fatalf("data %v", e.Data)
	}
	if e.Data[logrus.ErrorKey] != boom {
		t.Fatalf("error key %v", e.Data)
	}
	if _, ok := e.Data["err"]; ok {
		t.Fatalf("err should be moved to %q", logrus.ErrorKey)
	}
}

func TestLogrusLoggerLevels(t *testing.T) {
	base, hook := test.NewNullLogger()
	base.SetLevel(logrus.DebugLevel)
	l := New(base)

	l.Debug("d", nil)
	l.Info("i", nil)
	l.Error("e", dictcache.Fields{"key": "k"})

	want := []logrus.Level{logrus.DebugLevel, logrus.InfoLevel, logrus.ErrorLevel}
	entries := hook.AllEntries()
	if len(entries) != len(want) {
		t.Fatalf("entries=%d", len(entries))
	}
	for i, lvl := range want {
		if entries[i].Level != lvl {
			t.Fatalf("entry %d level %v want %v", i, entries[i].Level, lvl)
		}
	}
}
