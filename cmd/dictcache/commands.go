package main

import (
	"context"
	"encoding/hex"
	"flag"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/unkn0wn-root/dictcache"
	c "github.com/unkn0wn-root/dictcache/codec"
)

const dateLayout = "2006-01-02"

func convert(ctx context.Context, svc dictcache.Service, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("convert", flag.ContinueOnError)
	table := fs.String("table", "", "dictionary table")
	from := fs.String("from", "", "column holding the value")
	to := fs.String("to", "", "column to return")
	value := fs.String("value", "", "value to convert")
	date := fs.String("date", "", "as-of date (YYYY-MM-DD); default today")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *table == "" || *from == "" || *to == "" {
		return fmt.Errorf("%w: convert needs -table, -from and -to", errUsage)
	}

	asOf := time.Now()
	if *date != "" {
		t, err := time.Parse(dateLayout, *date)
		if err != nil {
			return fmt.Errorf("bad -date: %w", err)
		}
		asOf = t
	}

	v, err := svc.ConvertByDictionary(ctx, *table, *from, *to, *value, asOf)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, v)
	return err
}

// filterFlags collects repeated -filter col=val pairs.
type filterFlags dictcache.Filters

func (f filterFlags) String() string { return fmt.Sprint(dictcache.Filters(f)) }

func (f filterFlags) Set(s string) error {
	col, val, ok := strings.Cut(s, "=")
	if !ok || col == "" {
		return fmt.Errorf("filter %q: want col=val", s)
	}
	f[col] = val
	return nil
}

func dates(ctx context.Context, svc dictcache.Service, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("dates", flag.ContinueOnError)
	table := fs.String("table", "", "table holding the validity columns")
	filters := filterFlags{}
	fs.Var(filters, "filter", "col=val equality filter (repeatable)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *table == "" {
		return fmt.Errorf("%w: dates needs -table", errUsage)
	}

	list, err := svc.GetCachingDateList(ctx, *table, dictcache.Filters(filters))
	if err != nil {
		return err
	}
	for _, r := range list {
		if _, err := fmt.Fprintf(out, "%s\t%s\n", r.ValidFrom, r.ValidTo); err != nil {
			return err
		}
	}
	return nil
}

// demo round-trips four sample intervals through codec and prints the values,
// their encoded form and the decoded values.
func demo(out io.Writer, codec c.Codec[dictcache.Interval]) error {
	in := make([]dictcache.Interval, 0, 4)
	for i := 1; i <= 4; i++ {
		in = append(in, dictcache.Interval{
			ValidFrom: fmt.Sprintf("param%d", i),
			ValidTo:   fmt.Sprintf("value%d", i),
		})
	}

	payloads := make([][]byte, 0, len(in))
	for _, r := range in {
		b, err := codec.Encode(r)
		if err != nil {
			return fmt.Errorf("encode %+v: %w", r, err)
		}
		payloads = append(payloads, b)
	}
	decoded := make([]dictcache.Interval, 0, len(payloads))
	for _, b := range payloads {
		r, err := codec.Decode(b)
		if err != nil {
			return fmt.Errorf("decode %x: %w", b, err)
		}
		decoded = append(decoded, r)
	}

	fmt.Fprintln(out, in)
	fmt.Fprintln(out, "=========")
	for _, b := range payloads {
		fmt.Fprintln(out, printable(b))
	}
	fmt.Fprintln(out, "=========")
	_, err := fmt.Fprintln(out, decoded)
	return err
}

func printable(b []byte) string {
	if utf8.Valid(b) && !strings.ContainsFunc(string(b), func(r rune) bool { return r < 0x20 }) {
		return string(b)
	}
	return hex.EncodeToString(b)
}
