package limiter

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

/************ fake pgx ************/
type fakeRow struct{ scan func(dest ...any) error }

func (r fakeRow) Scan(dest ...any) error { return r.scan(dest...) }

type fakePool struct {
	qrErr     error
	qrCount   int
	qrStarted time.Time

	lastExecSQL string
	execErr     error
}

func (f *fakePool) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.lastExecSQL = sql
	return pgconn.CommandTag{}, f.execErr
}

func (f *fakePool) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	switch {
	case contains(sql, "SELECT attempt_count"):
		return fakeRow{scan: func(dest ...any) error {
			if f.qrErr != nil {
				return f.qrErr
			}
			*(dest[0].(*int)) = f.qrCount
			*(dest[1].(*time.Time)) = f.qrStarted
			return nil
		}}
	default:
		return fakeRow{scan: func(dest ...any) error { return errors.New("unexpected query") }}
	}
}

func contains(s, sub string) bool {
	return len(s) >= len(sub) && (func() bool { return (stringIndex(s, sub) >= 0) })()
}
func stringIndex(s, sub string) int {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return i
		}
	}
	return -1
}

func TestAllow_NoRow_Allows(t *testing.T) {
	fp := &fakePool{qrErr: pgx.ErrNoRows}
	l := NewPGWithQuerier(fp, time.Hour, 5)

	ok, dur, err := l.Allow(context.Background(), "prj", []byte("h"))
	if err != nil || !ok || dur != 0 {
		t.Fatalf("Allow no-row: ok=%v dur=%v err=%v", ok, dur, err)
	}
}

func TestAllow_UnderLimit_Allows(t *testing.T) {
	fp := &fakePool{qrCount: 2, qrStarted: time.Now().Add(-time.Minute)}
	l := NewPGWithQuerier(fp, time.Hour, 5)

	ok, dur, err := l.Allow(context.Background(), "prj", []byte("h"))
	if err != nil || !ok || dur != 0 {
		t.Fatalf("Allow under limit: ok=%v dur=%v err=%v", ok, dur, err)
	}
}

func TestAllow_AtLimit_Blocks(t *testing.T) {
	fp := &fakePool{qrCount: 5, qrStarted: time.Now().Add(-time.Minute)}
	l := NewPGWithQuerier(fp, time.Hour, 5)

	ok, dur, err := l.Allow(context.Background(), "prj", []byte("h"))
	if err != nil || ok || dur <= 0 {
		t.Fatalf("Allow at limit: ok=%v dur=%v err=%v", ok, dur, err)
	}
}

func TestAllow_WindowLapsed_Allows(t *testing.T) {
	fp := &fakePool{qrCount: 99, qrStarted: time.Now().Add(-2 * time.Hour)}
	l := NewPGWithQuerier(fp, time.Hour, 5)

	ok, dur, err := l.Allow(context.Background(), "prj", []byte("h"))
	if err != nil || !ok || dur != 0 {
		t.Fatalf("Allow lapsed window: ok=%v dur=%v err=%v", ok, dur, err)
	}
}

func TestAllow_DBError_Propagates(t *testing.T) {
	fp := &fakePool{qrErr: errors.New("db boom")}
	l := NewPGWithQuerier(fp, time.Hour, 5)

	ok, _, err := l.Allow(context.Background(), "prj", []byte("h"))
	if err == nil || ok {
		t.Fatalf("want error propagate, got ok=%v err=%v", ok, err)
	}
}

func TestRecord_OK(t *testing.T) {
	fp := &fakePool{}
	l := NewPGWithQuerier(fp, time.Hour, 5)

	if err := l.Record(context.Background(), "prj", []byte("h")); err != nil {
		t.Fatalf("record err: %v", err)
	}
	if !contains(fp.lastExecSQL, "INSERT INTO registration_limiter") {
		t.Fatalf("unexpected exec: %s", fp.lastExecSQL)
	}
}

func TestRecord_ExecError_Propagates(t *testing.T) {
	fp := &fakePool{execErr: errors.New("exec fail")}
	l := NewPGWithQuerier(fp, time.Hour, 5)

	if err := l.Record(context.Background(), "prj", []byte("h")); err == nil {
		t.Fatalf("want exec error")
	}
}

func TestHashIP_Determinism(t *testing.T) {
	a := HashIP("1.2.3.4:123")
	b := HashIP("1.2.3.4:123")
	c := HashIP("5.6.7.8:321")
	if string(a) != string(b) || string(a) == string(c) || len(a) != 32 {
		t.Fatalf("hash mismatch/len: %d", len(a))
	}
}
