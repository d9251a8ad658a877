package clickhouse

import (
	"net/url"
	"testing"
	"time"
)

func TestBuildDSN(t *testing.T) {
	dsn := buildDSN(ClientConfig{
		Host:        "ch",
		Port:        9000,
		Database:    "market",
		User:        "reader",
		Password:    "p@ss",
		DialTimeout: 5 * time.Second,
		MaxExecTime: 30 * time.Second,
		ReadOnly:    true,
	})
	u, err := url.Parse(dsn)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if u.Scheme != "clickhouse" || u.Host != "ch:9000" || u.Path != "/market" {
		t.Fatalf("unexpected dsn %s", dsn)
	}
	if pw, _ := u.User.Password(); pw != "p@ss" {
		t.Fatalf("password not preserved: %s", dsn)
	}
	q := u.Query()
	if q.Get("max_execution_time") != "30" || q.Get("readonly") != "2" || q.Get("dial_timeout") != "5s" {
		t.Fatalf("unexpected params %v", q)
	}
}

func TestBuildDSNHTTP(t *testing.T) {
	dsn := buildDSN(ClientConfig{Host: "ch", Port: 8123, Database: "default", UseHTTP: true})
	if u, _ := url.Parse(dsn); u.Scheme != "http" {
		t.Fatalf("expected http scheme, got %s", dsn)
	}
}

func TestDeref(t *testing.T) {
	s := "x"
	ps := &s
	if deref(&ps) != "x" {
		t.Fatalf("double pointer not dereferenced")
	}
	var nilp *string
	if deref(&nilp) != nil {
		t.Fatalf("nil nullable should be nil")
	}
}
