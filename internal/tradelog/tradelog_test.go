package tradelog

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestAppend(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("BACKTEST_LOG_DIR", dir)

	err := Append(Entry{
		MatchedAt:  "2021-01-04",
		Symbol:     "AAA",
		Side:       "BUY",
		Volume:     900,
		Price:      1.1,
		Commission: 0,
		CashAfter:  9010,
	})
	if err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(dir, time.Now().Format("2006-01-02")+".txt")
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	var got Entry
	if err := json.Unmarshal([]byte(strings.TrimSpace(string(b))), &got); err != nil {
		t.Fatal(err)
	}
	if got.Symbol != "AAA" || got.Side != "BUY" || got.Volume != 900 || got.CashAfter != 9010 {
		t.Errorf("entry round trip: %+v", got)
	}
	if got.Time == "" {
		t.Error("entry time should be stamped")
	}
}

func TestCompressOlder(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("BACKTEST_LOG_DIR", dir)

	old := filepath.Join(dir, "2020-01-01.txt")
	if err := os.WriteFile(old, []byte("{}\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	past := time.Now().AddDate(0, 0, -10)
	if err := os.Chtimes(old, past, past); err != nil {
		t.Fatal(err)
	}

	fresh := filepath.Join(dir, time.Now().Format("2006-01-02")+".txt")
	if err := os.WriteFile(fresh, []byte("{}\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := CompressOlder(7); err != nil {
		t.Fatal(err)
	}

	if _, err := os.Stat(old + ".gz"); err != nil {
		t.Errorf("old file not compressed: %v", err)
	}
	if _, err := os.Stat(old); !os.IsNotExist(err) {
		t.Error("old plain file should be removed")
	}
	if _, err := os.Stat(fresh); err != nil {
		t.Errorf("fresh file should be untouched: %v", err)
	}

	if err := CompressOlder(0); err != nil {
		t.Errorf("zero retention should be a no-op, got %v", err)
	}
}
