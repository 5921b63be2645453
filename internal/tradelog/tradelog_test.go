package tradelog

import (
	"bufio"
	"compress/gzip"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gabrielschull/TraderML/internal/types"
)

func TestAppendWritesJSONLines(t *testing.T) {
	t.Setenv("TRADER_LOG_DIR", t.TempDir())

	entries := []Entry{
		{Symbol: "SPY", Side: types.SideBuy, Qty: 50, Price: 100, OrderID: "o1", Style: "bracket", Probability: 0.9995, Label: types.Positive},
		{Symbol: "SPY", Side: types.SideSell, Qty: 50, Price: 104, OrderID: "o2", Style: "bracket", Probability: 0.9999, Label: types.Negative},
	}
	for _, e := range entries {
		if err := Append(e); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	f, err := os.Open(dailyFilepath(time.Now().UTC()))
	if err != nil {
		t.Fatalf("open journal: %v", err)
	}
	defer f.Close()

	var got []Entry
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var e Entry
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
			t.Fatalf("line not valid JSON: %v", err)
		}
		got = append(got, e)
	}
	if len(got) != 2 {
		t.Fatalf("journal lines = %d, want 2", len(got))
	}
	if got[0].OrderID != "o1" || got[1].Side != types.SideSell {
		t.Fatalf("journal = %+v", got)
	}
	if got[0].Time == "" {
		t.Fatal("entry timestamp not set")
	}
}

func TestAppendDecisionGoesToDecisionsDir(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("TRADER_LOG_DIR", dir)

	if err := AppendDecision(DecisionEntry{Symbol: "SPY", Reason: "below_confidence_threshold", Probability: 0.4, Label: types.Neutral}); err != nil {
		t.Fatalf("append decision: %v", err)
	}
	if _, err := os.Stat(decisionsFilepath(time.Now().UTC())); err != nil {
		t.Fatalf("decision journal missing: %v", err)
	}
}

func TestSummarizeDay(t *testing.T) {
	t.Setenv("TRADER_LOG_DIR", t.TempDir())

	// 50 bought at 100, 50 sold at 104: realized PnL 200.
	if err := Append(Entry{Symbol: "SPY", Side: types.SideBuy, Qty: 50, Price: 100}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := Append(Entry{Symbol: "SPY", Side: types.SideSell, Qty: 50, Price: 104}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := Append(Entry{Symbol: "NVDA", Side: types.SideBuy, Qty: 10, Price: 500}); err != nil {
		t.Fatalf("append: %v", err)
	}

	path, err := SummarizeToday()
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	if path == "" {
		t.Fatal("expected a summary path")
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open summary: %v", err)
	}
	defer f.Close()
	recs, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}

	// header + NVDA + SPY + TOTAL
	if len(recs) != 4 {
		t.Fatalf("rows = %d: %v", len(recs), recs)
	}
	if recs[1][0] != "NVDA" || recs[2][0] != "SPY" {
		t.Fatalf("symbols not sorted: %v", recs)
	}
	if recs[2][5] != "200.00" {
		t.Fatalf("SPY realized pnl = %s, want 200.00", recs[2][5])
	}
	if recs[3][0] != "TOTAL" {
		t.Fatalf("last row = %v, want totals", recs[3])
	}
}

func TestSummarizeDayNoJournal(t *testing.T) {
	t.Setenv("TRADER_LOG_DIR", t.TempDir())
	path, err := SummarizeDay(time.Now().UTC())
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	if path != "" {
		t.Fatalf("path = %q, want empty when no journal exists", path)
	}
}

func TestCompressOlder(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("TRADER_LOG_DIR", dir)

	old := filepath.Join(dir, "2020-01-02.txt")
	if err := os.WriteFile(old, []byte(`{"symbol":"SPY"}`+"\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	past := time.Now().AddDate(0, 0, -10)
	if err := os.Chtimes(old, past, past); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	fresh := filepath.Join(dir, time.Now().UTC().Format("2006-01-02")+".txt")
	if err := os.WriteFile(fresh, []byte("{}\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	if err := CompressOlder(7); err != nil {
		t.Fatalf("compress: %v", err)
	}

	if _, err := os.Stat(old); !os.IsNotExist(err) {
		t.Fatal("old journal should be removed after compression")
	}
	gz, err := os.Open(old + ".gz")
	if err != nil {
		t.Fatalf("gzip missing: %v", err)
	}
	defer gz.Close()
	r, err := gzip.NewReader(gz)
	if err != nil {
		t.Fatalf("gzip reader: %v", err)
	}
	defer r.Close()
	if _, err := os.Stat(fresh); err != nil {
		t.Fatal("recent journal must be kept uncompressed")
	}
}
