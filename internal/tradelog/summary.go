package tradelog

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/gabrielschull/TraderML/internal/types"
)

type summaryRow struct {
	Symbol      string
	BuyQty      int
	BuyValue    float64
	SellQty     int
	SellValue   float64
	RealizedPnL float64
}

func summaryCSVPath(t time.Time) string {
	return filepath.Join(logDir(), "summary", t.UTC().Format("2006-01-02")+".csv")
}

// SummarizeDay aggregates one day's trade journal into a per-symbol CSV
// with average fill prices and realized PnL on matched quantity. Returns
// the output path, or "" when the day has no journal or no trades.
func SummarizeDay(t time.Time) (string, error) {
	inPath := dailyFilepath(t)
	f, err := os.Open(inPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", err
	}
	defer f.Close()

	rows := map[string]*summaryRow{}
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var e Entry
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
			continue
		}
		row := rows[e.Symbol]
		if row == nil {
			row = &summaryRow{Symbol: e.Symbol}
			rows[e.Symbol] = row
		}
		switch e.Side {
		case types.SideBuy:
			row.BuyQty += e.Qty
			row.BuyValue += float64(e.Qty) * e.Price
		case types.SideSell:
			row.SellQty += e.Qty
			row.SellValue += float64(e.Qty) * e.Price
		}
	}
	if err := sc.Err(); err != nil {
		return "", err
	}
	if len(rows) == 0 {
		return "", nil
	}

	symbols := make([]string, 0, len(rows))
	for s := range rows {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)

	outPath := summaryCSVPath(t)
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return "", err
	}
	out, err := os.Create(outPath)
	if err != nil {
		return "", err
	}
	defer out.Close()

	w := csv.NewWriter(out)
	defer w.Flush()
	if err := w.Write([]string{"symbol", "buy_qty", "buy_avg", "sell_qty", "sell_avg", "realized_pnl", "gross_buy_value", "gross_sell_value"}); err != nil {
		return "", err
	}

	var totalBuy, totalSell, totalPnL float64
	for _, s := range symbols {
		r := rows[s]
		var buyAvg, sellAvg float64
		if r.BuyQty > 0 {
			buyAvg = r.BuyValue / float64(r.BuyQty)
		}
		if r.SellQty > 0 {
			sellAvg = r.SellValue / float64(r.SellQty)
		}
		matched := r.BuyQty
		if r.SellQty < matched {
			matched = r.SellQty
		}
		r.RealizedPnL = float64(matched) * (sellAvg - buyAvg)
		rec := []string{
			r.Symbol,
			strconv.Itoa(r.BuyQty), fmt.Sprintf("%.4f", buyAvg),
			strconv.Itoa(r.SellQty), fmt.Sprintf("%.4f", sellAvg),
			fmt.Sprintf("%.2f", r.RealizedPnL),
			fmt.Sprintf("%.2f", r.BuyValue), fmt.Sprintf("%.2f", r.SellValue),
		}
		if err := w.Write(rec); err != nil {
			return "", err
		}
		totalBuy += r.BuyValue
		totalSell += r.SellValue
		totalPnL += r.RealizedPnL
	}
	_ = w.Write([]string{"TOTAL", "", "", "", "", fmt.Sprintf("%.2f", totalPnL), fmt.Sprintf("%.2f", totalBuy), fmt.Sprintf("%.2f", totalSell)})
	return outPath, nil
}

// SummarizeToday summarizes the current UTC day.
func SummarizeToday() (string, error) { return SummarizeDay(time.Now().UTC()) }
