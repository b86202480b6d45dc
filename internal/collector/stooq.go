package collector

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"RegimeWatch/internal/model"
)

// DefaultStooqURL is the Stooq daily CSV download endpoint.
const DefaultStooqURL = "https://stooq.com/q/d/l/"

// StooqFetcher implements Fetcher using Stooq daily CSV downloads.
type StooqFetcher struct {
	BaseURL string
	Client  *http.Client
}

// NewStooqFetcher creates a new fetcher with optional proxy support.
func NewStooqFetcher(baseURL, proxyURL string) *StooqFetcher {
	if baseURL == "" {
		baseURL = DefaultStooqURL
	}
	return &StooqFetcher{
		BaseURL: baseURL,
		Client:  newHTTPClient(proxyURL),
	}
}

func (f *StooqFetcher) Name() string { return "stooq" }

// FetchDailyBars downloads the full daily history for a Stooq code such as "spy.us".
func (f *StooqFetcher) FetchDailyBars(ctx context.Context, ticker string) ([]model.OHLCV, error) {
	endpoint := fmt.Sprintf("%s?s=%s&i=d", f.BaseURL, url.QueryEscape(ticker))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch bars: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("fetch bars: status %d, body: %s", resp.StatusCode, string(body))
	}
	bars, err := parseStooqCSV(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("stooq %s: %w", ticker, err)
	}
	return bars, nil
}

// parseStooqCSV reads Date,Open,High,Low,Close,Volume rows. Rows with an
// unparseable date or close are dropped; the result is sorted by date.
func parseStooqCSV(r io.Reader) ([]model.OHLCV, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	head, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty response")
		}
		return nil, err
	}
	col := map[string]int{}
	for i, h := range head {
		col[strings.ToLower(strings.TrimSpace(h))] = i
	}
	dateCol, ok := col["date"]
	if !ok {
		return nil, errors.New("no Date column returned")
	}
	closeCol, ok := col["close"]
	if !ok {
		return nil, errors.New("no Close column returned")
	}

	field := func(row []string, name string) float64 {
		i, ok := col[name]
		if !ok || i >= len(row) {
			return 0
		}
		v, _ := strconv.ParseFloat(strings.TrimSpace(row[i]), 64)
		return v
	}

	var bars []model.OHLCV
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if dateCol >= len(row) || closeCol >= len(row) {
			continue
		}
		day, err := time.Parse(model.DateLayout, strings.TrimSpace(row[dateCol]))
		if err != nil {
			continue
		}
		c := field(row, "close")
		if c == 0 {
			continue
		}
		bars = append(bars, model.OHLCV{
			Time:   day,
			Open:   field(row, "open"),
			High:   field(row, "high"),
			Low:    field(row, "low"),
			Close:  c,
			Volume: field(row, "volume"),
		})
	}
	if len(bars) == 0 {
		return nil, errors.New("no valid rows")
	}
	sort.Slice(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	return bars, nil
}
