package frontier

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gmelchiori/frontier/date"
	"github.com/gmelchiori/frontier/yahoo"
)

// Source is the market data surface a study needs. *yahoo.Client satisfies it.
type Source interface {
	History(ctx context.Context, ticker string, lookback date.Lookback) (*yahoo.Series, error)
	Search(ctx context.Context, query string, max int) ([]yahoo.Candidate, error)
	Valid(ctx context.Context, symbol string) bool
}

// Asset is a user-supplied instrument: at least a symbol, optionally a name
// and an ISIN to help resolution.
type Asset struct {
	Symbol string `json:"symbol"`
	Name   string `json:"name,omitempty"`
	ISIN   string `json:"isin,omitempty"`
}

// ResolvedAsset maps a user asset to a provider symbol.
type ResolvedAsset struct {
	UserSymbol string `json:"user_symbol"`
	Symbol     string `json:"symbol"`
	Source     string `json:"source"` // DIRECT, ISIN, NAME, SUFFIX or CACHE
	Exchange   string `json:"exchange"`
	Currency   string `json:"currency"`
	Name       string `json:"name,omitempty"`
	ISIN       string `json:"isin,omitempty"`
}

const symbolCacheFile = "symbol_cache.json"

// euExchanges are provider exchange codes given a resolution bonus when the
// asset looks like a European UCITS fund.
var euExchanges = map[string]bool{
	"MIL": true, "PAR": true, "XETRA": true, "GER": true,
	"LSE": true, "AMS": true, "SWX": true, "BME": true, "BIT": true,
}

// suffixes tried on the bare user symbol as a last resort, in order.
var suffixes = []string{".L", ".DE", ".MI", ".PA", ".AS", ".SW", ".MC", ".ST"}

// ResolveAssets maps each user asset to a provider symbol: resolutions are
// cached in symbol_cache.json under baseDir; unknown symbols are first
// validated as-is, then searched by ISIN or name, then tried with European
// exchange suffixes. Unresolvable assets are logged and omitted.
func ResolveAssets(ctx context.Context, src Source, assets []Asset, baseDir, targetCurrency string) ([]ResolvedAsset, error) {
	cachePath := filepath.Join(baseDir, symbolCacheFile)
	cache := loadSymbolCache(cachePath)

	var resolved []ResolvedAsset
	for _, asset := range assets {
		userSymbol := strings.ToUpper(strings.TrimSpace(asset.Symbol))
		isin := strings.ToUpper(strings.TrimSpace(asset.ISIN))
		name := strings.TrimSpace(asset.Name)
		key := isin
		if key == "" {
			key = userSymbol
		}

		if cached, ok := cache[key]; ok {
			resolved = append(resolved, ResolvedAsset{
				UserSymbol: userSymbol,
				Symbol:     cached.Symbol,
				Source:     "CACHE",
				Exchange:   cached.Exchange,
				Currency:   cached.Currency,
				Name:       name,
				ISIN:       isin,
			})
			continue
		}

		ra, ok := resolveOne(ctx, src, userSymbol, isin, name, targetCurrency)
		if !ok {
			log.Printf("unable to resolve %s", userSymbol)
			continue
		}
		resolved = append(resolved, ra)
		cache[key] = cachedSymbol{Symbol: ra.Symbol, Source: ra.Source, Exchange: ra.Exchange, Currency: ra.Currency}
	}

	if err := saveSymbolCache(cachePath, cache); err != nil {
		log.Printf("cannot save symbol cache (ignored): %v", err)
	}
	return resolved, nil
}

func resolveOne(ctx context.Context, src Source, userSymbol, isin, name, targetCurrency string) (ResolvedAsset, bool) {
	if userSymbol != "" && src.Valid(ctx, userSymbol) {
		return ResolvedAsset{UserSymbol: userSymbol, Symbol: userSymbol, Source: "DIRECT", Name: name, ISIN: isin}, true
	}

	var candidates []yahoo.Candidate
	var origin string
	if isin != "" {
		candidates, _ = src.Search(ctx, isin, 10)
		origin = "ISIN"
	}
	if len(candidates) == 0 && name != "" {
		candidates, _ = src.Search(ctx, name, 10)
		origin = "NAME"
	}

	preferUCITS := strings.Contains(strings.ToUpper(name), "UCITS")
	var valid []yahoo.Candidate
	for _, cand := range candidates {
		if src.Valid(ctx, cand.Symbol) {
			valid = append(valid, cand)
		}
	}
	if len(valid) > 0 {
		sort.Slice(valid, func(i, j int) bool {
			si, sj := score(valid[i], targetCurrency, preferUCITS, userSymbol), score(valid[j], targetCurrency, preferUCITS, userSymbol)
			if si != sj {
				return si > sj
			}
			return valid[i].Symbol < valid[j].Symbol
		})
		best := valid[0]
		if best.Symbol != userSymbol {
			log.Printf("resolved %s to %s via %s", userSymbol, best.Symbol, origin)
		}
		return ResolvedAsset{
			UserSymbol: userSymbol,
			Symbol:     best.Symbol,
			Source:     origin,
			Exchange:   best.Exchange,
			Currency:   best.Currency,
			Name:       name,
			ISIN:       isin,
		}, true
	}

	if userSymbol != "" {
		for _, suffix := range suffixes {
			candidate := userSymbol + suffix
			if src.Valid(ctx, candidate) {
				log.Printf("resolved %s to %s via SUFFIX", userSymbol, candidate)
				return ResolvedAsset{UserSymbol: userSymbol, Symbol: candidate, Source: "SUFFIX", Name: name, ISIN: isin}, true
			}
		}
	}
	return ResolvedAsset{}, false
}

// score ranks a search candidate: currency match dominates, then an exact
// symbol match, then UCITS funds on European exchanges.
func score(c yahoo.Candidate, targetCurrency string, preferUCITS bool, userSymbol string) int {
	s := 0
	if targetCurrency != "" && strings.EqualFold(c.Currency, targetCurrency) {
		s += 10
	}
	if strings.EqualFold(c.Symbol, userSymbol) {
		s += 8
	}
	if preferUCITS && strings.Contains(strings.ToUpper(c.Name), "UCITS") && euExchanges[strings.ToUpper(c.Exchange)] {
		s += 5
	}
	if euExchanges[strings.ToUpper(c.Exchange)] {
		s += 2
	}
	return s
}

type cachedSymbol struct {
	Symbol   string `json:"symbol"`
	Source   string `json:"source"`
	Exchange string `json:"exchange"`
	Currency string `json:"currency"`
}

func loadSymbolCache(path string) map[string]cachedSymbol {
	cache := make(map[string]cachedSymbol)
	content, err := os.ReadFile(path)
	if err != nil {
		return cache
	}
	if err := json.Unmarshal(content, &cache); err != nil {
		log.Printf("invalid symbol cache, ignoring: %s", path)
		return make(map[string]cachedSymbol)
	}
	return cache
}

func saveSymbolCache(path string, cache map[string]cachedSymbol) error {
	content, err := json.MarshalIndent(cache, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding symbol cache: %w", err)
	}
	return os.WriteFile(path, content, 0644)
}

// NormalizeTickers upper-cases, trims and de-duplicates a comma separated
// ticker list, dropping empty entries.
func NormalizeTickers(raw string) []string {
	var tickers []string
	seen := make(map[string]bool)
	for _, part := range strings.Split(raw, ",") {
		t := strings.ToUpper(strings.TrimSpace(part))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		tickers = append(tickers, t)
	}
	return tickers
}
