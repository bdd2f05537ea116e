/**
 * @description
 * Text normalization, tokenization, and the keyword/pattern tables shared by
 * the profiler rule cascade and the anchor classifier features.
 */

package profiler

import (
	"regexp"
	"strings"

	"github.com/marketpulse-project/backend/internal/models"
)

// maxDocTokens bounds the token prefix used for classifier features.
// Market titles are short; anything past this is combo-leg noise.
const maxDocTokens = 64

// NormalizeText lowercases and strips punctuation except $ + . : - which all
// carry signal in market titles ("$100k", "+3.5", "4:1").
func NormalizeText(parts ...string) string {
	joined := strings.ToLower(strings.Join(parts, " "))

	var b strings.Builder
	b.Grow(len(joined))
	for _, r := range joined {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '$', r == '+', r == '.', r == ':', r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte(' ')
		}
	}

	return strings.Join(strings.Fields(b.String()), " ")
}

// Tokenize produces unigrams plus adjacent-token bigrams over a bounded
// prefix of the normalized document.
func Tokenize(normalized string) []string {
	fields := strings.Fields(normalized)
	if len(fields) > maxDocTokens {
		fields = fields[:maxDocTokens]
	}

	tokens := make([]string, 0, len(fields)*2)
	tokens = append(tokens, fields...)
	for i := 0; i+1 < len(fields); i++ {
		tokens = append(tokens, fields[i]+"_"+fields[i+1])
	}
	return tokens
}

var cryptoKeywords = []string{
	"bitcoin", "btc", "ethereum", "eth", "solana", "sol", "xrp", "doge",
	"dogecoin", "crypto", "token", "stablecoin", "defi", "binance",
	"coinbase", "altcoin", "memecoin",
}

var sportsKeywords = []string{
	"nba", "nfl", "mlb", "nhl", "ufc", "premier league", "champions league",
	"la liga", "serie a", "bundesliga", "grand slam", "wimbledon",
	"super bowl", "world series", "playoff", "match", "game ",
}

var (
	priceAnchorRe = regexp.MustCompile(`(above|below|over|under|at least|>=|<=|\$)`)
	digitRe       = regexp.MustCompile(`[0-9]`)

	liveScoreRe = regexp.MustCompile(`\b(win|wins|beat|beats|defeat|defeats|vs|versus|score|scores|points|goals|goal|touchdowns|rebounds|assists|yards|first half|second half|quarter|overtime|o\.t|set [0-9]|game [0-9]|moneyline|spread|over\/under)\b`)

	teamNewsRe = regexp.MustCompile(`\b(injur(y|ed|ies)|trade[ds]?|sign(s|ed|ing)?|suspend(s|ed|sion)?|fire[ds]?|hire[ds]?|coach|roster|lineup|out for|ruled out|return(s|ing)? from|waive[ds]?|retire(s|d|ment)?)\b`)

	macroRe = regexp.MustCompile(`\b(cpi|ppi|pce|gdp|nonfarm|payrolls?|unemployment|jobless|fomc|fed funds|rate (cut|hike|decision)|interest rate|jobs report|ecb|boe|boj|recession declared)\b`)

	cryptoNewsRe = regexp.MustCompile(`\b(hack(s|ed)?|exploit(s|ed)?|rug ?pull|etf (approval|approved|decision)|sec (approves?|sues?|lawsuit)|listing|delist(s|ed|ing)?|hard fork|upgrade|halving|bankrupt(cy)?|insolven(t|cy)|depeg(s|ged)?)\b`)

	policyRe = regexp.MustCompile(`\b(bill|law|act|executive order|supreme court|court (rules|ruling)|ruling|regulat(e|es|ion|ory)|ban(s|ned)?|approv(e|es|al)|confirm(s|ed|ation)?|nominee|nomination|veto|shutdown|tariff(s)?|sanction(s|ed)?|impeach(es|ed|ment)?)\b`)
)

// CryptoContext reports whether the market is crypto-flavored: normalized
// category or any crypto keyword in the text.
func CryptoContext(normalizedCategory, text string) bool {
	if normalizedCategory == models.CategoryCrypto {
		return true
	}
	return containsAnyKeyword(text, cryptoKeywords)
}

// SportsContext reports whether the market is sports-flavored.
func SportsContext(normalizedCategory, text string) bool {
	if normalizedCategory == models.CategorySports {
		return true
	}
	return containsAnyKeyword(text, sportsKeywords)
}

func containsAnyKeyword(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
