package intent

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// currencyWords maps amount vocabulary to ISO currency codes. Symbols and
// words are stripped before the numeric token is extracted, so "$15", "¥15"
// and "15 dollars" all parse to the same amount. The slice order is the
// match precedence, so a token mentioning two currencies always resolves
// the same way.
var currencyWords = []struct {
	word string
	code string
}{
	{"$", "USD"},
	{"usd", "USD"},
	{"dollars", "USD"},
	{"dollar", "USD"},
	{"bucks", "USD"},
	{"buck", "USD"},
	{"¥", "CNY"},
	{"￥", "CNY"},
	{"cny", "CNY"},
	{"rmb", "CNY"},
	{"yuan", "CNY"},
	{"元", "CNY"},
	{"块钱", "CNY"},
	{"块", "CNY"},
	{"€", "EUR"},
	{"eur", "EUR"},
	{"euros", "EUR"},
	{"euro", "EUR"},
	{"£", "GBP"},
	{"gbp", "GBP"},
	{"pounds", "GBP"},
	{"pound", "GBP"},
}

var numberPattern = regexp.MustCompile(`\d+(?:[.,]\d+)?`)

// ParseAmount extracts a positive decimal amount and a currency hint from a
// free-form token such as "$15.00", "15 dollars" or "¥1,200". The bool is
// false when no numeric token is present or the value is not positive.
func ParseAmount(token string) (decimal.Decimal, string, bool) {
	s := strings.ToLower(strings.TrimSpace(token))
	if s == "" {
		return decimal.Zero, "", false
	}

	currency := ""
	for _, entry := range currencyWords {
		if strings.Contains(s, entry.word) {
			currency = entry.code
			break
		}
	}

	// An explicit leading minus means a negative amount, which is rejected
	// outright rather than zeroed.
	negative := regexp.MustCompile(`-\s*\d`).MatchString(s)

	match := numberPattern.FindString(s)
	if match == "" {
		return decimal.Zero, currency, false
	}
	// Thousands separators: "1,200" has the comma followed by exactly three
	// digits; a decimal comma ("15,50") does not.
	if idx := strings.Index(match, ","); idx >= 0 {
		if len(match)-idx-1 == 3 {
			match = strings.ReplaceAll(match, ",", "")
		} else {
			match = strings.Replace(match, ",", ".", 1)
		}
	}

	amount, err := decimal.NewFromString(match)
	if err != nil {
		return decimal.Zero, currency, false
	}
	if negative || !amount.IsPositive() {
		return decimal.Zero, currency, false
	}
	return amount, currency, true
}
