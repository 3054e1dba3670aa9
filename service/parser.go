package service

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"bolita/models"
)

// ParseResult is the outcome of parsing one wager text submission.
type ParseResult struct {
	Items    []models.StakeItem
	Rejected []string // segments dropped with the reason appended
}

// Segment grammar: one or more number tokens, then "con" or "*", then a
// decimal amount with an optional currency code. The amount part may be
// omitted entirely, in which case the bet type's default stake applies.
var (
	amountPattern = regexp.MustCompile(`^\d+(?:[.,]\d{1,2})?$`)
	twoDigits     = regexp.MustCompile(`^\d{2}$`)
	threeDigits   = regexp.MustCompile(`^\d{3}$`)
	shorthand     = regexp.MustCompile(`^[DT]\d$`)
	comboPattern  = regexp.MustCompile(`^\d{2}[xX*]\d{2}$`)
	currencyToken = regexp.MustCompile(`^[A-Za-z]{3}$`)
	lineSplit     = regexp.MustCompile(`[\n;]+`)
	amountTail    = regexp.MustCompile(`(?i)(?:^|\s)(?:con|\*)\s+\d+$`)
	fractionHead  = regexp.MustCompile(`^\d{1,2}(?:\s+[A-Za-z]{3})?$`)
)

// shorthandFactor is the implicit multiplier for decade and terminal plays:
// one D or T token covers ten numbers, so the stored amount is ten times the
// submitted per-number amount.
const shorthandFactor = 10

// ParseWagerText parses free-form wager text into stake items. Malformed
// segments and invalid number tokens are collected into Rejected rather
// than failing the whole submission; the returned error is
// models.ErrValidation only when no item parsed at all.
func ParseWagerText(text string, betType models.BetType, defaultCurrency string, config *models.BetTypeConfig) (*ParseResult, error) {
	if !betType.Valid() {
		return nil, fmt.Errorf("%w: unknown bet type %q", models.ErrValidation, betType)
	}

	result := &ParseResult{}

	for _, segment := range splitSegments(text) {
		segment = strings.TrimSpace(segment)
		if segment == "" {
			continue
		}
		items, dropped, reason := parseSegment(segment, betType, defaultCurrency, config)
		if reason != "" {
			result.Rejected = append(result.Rejected, fmt.Sprintf("%s (%s)", segment, reason))
			continue
		}
		for _, token := range dropped {
			result.Rejected = append(result.Rejected, fmt.Sprintf("%s (invalid number)", token))
		}
		result.Items = append(result.Items, items...)
	}

	if len(result.Items) == 0 {
		return nil, fmt.Errorf("%w: no valid plays in %q", models.ErrValidation, text)
	}

	return result, nil
}

// splitSegments breaks a submission into segments on newlines, semicolons
// and commas. A comma between the digits of an amount is a decimal mark,
// not a separator: "34 con 2,5 usd" is one segment.
func splitSegments(text string) []string {
	var segments []string
	for _, line := range lineSplit.Split(text, -1) {
		parts := strings.Split(line, ",")
		current := parts[0]
		for _, part := range parts[1:] {
			if amountTail.MatchString(strings.TrimSpace(current)) && fractionHead.MatchString(strings.TrimSpace(part)) {
				current = strings.TrimRight(current, " \t") + "," + strings.TrimLeft(part, " \t")
				continue
			}
			segments = append(segments, current)
			current = part
		}
		segments = append(segments, current)
	}
	return segments
}

// parseSegment parses one comma- or newline-delimited segment. It returns
// the stake items and the number tokens dropped for not matching the bet
// type, or a non-empty rejection reason when the segment's amount part is
// malformed.
func parseSegment(segment string, betType models.BetType, defaultCurrency string, config *models.BetTypeConfig) ([]models.StakeItem, []string, string) {
	tokens := strings.Fields(segment)

	// Locate the amount separator. Everything before it is number tokens,
	// everything after is "<amount> [currency]".
	sep := -1
	for i, token := range tokens {
		if strings.EqualFold(token, "con") || token == "*" {
			sep = i
			break
		}
	}

	var patterns []string
	currency := strings.ToUpper(defaultCurrency)
	var amount int64

	switch {
	case sep == -1:
		// No amount part: the whole segment is patterns, stake defaults.
		patterns = tokens
		def, ok := config.DefaultStake[currency]
		if !ok || def <= 0 {
			return nil, nil, "no amount and no default stake"
		}
		amount = def
	case sep == 0:
		return nil, nil, "no numbers before the amount"
	default:
		patterns = tokens[:sep]
		rest := tokens[sep+1:]
		if len(rest) == 0 || len(rest) > 2 {
			return nil, nil, "malformed amount"
		}
		if len(rest) == 2 {
			if !currencyToken.MatchString(rest[1]) {
				return nil, nil, "malformed currency"
			}
			currency = strings.ToUpper(rest[1])
		}
		parsed, ok := parseAmount(rest[0])
		if !ok {
			return nil, nil, "malformed amount"
		}
		amount = parsed
	}

	if amount <= 0 {
		return nil, nil, "amount must be positive"
	}

	// A token that fails the bet type grammar drops alone; the rest of the
	// segment still produces items.
	var items []models.StakeItem
	var dropped []string
	for _, pattern := range patterns {
		normalized, ok := normalizePattern(pattern, betType)
		if !ok {
			dropped = append(dropped, pattern)
			continue
		}
		itemAmount := amount
		if betType == models.BetTypeStraight && (normalized[0] == 'D' || normalized[0] == 'T') {
			itemAmount *= shorthandFactor
		}
		items = append(items, models.StakeItem{
			Pattern:  normalized,
			Currency: currency,
			Amount:   itemAmount,
		})
	}

	return items, dropped, ""
}

// parseAmount converts a decimal string to minor units. Both "." and "," are
// accepted as the decimal mark.
func parseAmount(s string) (int64, bool) {
	if !amountPattern.MatchString(s) {
		return 0, false
	}
	s = strings.ReplaceAll(s, ",", ".")

	whole, frac, hasFrac := strings.Cut(s, ".")
	units, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, false
	}

	cents := int64(0)
	if hasFrac {
		if len(frac) == 1 {
			frac += "0"
		}
		cents, err = strconv.ParseInt(frac, 10, 64)
		if err != nil {
			return 0, false
		}
	}

	return units*100 + cents, true
}

// normalizePattern validates a number token against the bet type grammar and
// returns its canonical form.
func normalizePattern(token string, betType models.BetType) (string, bool) {
	switch betType {
	case models.BetTypeStraight:
		upper := strings.ToUpper(token)
		if shorthand.MatchString(upper) {
			return upper, true
		}
		return token, twoDigits.MatchString(token)
	case models.BetTypeRunner:
		return token, twoDigits.MatchString(token)
	case models.BetTypeHundred:
		return token, threeDigits.MatchString(token)
	case models.BetTypeCombo:
		if !comboPattern.MatchString(token) {
			return "", false
		}
		canonical := strings.Map(func(r rune) rune {
			if r == 'X' || r == '*' {
				return 'x'
			}
			return r
		}, token)
		first, second, _ := strings.Cut(canonical, "x")
		if first == second {
			return "", false
		}
		return canonical, true
	}
	return "", false
}
