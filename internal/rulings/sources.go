// Copyright (c) 2026 VTES Biased. All rights reserved.
// Author: rulings@vtes-biased.org

package rulings

import (
	"net/url"
	"regexp"
	"strings"
	"time"
)

// RulebookSource is the pre-populated rulebook citation source. It is closed
// to new entries and its references cannot be deleted.
const RulebookSource = "RBK"

// Source is one authority a reference can cite: a Rules Director with an
// active tenure, the Rules Team, or the rulebook.
type Source struct {
	Name string
	// From and To bound the valid citation dates; zero values leave the
	// corresponding side open.
	From time.Time
	To   time.Time
}

func isoDate(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

// Sources enumerates the valid reference source codes with their tenure
// ranges. A reference's embedded date must fall within its source's range.
var Sources = map[string]Source{
	"TOM": {Name: "Thomas R Wylie", From: isoDate("1994-12-15"), To: isoDate("1996-07-29")},
	"SFC": {Name: "Shawn F. Carnes", From: isoDate("1996-07-29"), To: isoDate("1996-10-18")},
	"JON": {Name: "Jon Wilkie", From: isoDate("1996-10-18"), To: isoDate("1997-02-24")},
	"LSJ": {Name: "L. Scott Johnson", From: isoDate("1997-02-24"), To: isoDate("2011-07-06")},
	"PIB": {Name: "Pascal Bertrand", From: isoDate("2011-07-06"), To: isoDate("2016-12-04")},
	"ANK": {Name: `Vincent "Ankha" Ripoll`, From: isoDate("2016-12-04")},
	"RTR": {Name: "Rules Team Ruling"},
	"RBK": {Name: "Rulebook"},
}

// ReferenceDomains is the allow-list of hosts a reference url may point at.
var ReferenceDomains = map[string]bool{
	"boardgamegeek.com":     true,
	"www.boardgamegeek.com": true,
	"groups.google.com":     true,
	"www.vekn.net":          true,
}

// AnkhaSymbols maps discipline, virtue and card-type tokens to their glyph
// in the Ankha symbol font. Tokens appear in rulings text between brackets,
// eg. "[pot]" for inferior Potence, "[POT]" for superior.
var AnkhaSymbols = map[string]string{
	"abo": "w", "ani": "i", "aus": "a", "cel": "c", "chi": "k",
	"dai": "y", "dem": "e", "dom": "d", "for": "f", "mal": "<",
	"mel": "m", "myt": "x", "nec": "n", "obe": "b", "obf": "o",
	"obl": "ø", "obt": "$", "pot": "p", "pre": "r", "pro": "j",
	"qui": "q", "san": "g", "ser": "s", "spi": "z", "str": "+",
	"tem": "?", "thn": "h", "tha": "t", "val": "l", "vic": "v",
	"vis": "u",
	"ABO": "W", "ANI": "I", "AUS": "A", "CEL": "C", "CHI": "K",
	"DAI": "Y", "DEM": "E", "DOM": "D", "FOR": "F", "MAL": ">",
	"MEL": "M", "MYT": "X", "NEC": "N", "OBE": "B", "OBF": "O",
	"OBL": "Ø", "OBT": "£", "POT": "P", "PRE": "R", "PRO": "J",
	"QUI": "Q", "SAN": "G", "SER": "S", "SPI": "Z", "STR": "=",
	"TEM": "!", "THN": "H", "THA": "T", "VAL": "L", "VIC": "V",
	"VIS": "U",
	"viz": ")", "def": "@", "jud": "%", "inn": "#", "mar": "&",
	"ven": "(", "red": "*",
	"ACTION": "0", "POLITICAL ACTION": "2", "ALLY": "3",
	"RETAINER": "8", "EQUIPMENT": "5", "ACTION MODIFIER": "1",
	"REACTION": "7", "COMBAT": "4", "REFLEX": "6", "POWER": "§",
	"FLIGHT": "^", "MERGED": "µ", "CONVICTION": "¤",
}

var (
	reRulingReference *regexp.Regexp
	reSymbol          *regexp.Regexp
	reCard            = regexp.MustCompile(`{[^}]+}`)
)

func init() {
	sources := make([]string, 0, len(Sources))
	for code := range Sources {
		sources = append(sources, code)
	}
	reRulingReference = regexp.MustCompile(`\[(?:` + strings.Join(sources, "|") + `)\s[\w0-9-]+\]`)

	symbols := make([]string, 0, len(AnkhaSymbols))
	for token := range AnkhaSymbols {
		symbols = append(symbols, token)
	}
	reSymbol = regexp.MustCompile(`\[(?:` + strings.Join(symbols, "|") + `)\]`)
}

// BuildReference parses a reference uid into a [Reference].
//
// The source is the first 3 characters; for every source but the rulebook,
// characters 5 to 12 must hold the citation date in YYYYMMDD order. An
// optional "-N" suffix past the date is tolerated and kept in the uid.
func BuildReference(uid, urlStr string, state State) (*Reference, error) {
	if len(uid) < 3 {
		return nil, formatErrorf("reference uid too short: %q", uid)
	}
	source := uid[:3]
	date := ""
	if source != RulebookSource {
		if len(uid) < 12 {
			return nil, formatErrorf("reference uid %q has no date", uid)
		}
		parsed, err := time.Parse("20060102", uid[4:12])
		if err != nil {
			return nil, formatErrorf("reference uid %q has an invalid date", uid)
		}
		date = parsed.Format("2006-01-02")
	}
	return &Reference{UID: uid, URL: urlStr, Source: source, Date: date, State: state}, nil
}

// CheckReference validates a reference's url host and its date against the
// source's active range.
func CheckReference(ref *Reference) error {
	if ref.URL == "" {
		return formatErrorf("reference %s has no URL", ref.UID)
	}
	parsed, err := url.Parse(ref.URL)
	if err != nil || !ReferenceDomains[parsed.Hostname()] {
		return formatErrorf("ruling URL not from a reference domain: %s", ref.URL)
	}
	source, ok := Sources[ref.Source]
	if !ok {
		return formatErrorf("unknown reference source %q", ref.Source)
	}
	if source.From.IsZero() && source.To.IsZero() {
		return nil
	}
	refDate, err := time.Parse("2006-01-02", ref.Date)
	if err != nil {
		return formatErrorf("reference %s has an invalid date", ref.UID)
	}
	if !source.From.IsZero() && refDate.Before(source.From) {
		return consistencyErrorf("%s was not Rules Director yet on %s", source.Name, ref.Date)
	}
	if !source.To.IsZero() && refDate.After(source.To) {
		return consistencyErrorf("%s was not Rules Director anymore on %s", source.Name, ref.Date)
	}
	return nil
}
