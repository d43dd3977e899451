// Copyright (c) 2026 VTES Biased. All rights reserved.
// Author: rulings@vtes-biased.org

package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/vtes-biased/rulings-website/internal/rulings"
)

// # Card Database Loading

// loadTimeout bounds the initial catalog download. The KRCG export is a few
// megabytes, a stuck fetch should fail fast instead of blocking startup.
const loadTimeout = 2 * time.Minute

// cardRecord mirrors one entry of the KRCG static JSON card export.
type cardRecord struct {
	ID             int            `json:"id"`
	Name           string         `json:"name"`
	PrintedName    string         `json:"printed_name"`
	Aka            []string       `json:"aka"`
	URL            string         `json:"url"`
	Types          []string       `json:"types"`
	Disciplines    []string       `json:"disciplines"`
	CardText       string         `json:"card_text"`
	Capacity       int            `json:"capacity"`
	Group          string         `json:"group"`
	Adv            bool           `json:"adv"`
	Clans          []string       `json:"clans"`
	PoolCost       flexString     `json:"pool_cost"`
	BloodCost      flexString     `json:"blood_cost"`
	ConvictionCost flexString     `json:"conviction_cost"`
	Variants       map[string]int `json:"variants"`
}

// flexString accepts both JSON strings and numbers. Card costs are numeric
// in the export except for "X" costs.
type flexString string

func (s *flexString) UnmarshalJSON(data []byte) error {
	if len(data) == 0 || string(data) == "null" {
		*s = ""
		return nil
	}
	if data[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*s = flexString(str)
		return nil
	}
	var number json.Number
	if err := json.Unmarshal(data, &number); err != nil {
		return err
	}
	*s = flexString(number.String())
	return nil
}

/*
Load fetches the card database from the given URL and indexes it.

Description: Downloads the KRCG static JSON export and replaces the catalog
content. Called once at startup, before the rulings index is built.

Parameters:
  - context: context.Context
  - url: string (KRCG export location)

Returns:
  - error: Download or decoding failures
*/
func (cm *CardMap) Load(ctx context.Context, url string) error {
	ctx, cancel := context.WithTimeout(ctx, loadTimeout)
	defer cancel()

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("catalog_load_request_failed: %w", err)
	}

	response, err := http.DefaultClient.Do(request)
	if err != nil {
		return fmt.Errorf("catalog_load_fetch_failed: %w", err)
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		return fmt.Errorf("catalog_load_unexpected_status: %d on %s", response.StatusCode, url)
	}

	return cm.loadRecords(response.Body)
}

/*
LoadFile indexes the card database from a local JSON file.

Description: Same format as [CardMap.Load], used for offline runs and tests.

Parameters:
  - path: string

Returns:
  - error: File access or decoding failures
*/
func (cm *CardMap) LoadFile(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("catalog_load_file_failed: %w", err)
	}
	defer file.Close()
	return cm.loadRecords(file)
}

// loadRecords decodes the JSON card array and rebuilds the catalog indexes.
func (cm *CardMap) loadRecords(reader io.Reader) error {
	var records []cardRecord
	if err := json.NewDecoder(reader).Decode(&records); err != nil {
		return fmt.Errorf("catalog_decode_failed: %w", err)
	}
	if len(records) == 0 {
		return fmt.Errorf("catalog_decode_failed: empty card database")
	}

	cm.byID = map[string]*Card{}
	cm.byName = map[string]*Card{}
	cm.cards = nil
	for i := range records {
		cm.add(buildCard(&records[i]))
	}
	return nil
}

// buildCard converts a raw export record to a catalog [Card], computing the
// display symbols for its types and disciplines.
func buildCard(record *cardRecord) *Card {
	uid := strconv.Itoa(record.ID)
	card := &Card{
		BaseCard: rulings.BaseCard{
			NID:         rulings.NID{UID: uid, Name: record.Name},
			PrintedName: record.PrintedName,
			Img:         record.URL,
		},
		Aka:         record.Aka,
		Disciplines: record.Disciplines,
		Text:        record.CardText,
		TextSymbols: rulings.ParseSymbols(record.CardText),
	}

	for _, typ := range record.Types {
		typ = strings.ToUpper(typ)
		card.Types = append(card.Types, typ)
		if symbol, ok := rulings.AnkhaSymbols[typ]; ok {
			card.Symbols = append(card.Symbols, rulings.SymbolSubstitution{Text: typ, Symbol: symbol})
		}
	}
	for _, discipline := range record.Disciplines {
		if symbol, ok := rulings.AnkhaSymbols[discipline]; ok {
			card.Symbols = append(card.Symbols, rulings.SymbolSubstitution{Text: discipline, Symbol: symbol})
		}
	}

	if card.Crypt() {
		card.Capacity = record.Capacity
		card.Group = record.Group
		card.Advanced = record.Adv
		if len(record.Clans) > 0 {
			card.Clan = record.Clans[0]
		}
		for key, id := range record.Variants {
			variant := Variant{UID: strconv.Itoa(id), Advanced: strings.HasSuffix(key, "ADV")}
			if strings.HasPrefix(key, "G") {
				variant.Group, _ = strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(key, "G"), " ADV"))
			}
			card.Variants = append(card.Variants, variant)
		}
		sort.Slice(card.Variants, func(i, j int) bool { return card.Variants[i].UID < card.Variants[j].UID })
	} else {
		card.PoolCost = string(record.PoolCost)
		card.BloodCost = string(record.BloodCost)
		card.ConvictionCost = string(record.ConvictionCost)
	}
	return card
}
