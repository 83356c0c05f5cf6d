package seed

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/Olivedu13/poke/pokemigrate/internal/transcode"
)

// ItemTable is the table the item catalogue loads into.
const ItemTable = "items"

// ItemColumns is the column order of Item.Values and of the CSV file.
var ItemColumns = []string{
	"id", "name", "description", "price", "effect_type", "value", "rarity", "image",
}

// Item is one catalogue row.
type Item struct {
	ID          string
	Name        string
	Description string

	// Price and Value are NULL unless the CSV field is all digits.
	Price string
	Value string

	EffectType string
	Rarity     string
	Image      string
}

// Values returns the item in ItemColumns order.
func (it Item) Values() []transcode.Value {
	return []transcode.Value{
		transcode.String(it.ID),
		transcode.String(it.Name),
		transcode.String(it.Description),
		digitsOrNull(it.Price),
		transcode.String(it.EffectType),
		digitsOrNull(it.Value),
		labelOrNull(it.Rarity),
		transcode.String(it.Image),
	}
}

// LoadItems reads the items CSV. Short rows are padded with empty fields;
// a header row starting with "id" or "item_id" is skipped.
func LoadItems(r io.Reader) ([]Item, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	var items []Item
	for line := 1; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("items csv: %w", err)
		}
		if line == 1 && isHeader(rec) {
			continue
		}
		if len(rec) == 1 && strings.TrimSpace(rec[0]) == "" {
			continue
		}
		if len(rec) > len(ItemColumns) {
			return nil, fmt.Errorf("items csv line %d: %d fields, want at most %d", line, len(rec), len(ItemColumns))
		}
		for len(rec) < len(ItemColumns) {
			rec = append(rec, "")
		}
		if rec[0] == "" {
			return nil, fmt.Errorf("items csv line %d: empty id", line)
		}

		items = append(items, Item{
			ID:          rec[0],
			Name:        rec[1],
			Description: rec[2],
			Price:       strings.TrimSpace(rec[3]),
			EffectType:  rec[4],
			Value:       strings.TrimSpace(rec[5]),
			Rarity:      strings.TrimSpace(rec[6]),
			Image:       rec[7],
		})
	}
	return items, nil
}

func isHeader(rec []string) bool {
	if len(rec) == 0 {
		return false
	}
	first := strings.ToLower(strings.TrimSpace(rec[0]))
	return first == "id" || first == "item_id"
}

func digitsOrNull(s string) transcode.Value {
	if s == "" {
		return transcode.Null()
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return transcode.Null()
		}
	}
	return transcode.Bare(s)
}

func labelOrNull(s string) transcode.Value {
	if s == "" {
		return transcode.Null()
	}
	return transcode.String(strings.ToUpper(s))
}
