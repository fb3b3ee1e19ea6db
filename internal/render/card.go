package render

import "idcard-backend/internal/models"

// MissingField is printed in place of an empty required value.
const MissingField = "MISSING FIELD"

type Field struct {
	Label string
	Value string
}

// CardData is everything printed on one card.
type CardData struct {
	Name       string
	ID         string
	Department string
	Extra      []Field
	Photo      models.Photo
}

// printedElsewhere lists columns that have a dedicated place on the card.
var printedElsewhere = map[string]bool{
	models.ColumnName:       true,
	models.ColumnPhotoPath:  true,
	models.ColumnID:         true,
	models.ColumnDepartment: true,
}

// CardsFromRows pairs rows with their resolved photos. Remaining non-empty
// columns become extra lines in schema order, up to maxExtra per card.
func CardsFromRows(rows []models.Row, schema []string, photos []models.Photo, maxExtra int) []CardData {
	cards := make([]CardData, len(rows))
	for i, row := range rows {
		card := CardData{
			Name:       row.Value(models.ColumnName),
			ID:         row.Value(models.ColumnID),
			Department: row.Value(models.ColumnDepartment),
		}
		if i < len(photos) {
			card.Photo = photos[i]
		}
		for _, col := range schema {
			if len(card.Extra) >= maxExtra {
				break
			}
			if printedElsewhere[col] {
				continue
			}
			if v := row.Value(col); v != "" {
				card.Extra = append(card.Extra, Field{Label: col, Value: v})
			}
		}
		cards[i] = card
	}
	return cards
}
