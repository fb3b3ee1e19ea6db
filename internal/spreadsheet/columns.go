package spreadsheet

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
	"idcard-backend/internal/models"
)

// columnAliases maps a normalised header to its canonical column name.
var columnAliases = map[string]string{
	"name":          models.ColumnName,
	"full name":     models.ColumnName,
	"employee name": models.ColumnName,
	"student name":  models.ColumnName,

	"photo path": models.ColumnPhotoPath,
	"photo":      models.ColumnPhotoPath,
	"photo_path": models.ColumnPhotoPath,
	"photopath":  models.ColumnPhotoPath,
	"photo url":  models.ColumnPhotoPath,
	"image":      models.ColumnPhotoPath,
	"picture":    models.ColumnPhotoPath,

	"id":          models.ColumnID,
	"ext_id":      models.ColumnID,
	"employee id": models.ColumnID,
	"student id":  models.ColumnID,
	"id number":   models.ColumnID,
	"roll no.":    models.ColumnID,
	"roll no":     models.ColumnID,

	"department": models.ColumnDepartment,
	"dept":       models.ColumnDepartment,
	"class":      models.ColumnDepartment,
	"grade":      models.ColumnDepartment,
	"division":   models.ColumnDepartment,

	"position": models.ColumnPosition,
	"title":    models.ColumnPosition,
	"role":     models.ColumnPosition,
}

func normalizeHeader(header string) string {
	return strings.Join(strings.Fields(strings.ToLower(header)), " ")
}

// CanonicalColumn returns the semantic name for a header, if it has one.
func CanonicalColumn(header string) (string, bool) {
	name, ok := columnAliases[normalizeHeader(header)]
	return name, ok
}

// buildSchema turns the raw header cells into unique column names. The first
// header matching a semantic name takes the canonical spelling, blank headers
// are named after their column letter and repeats get a numeric suffix.
func buildSchema(header []string, width int) []string {
	schema := make([]string, width)
	used := make(map[string]bool, width)

	for i := 0; i < width; i++ {
		raw := strings.TrimSpace(cellValue(header, i))
		name := raw
		if canonical, ok := CanonicalColumn(raw); ok && !used[canonical] {
			name = canonical
		}
		if name == "" {
			letter, err := excelize.ColumnNumberToName(i + 1)
			if err != nil {
				letter = fmt.Sprint(i + 1)
			}
			name = "Column " + letter
		}
		unique := name
		for n := 2; used[unique]; n++ {
			unique = fmt.Sprintf("%s (%d)", name, n)
		}
		used[unique] = true
		schema[i] = unique
	}
	return schema
}

func cellValue(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// trimRow drops trailing blank cells.
func trimRow(cells []string) []string {
	end := len(cells)
	for end > 0 && strings.TrimSpace(cells[end-1]) == "" {
		end--
	}
	return cells[:end]
}
