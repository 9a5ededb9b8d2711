package repository

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"shale-dashboard/internal/models"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Required columns of each table, in the order of the public datasets.
var (
	ProductionColumns = []string{
		"sigla", "anio", "mes", "prod_pet", "prod_gas", "prod_agua", "tef",
		"empresa", "areayacimiento", "coordenadax", "coordenaday",
		"formprod", "sub_tipo_recurso", "tipopozo",
	}
	FractureColumns = []string{
		"sigla", "id_base_fractura_adjiv", "longitud_rama_horizontal_m",
		"cantidad_fracturas", "arena_bombeada_nacional_tn", "arena_bombeada_importada_tn",
	}
)

// csvTable is a decoded delimited file with its header index.
type csvTable struct {
	delimiter rune
	columns   map[string]int
	rows      [][]string
}

// detectDelimiter picks ';' when the header line has more semicolons than commas.
func detectDelimiter(data []byte) rune {
	line := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		line = data[:i]
	}
	if bytes.Count(line, []byte{';'}) > bytes.Count(line, []byte{','}) {
		return ';'
	}
	return ','
}

func readTable(data []byte, required []string) (*csvTable, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errors.New("empty file")
	}

	t := &csvTable{delimiter: detectDelimiter(data), columns: make(map[string]int)}

	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = t.delimiter

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	for i, name := range header {
		t.columns[strings.ToLower(strings.TrimSpace(name))] = i
	}

	var missing []string
	for _, col := range required {
		if _, ok := t.columns[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, &models.ValidationError{
			Field:   "header",
			Value:   strings.Join(missing, ","),
			Message: "missing required columns: " + strings.Join(missing, ", "),
		}
	}

	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		t.rows = append(t.rows, row)
	}

	return t, nil
}

// rowReader extracts typed fields from one row and remembers the first error.
type rowReader struct {
	t    *csvTable
	row  []string
	line int
	err  error
}

func (t *csvTable) reader(i int) *rowReader {
	// line numbers are 1-based and the header is line 1
	return &rowReader{t: t, row: t.rows[i], line: i + 2}
}

func (r *rowReader) text(col string) string {
	return strings.TrimSpace(r.row[r.t.columns[col]])
}

func (r *rowReader) fail(col, value, msg string) {
	if r.err == nil {
		r.err = &models.ValidationError{
			Field:   col,
			Value:   value,
			Message: fmt.Sprintf("line %d: %s", r.line, msg),
		}
	}
}

func (r *rowReader) parse(col string) (float64, bool) {
	s := r.text(col)
	if s == "" {
		return 0, false
	}
	if r.t.delimiter == ';' {
		s = strings.ReplaceAll(s, ",", ".")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		r.fail(col, s, "not a number")
		return 0, false
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		r.fail(col, s, "not a finite number")
		return 0, false
	}
	return v, true
}

// number is a required numeric column.
func (r *rowReader) number(col string) float64 {
	v, ok := r.parse(col)
	if !ok && r.err == nil {
		r.fail(col, "", "required number is empty")
	}
	return v
}

// integer is a required whole-number column; "2023.0" is accepted.
func (r *rowReader) integer(col string) int {
	v := r.number(col)
	if v != float64(int(v)) {
		r.fail(col, r.text(col), "not a whole number")
	}
	return int(v)
}

// optional is a nullable numeric column.
func (r *rowReader) optional(col string) *float64 {
	v, ok := r.parse(col)
	if !ok {
		return nil
	}
	return models.Float(v)
}

// orZero is a numeric column where empty reads as 0.
func (r *rowReader) orZero(col string) float64 {
	v, _ := r.parse(col)
	return v
}

// DecodeProduction decodes the monthly production table.
func DecodeProduction(data []byte) ([]*models.RawProductionRecord, error) {
	t, err := readTable(data, ProductionColumns)
	if err != nil {
		return nil, err
	}

	records := make([]*models.RawProductionRecord, 0, len(t.rows))
	for i := range t.rows {
		r := t.reader(i)
		rec := &models.RawProductionRecord{
			Sigla:           r.text("sigla"),
			Year:            r.integer("anio"),
			Month:           r.integer("mes"),
			OilVolume:       r.number("prod_pet"),
			GasVolume:       r.number("prod_gas"),
			WaterVolume:     r.number("prod_agua"),
			TEF:             r.number("tef"),
			Operator:        r.text("empresa"),
			Block:           r.text("areayacimiento"),
			CoordX:          r.optional("coordenadax"),
			CoordY:          r.optional("coordenaday"),
			Formation:       r.text("formprod"),
			ResourceSubType: r.text("sub_tipo_recurso"),
			WellType:        r.text("tipopozo"),
		}
		if r.err != nil {
			return nil, r.err
		}
		records = append(records, rec)
	}
	return records, nil
}

// DecodeFractures decodes the hydraulic fracture table. Empty numerics read as
// zero and are later removed by the completion cutoff.
func DecodeFractures(data []byte) ([]*models.RawFractureRecord, error) {
	t, err := readTable(data, FractureColumns)
	if err != nil {
		return nil, err
	}

	records := make([]*models.RawFractureRecord, 0, len(t.rows))
	for i := range t.rows {
		r := t.reader(i)
		rec := &models.RawFractureRecord{
			Sigla:            r.text("sigla"),
			FractureID:       r.text("id_base_fractura_adjiv"),
			BranchLengthM:    r.orZero("longitud_rama_horizontal_m"),
			StageCount:       r.orZero("cantidad_fracturas"),
			ProppantNational: r.orZero("arena_bombeada_nacional_tn"),
			ProppantImported: r.orZero("arena_bombeada_importada_tn"),
		}
		if r.err != nil {
			return nil, r.err
		}
		records = append(records, rec)
	}
	return records, nil
}
