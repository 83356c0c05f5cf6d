package migrate

import (
	"github.com/Olivedu13/poke/pokemigrate/internal/dump"
	"github.com/Olivedu13/poke/pokemigrate/internal/schema"
	"github.com/Olivedu13/poke/pokemigrate/internal/seed"
	"github.com/Olivedu13/poke/pokemigrate/internal/transcode"
)

// Questions converts question bank entries the same way dump rows are.
func Questions(questions []seed.Question, opts Options) (*Result, error) {
	rows := make([][]transcode.Value, len(questions))
	for i, q := range questions {
		rows[i] = q.Values()
	}
	return seedRows(seed.QuestionTable, seed.QuestionColumns, rows, opts)
}

// Items converts item catalogue rows.
func Items(items []seed.Item, opts Options) (*Result, error) {
	rows := make([][]transcode.Value, len(items))
	for i, it := range items {
		rows[i] = it.Values()
	}
	return seedRows(seed.ItemTable, seed.ItemColumns, rows, opts)
}

// seedRows renders seed values as one MySQL-style insert and feeds it to
// the regular conversion, so seeds get the same casts and checks.
func seedRows(table string, columns []string, rows [][]transcode.Value, opts Options) (*Result, error) {
	if opts.Schema == nil {
		opts.Schema = schema.Default()
	}
	if len(rows) == 0 {
		return &Result{}, nil
	}

	ins := &dump.Insert{Table: table, Columns: columns}
	values := make([]byte, 0, 256*len(rows))
	for i, r := range rows {
		if i > 0 {
			values = append(values, ',')
		}
		values = append(values, '(')
		values = append(values, transcode.FormatTuple(r)...)
		values = append(values, ')')
	}
	ins.Values = string(values)

	opts.Tables = nil
	return ConvertInserts([]*dump.Insert{ins}, opts)
}
