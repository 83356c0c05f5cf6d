// Package seed reads the question bank and item catalogue seed files and
// turns them into rows in target column order.
package seed

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/buger/jsonparser"
	"github.com/hashicorp/go-multierror"

	"github.com/Olivedu13/poke/pokemigrate/internal/transcode"
)

// QuestionTable is the table the question bank loads into.
const QuestionTable = "question_bank"

// QuestionColumns is the column order of Question.Values.
var QuestionColumns = []string{
	"id", "subject", "grade_level", "difficulty", "category",
	"question_text", "options_json", "correct_index", "explanation",
}

// GradeLevels and Difficulties are the labels of the grade_level_type and
// difficulty_type enums.
var (
	GradeLevels  = []string{"CP", "CE1", "CE2", "CM1", "CM2", "6EME", "5EME", "4EME", "3EME", "2NDE", "1ERE", "TERMINALE"}
	Difficulties = []string{"EASY", "MEDIUM", "HARD"}
)

// Question is one question bank entry.
type Question struct {
	ID           int64
	Subject      string
	GradeLevel   string
	Difficulty   string
	Category     string
	QuestionText string

	// Options is the JSON text of the answer list.
	Options string

	CorrectIndex int64
	Explanation  string
}

// Values returns the question in QuestionColumns order.
func (q Question) Values() []transcode.Value {
	return []transcode.Value{
		transcode.Bare(strconv.FormatInt(q.ID, 10)),
		transcode.String(q.Subject),
		transcode.String(q.GradeLevel),
		transcode.String(q.Difficulty),
		transcode.String(q.Category),
		transcode.String(q.QuestionText),
		transcode.String(q.Options),
		transcode.Bare(strconv.FormatInt(q.CorrectIndex, 10)),
		transcode.String(q.Explanation),
	}
}

// flexInt accepts a JSON number or a string holding one, as phpMyAdmin
// exports every column as a string.
type flexInt struct {
	value int64
	set   bool
}

func (f *flexInt) UnmarshalJSON(b []byte) error {
	s := string(bytes.TrimSpace(b))
	if s == "null" {
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("%q is not an integer", s)
	}
	f.value, f.set = v, true
	return nil
}

type questionJSON struct {
	ID           flexInt         `json:"id"`
	Subject      string          `json:"subject"`
	GradeLevel   string          `json:"grade_level"`
	Difficulty   string          `json:"difficulty"`
	Category     string          `json:"category"`
	QuestionText string          `json:"question_text"`
	Options      json.RawMessage `json:"options_json"`
	CorrectIndex flexInt         `json:"correct_index"`
	Explanation  string          `json:"explanation"`
}

func (raw *questionJSON) question() (Question, error) {
	q := Question{
		ID:           raw.ID.value,
		Subject:      raw.Subject,
		GradeLevel:   strings.ToUpper(strings.TrimSpace(raw.GradeLevel)),
		Difficulty:   strings.ToUpper(strings.TrimSpace(raw.Difficulty)),
		Category:     raw.Category,
		QuestionText: raw.QuestionText,
		CorrectIndex: raw.CorrectIndex.value,
		Explanation:  raw.Explanation,
	}
	switch {
	case !raw.ID.set:
		return q, errors.New("missing id")
	case !raw.CorrectIndex.set:
		return q, errors.New("missing correct_index")
	case !slices.Contains(GradeLevels, q.GradeLevel):
		return q, fmt.Errorf("unknown grade_level %q", raw.GradeLevel)
	case !slices.Contains(Difficulties, q.Difficulty):
		return q, fmt.Errorf("unknown difficulty %q", raw.Difficulty)
	}

	opts, err := optionsText(raw.Options)
	if err != nil {
		return q, fmt.Errorf("options_json: %w", err)
	}
	q.Options = opts
	return q, nil
}

// optionsText accepts the options either as a JSON string holding a
// document or as an inline array, and returns compact JSON text.
func optionsText(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return "", errors.New("missing")
	}

	doc := []byte(raw)
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", err
		}
		doc = []byte(s)
	}

	var buf bytes.Buffer
	if err := json.Compact(&buf, doc); err != nil {
		return "", fmt.Errorf("malformed JSON: %w", err)
	}
	return buf.String(), nil
}

// LoadQuestions reads either a plain JSON array of questions or a phpMyAdmin
// JSON export, in which case the question_bank table's data is used.
// Questions that cannot be read are skipped and reported in the returned
// error; the others are still returned.
func LoadQuestions(r io.Reader) ([]Question, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read questions: %w", err)
	}

	list, err := questionList(bytes.TrimSpace(data))
	if err != nil {
		return nil, err
	}

	var (
		questions []Question
		result    *multierror.Error
		index     int
	)
	_, err = jsonparser.ArrayEach(list, func(value []byte, dataType jsonparser.ValueType, _ int, err error) {
		index++
		if err != nil || dataType != jsonparser.Object {
			result = multierror.Append(result, fmt.Errorf("question %d: not an object", index))
			return
		}
		var raw questionJSON
		if err := json.Unmarshal(value, &raw); err != nil {
			result = multierror.Append(result, fmt.Errorf("question %d: %w", index, err))
			return
		}
		q, err := raw.question()
		if err != nil {
			result = multierror.Append(result, fmt.Errorf("question %d (id %d): %w", index, q.ID, err))
			return
		}
		questions = append(questions, q)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse questions: %w", err)
	}
	return questions, result.ErrorOrNil()
}

// questionList finds the array of question objects in data.
func questionList(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, errors.New("questions file is empty")
	}

	switch data[0] {
	case '{':
		if tableName(data) != QuestionTable {
			return nil, fmt.Errorf("export object is not the %s table", QuestionTable)
		}
		list, dataType, _, err := jsonparser.Get(data, "data")
		if err != nil || dataType != jsonparser.Array {
			return nil, fmt.Errorf("export object has no data array")
		}
		return list, nil

	case '[':
		var (
			export bool
			found  []byte
		)
		_, err := jsonparser.ArrayEach(data, func(value []byte, dataType jsonparser.ValueType, _ int, _ error) {
			if dataType != jsonparser.Object {
				return
			}
			if kind, err := jsonparser.GetString(value, "type"); err == nil && kind != "" {
				export = true
			}
			if found == nil && tableName(value) == QuestionTable {
				if list, dt, _, err := jsonparser.Get(value, "data"); err == nil && dt == jsonparser.Array {
					found = list
				}
			}
		})
		if err != nil {
			return nil, fmt.Errorf("failed to parse questions: %w", err)
		}
		if !export {
			return data, nil
		}
		if found == nil {
			return nil, fmt.Errorf("export has no %s table", QuestionTable)
		}
		return found, nil
	}
	return nil, errors.New("questions file is neither an array nor an export object")
}

// tableName returns the name of a phpMyAdmin "table" entry, or "".
func tableName(entry []byte) string {
	kind, err := jsonparser.GetString(entry, "type")
	if err != nil || kind != "table" {
		return ""
	}
	name, err := jsonparser.GetString(entry, "name")
	if err != nil {
		return ""
	}
	return name
}
