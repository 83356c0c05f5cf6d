package transcode

import (
	"fmt"
	"strings"
)

// Kind is the target PostgreSQL category of a column.
type Kind int

const (
	KindText Kind = iota
	KindInteger
	KindNumeric
	KindBoolean
	KindTimestamp
	KindJSON
	KindEnum
)

var kindNames = map[Kind]string{
	KindText:      "text",
	KindInteger:   "integer",
	KindNumeric:   "numeric",
	KindBoolean:   "boolean",
	KindTimestamp: "timestamp",
	KindJSON:      "json",
	KindEnum:      "enum",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ParseKind accepts the names used in schema files, plus a few aliases.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text", "string", "varchar":
		return KindText, nil
	case "integer", "int", "bigint", "smallint":
		return KindInteger, nil
	case "numeric", "decimal", "float", "double":
		return KindNumeric, nil
	case "boolean", "bool":
		return KindBoolean, nil
	case "timestamp", "datetime":
		return KindTimestamp, nil
	case "json", "jsonb":
		return KindJSON, nil
	case "enum":
		return KindEnum, nil
	}
	return KindText, fmt.Errorf("unknown column type %q", s)
}

// FormatBcrypt marks a text column whose values must be bcrypt hashes.
const FormatBcrypt = "bcrypt"

// Type describes how a field is re-emitted.
type Type struct {
	Kind Kind

	// Name is the PostgreSQL enum type, used only with KindEnum.
	Name string

	// Format is an extra check for text values. FormatBcrypt is the only one.
	Format string
}

var (
	Text      = Type{Kind: KindText}
	Integer   = Type{Kind: KindInteger}
	Numeric   = Type{Kind: KindNumeric}
	Boolean   = Type{Kind: KindBoolean}
	Timestamp = Type{Kind: KindTimestamp}
	JSON      = Type{Kind: KindJSON}
	Bcrypt    = Type{Kind: KindText, Format: FormatBcrypt}
)

// Enum returns the type of a column cast to the named PostgreSQL enum.
func Enum(name string) Type {
	return Type{Kind: KindEnum, Name: name}
}

// Cast returns the suffix appended after a quoted literal, or "".
func (t Type) Cast() string {
	switch t.Kind {
	case KindEnum:
		return "::" + t.Name
	case KindJSON:
		return "::jsonb"
	}
	return ""
}

func (t Type) String() string {
	switch {
	case t.Kind == KindEnum:
		return "enum(" + t.Name + ")"
	case t.Format != "":
		return t.Kind.String() + "/" + t.Format
	}
	return t.Kind.String()
}

// Column pairs a target column name with its type.
type Column struct {
	Name string
	Type Type
}
