package db

// IndexFieldType enumerates supported FT index field types.
type IndexFieldType int

const (
	// IndexFieldNumeric is a numeric field.
	IndexFieldNumeric IndexFieldType = iota
	// IndexFieldTag is a tag field.
	IndexFieldTag
	// IndexFieldText is a text field.
	IndexFieldText
	// IndexFieldGeo is a geographic point field ("lon,lat").
	IndexFieldGeo
)

// IndexField describes a single field in an FT index schema.
type IndexField struct {
	Name  string
	Alias string // AS alias in FT.CREATE SCHEMA
	Type  IndexFieldType

	// TAG options
	TagSeparator     string
	TagCaseSensitive bool

	// Sortable adds SORTABLE, required for SORTBY on this field.
	Sortable bool
}

// IndexDefinition is a complete FT index definition used by FT.CREATE.
// Records are stored as Redis hashes.
type IndexDefinition struct {
	Name     string
	Prefixes []string
	Fields   []IndexField
}

// Validate checks the definition for structural completeness.
func (idx *IndexDefinition) Validate() error {
	if idx.Name == "" {
		return errIndexNameRequired
	}
	if len(idx.Fields) == 0 {
		return errIndexFieldsRequired
	}
	for i := range idx.Fields {
		if idx.Fields[i].Name == "" {
			return errFieldNameRequired
		}
	}
	return nil
}
