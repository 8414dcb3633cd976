package understory

// Language identifies the language of a SourceUnit or Element. Dialects
// lists the IDs of languages that are dialects of this one; a rule restricted
// to a base language may opt into covering its dialects via RuleMeta.Dialects.
type Language struct {
	ID       string
	Dialects []string
}

// Is reports whether the language has the given ID.
func (l Language) Is(id string) bool {
	return l.ID == id
}

// HasDialect reports whether id is a declared dialect of the language.
func (l Language) HasDialect(id string) bool {
	for _, d := range l.Dialects {
		if d == id {
			return true
		}
	}
	return false
}
