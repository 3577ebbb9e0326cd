package domain

// JobKind identifies one of the two content formats the agent produces.
type JobKind string

const (
	JobKindLong  JobKind = "long"
	JobKindShort JobKind = "short"
)

func (k JobKind) Valid() bool {
	return k == JobKindLong || k == JobKindShort
}

// Language is a supported content locale.
type Language string

const (
	LanguagePT Language = "pt"
	LanguageEN Language = "en"
	LanguageES Language = "es"
)

// Languages lists the supported locales in canonical order. Batch runs and
// status strings follow this order.
var Languages = []Language{LanguagePT, LanguageEN, LanguageES}

func (l Language) Valid() bool {
	for _, lang := range Languages {
		if l == lang {
			return true
		}
	}
	return false
}

// JobID names one in-flight pipeline execution, e.g. "pt-long".
func JobID(lang Language, kind JobKind) string {
	return string(lang) + "-" + string(kind)
}
