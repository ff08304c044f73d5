package diag

type Severity uint8

const (
	SevInfo Severity = iota
	SevWarning
	// SevError fails the compilation of the module.
	SevError
)

var severityNames = [...]string{SevInfo: "INFO", SevWarning: "WARNING", SevError: "ERROR"}

func (s Severity) String() string {
	if int(s) < len(severityNames) {
		return severityNames[s]
	}
	return "UNKNOWN"
}
