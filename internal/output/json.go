package output

import (
	"encoding/json"

	"github.com/kwradar/kwradar/internal/core"
)

// JSONFormatter renders results as JSON.
type JSONFormatter struct {
	Indent bool
}

// FormatReport renders a seed report as JSON.
func (f *JSONFormatter) FormatReport(report *core.SeedReport) (string, error) {
	if report == nil {
		return "", nil
	}
	return f.marshal(report)
}

// FormatScores renders scored keywords as JSON.
func (f *JSONFormatter) FormatScores(scores []core.KeywordScore) (string, error) {
	if len(scores) == 0 {
		return "[]", nil
	}
	return f.marshal(scores)
}

func (f *JSONFormatter) marshal(v any) (string, error) {
	var (
		data []byte
		err  error
	)

	if f.Indent {
		data, err = json.MarshalIndent(v, "", "  ")
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return "", err
	}

	return string(data), nil
}
