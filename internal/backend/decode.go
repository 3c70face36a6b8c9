package backend

import (
	"math"
	"strings"
	"time"

	"guardian/internal/analyzer"

	"github.com/tidwall/gjson"
)

// Response field names of the /analyze contract.
const (
	fieldPlagiarism = "plagiarism_score"
	fieldFakeNews   = "fake_news_score"
	fieldVerdict    = "verdict"
	fieldCheckedAt  = "checked_at"
)

// epochMillisThreshold separates epoch seconds from epoch milliseconds.
const epochMillisThreshold = 1e12

// isoLayouts are tried in order for string timestamps. Layouts without a zone
// are read as UTC.
var isoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
}

// decodeResult validates a 2xx body and converts it into a Result.
func decodeResult(status int, body []byte) (*analyzer.Result, error) {
	if !gjson.ValidBytes(body) {
		return nil, &analyzer.MalformedError{Code: status, Reason: "body is not valid JSON"}
	}
	doc := gjson.ParseBytes(body)
	if !doc.IsObject() {
		return nil, &analyzer.MalformedError{Code: status, Reason: "body is not a JSON object"}
	}

	plagiarism, err := requireNumber(status, doc, fieldPlagiarism)
	if err != nil {
		return nil, err
	}
	fakeNews, err := requireNumber(status, doc, fieldFakeNews)
	if err != nil {
		return nil, err
	}

	verdict := doc.Get(fieldVerdict)
	if !verdict.Exists() || verdict.Type == gjson.Null {
		return nil, &analyzer.MalformedError{Code: status, Field: fieldVerdict, Reason: "is missing"}
	}
	if verdict.Type != gjson.String {
		return nil, &analyzer.MalformedError{Code: status, Field: fieldVerdict, Reason: "is not a string"}
	}

	return &analyzer.Result{
		PlagiarismScore: plagiarism,
		FakeNewsScore:   fakeNews,
		Verdict:         verdict.String(),
		CheckedAt:       parseCheckedAt(doc.Get(fieldCheckedAt)),
	}, nil
}

func requireNumber(status int, doc gjson.Result, field string) (float64, error) {
	v := doc.Get(field)
	if !v.Exists() || v.Type == gjson.Null {
		return 0, &analyzer.MalformedError{Code: status, Field: field, Reason: "is missing"}
	}
	if v.Type != gjson.Number {
		return 0, &analyzer.MalformedError{Code: status, Field: field, Reason: "is not a number"}
	}
	f := v.Float()
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, &analyzer.MalformedError{Code: status, Field: field, Reason: "is not finite"}
	}
	return f, nil
}

// parseCheckedAt accepts ISO-8601 strings and epoch seconds or milliseconds.
// Anything else, including absence, yields nil so the line is omitted.
func parseCheckedAt(v gjson.Result) *time.Time {
	switch v.Type {
	case gjson.String:
		s := strings.TrimSpace(v.String())
		for _, layout := range isoLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return &t
			}
		}
		return nil
	case gjson.Number:
		f := v.Float()
		if f <= 0 || math.IsNaN(f) || math.IsInf(f, 0) {
			return nil
		}
		var t time.Time
		if f >= epochMillisThreshold {
			t = time.UnixMilli(int64(f)).UTC()
		} else {
			sec, frac := math.Modf(f)
			t = time.Unix(int64(sec), int64(frac*1e9)).UTC()
		}
		return &t
	default:
		return nil
	}
}
