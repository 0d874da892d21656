package types

import (
	"encoding/json"

	cbigquery "cloud.google.com/go/bigquery"
)

// JSON stores an event payload in a BigQuery JSON column; empty payloads become NULL.
func JSON(raw json.RawMessage) cbigquery.NullJSON {
	if len(raw) == 0 || string(raw) == "null" {
		return cbigquery.NullJSON{}
	}
	return cbigquery.NullJSON{Valid: true, JSONVal: string(raw)}
}
