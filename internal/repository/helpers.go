package repository

import "encoding/json"

// decodeInto converts a dynamically typed store result into a concrete
// struct via a JSON round trip. The driver hands back maps with
// interface{} values, so unmarshalling through JSON is the simplest way
// to apply the struct tags consistently.
func decodeInto(raw interface{}, dst interface{}) error {
	data, err := json.Marshal(raw)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dst)
}

// extractQueryResults extracts the result rows from a SurrealDB query
// response, which arrives as [{status, result: [...]}, ...].
func extractQueryResults(result interface{}) []interface{} {
	results, ok := result.([]interface{})
	if !ok || len(results) == 0 {
		return nil
	}
	if first, ok := results[0].(map[string]interface{}); ok {
		if rows, ok := first["result"].([]interface{}); ok {
			return rows
		}
	}
	// Direct array format
	return results
}
