package payload

import (
	"bytes"
	"encoding/json"
)

// Parse decodes a retrieve reply. It never touches storage or network.
//
// Syntax errors and wrongly typed fields yield ErrMalformedPayload.
// A decodable reply without device id, timestamp or any sensor reading
// yields an *IncompleteError (ErrIncompletePayload). Optional sections may be absent.
func Parse(data []byte) (*RawSnapshot, error) {
	doc := bytes.TrimSpace(data)
	if len(doc) == 0 {
		return nil, malformed("empty document")
	}
	// json.Unmarshal accepts a bare null into a struct; the reply must be an object.
	if doc[0] != '{' {
		return nil, malformed("document is not a JSON object")
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, malformed("%v", err)
	}
	if env.RetrieveReply == nil {
		return nil, &IncompleteError{Missing: []string{"retrieve_reply"}}
	}

	raw := env.RetrieveReply
	if missing := raw.missingRequired(); len(missing) > 0 {
		return nil, &IncompleteError{Missing: missing}
	}
	return raw, nil
}

// missingRequired checks the minimal required set.
func (s *RawSnapshot) missingRequired() []string {
	var missing []string
	if s.Status == nil || s.Status.DeviceID == nil {
		missing = append(missing, "status.device_id")
	}
	if _, ok := s.Timestamp(); !ok {
		missing = append(missing, "report.report_time")
	}
	if !s.Report.HasSensorReading() {
		missing = append(missing, "report.<sensor reading>")
	}
	return missing
}
