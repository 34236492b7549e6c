package currents

import (
	"encoding/json"

	"ticker_go/internal/domain"
)

// AuthMode selects where the API key is sent.
type AuthMode string

const (
	// AuthQuery sends the key as the apiKey query parameter.
	AuthQuery AuthMode = "query"
	// AuthHeader sends the key in the Authorization header.
	AuthHeader AuthMode = "header"
)

const statusOK = "ok"

// response is decoded once, then split into the success or error variant.
type response struct {
	Status  string          `json:"status"`
	News    json.RawMessage `json:"news"`
	Message string          `json:"message"`
	Code    json.RawMessage `json:"code"`
}

type result struct {
	headlines []domain.RawHeadline
	message   string
	ok        bool
}

func decode(body []byte) result {
	var payload response
	if err := json.Unmarshal(body, &payload); err != nil {
		return result{}
	}
	res := result{message: payload.Message}
	if payload.Status != statusOK {
		return res
	}
	if len(payload.News) == 0 || payload.News[0] != '[' {
		return res
	}
	var records []json.RawMessage
	if err := json.Unmarshal(payload.News, &records); err != nil {
		return res
	}
	// A malformed record is dropped without failing the batch.
	res.headlines = make([]domain.RawHeadline, 0, len(records))
	for _, record := range records {
		var h domain.RawHeadline
		if err := json.Unmarshal(record, &h); err != nil {
			continue
		}
		res.headlines = append(res.headlines, h)
	}
	res.ok = true
	return res
}
