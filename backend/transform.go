package backend

import (
	"encoding/json"
	"fmt"

	"github.com/jackc/apod/backend/data"
	"github.com/jackc/pgx/v5/pgtype"
)

// Transform picks the stored fields out of an API response. It returns a single row. Absent keys and JSON nulls become
// NULL fields rather than errors; only an empty response is rejected.
func Transform(response Response) ([]data.APODRow, error) {
	if len(response) == 0 {
		return nil, ErrEmptyResponse
	}

	row := data.APODRow{
		Title:          responseText(response, "title"),
		Explanation:    responseText(response, "explanation"),
		URL:            responseText(response, "url"),
		Date:           responseText(response, "date"),
		MediaType:      responseText(response, "media_type"),
		HDURL:          responseText(response, "hdurl"),
		ServiceVersion: responseText(response, "service_version"),
	}

	return []data.APODRow{row}, nil
}

func responseText(response Response, key string) pgtype.Text {
	switch v := response[key].(type) {
	case nil:
		return pgtype.Text{}
	case string:
		return pgtype.Text{String: v, Valid: true}
	case json.Number, bool, float64:
		return pgtype.Text{String: fmt.Sprint(v), Valid: true}
	default:
		buf, err := json.Marshal(v)
		if err != nil {
			return pgtype.Text{String: fmt.Sprint(v), Valid: true}
		}
		return pgtype.Text{String: string(buf), Valid: true}
	}
}
