package notion

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FinResearch/internal/domain/models"
	pkghttp "FinResearch/pkg/http"
)

func report() *models.Report {
	return &models.Report{
		Result: &models.AggregateResult{
			RunID: "run-9",
			Token: "eth",
			Sections: map[models.SectionName]models.JobResult[string]{
				models.SectionPrice:     models.Succeeded("p"),
				models.SectionNews:      models.Succeeded("n"),
				models.SectionSentiment: models.Failed[string](models.ErrUnavailable, "down"),
			},
			Sentiment:   map[models.SectionName]models.Sentiment{models.SectionNews: models.SentimentBearish},
			GeneratedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		},
		Sections: []models.DocumentSection{
			{Kind: models.KindAllocation, Title: "Weekly Allocation Guidance", Body: "Bias: Hold\n\n- price below SMA50\n### Next checks\nwatch support"},
		},
	}
}

func TestNew_RequiresCredentials(t *testing.T) {
	_, err := New(Config{DatabaseID: "db"}, nil)
	assert.Error(t, err)
	_, err = New(Config{APIKey: "k"}, nil)
	assert.Error(t, err)
}

func TestSink_Deliver(t *testing.T) {
	var body map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/pages", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.Equal(t, APIVersion, r.Header.Get("Notion-Version"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		_, _ = w.Write([]byte(`{"id":"page-1","url":"https://notion.so/page-1"}`))
	}))
	defer srv.Close()

	sink, err := New(Config{BaseURL: srv.URL + "/", APIKey: "secret", DatabaseID: "db-1"}, nil)
	require.NoError(t, err)
	require.NoError(t, sink.Deliver(context.Background(), report()))

	assert.Equal(t, "db-1", body["parent"].(map[string]interface{})["database_id"])
	props := body["properties"].(map[string]interface{})
	sel := func(name string) string {
		return props[name].(map[string]interface{})["select"].(map[string]interface{})["name"].(string)
	}
	assert.Equal(t, "ETH", sel("Token"))
	assert.Equal(t, "Medium", sel("Confidence"))
	assert.Equal(t, "Bearish", sel("Sentiment"))
	title := props["Name"].(map[string]interface{})["title"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, "ETH Research Report - 2026-01-02 03:04 UTC", title["text"].(map[string]interface{})["content"])

	children := body["children"].([]interface{})
	require.Len(t, children, 5)
	types := make([]string, 0, len(children))
	for _, c := range children {
		types = append(types, c.(map[string]interface{})["type"].(string))
	}
	assert.Equal(t, []string{"heading_2", "paragraph", "bulleted_list_item", "heading_3", "paragraph"}, types)
}

func TestSink_DeliverStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"unauthorized"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	sink, err := New(Config{BaseURL: srv.URL, APIKey: "bad", DatabaseID: "db"}, nil)
	require.NoError(t, err)
	err = sink.Deliver(context.Background(), report())
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, pkghttp.StatusCode(err))
}

func TestConfidenceAndSentiment(t *testing.T) {
	res := report().Result
	res.Sections[models.SectionSentiment] = models.Succeeded("s")
	assert.Equal(t, "High", Confidence(res))

	res.Sections = map[models.SectionName]models.JobResult[string]{}
	assert.Equal(t, "Low", Confidence(res))

	res.Sentiment = map[models.SectionName]models.Sentiment{
		models.SectionNews:      models.SentimentBearish,
		models.SectionSentiment: models.SentimentBullish,
	}
	assert.Equal(t, "Bullish", OverallSentiment(res))
	res.Sentiment = nil
	assert.Equal(t, "Neutral", OverallSentiment(res))
}

func TestBlocks_Limits(t *testing.T) {
	long := strings.Repeat("x", maxTextRune+50)
	lines := make([]string, 0, maxBlocks+10)
	for i := 0; i < maxBlocks+10; i++ {
		lines = append(lines, long)
	}
	blocks := Blocks([]models.DocumentSection{{Title: "T", Body: strings.Join(lines, "\n")}})
	require.Len(t, blocks, maxBlocks)

	rt := blocks[1]["paragraph"].(map[string]interface{})["rich_text"].([]map[string]interface{})
	assert.Len(t, rt[0]["text"].(map[string]string)["content"], maxTextRune)
}
