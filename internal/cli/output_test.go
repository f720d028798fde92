package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/hyperjump/paperindex/internal/models"
)

func TestParseOutputFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    OutputFormat
		wantErr bool
	}{
		{"", OutputText, false},
		{"text", OutputText, false},
		{"json", OutputJSON, false},
		{"yaml", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseOutputFormat(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func sampleResponse() *models.SearchResponse {
	return &models.SearchResponse{
		Query: "heart",
		Results: []models.ScoredPaper{
			{Paper: models.Paper{ID: "p1", Summary: "Heart summary.", Title: "Heart Study", Year: "2024"}, Score: 0.91},
			{Paper: models.Paper{ID: "p2", Summary: "Other summary."}, Score: 0.5},
		},
		Total:     2,
		QueryTime: 3,
	}
}

func TestWriteSearchResults_Text(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteSearchResults(&buf, sampleResponse(), OutputText); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{`Found 2 results for "heart"`, "1. p1 | Score: 0.9100", "Title: Heart Study (2024)", "Heart summary.", "2. p2"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestWriteSearchResults_Similar(t *testing.T) {
	resp := sampleResponse()
	resp.Query = ""
	resp.SeedID = "p9"
	var buf bytes.Buffer
	if err := WriteSearchResults(&buf, resp, OutputText); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "2 papers similar to p9") {
		t.Errorf("unexpected output:\n%s", buf.String())
	}
}

func TestWriteSearchResults_JSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteSearchResults(&buf, sampleResponse(), OutputJSON); err != nil {
		t.Fatal(err)
	}
	var decoded struct {
		Results []map[string]interface{} `json:"results"`
	}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatal(err)
	}
	if len(decoded.Results) != 2 || decoded.Results[0]["paper_id"] != "p1" {
		t.Errorf("unexpected results: %v", decoded.Results)
	}
	if _, ok := decoded.Results[0]["score"]; !ok {
		t.Error("score missing from flattened result")
	}
}

func TestWriteStatus(t *testing.T) {
	usage := int64(2048)
	status := &models.Status{
		Papers:         3,
		Vectors:        4,
		Consistent:     false,
		DiskUsageBytes: &usage,
		Config:         &models.StatusConfig{IndexType: "memory", EmbeddingDimensions: 384},
	}
	var buf bytes.Buffer
	if err := WriteStatus(&buf, status, OutputText); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"papers:             3", "vectors:            4", "WARNING", "2048", "index_type:         memory"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestWritePaper(t *testing.T) {
	var buf bytes.Buffer
	p := models.Paper{ID: "p1", Summary: "Full summary text.", Year: "2020"}
	if err := WritePaper(&buf, p, OutputText); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, "ID: p1") || !strings.Contains(out, "Year: 2020") || !strings.Contains(out, "Full summary text.") {
		t.Errorf("unexpected output:\n%s", out)
	}
}
