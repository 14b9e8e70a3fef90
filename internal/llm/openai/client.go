package openai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joseph-ayodele/cim-tables/internal/llm"
)

// ExtractTables implements llm.TableExtractor against the OpenAI Responses
// API. The document travels as a base64 input_file data URI; the extraction
// schema is sent as a structured-output constraint and the returned text is
// strictly re-validated against the same schema before decoding.
func (c *Client) ExtractTables(ctx context.Context, doc llm.Document) (*llm.ExtractionResult, []byte, error) {
	rid := uuid.New().String()
	start := time.Now()

	c.log.Info("llm.extract.start",
		"req_id", rid,
		"model", c.cfg.Model,
		"temp", c.cfg.Temperature,
		"filename", doc.Filename,
		"document_bytes", len(doc.Content),
	)

	schema := llm.BuildExtractionJSONSchema()
	fileDataURI := "data:application/pdf;base64," + base64.StdEncoding.EncodeToString(doc.Content)

	body := map[string]any{
		"model":             c.cfg.Model,
		"temperature":       c.cfg.Temperature,
		"max_output_tokens": c.cfg.MaxOutputTokens,
		"input": []map[string]any{
			{
				"role": "system",
				"content": []map[string]any{
					{"type": "input_text", "text": llm.BuildSystemPrompt()},
				},
			},
			{
				"role": "user",
				"content": []map[string]any{
					{"type": "input_text", "text": llm.BuildUserPrompt(doc.Filename)},
					{"type": "input_file", "filename": doc.Filename, "file_data": fileDataURI},
				},
			},
		},
		"text": map[string]any{
			"format": map[string]any{
				"type":   "json_schema",
				"name":   "extraction_result",
				"strict": true,
				"schema": schema,
			},
		},
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/responses"
	raw, err := c.post(ctx, endpoint, body)
	if err != nil {
		c.log.Error("llm.extract.http_error",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, nil, &llm.AIError{Kind: llm.AITransport, Message: "openai request failed", Cause: err}
	}

	content, refusal, err := parseResponsesOutput(raw)
	if err != nil {
		c.log.Error("llm.extract.decode_error",
			"req_id", rid, "error", err, "raw_bytes", len(raw),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, raw, &llm.AIError{Kind: llm.AIMalformed, Message: "unreadable openai response", Cause: err}
	}
	if refusal != "" {
		c.log.Warn("llm.extract.refused",
			"req_id", rid, "refusal", refusal,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, raw, &llm.AIError{Kind: llm.AIRefused, Message: refusal}
	}

	rawContent := []byte(strings.TrimSpace(content))
	if err := llm.ValidateJSONAgainstSchema(schema, rawContent); err != nil {
		c.log.Error("llm.extract.schema_validation_failed",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, rawContent, &llm.AIError{Kind: llm.AIMalformed, Message: "schema validation failed", Cause: err}
	}

	out, err := llm.DecodeExtractionResult(rawContent)
	if err != nil {
		c.log.Error("llm.extract.unmarshal_failed",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, rawContent, &llm.AIError{Kind: llm.AIMalformed, Message: "decode failed", Cause: err}
	}

	c.log.Info("llm.extract.ok",
		"req_id", rid,
		"tables", len(out.Tables),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out, rawContent, nil
}

// parseResponsesOutput pulls the first output_text (or refusal) out of a
// Responses API payload.
func parseResponsesOutput(raw []byte) (content, refusal string, err error) {
	var resp struct {
		Output []struct {
			Type    string `json:"type"`
			Content []struct {
				Type    string `json:"type"`
				Text    string `json:"text"`
				Refusal string `json:"refusal"`
			} `json:"content"`
		} `json:"output"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", "", fmt.Errorf("decode openai response: %w", err)
	}
	for _, out := range resp.Output {
		if out.Type != "" && out.Type != "message" {
			continue
		}
		for _, part := range out.Content {
			switch part.Type {
			case "refusal":
				return "", part.Refusal, nil
			case "output_text":
				return part.Text, "", nil
			}
		}
	}
	return "", "", fmt.Errorf("no output content in openai response")
}

func (c *Client) post(ctx context.Context, url string, body map[string]any) ([]byte, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("openai http error: %w", err)
	}
	defer func(Body io.ReadCloser) {
		if err := Body.Close(); err != nil {
			c.log.Warn("openai response body close error", "error", err)
		}
	}(resp.Body)

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("openai status %d: %s", resp.StatusCode, string(raw))
	}
	return raw, nil
}
