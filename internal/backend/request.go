package backend

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"

	"github.com/spigell/resume-agent/internal/logger"
)

const (
	fieldResumeFile     = "resume_file"
	fieldJobDescription = "job_description"
	fieldLocation       = "location"
	fieldSearchQuery    = "search_query"

	acceptType      = "application/json"
	contentEncoding = "gzip"
	requestIDHeader = "X-Request-ID"

	maxLogLength = 200
)

var resumeContentTypes = map[string]string{
	".pdf":  "application/pdf",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

type formField struct {
	name  string
	value string
}

func (c *Client) postMultipart(ctx context.Context, operation, path string, resume *ResumeFile, fields []formField, target any) error {
	body, contentType, err := encodeMultipart(resume, fields)
	if err != nil {
		return fmt.Errorf("encode %s request: %w", operation, err)
	}

	endpoint := c.BaseURL + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return err
	}

	requestID := uuid.NewString()
	req = c.setHeaders(req)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set(requestIDHeader, requestID)

	log := logger.WithFields(c.logger, logger.RequestFields(operation, endpoint, requestID)...)

	resp, err := c.request(req, log)
	if err != nil {
		return &TransportError{Err: err}
	}
	defer resp.Body.Close()

	data, err := readBody(resp)
	if err != nil {
		return &TransportError{Err: err}
	}

	log.Debug("got response from backend",
		zap.Int("status", resp.StatusCode),
		zap.Int("body_length", len(data)),
		zap.String("body_preview", logger.TruncateForLog(string(data), maxLogLength)),
	)

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return &ServerError{
			StatusCode: resp.StatusCode,
			Detail:     parseDetail(data),
			RequestID:  requestID,
		}
	}

	if err := decode(data, target); err != nil {
		return &DecodeError{
			Operation:  operation,
			StatusCode: resp.StatusCode,
			RequestID:  requestID,
			Err:        err,
		}
	}

	return nil
}

func encodeMultipart(resume *ResumeFile, fields []formField) (*bytes.Buffer, string, error) {
	var b bytes.Buffer
	w := multipart.NewWriter(&b)

	if resume != nil {
		part, err := w.CreatePart(resumeHeader(resume.Name))
		if err != nil {
			return nil, "", err
		}

		if _, err := part.Write(resume.Content); err != nil {
			return nil, "", err
		}
	}

	for _, field := range fields {
		part, err := w.CreateFormField(field.name)
		if err != nil {
			return nil, "", err
		}

		if _, err := io.Copy(part, strings.NewReader(field.value)); err != nil {
			return nil, "", err
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}

	return &b, w.FormDataContentType(), nil
}

func resumeHeader(name string) textproto.MIMEHeader {
	name = filepath.Base(strings.TrimSpace(name))
	if name == "" || name == "." || name == string(filepath.Separator) {
		name = "resume"
	}

	contentType, ok := resumeContentTypes[strings.ToLower(filepath.Ext(name))]
	if !ok {
		contentType = "application/octet-stream"
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		fieldResumeFile, quoteEscaper.Replace(name)))
	h.Set("Content-Type", contentType)

	return h
}

func (c *Client) request(req *http.Request, log *zap.Logger) (*http.Response, error) {
	log.Debug("make request")
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		log.Debug("request failed", zap.Error(err))
		return nil, err
	}

	return resp, nil
}

func (c *Client) setHeaders(req *http.Request) *http.Request {
	req.Header.Set("User-Agent", c.UserAgent)
	req.Header.Set("Accept", acceptType)
	req.Header.Set("Accept-Encoding", contentEncoding)

	return req
}

// readBody reads the whole body. Accept-Encoding is set explicitly, so the
// transport leaves gzip decoding to us.
func readBody(resp *http.Response) ([]byte, error) {
	var reader io.Reader = resp.Body
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gzipReader, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, err
		}
		defer gzipReader.Close()
		reader = gzipReader
	}

	return io.ReadAll(reader)
}

// decode unmarshals the JSON body and maps it onto target with weak typing,
// so a score sent as 72.0 or "72" still lands in an int.
func decode(data []byte, target any) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	if _, ok := raw.(map[string]any); !ok {
		return fmt.Errorf("expected a JSON object, got %T", raw)
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		TagName:          "json",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}

	return decoder.Decode(raw)
}

// parseDetail extracts a message from an error body. FastAPI sends either a
// string or a list of validation errors with a "msg" key.
func parseDetail(data []byte) string {
	var body struct {
		Detail any `json:"detail"`
	}

	if err := json.Unmarshal(data, &body); err != nil {
		return ""
	}

	switch detail := body.Detail.(type) {
	case string:
		return strings.TrimSpace(detail)
	case []any:
		messages := make([]string, 0, len(detail))
		for _, item := range detail {
			switch v := item.(type) {
			case string:
				if msg := strings.TrimSpace(v); msg != "" {
					messages = append(messages, msg)
				}
			case map[string]any:
				if msg, ok := v["msg"].(string); ok && strings.TrimSpace(msg) != "" {
					messages = append(messages, strings.TrimSpace(msg))
				}
			}
		}
		return strings.Join(messages, "; ")
	default:
		return ""
	}
}
