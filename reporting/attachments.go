package reporting

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ethereum-optimism/infra/farmsync/types"
)

// AttachmentTypeHTML is the MIME type fragments are attached with
const AttachmentTypeHTML = "text/html"

// AttachmentSink receives rendered fragments for an attachment based report
type AttachmentSink interface {
	Attach(test string, fragment *types.Fragment) error
}

const (
	allureStageFinished = "finished"
	allureStatusUnknown = "unknown"
)

type allureResult struct {
	UUID        string             `json:"uuid"`
	HistoryID   string             `json:"historyId"`
	Name        string             `json:"name"`
	FullName    string             `json:"fullName"`
	Status      string             `json:"status"`
	Stage       string             `json:"stage"`
	Start       int64              `json:"start"`
	Stop        int64              `json:"stop"`
	Parameters  []allureParameter  `json:"parameters"`
	Labels      []allureLabel      `json:"labels"`
	Attachments []allureAttachment `json:"attachments"`
}

type allureParameter struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type allureLabel struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type allureAttachment struct {
	Name   string `json:"name"`
	Source string `json:"source"`
	Type   string `json:"type"`
}

var _ AttachmentSink = (*AllureSink)(nil)

// AllureSink writes fragments into an allure-results directory.
// Every attachment for a test lands on the same result. That is the result
// bound with Bind, usually the one the test framework's allure adapter wrote,
// or else a result the sink creates on the test's first attachment.
type AllureSink struct {
	dir     string
	now     func() time.Time
	mu      sync.Mutex
	results map[string]string // test name to result uuid
}

// NewAllureSink creates the results directory if needed
func NewAllureSink(dir string) (*AllureSink, error) {
	if dir == "" {
		return nil, fmt.Errorf("allure results directory is required")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create allure results directory %s: %w", dir, err)
	}
	return &AllureSink{dir: dir, now: time.Now, results: make(map[string]string)}, nil
}

// Dir returns the results directory
func (s *AllureSink) Dir() string {
	return s.dir
}

// Bind makes test's attachments go to the existing result resultUUID
func (s *AllureSink) Bind(test, resultUUID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results[test] = resultUUID
}

// Attach writes the fragment and adds it to the test's result
func (s *AllureSink) Attach(test string, fragment *types.Fragment) error {
	if fragment == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	source := uuid.New().String() + "-attachment.html"
	if err := os.WriteFile(filepath.Join(s.dir, source), []byte(fragment.Markup), 0644); err != nil {
		return fmt.Errorf("failed to write attachment: %w", err)
	}
	attachment := allureAttachment{Name: fragment.Name, Source: source, Type: AttachmentTypeHTML}

	id, ok := s.results[test]
	if !ok {
		id = uuid.New().String()
		s.results[test] = id
	}
	path := filepath.Join(s.dir, id+"-result.json")

	raw, err := os.ReadFile(path)
	switch {
	case err == nil:
		return appendAttachment(path, raw, attachment)
	case errors.Is(err, fs.ErrNotExist):
		return s.writeResult(path, id, test, fragment.SessionID, attachment)
	default:
		return fmt.Errorf("failed to read allure result: %w", err)
	}
}

func (s *AllureSink) writeResult(path, id, test, sessionID string, attachment allureAttachment) error {
	ts := s.now().UnixMilli()
	result := allureResult{
		UUID:      id,
		HistoryID: uuid.NewSHA1(uuid.NameSpaceURL, []byte(test)).String(),
		Name:      test,
		FullName:  test,
		Status:    allureStatusUnknown,
		Stage:     allureStageFinished,
		Start:     ts,
		Stop:      ts,
		Parameters: []allureParameter{
			{Name: "session", Value: sessionID},
		},
		Labels: []allureLabel{
			{Name: "framework", Value: "farmsync"},
		},
		Attachments: []allureAttachment{attachment},
	}
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode allure result: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write allure result: %w", err)
	}
	return nil
}

// appendAttachment adds to the attachments of an existing result, keeping every other field as written
func appendAttachment(path string, raw []byte, attachment allureAttachment) error {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("malformed allure result %s: %w", filepath.Base(path), err)
	}
	var attachments []json.RawMessage
	if existing, ok := doc["attachments"]; ok && string(existing) != "null" {
		if err := json.Unmarshal(existing, &attachments); err != nil {
			return fmt.Errorf("malformed allure result %s: %w", filepath.Base(path), err)
		}
	}
	added, err := json.Marshal(attachment)
	if err != nil {
		return fmt.Errorf("failed to encode allure attachment: %w", err)
	}
	encoded, err := json.Marshal(append(attachments, added))
	if err != nil {
		return fmt.Errorf("failed to encode allure attachments: %w", err)
	}
	doc["attachments"] = encoded

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode allure result: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write allure result: %w", err)
	}
	return nil
}
