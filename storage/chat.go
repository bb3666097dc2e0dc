package storage

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// ChatRecord is one message in a thread's transcript.
type ChatRecord struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// ChatStore persists conversation transcripts, one append-only JSONL
// file per thread:
//
//	<root>/<threadID>.jsonl
//
// Transcripts feed the memory loader, which replays recent turns into
// workflow state at the start of each invocation.
type ChatStore struct {
	mu   sync.Mutex
	root string
}

// NewChatStore creates a chat store rooted at dir, creating the
// directory if needed.
func NewChatStore(dir string) (*ChatStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("storage: chat root directory cannot be empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: create chat root: %w", err)
	}
	return &ChatStore{root: dir}, nil
}

// Append adds a message to the thread's transcript.
func (c *ChatStore) Append(threadID, role, content string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	rec := ChatRecord{
		Role:      role,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
	line, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("storage: marshal chat record: %w", err)
	}

	f, err := os.OpenFile(c.path(threadID), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("storage: open transcript: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("storage: append transcript: %w", err)
	}
	return nil
}

// Recent returns up to n most recent messages in chronological order.
// A thread with no transcript yields an empty slice, not an error.
func (c *ChatStore) Recent(threadID string, n int) ([]ChatRecord, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	f, err := os.Open(c.path(threadID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("storage: open transcript: %w", err)
	}
	defer f.Close()

	var records []ChatRecord
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		var rec ChatRecord
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			// Skip torn or corrupt lines; the rest of the transcript
			// is still usable.
			continue
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("storage: scan transcript: %w", err)
	}

	if n > 0 && len(records) > n {
		records = records[len(records)-n:]
	}
	return records, nil
}

func (c *ChatStore) path(threadID string) string {
	return filepath.Join(c.root, threadID+".jsonl")
}
