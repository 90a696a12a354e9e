package messagestore

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fluxorio/groupclient/pkg/groupwire"
)

const (
	indexFileName = "index.json"
)

func ownerDir(base, owner string) string {
	return filepath.Join(base, sanitizeOwner(owner))
}

// sanitizeOwner keeps an owner identity usable as a directory component
// without attempting full path traversal defense beyond the obvious
// separator characters — owner identities are operator-supplied, not
// untrusted network input.
func sanitizeOwner(owner string) string {
	out := make([]rune, 0, len(owner))
	for _, r := range owner {
		switch r {
		case '/', '\\', '\x00':
			out = append(out, '_')
		default:
			out = append(out, r)
		}
	}
	return string(out)
}

func messagesLogPath(dir, gid string) string {
	return filepath.Join(dir, fmt.Sprintf("%s.messages.log", sanitizeOwner(gid)))
}

func eventsLogPath(dir, gid string) string {
	return filepath.Join(dir, fmt.Sprintf("%s.events.log", sanitizeOwner(gid)))
}

func loadOwner(dir string) (map[string]*groupState, error) {
	groups := make(map[string]*groupState)

	indexPath := filepath.Join(dir, indexFileName)
	// #nosec G304 -- dir is derived from operator-configured base path.
	data, err := os.ReadFile(indexPath)
	if err != nil {
		if os.IsNotExist(err) {
			return groups, nil
		}
		return nil, fmt.Errorf("read index: %w", err)
	}

	var records []groupwire.GroupRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("unmarshal index: %w", err)
	}

	for _, rec := range records {
		g := &groupState{record: rec}

		msgs, err := readMessageLog(messagesLogPath(dir, rec.GroupID))
		if err != nil {
			return nil, fmt.Errorf("read message log for %s: %w", rec.GroupID, err)
		}
		g.messages = msgs

		evs, err := readEventLog(eventsLogPath(dir, rec.GroupID))
		if err != nil {
			return nil, fmt.Errorf("read event log for %s: %w", rec.GroupID, err)
		}
		g.events = evs

		groups[rec.GroupID] = g
	}
	return groups, nil
}

func readMessageLog(path string) ([]groupwire.GroupMessage, error) {
	// #nosec G304 -- path built from sanitized group id under operator dir.
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	var out []groupwire.GroupMessage
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var m groupwire.GroupMessage
		if err := json.Unmarshal(line, &m); err != nil {
			continue // skip a single corrupt line rather than fail the load
		}
		out = append(out, m)
	}
	return out, scanner.Err()
}

func readEventLog(path string) ([]groupwire.GroupEvent, error) {
	// #nosec G304 -- path built from sanitized group id under operator dir.
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	var out []groupwire.GroupEvent
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var e groupwire.GroupEvent
		if err := json.Unmarshal(line, &e); err != nil {
			continue
		}
		out = append(out, e)
	}
	return out, scanner.Err()
}

// saveOwner writes the index document and rewrites every group's message
// and event logs in full. A full rewrite (rather than append) is required
// here because retention truncation may have dropped the oldest entries
// since the last flush; each rewrite uses write-then-rename so a reader
// never observes a partially-written log.
func saveOwner(dir string, groups map[string]*groupState) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir owner dir: %w", err)
	}

	records := make([]groupwire.GroupRecord, 0, len(groups))
	for _, gid := range sortedGroupIDs(groups) {
		g := groups[gid]
		records = append(records, g.record)

		if err := rewriteMessageLog(messagesLogPath(dir, gid), g.messages); err != nil {
			return fmt.Errorf("write message log for %s: %w", gid, err)
		}
		if err := rewriteEventLog(eventsLogPath(dir, gid), g.events); err != nil {
			return fmt.Errorf("write event log for %s: %w", gid, err)
		}
	}

	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("marshal index: %w", err)
	}
	return atomicWrite(filepath.Join(dir, indexFileName), data)
}

func rewriteMessageLog(path string, msgs []groupwire.GroupMessage) error {
	var buf []byte
	for _, m := range msgs {
		line, err := json.Marshal(m)
		if err != nil {
			return err
		}
		buf = append(buf, line...)
		buf = append(buf, '\n')
	}
	return atomicWrite(path, buf)
}

func rewriteEventLog(path string, evs []groupwire.GroupEvent) error {
	var buf []byte
	for _, e := range evs {
		line, err := json.Marshal(e)
		if err != nil {
			return err
		}
		buf = append(buf, line...)
		buf = append(buf, '\n')
	}
	return atomicWrite(path, buf)
}

func atomicWrite(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".log-*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpPath, path)
}

func deleteGroupFiles(dir, gid string) error {
	if err := os.Remove(messagesLogPath(dir, gid)); err != nil && !os.IsNotExist(err) {
		return err
	}
	if err := os.Remove(eventsLogPath(dir, gid)); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
