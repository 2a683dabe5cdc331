package nimcheck

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/sashabaranov/go-openai"
)

const (
	dataPrefix   = "data:"
	doneSentinel = "data: [DONE]"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// StreamDecoder turns raw transport output into an ordered sequence of
// non-empty content fragments. One decoder serves exactly one streaming
// call; it is not safe for concurrent use and must not be reused.
//
// Line-oriented transports feed complete records through DecodeLine.
// Byte-oriented transports feed arbitrary chunks through Feed; the
// decoder buffers the undecoded byte remainder, so records and multi-byte
// runes split across chunk boundaries are reassembled intact.
type StreamDecoder struct {
	buf     []byte
	started bool
	done    bool
}

func NewStreamDecoder() *StreamDecoder {
	return &StreamDecoder{}
}

// Done reports whether the terminal marker has been observed. Once done,
// the decoder emits nothing further.
func (d *StreamDecoder) Done() bool {
	return d.done
}

// Feed appends a raw byte chunk and returns the fragments completed by it.
// Only records terminated by a newline are processed; the trailing
// remainder stays buffered until the next chunk.
func (d *StreamDecoder) Feed(chunk []byte) []string {
	if d.done || len(chunk) == 0 {
		return nil
	}
	d.buf = append(d.buf, chunk...)
	if !d.started && len(d.buf) >= len(utf8BOM) {
		d.buf = bytes.TrimPrefix(d.buf, utf8BOM)
		d.started = true
	}
	idx := bytes.LastIndexByte(d.buf, '\n')
	if idx < 0 {
		return nil
	}
	complete := d.buf[:idx]
	d.buf = append([]byte(nil), d.buf[idx+1:]...)
	var fragments []string
	for _, record := range bytes.Split(complete, []byte{'\n'}) {
		fragment, ok := d.DecodeLine(decodePermissive(record))
		if ok {
			fragments = append(fragments, fragment)
		}
		if d.done {
			break
		}
	}
	return fragments
}

// DecodeLine decodes one complete record. It returns a fragment and true
// only when the record carries non-empty delta content. Empty records,
// keep-alive lines, and malformed JSON are skipped silently.
func (d *StreamDecoder) DecodeLine(line string) (string, bool) {
	if d.done {
		return "", false
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return "", false
	}
	if line == doneSentinel {
		d.done = true
		return "", false
	}
	if !strings.HasPrefix(line, dataPrefix) {
		return "", false
	}
	payload := strings.TrimSpace(strings.TrimPrefix(line, dataPrefix))
	if payload == "" {
		return "", false
	}
	var chunk openai.ChatCompletionStreamResponse
	if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
		// malformed partial records are expected transiently
		return "", false
	}
	if len(chunk.Choices) == 0 {
		return "", false
	}
	content := chunk.Choices[0].Delta.Content
	if content == "" {
		return "", false
	}
	return content, true
}

// Flush decodes whatever is still buffered when the transport closes
// without a trailing newline.
func (d *StreamDecoder) Flush() (string, bool) {
	if d.done || len(d.buf) == 0 {
		return "", false
	}
	record := d.buf
	d.buf = nil
	return d.DecodeLine(decodePermissive(record))
}

// decodePermissive drops undecodable byte sequences instead of failing
// the stream.
func decodePermissive(record []byte) string {
	return strings.ToValidUTF8(string(record), "")
}
