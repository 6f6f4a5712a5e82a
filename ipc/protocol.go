package ipc

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
)

// maxFrame bounds a single envelope. A full turn on a large map with every
// water tile listed stays well under this.
const maxFrame = 8 << 20

// Envelope is the wire format shared with the game engine bridge.
// Data is kept as RawMessage so handlers can defer deserialization to the concrete type.
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

func NewEnvelope(msgType string, data any) (Envelope, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return Envelope{}, fmt.Errorf("marshal data: %w", err)
	}
	return Envelope{Type: msgType, Data: raw}, nil
}

// ReadEnvelope reads a single length-prefixed JSON envelope.
// The prefix is a 4-byte little-endian payload length.
func ReadEnvelope(r io.Reader) (Envelope, error) {
	var length uint32
	if err := binary.Read(r, binary.LittleEndian, &length); err != nil {
		return Envelope{}, fmt.Errorf("read length: %w", err)
	}

	// Guard against corrupted frames or malicious payloads.
	if length == 0 || length > maxFrame {
		return Envelope{}, fmt.Errorf("invalid message length: %d", length)
	}

	payload := make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		return Envelope{}, fmt.Errorf("read payload: %w", err)
	}

	return decodeEnvelope(payload)
}

func WriteEnvelope(w io.Writer, env Envelope) error {
	payload, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}

	// One write per frame so concurrent readers never see a split prefix.
	frame := make([]byte, 4+len(payload))
	binary.LittleEndian.PutUint32(frame, uint32(len(payload)))
	copy(frame[4:], payload)
	if _, err := w.Write(frame); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}

	return nil
}

func decodeEnvelope(payload []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return Envelope{}, fmt.Errorf("unmarshal envelope: %w", err)
	}
	if env.Type == "" {
		return Envelope{}, fmt.Errorf("envelope missing type")
	}
	return env, nil
}
