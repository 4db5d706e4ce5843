package protocol

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

var ErrUnknownCodec = errors.New("protocol: unknown codec")

// Codec frames envelopes and their payloads. Each connection picks one at
// handshake time.
type Codec interface {
	Name() string
	// Binary reports whether frames travel as binary websocket messages.
	Binary() bool
	Marshal(v any) ([]byte, error)
	Unmarshal(b []byte, v any) error

	encodeEnvelope(t string, to Address, seq uint64, p []byte) ([]byte, error)
	decodeEnvelope(b []byte) (Envelope, error)
}

var (
	JSON    Codec = jsonCodec{}
	Msgpack Codec = msgpackCodec{}
)

func CodecByName(name string) (Codec, error) {
	switch name {
	case "", "json":
		return JSON, nil
	case "msgpack":
		return Msgpack, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownCodec, name)
}

type jsonCodec struct{}

type jsonEnvelope struct {
	T   string          `json:"t"`
	To  Address         `json:"to"`
	Seq uint64          `json:"seq,omitempty"`
	P   json.RawMessage `json:"p"`
}

func (jsonCodec) Name() string { return "json" }
func (jsonCodec) Binary() bool { return false }
func (jsonCodec) Marshal(v any) ([]byte, error) { return json.Marshal(v) }
func (jsonCodec) Unmarshal(b []byte, v any) error { return json.Unmarshal(b, v) }

func (jsonCodec) encodeEnvelope(t string, to Address, seq uint64, p []byte) ([]byte, error) {
	return json.Marshal(jsonEnvelope{T: t, To: to, Seq: seq, P: p})
}

func (jsonCodec) decodeEnvelope(b []byte) (Envelope, error) {
	var e jsonEnvelope
	if err := json.Unmarshal(b, &e); err != nil {
		return Envelope{}, err
	}
	return Envelope{T: e.T, To: e.To, Seq: e.Seq, P: e.P}, nil
}

type msgpackCodec struct{}

type msgpackEnvelope struct {
	T   string             `msgpack:"t"`
	To  Address            `msgpack:"to"`
	Seq uint64             `msgpack:"seq,omitempty"`
	P   msgpack.RawMessage `msgpack:"p"`
}

func (msgpackCodec) Name() string { return "msgpack" }
func (msgpackCodec) Binary() bool { return true }
func (msgpackCodec) Marshal(v any) ([]byte, error) { return msgpack.Marshal(v) }
func (msgpackCodec) Unmarshal(b []byte, v any) error { return msgpack.Unmarshal(b, v) }

func (msgpackCodec) encodeEnvelope(t string, to Address, seq uint64, p []byte) ([]byte, error) {
	return msgpack.Marshal(msgpackEnvelope{T: t, To: to, Seq: seq, P: p})
}

func (msgpackCodec) decodeEnvelope(b []byte) (Envelope, error) {
	var e msgpackEnvelope
	if err := msgpack.Unmarshal(b, &e); err != nil {
		return Envelope{}, err
	}
	return Envelope{T: e.T, To: e.To, Seq: e.Seq, P: e.P}, nil
}

// EncodeWith frames m with codec c.
func EncodeWith(c Codec, m Message) ([]byte, error) {
	if m.T == "" {
		return nil, fmt.Errorf("protocol: encode envelope with empty type")
	}
	if m.Payload == nil {
		return nil, fmt.Errorf("protocol: encode %q with nil payload", m.T)
	}
	pb, err := c.Marshal(m.Payload)
	if err != nil {
		return nil, fmt.Errorf("protocol: encode %q payload: %w", m.T, err)
	}
	return c.encodeEnvelope(m.T, m.To, m.Seq, pb)
}

// Encode frames a broadcast JSON envelope.
func Encode(t string, payload any) ([]byte, error) {
	return EncodeWith(JSON, Message{T: t, Payload: payload})
}

func DecodeEnvelopeWith(c Codec, b []byte) (Envelope, error) {
	if len(b) == 0 {
		return Envelope{}, fmt.Errorf("protocol: decode empty %s frame", c.Name())
	}
	e, err := c.decodeEnvelope(b)
	if err != nil {
		return Envelope{}, fmt.Errorf("protocol: decode %s envelope: %w", c.Name(), err)
	}
	return e, nil
}

func DecodeEnvelope(b []byte) (Envelope, error) {
	return DecodeEnvelopeWith(JSON, b)
}

// DecodePayloadWith unmarshals the envelope payload into a fresh T.
func DecodePayloadWith[T any](c Codec, env Envelope) (T, error) {
	var out T
	if len(env.P) == 0 {
		return out, fmt.Errorf("protocol: empty payload for type %q", env.T)
	}
	err := c.Unmarshal(env.P, &out)
	return out, err
}

func DecodePayload[T any](env Envelope) (T, error) {
	return DecodePayloadWith[T](JSON, env)
}
