package protocol

import (
	"errors"
	"testing"

	"github.com/Droledami/kubblin/game"
)

func TestCodecByName(t *testing.T) {
	for _, name := range []string{"", "json", "msgpack"} {
		if _, err := CodecByName(name); err != nil {
			t.Fatalf("CodecByName(%q): %v", name, err)
		}
	}
	if _, err := CodecByName("xml"); !errors.Is(err, ErrUnknownCodec) {
		t.Fatalf("CodecByName(xml) err = %v, want ErrUnknownCodec", err)
	}
	if JSON.Binary() || !Msgpack.Binary() {
		t.Fatalf("unexpected Binary flags")
	}
}

func TestHintFramesInBothCodecs(t *testing.T) {
	for _, c := range []Codec{JSON, Msgpack} {
		t.Run(c.Name(), func(t *testing.T) {
			in := Hint{Cell: game.Cell{X: 2, Z: 4}, Bucket: game.BucketClose.String()}
			b, err := EncodeWith(c, Message{T: MsgHint, To: All(), Seq: 7, Payload: in})
			if err != nil {
				t.Fatalf("encode: %v", err)
			}
			env, err := DecodeEnvelopeWith(c, b)
			if err != nil {
				t.Fatalf("decode envelope: %v", err)
			}
			if env.T != MsgHint || env.Seq != 7 || env.To.Mode != Broadcast {
				t.Fatalf("envelope = %+v", env)
			}
			out, err := DecodePayloadWith[Hint](c, env)
			if err != nil {
				t.Fatalf("decode payload: %v", err)
			}
			if out != in {
				t.Fatalf("payload = %+v, want %+v", out, in)
			}
		})
	}
}

func TestUnicastAddressSurvivesMsgpack(t *testing.T) {
	b, err := EncodeWith(Msgpack, Message{T: MsgNotYourTurn, To: To(1), Payload: NotYourTurn{PlayerID: 1}})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	env, err := DecodeEnvelopeWith(Msgpack, b)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.To != To(1) {
		t.Fatalf("To = %+v, want unicast 1", env.To)
	}
}

func TestEncodeRejectsIncompleteMessages(t *testing.T) {
	if _, err := Encode("", Ready{}); err == nil {
		t.Fatalf("expected error for empty type")
	}
	if _, err := Encode(MsgReady, nil); err == nil {
		t.Fatalf("expected error for nil payload")
	}
	if _, err := DecodeEnvelope(nil); err == nil {
		t.Fatalf("expected error for empty frame")
	}
	if _, err := DecodeEnvelope([]byte("{not json")); err == nil {
		t.Fatalf("expected error for malformed frame")
	}
}

func TestEmptyPayloadStructsEncode(t *testing.T) {
	b, err := Encode(MsgReplay, Replay{})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	env, err := DecodeEnvelope(b)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if _, err := DecodePayload[Replay](env); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
}

func TestVarUpdateWrapsReplicatedTypes(t *testing.T) {
	cases := []any{2, true, game.Cell{X: 1, Z: 3}, game.Player1Color}
	for _, v := range cases {
		u, ok := NewVarUpdate("x", v)
		if !ok {
			t.Fatalf("NewVarUpdate(%T) not ok", v)
		}
		got, ok := u.Value()
		if !ok || got != v {
			t.Fatalf("Value() = %v, %v; want %v", got, ok, v)
		}
	}
	if _, ok := NewVarUpdate("x", "str"); ok {
		t.Fatalf("string should not be a replicated type")
	}
}

func TestVarUpdateSurvivesJSON(t *testing.T) {
	u, _ := NewVarUpdate(VarTurnOwner, 2)
	b, err := Encode(MsgVar, u)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	env, _ := DecodeEnvelope(b)
	out, err := DecodePayload[VarUpdate](env)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	v, ok := out.Value()
	if !ok || v != 2 {
		t.Fatalf("decoded value = %v, %v", v, ok)
	}
}
