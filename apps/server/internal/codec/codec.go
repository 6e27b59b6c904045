// Package codec converts game state to and from its wire and archive forms.
package codec

import (
	"encoding/json"
	"fmt"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"stealsplit/game"
)

var deterministic = proto.MarshalOptions{Deterministic: true}

// StateToProto converts a session snapshot into a protobuf Struct using the
// same field names as the JSON API.
func StateToProto(state game.State) (*structpb.Struct, error) {
	raw, err := json.Marshal(state)
	if err != nil {
		return nil, fmt.Errorf("marshal state: %w", err)
	}
	st := &structpb.Struct{}
	if err := protojson.Unmarshal(raw, st); err != nil {
		return nil, fmt.Errorf("state to proto: %w", err)
	}
	return st, nil
}

// ProtoToState is the inverse of StateToProto.
func ProtoToState(st *structpb.Struct) (game.State, error) {
	raw, err := protojson.Marshal(st)
	if err != nil {
		return game.State{}, fmt.Errorf("proto to json: %w", err)
	}
	var state game.State
	if err := json.Unmarshal(raw, &state); err != nil {
		return game.State{}, fmt.Errorf("unmarshal state: %w", err)
	}
	return state, nil
}

// EncodeState returns the binary protobuf tape for a state. Encoding is
// deterministic so equal states produce equal bytes.
func EncodeState(state game.State) ([]byte, error) {
	st, err := StateToProto(state)
	if err != nil {
		return nil, err
	}
	return deterministic.Marshal(st)
}

func DecodeState(tape []byte) (game.State, error) {
	st := &structpb.Struct{}
	if err := proto.Unmarshal(tape, st); err != nil {
		return game.State{}, fmt.Errorf("decode state tape: %w", err)
	}
	return ProtoToState(st)
}
