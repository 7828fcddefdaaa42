package storage

import (
	"errors"
	"testing"

	"evolvenet/internal/model"
)

func TestNetworkCodecRoundTrip(t *testing.T) {
	input := model.NetworkRecord{
		VersionedRecord: CurrentVersion(),
		ID:              "net-1",
		Activation:      "tanh",
		Weights:         [][][]float64{{{0.5, -0.25}, {1, 0}}, {{2, 3, 4}}},
	}
	data, err := EncodeNetwork(input)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	output, err := DecodeNetwork(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if output.ID != input.ID || output.Activation != "tanh" || output.Weights[1][0][2] != 4 {
		t.Fatalf("unexpected decoded network: %+v", output)
	}
}

func TestDecodeRejectsVersionMismatch(t *testing.T) {
	data, err := EncodeRun(model.RunRecord{
		VersionedRecord: model.VersionedRecord{SchemaVersion: 99, CodecVersion: 1},
		ID:              "run-1",
	})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if _, err := DecodeRun(data); !errors.Is(err, ErrVersionMismatch) {
		t.Fatalf("expected ErrVersionMismatch, got %v", err)
	}
	if _, err := DecodeNetwork([]byte(`{"id":"n"}`)); !errors.Is(err, ErrVersionMismatch) {
		t.Fatalf("expected ErrVersionMismatch for unversioned network, got %v", err)
	}
}

func TestDecodeRejectsMalformedPayload(t *testing.T) {
	if _, err := DecodeFitnessHistory([]byte("not-json")); err == nil {
		t.Fatal("expected decode error")
	}
}
