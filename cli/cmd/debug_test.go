package cmd

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/pithecene-io/targetwire/ipc"
)

func TestDebugFrames_DescribesStream(t *testing.T) {
	stream := emitStream(t, "--count", "2")

	out, _, err := runApp(t, stream, "debug", "frames", "--format", "json")
	if err != nil {
		t.Fatalf("debug frames failed: %v", err)
	}

	var infos []FrameInfo
	if err := json.Unmarshal(out, &infos); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}

	wantKinds := []string{"control", "result", "result", "control"}
	if len(infos) != len(wantKinds) {
		t.Fatalf("len(infos) = %d, want %d", len(infos), len(wantKinds))
	}

	var offset int64
	for i, info := range infos {
		if info.Kind != wantKinds[i] || info.Status != frameOK {
			t.Errorf("frame %d = %s/%s, want %s/ok", i, info.Kind, info.Status, wantKinds[i])
		}
		if info.Offset != offset {
			t.Errorf("frame %d offset = %d, want %d", i, info.Offset, offset)
		}
		offset += int64(info.Size)
	}
	if offset != int64(len(stream)) {
		t.Errorf("frame sizes sum to %d, want %d", offset, len(stream))
	}
	if infos[0].Detail != "hello" || infos[3].Detail != "bye" {
		t.Errorf("control details = %q/%q, want hello/bye", infos[0].Detail, infos[3].Detail)
	}
	if infos[1].Detail != "sequence 0" || infos[1].Targets != 3 {
		t.Errorf("frame 1 = %+v, want sequence 0 with 3 targets", infos[1])
	}
}

func TestDescribeFrames_Errors(t *testing.T) {
	var buf bytes.Buffer
	enc := ipc.NewFrameEncoder(&buf)
	if _, err := enc.WriteFrame(ipc.KindResult, []byte{0xff}); err != nil {
		t.Fatal(err)
	}
	buf.Write([]byte{0x10, 0x00}) // half a length prefix

	infos, err := describeFrames(&buf)
	if err == nil {
		t.Fatal("expected error for stream cut inside a frame")
	}
	if len(infos) != 2 {
		t.Fatalf("len(infos) = %d, want 2", len(infos))
	}
	if infos[0].Status != frameError || infos[0].Detail == "" {
		t.Errorf("frame 0 = %+v, want error with detail", infos[0])
	}
	if infos[1].Status != frameFatal || infos[1].Offset != int64(infos[0].Size) {
		t.Errorf("frame 1 = %+v, want fatal at offset %d", infos[1], infos[0].Size)
	}
}

func TestDebugFrames_TruncatedExitCode(t *testing.T) {
	stream := emitStream(t, "--count", "1")
	_, _, err := runApp(t, stream[:len(stream)-1], "debug", "frames", "--format", "json")
	if got := exitCode(err); got != exitDecodeFailure {
		t.Errorf("exit code = %d, want %d (err: %v)", got, exitDecodeFailure, err)
	}
}
