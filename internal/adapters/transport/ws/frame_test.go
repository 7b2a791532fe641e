package ws

import (
	"encoding/json"
	"testing"
)

func TestDecodeFrame(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		want    frame
		wantErr bool
	}{
		{
			name: "event frame",
			data: `{"type":"event","channel":"yard/motion","event_id":"evt-1","ts":1717243200000,"seq":42}`,
			want: frame{Type: frameEvent, Channel: "yard/motion", EventID: "evt-1", Timestamp: 1717243200000, Sequence: 42},
		},
		{
			name: "caught up frame",
			data: `{"type":"caught_up","channel":"yard/motion"}`,
			want: frame{Type: frameCaughtUp, Channel: "yard/motion"},
		},
		{
			name: "ping frame",
			data: `{"type":"ping"}`,
			want: frame{Type: framePing},
		},
		{
			name:    "missing type",
			data:    `{"channel":"yard/motion"}`,
			wantErr: true,
		},
		{
			name:    "not json",
			data:    `event yard/motion 42`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decodeFrame([]byte(tt.data))
			if (err != nil) != tt.wantErr {
				t.Fatalf("decodeFrame error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if got.Type != tt.want.Type || got.Channel != tt.want.Channel ||
				got.EventID != tt.want.EventID || got.Timestamp != tt.want.Timestamp ||
				got.Sequence != tt.want.Sequence {
				t.Errorf("decodeFrame = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestSubscribeFrameEncoding(t *testing.T) {
	f := subscribeFrame([]string{"yard/motion", "lobby/doorbell"})

	data, err := json.Marshal(f)
	if err != nil {
		t.Fatal(err)
	}

	decoded, err := decodeFrame(data)
	if err != nil {
		t.Fatalf("decodeFrame: %v", err)
	}
	if decoded.Type != frameSubscribe || len(decoded.Channels) != 2 {
		t.Errorf("round-tripped frame = %+v", decoded)
	}
}
