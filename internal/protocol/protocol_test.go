package protocol

import (
	"errors"
	"testing"

	"github.com/gorilla/websocket"

	"github.com/Ning0612/Filegraph/internal/domain"
)

func TestParseStart(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		wantErr bool
		want    Start
	}{
		{"valid", `{"type":"start","root":"/srv/photos"}`, false, Start{Type: "start", Root: "/srv/photos"}},
		{"watch", `{"type":"start","root":"/r","watch":true}`, false, Start{Type: "start", Root: "/r", Watch: true}},
		{"wrong type", `{"type":"stop","root":"/r"}`, true, Start{}},
		{"missing root", `{"type":"start"}`, true, Start{}},
		{"not json", `start /r`, true, Start{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseStart([]byte(tt.in))
			if tt.wantErr {
				if !errors.Is(err, domain.ErrBadStart) {
					t.Errorf("ParseStart() error = %v, want ErrBadStart", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseStart() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseStart() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestDecodeFrame(t *testing.T) {
	f, err := DecodeFrame([]byte(`{"path":"/r/a.txt","size":10,"parent_dir":".","file_type":"txt","size_on_disk":4096,"created":"2024-03-01T10:00:00.123456","accessed":null}`))
	if err != nil {
		t.Fatalf("DecodeFrame(record) error = %v", err)
	}
	if f.IsError() || f.Record.Path != "/r/a.txt" || f.Record.Size != 10 || f.Record.SizeOnDisk != 4096 {
		t.Errorf("record frame = %+v", f)
	}
	if f.Record.Created.IsZero() || !f.Record.Accessed.IsZero() {
		t.Errorf("timestamps = %v / %v", f.Record.Created, f.Record.Accessed)
	}

	f, err = DecodeFrame([]byte(`{"error":"Invalid directory: /nope"}`))
	if err != nil {
		t.Fatalf("DecodeFrame(error) error = %v", err)
	}
	if !f.IsError() || f.Error != "Invalid directory: /nope" {
		t.Errorf("error frame = %+v", f)
	}

	if _, err := DecodeFrame([]byte(`[1,2]`)); !errors.Is(err, domain.ErrInvalidRecord) {
		t.Errorf("DecodeFrame(array) error = %v", err)
	}
	if _, err := DecodeFrame([]byte(`{"path":"/r/a","size":"big"}`)); !errors.Is(err, domain.ErrInvalidRecord) {
		t.Errorf("DecodeFrame(bad size) error = %v", err)
	}
}

func TestCleanClose(t *testing.T) {
	if !CleanClose(&websocket.CloseError{Code: CloseDone}) {
		t.Error("1000 should be clean")
	}
	if CleanClose(&websocket.CloseError{Code: CloseScanFailure}) {
		t.Error("1011 should not be clean")
	}
	if CleanClose(errors.New("read: connection reset")) {
		t.Error("transport error should not be clean")
	}
}
