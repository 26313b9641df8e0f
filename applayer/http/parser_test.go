package http_test

import (
	"testing"

	"github.com/packetflux/applayer/applayer"
	httpparser "github.com/packetflux/applayer/applayer/http"
	"github.com/packetflux/applayer/flow"
)

func newDispatcher(t *testing.T) *applayer.Dispatcher {
	t.Helper()
	b := httpparser.Register(applayer.NewBuilder())
	registry, err := b.Finalize()
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	d, err := applayer.NewDispatcher(registry)
	if err != nil {
		t.Fatalf("NewDispatcher: %v", err)
	}
	return d
}

func httpState(t *testing.T, f *flow.Flow) *httpparser.State {
	t.Helper()
	v := f.Load(1 + int(httpparser.ProtoID))
	st, ok := v.(*httpparser.State)
	if !ok {
		t.Fatalf("no HTTP state stored on flow")
	}
	return st
}

// Scenario 1: a single chunk, method=GET.
func TestScenario1_SingleChunkGet(t *testing.T) {
	d := newDispatcher(t)
	f := flow.New(flow.NewID())

	input := []byte("GET / HTTP/1.1\r\nUser-Agent: Victor/1.0\r\n\r\n")
	err := d.Parse(f, httpparser.ProtoID, applayer.ToServer, applayer.Start|applayer.EOF, input)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	st := httpState(t, f)
	if st.Method != httpparser.Get {
		t.Errorf("Method = %v, want Get", st.Method)
	}
}

// Scenario 2: a single chunk, method=POST, with a body.
func TestScenario2_SingleChunkPost(t *testing.T) {
	d := newDispatcher(t)
	f := flow.New(flow.NewID())

	input := []byte("POST / HTTP/1.1\r\nUser-Agent: Victor/1.0\r\n\r\nPost Data Is c0oL!")
	err := d.Parse(f, httpparser.ProtoID, applayer.ToServer, applayer.Start|applayer.EOF, input)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	st := httpState(t, f)
	if st.Method != httpparser.Post {
		t.Errorf("Method = %v, want Post", st.Method)
	}
}

// Scenario 3: the request line splits across three chunks.
func TestScenario3_RequestLineSplitAcrossChunks(t *testing.T) {
	d := newDispatcher(t)
	f := flow.New(flow.NewID())

	chunks := []struct {
		data  string
		flags applayer.Flags
	}{
		{"GET / HTTP", applayer.Start},
		{"/1.1\r\n", 0},
		{"User-Agent: Victor/1.0\r\n\r\n", applayer.EOF},
	}
	for _, c := range chunks {
		if err := d.Parse(f, httpparser.ProtoID, applayer.ToServer, c.flags, []byte(c.data)); err != nil {
			t.Fatalf("Parse(%q): %v", c.data, err)
		}
	}

	st := httpState(t, f)
	if st.Method != httpparser.Get {
		t.Errorf("Method = %v, want Get", st.Method)
	}
}

// Scenario 4: an incomplete request line never terminates; method stays
// Unknown.
func TestScenario4_IncompleteRequestLine(t *testing.T) {
	d := newDispatcher(t)
	f := flow.New(flow.NewID())

	err := d.Parse(f, httpparser.ProtoID, applayer.ToServer, applayer.Start|applayer.EOF, []byte("POST"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	st := httpState(t, f)
	if st.Method != httpparser.Unknown {
		t.Errorf("Method = %v, want Unknown", st.Method)
	}
}

// Scenario 5: independent directions interleaved in two calls each.
func TestScenario5_MixedDirection(t *testing.T) {
	d := newDispatcher(t)
	f := flow.New(flow.NewID())

	req := []byte("POST / HTTP/1.1\r\nUser-Agent: Victor/1.0\r\n\r\nPost Data Is c0oL!")
	resp := []byte("HTTP/1.1 200 OK\r\nServer: VictorServer/1.0\r\n\r\npost Results are tha bomb!")

	if err := d.Parse(f, httpparser.ProtoID, applayer.ToServer, applayer.Start|applayer.EOF, req); err != nil {
		t.Fatalf("Parse(request): %v", err)
	}
	if err := d.Parse(f, httpparser.ProtoID, applayer.ToClient, applayer.Start|applayer.EOF, resp); err != nil {
		t.Fatalf("Parse(response): %v", err)
	}

	st := httpState(t, f)
	if st.Method != httpparser.Post {
		t.Errorf("Method = %v, want Post", st.Method)
	}
	if st.ResponseCode != 200 {
		t.Errorf("ResponseCode = %d, want 200", st.ResponseCode)
	}
}

// Scenario 6: the same mixed-direction stream, delivered one byte at a
// time.
func TestScenario6_MixedDirectionByteAtATime(t *testing.T) {
	d := newDispatcher(t)
	f := flow.New(flow.NewID())

	req := []byte("POST / HTTP/1.1\r\nUser-Agent: Victor/1.0\r\n\r\nPost Data Is c0oL!")
	resp := []byte("HTTP/1.1 200 OK\r\nServer: VictorServer/1.0\r\n\r\npost Results are tha bomb!")

	feedByteAtATime(t, d, f, httpparser.ProtoID, applayer.ToServer, req)
	feedByteAtATime(t, d, f, httpparser.ProtoID, applayer.ToClient, resp)

	st := httpState(t, f)
	if st.Method != httpparser.Post {
		t.Errorf("Method = %v, want Post", st.Method)
	}
	if st.ResponseCode != 200 {
		t.Errorf("ResponseCode = %d, want 200", st.ResponseCode)
	}
}

func feedByteAtATime(t *testing.T, d *applayer.Dispatcher, f *flow.Flow, proto applayer.ProtocolID, dir applayer.Direction, data []byte) {
	t.Helper()
	for i, b := range data {
		var flags applayer.Flags
		if i == 0 {
			flags |= applayer.Start
		}
		if i == len(data)-1 {
			flags |= applayer.EOF
		}
		if err := d.Parse(f, proto, dir, flags, []byte{b}); err != nil {
			t.Fatalf("Parse(byte %d): %v", i, err)
		}
	}
}

// An empty chunk with neither Start nor EOF leaves state untouched.
func TestEmptyChunkIsNoop(t *testing.T) {
	d := newDispatcher(t)
	f := flow.New(flow.NewID())

	if err := d.Parse(f, httpparser.ProtoID, applayer.ToServer, 0, nil); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	st := httpState(t, f)
	if st.Method != httpparser.Unknown {
		t.Errorf("Method = %v, want Unknown after empty chunk", st.Method)
	}
}

// Response code parsing preserves the two-path tolerance from the
// original source: ul >= 1000 is rejected, and so is any field longer
// than three bytes, both leaving ResponseCode untouched.
func TestResponseCodeOutOfRangeIgnored(t *testing.T) {
	d := newDispatcher(t)
	f := flow.New(flow.NewID())

	input := []byte("HTTP/1.1 9999 Huh\r\nServer: x\r\n\r\n")
	if err := d.Parse(f, httpparser.ProtoID, applayer.ToClient, applayer.Start|applayer.EOF, input); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	st := httpState(t, f)
	if st.ResponseCode != 0 {
		t.Errorf("ResponseCode = %d, want 0 (out of range, silently ignored)", st.ResponseCode)
	}
}

// Round-trip property: splitting a stream at any single byte offset k
// produces the same final protocol-state as delivering it whole.
func TestRoundTrip_SplitAtEveryOffset(t *testing.T) {
	input := []byte("GET /index.html HTTP/1.1\r\nUser-Agent: test\r\n\r\n")

	whole := runRequest(t, [][]byte{input})
	for k := 1; k < len(input); k++ {
		split := runRequest(t, [][]byte{input[:k], input[k:]})
		if split.Method != whole.Method {
			t.Errorf("split at %d: Method = %v, want %v", k, split.Method, whole.Method)
		}
	}
}

func runRequest(t *testing.T, chunks [][]byte) *httpparser.State {
	t.Helper()
	d := newDispatcher(t)
	f := flow.New(flow.NewID())
	for i, c := range chunks {
		var flags applayer.Flags
		if i == 0 {
			flags |= applayer.Start
		}
		if i == len(chunks)-1 {
			flags |= applayer.EOF
		}
		if err := d.Parse(f, httpparser.ProtoID, applayer.ToServer, flags, c); err != nil {
			t.Fatalf("Parse: %v", err)
		}
	}
	return httpState(t, f)
}
