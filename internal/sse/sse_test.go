// internal/sse/sse_test.go
package sse

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crisis-atlas/internal/common/logger"
)

func TestEncoderWireFormat(t *testing.T) {
	var buf bytes.Buffer
	enc := NewEncoder(&buf)

	require.NoError(t, enc.Send("status", map[string]string{"status": "analyzing"}))

	assert.Equal(t, "event: status\ndata: {\"status\":\"analyzing\"}\n\n", buf.String())
}

func TestEncoderUnmarshalablePayload(t *testing.T) {
	var buf bytes.Buffer
	enc := NewEncoder(&buf)

	err := enc.Send("status", func() {})
	require.Error(t, err)
	assert.Empty(t, buf.String(), "nothing may be written for a failed marshal")
}

func TestDecoderSingleDelivery(t *testing.T) {
	dec := NewDecoder(logger.NewNop())

	events := dec.Write([]byte("event: status\ndata: {\"status\":\"orchestrating\"}\n\n"))
	require.Len(t, events, 1)
	assert.Equal(t, "status", events[0].Name)
	assert.JSONEq(t, `{"status":"orchestrating"}`, string(events[0].Data))
}

// Decoding must be invariant under how the transport fragments the byte
// stream: any split of the same bytes yields the same event sequence.
func TestDecoderChunkingInvariance(t *testing.T) {
	var buf bytes.Buffer
	enc := NewEncoder(&buf)
	require.NoError(t, enc.Send("status", map[string]string{"status": "analyzing"}))
	require.NoError(t, enc.Send("agent_chunk", map[string]string{"agent": "economy", "chunk": "Trade "}))
	require.NoError(t, enc.Send("agent_chunk", map[string]string{"agent": "economy", "chunk": "routes"}))
	require.NoError(t, enc.Send("complete", map[string]int{"compound_risk_score": 70}))
	stream := buf.Bytes()

	decodeAll := func(chunkSize int) []Event {
		dec := NewDecoder(logger.NewNop())
		var events []Event
		for i := 0; i < len(stream); i += chunkSize {
			end := i + chunkSize
			if end > len(stream) {
				end = len(stream)
			}
			events = append(events, dec.Write(stream[i:end])...)
		}
		events = append(events, dec.Flush()...)
		return events
	}

	want := decodeAll(len(stream))
	require.Len(t, want, 4)

	for _, size := range []int{1, 2, 3, 5, 7, 16, 64} {
		got := decodeAll(size)
		require.Len(t, got, len(want), "chunk size %d", size)
		for i := range want {
			assert.Equal(t, want[i].Name, got[i].Name, "chunk size %d event %d", size, i)
			assert.JSONEq(t, string(want[i].Data), string(got[i].Data), "chunk size %d event %d", size, i)
		}
	}
}

// The event name and its data line arriving in separate deliveries is the
// regression this decoder exists to prevent.
func TestDecoderNameAndDataSplitAcrossDeliveries(t *testing.T) {
	dec := NewDecoder(logger.NewNop())

	events := dec.Write([]byte("event: agent_complete\n"))
	assert.Empty(t, events)

	events = dec.Write([]byte("data: {\"agent\":\"geopolitics\"}\n\n"))
	require.Len(t, events, 1)
	assert.Equal(t, "agent_complete", events[0].Name)
}

func TestDecoderPartialLineCarryOver(t *testing.T) {
	dec := NewDecoder(logger.NewNop())

	assert.Empty(t, dec.Write([]byte("event: sta")))
	assert.Empty(t, dec.Write([]byte("tus\ndata: {\"status\":")))
	events := dec.Write([]byte("\"synthesizing\"}\n\n"))

	require.Len(t, events, 1)
	assert.Equal(t, "status", events[0].Name)
	assert.JSONEq(t, `{"status":"synthesizing"}`, string(events[0].Data))
}

func TestDecoderDropsMalformedPayload(t *testing.T) {
	dec := NewDecoder(logger.NewNop())

	events := dec.Write([]byte("event: status\ndata: {not json\n\nevent: complete\ndata: {\"compound_risk_score\":40}\n\n"))

	require.Len(t, events, 1, "malformed event dropped, following event intact")
	assert.Equal(t, "complete", events[0].Name)
}

func TestDecoderIgnoresDataWithoutName(t *testing.T) {
	dec := NewDecoder(logger.NewNop())

	events := dec.Write([]byte("data: {\"orphan\":true}\n\n"))
	assert.Empty(t, events)
}

func TestDecoderRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	enc := NewEncoder(&buf)

	type payload struct {
		Agent string `json:"agent"`
		Chunk string `json:"chunk"`
	}
	require.NoError(t, enc.Send("agent_chunk", payload{Agent: "food_supply", Chunk: "Wheat exports\nhalted"}))

	dec := NewDecoder(logger.NewNop())
	events := dec.Write(buf.Bytes())

	require.Len(t, events, 1)
	var got payload
	require.NoError(t, json.Unmarshal(events[0].Data, &got))
	assert.Equal(t, "food_supply", got.Agent)
	assert.Equal(t, "Wheat exports\nhalted", got.Chunk)
}
