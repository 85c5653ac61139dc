package udp

import (
	"errors"

	"github.com/google/uuid"
	"github.com/risa-org/rpcline/message"
)

const (
	kindMessage  byte = 0
	kindResponse byte = 1
	frameHeader       = 16 + 1 + 16
)

var errShortDatagram = errors.New("datagram shorter than frame header")

// wireEnvelope is the concrete Message this transport reads and writes. It
// mirrors the tcp package's frame shape minus the length prefix, since a
// single UDP read already returns exactly one datagram.
type wireEnvelope struct {
	id            uuid.UUID
	isResponse    bool
	correlationOf uuid.UUID
	payload       []byte
}

func (w wireEnvelope) ID() uuid.UUID { return w.id }

func (w wireEnvelope) IsResponseFor(other message.Message) bool {
	return w.isResponse && w.correlationOf == other.ID()
}

func (w wireEnvelope) CorrelationID() uuid.UUID { return w.correlationOf }

func (w wireEnvelope) Bytes() []byte { return w.payload }

var _ message.Response = wireEnvelope{}
var _ message.Payloader = wireEnvelope{}

func encodeFrame(msg message.Message) ([]byte, error) {
	id := msg.ID()
	kind := kindMessage
	var corr uuid.UUID
	if resp, ok := msg.(message.Response); ok && resp.CorrelationID() != uuid.Nil {
		kind = kindResponse
		corr = resp.CorrelationID()
	}

	var payload []byte
	if env, ok := msg.(message.Envelope); ok {
		payload = env.Payload
	} else if wm, ok := msg.(wireEnvelope); ok {
		payload = wm.payload
	}

	frame := make([]byte, frameHeader+len(payload))
	copy(frame[0:16], id[:])
	frame[16] = kind
	copy(frame[17:33], corr[:])
	copy(frame[33:], payload)
	return frame, nil
}

func decodeFrame(data []byte) (message.Message, error) {
	if len(data) < frameHeader {
		return nil, errShortDatagram
	}

	var id, corr uuid.UUID
	copy(id[:], data[0:16])
	kind := data[16]
	copy(corr[:], data[17:33])
	payload := append([]byte(nil), data[33:]...)

	return wireEnvelope{
		id:            id,
		isResponse:    kind == kindResponse,
		correlationOf: corr,
		payload:       payload,
	}, nil
}
